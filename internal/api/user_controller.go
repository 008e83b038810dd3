package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
		Identity    string `json:"identity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.Users.Register(r.Context(), req.DisplayName, req.Identity)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": id})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, targetID int64) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Users.UpdateDisplayName(r.Context(), currentUser(r), targetID, req.DisplayName); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": targetID})
}

func (s *Server) updateBlockedUsers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BlockedUserIDs []int64 `json:"blocked_user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	caller := currentUser(r)
	if err := s.Users.SetBlockedUsers(r.Context(), caller, req.BlockedUserIDs); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": caller.ID})
}

func (s *Server) updateMinTaskPrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MinTaskPrice int64 `json:"min_task_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	caller := currentUser(r)
	if err := s.Users.SetMinTaskPrice(r.Context(), caller, req.MinTaskPrice); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": caller.ID})
}
