package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/errandly/errandly/internal/consts"
	"github.com/errandly/errandly/internal/model"
)

type taskView struct {
	ID            int64      `json:"id"`
	Description   string     `json:"description"`
	MinPrice      int64      `json:"min_price"`
	MaxPrice      int64      `json:"max_price"`
	Status        string     `json:"status"`
	RequestedByID int64      `json:"requested_by_id"`
	ExecutedByID  *int64     `json:"executed_by_id,omitempty"`
	SubmittedTime *time.Time `json:"submitted_time,omitempty"`
	AcceptedTime  *time.Time `json:"accepted_time,omitempty"`
	CompletedTime *time.Time `json:"completed_time,omitempty"`
	CanceledTime  *time.Time `json:"canceled_time,omitempty"`
}

func toTaskView(t *model.Task) taskView {
	return taskView{
		ID:            t.ID,
		Description:   t.Description,
		MinPrice:      t.MinPrice,
		MaxPrice:      t.MaxPrice,
		Status:        string(t.Status()),
		RequestedByID: t.RequestedByID,
		ExecutedByID:  t.ExecutedByID,
		SubmittedTime: t.SubmittedTime,
		AcceptedTime:  t.AcceptedTime,
		CompletedTime: t.CompletedTime,
		CanceledTime:  t.CanceledTime,
	}
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description     string `json:"description"`
		MinPrice        int64  `json:"min_price"`
		MaxPrice        int64  `json:"max_price"`
		PaymentMethodID string `json:"payment_method_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.Tasks.Submit(r.Context(), currentUser(r), req.Description, req.MinPrice, req.MaxPrice, req.PaymentMethodID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": id})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, taskID int64) {
	t, err := s.Tasks.Get(r.Context(), taskID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, toTaskView(t))
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &model.TaskListFilters{}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		switch consts.TaskStatus(strings.ToLower(raw)) {
		case consts.TaskUnassigned, consts.TaskAccepted, consts.TaskCompleted, consts.TaskCanceled:
			filters.Status = consts.TaskStatus(strings.ToLower(raw))
		default:
			writeErr(w, http.StatusBadRequest, "invalid status")
			return
		}
	}
	filters.RequestedByID = parseID(q.Get("requested_by_id"))
	filters.ExecutedByID = parseID(q.Get("executed_by_id"))
	limit := int(parseID(q.Get("limit")))
	offset := int(parseID(q.Get("offset")))

	list, err := s.Tasks.List(r.Context(), currentUser(r), filters, limit, offset)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	items := make([]taskView, 0, len(list))
	for _, t := range list {
		items = append(items, toTaskView(t))
	}
	writeJSON(w, map[string]any{"items": items})
}

func (s *Server) acceptTask(w http.ResponseWriter, r *http.Request, taskID int64) {
	id, err := s.Tasks.Claim(r.Context(), currentUser(r), taskID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": id})
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request, taskID int64) {
	id, err := s.Tasks.Complete(r.Context(), currentUser(r), taskID)
	if err != nil {
		// The task may be completed even when err is set: payment capture
		// failure does not roll the transition back, it is reported so the
		// caller can route the charge to reconciliation.
		if id != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(errStatus(err))
			_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "error": err.Error()})
			return
		}
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": id})
}

func (s *Server) cancelTask(w http.ResponseWriter, r *http.Request, taskID int64) {
	id, err := s.Tasks.Cancel(r.Context(), currentUser(r), taskID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": id})
}

func parseID(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
