package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxImageUpload = 10 << 20 // 10 MiB

func (s *Server) postTextMessage(w http.ResponseWriter, r *http.Request, taskID int64) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.Messages.PostText(r.Context(), currentUser(r), taskID, req.Text)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": id})
}

// postImageMessage hands the uploaded bytes to the blob store and records
// only the resulting reference in the thread.
func (s *Server) postImageMessage(w http.ResponseWriter, r *http.Request, taskID int64) {
	if err := r.ParseMultipartForm(maxImageUpload); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("task_%d_message_%s%s", taskID, uuid.NewString(), ext)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := s.Blobs.Put(r.Context(), key, contentType, file)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, err := s.Messages.PostImage(r.Context(), currentUser(r), taskID, url)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": id, "image_url": url})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request, taskID int64) {
	q := r.URL.Query()
	offset := int(parseID(q.Get("offset")))
	limit := int(parseID(q.Get("limit")))
	list, err := s.Messages.List(r.Context(), currentUser(r), taskID, offset, limit)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"items": list})
}
