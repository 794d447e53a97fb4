// Copyright 2025 Certen Protocol

package server

import (
	"encoding/json"
	"net/http"

	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/upload"
)

type presignRequest struct {
	Filename string          `json:"filename"`
	Size     int64           `json:"size"`
	FileType upload.FileType `json:"file_type"`
	Checksum string          `json:"checksum"`
	UserID   string          `json:"user_id"`
	TTLHours int             `json:"ttl_hours"`
}

// HandlePresign handles POST /files/presign.
func (h *Handlers) HandlePresign(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}

	up, err := h.Upload.CreatePresigned(req.Filename, req.Size, req.FileType, req.Checksum, req.UserID, req.TTLHours)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, up)
}

type completeRequest struct {
	ActualChecksum string `json:"actual_checksum"`
}

// HandleUploadComplete handles POST /files/{id}/complete.
func (h *Handlers) HandleUploadComplete(w http.ResponseWriter, r *http.Request) {
	uploadID := r.PathValue("id")

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}

	status, err := h.Upload.Complete(uploadID, req.ActualChecksum)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"upload_id": uploadID, "status": status})
}
