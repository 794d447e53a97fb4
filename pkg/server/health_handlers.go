// Copyright 2025 Certen Protocol

package server

import (
	"net/http"
	"time"
)

// HandleHealth handles GET /health. Liveness only; no dependency checks.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}
