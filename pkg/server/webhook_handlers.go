// Copyright 2025 Certen Protocol

package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/webhook"
)

type webhookPayload struct {
	EventType string         `json:"event_type"`
	Metadata  map[string]any `json:"metadata"`
}

// HandleWebhook handles POST /webhooks/sequencing/{partner}. Auth is
// HMAC, not consent; the X-Signature header carries
// "sha256=<hex>" over the raw request body.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	partnerID := r.PathValue("partner")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "could not read request body"))
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}

	data := map[string]any{}
	for k, v := range payload.Metadata {
		data[k] = v
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		for k, v := range raw {
			if k == "metadata" || k == "event_type" {
				continue
			}
			data[k] = v
		}
	}

	signature := r.Header.Get("X-Signature")
	event, err := h.Webhook.Ingest(partnerID, webhook.EventType(payload.EventType), data, body, signature)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, event)
}
