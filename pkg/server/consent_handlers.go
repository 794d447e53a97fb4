// Copyright 2025 Certen Protocol

package server

import (
	"encoding/json"
	"net/http"

	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/consent"
)

type consentCaptureRequest struct {
	UserID    string         `json:"user_id"`
	FormID    string         `json:"form_id"`
	UserData  map[string]any `json:"user_data"`
	Signature string         `json:"signature"`
}

// HandleConsentCapture handles POST /consent/capture.
func (h *Handlers) HandleConsentCapture(w http.ResponseWriter, r *http.Request) {
	var req consentCaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}

	rec, err := h.Consent.Capture(req.UserID, req.FormID, req.UserData, r.RemoteAddr, r.UserAgent(), req.Signature)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, rec)
}

type consentWithdrawRequest struct {
	UserID      string `json:"user_id"`
	ConsentType string `json:"consent_type"`
	Reason      string `json:"reason"`
}

// HandleConsentWithdraw handles POST /consent/withdraw.
func (h *Handlers) HandleConsentWithdraw(w http.ResponseWriter, r *http.Request) {
	var req consentWithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}

	withdrew, err := h.Consent.Withdraw(req.UserID, consent.ConsentType(req.ConsentType), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"withdrew": withdrew})
}

// HandleConsentCheck handles GET /consent/check/{user}?consent_type=.
func (h *Handlers) HandleConsentCheck(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	consentType := consent.ConsentType(r.URL.Query().Get("consent_type"))
	granted := h.Consent.Check(userID, consentType)
	writeJSON(w, map[string]any{"user_id": userID, "consent_type": consentType, "granted": granted})
}
