// Copyright 2025 Certen Protocol
//
// Package server wires every domain component into the HTTP surface.
// One handler file per resource, net/http only, no router framework.

package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/xtergo/dnaresearch/pkg/access"
	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/cache"
	"github.com/xtergo/dnaresearch/pkg/compliance"
	"github.com/xtergo/dnaresearch/pkg/consent"
	"github.com/xtergo/dnaresearch/pkg/evidence"
	"github.com/xtergo/dnaresearch/pkg/genomic"
	"github.com/xtergo/dnaresearch/pkg/ledger"
	"github.com/xtergo/dnaresearch/pkg/theory"
	"github.com/xtergo/dnaresearch/pkg/upload"
	"github.com/xtergo/dnaresearch/pkg/webhook"
)

// Version is surfaced on GET /health.
const Version = "1.0.0"

// Handlers bundles every component the HTTP boundary dispatches to.
type Handlers struct {
	logger *log.Logger

	Ledger     *ledger.Ledger
	Consent    *consent.Store
	Access     *access.Gate
	Genomic    *genomic.Store
	Evidence   *evidence.Accumulator
	Theory     *theory.Engine
	Webhook    *webhook.Pipeline
	Cache      *cache.Cache
	Compliance *compliance.Registry
	Upload     *upload.Coordinator

	GeneCatalog *GeneCatalog
}

// New builds a Handlers bundle from the already-constructed components.
func New(
	l *ledger.Ledger,
	c *consent.Store,
	a *access.Gate,
	g *genomic.Store,
	ev *evidence.Accumulator,
	t *theory.Engine,
	w *webhook.Pipeline,
	ca *cache.Cache,
	co *compliance.Registry,
	u *upload.Coordinator,
	catalog *GeneCatalog,
) *Handlers {
	return &Handlers{
		logger:      log.New(log.Writer(), "[Server] ", log.LstdFlags),
		Ledger:      l,
		Consent:     c,
		Access:      a,
		Genomic:     g,
		Evidence:    ev,
		Theory:      t,
		Webhook:     w,
		Cache:       ca,
		Compliance:  co,
		Upload:      u,
		GeneCatalog: catalog,
	}
}

// Mux builds the full route table on a fresh http.ServeMux.
func (h *Handlers) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.HandleHealth)

	mux.HandleFunc("GET /genes/search", h.HandleGeneSearch)
	mux.HandleFunc("GET /genes/{symbol}", h.HandleGeneMetadata)
	mux.HandleFunc("POST /genes/{gene}/interpret", h.HandleInterpretVariants)

	mux.HandleFunc("POST /theories", h.HandleCreateTheory)
	mux.HandleFunc("GET /theories", h.HandleListTheories)
	mux.HandleFunc("GET /theories/{id}", h.HandleGetTheory)
	mux.HandleFunc("POST /theories/{id}/execute", h.HandleExecuteTheory)
	mux.HandleFunc("POST /theories/{id}/evidence", h.HandleAddEvidence)
	mux.HandleFunc("GET /theories/{id}/posterior", h.HandlePosterior)
	mux.HandleFunc("POST /theories/{id}/fork", h.HandleForkTheory)
	mux.HandleFunc("POST /theories/{id}/comments", h.HandleAddComment)

	mux.HandleFunc("POST /genomic/store", h.HandleGenomicStore)
	mux.HandleFunc("GET /genomic/materialize/{id}/{anchor}", h.HandleMaterialize)

	mux.HandleFunc("POST /consent/capture", h.HandleConsentCapture)
	mux.HandleFunc("POST /consent/withdraw", h.HandleConsentWithdraw)
	mux.HandleFunc("GET /consent/check/{user}", h.HandleConsentCheck)

	mux.HandleFunc("POST /webhooks/sequencing/{partner}", h.HandleWebhook)

	mux.HandleFunc("POST /files/presign", h.HandlePresign)
	mux.HandleFunc("POST /files/{id}/complete", h.HandleUploadComplete)

	return mux
}

// writeJSON encodes v as the response body with a 200 status, unless
// status is given explicitly via writeJSONStatus.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError maps err through the apperr taxonomy to a uniform
// {error, detail, audit_id?} body and status code, regardless of
// which component produced the failure.
func writeError(w http.ResponseWriter, err error) {
	e := apperr.Wrap(err)
	body := map[string]any{"error": string(e.Kind), "detail": e.Message}
	if len(e.Detail) > 0 {
		body["fields"] = e.Detail
	}
	if e.AuditID != "" {
		body["audit_id"] = e.AuditID
		w.Header().Set("X-Access-Audit-ID", e.AuditID)
	}
	writeJSONStatus(w, apperr.HTTPStatus(e.Kind), body)
}

// userID resolves the identity the boundary is responsible for
// authenticating before the core is invoked.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// requireAccess runs the access gate for action and writes a 403 body
// (with the audit id) if denied. Returns false on denial so the
// caller can stop handling the request.
func (h *Handlers) requireAccess(w http.ResponseWriter, r *http.Request, act access.Action, resourceID string) bool {
	res := h.Access.Check(access.Request{
		UserID:     userID(r),
		Action:     act,
		ResourceID: resourceID,
		IPAddress:  r.RemoteAddr,
	})
	w.Header().Set("X-Access-Audit-ID", res.AuditID)
	if !res.Granted {
		writeError(w, access.AsError(res))
		return false
	}
	return true
}
