// Copyright 2025 Certen Protocol

package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/xtergo/dnaresearch/pkg/access"
	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/theory"
)

// HandleCreateTheory handles POST /theories.
func (h *Handlers) HandleCreateTheory(w http.ResponseWriter, r *http.Request) {
	var t theory.Theory
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}
	created, err := h.Theory.Create(t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

// HandleListTheories handles GET /theories with filter/sort/paginate
// query parameters.
func (h *Handlers) HandleListTheories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := theory.Filter{
		Scope:     theory.Scope(q.Get("scope")),
		Lifecycle: theory.Lifecycle(q.Get("lifecycle")),
		Author:    q.Get("author"),
		Search:    q.Get("search"),
	}
	if raw := q.Get("has_comments"); raw != "" {
		if hasComments, err := strconv.ParseBool(raw); err == nil {
			filter.HasComments = &hasComments
		}
	}
	sortKey := theory.SortKey(q.Get("sort"))
	descending := q.Get("order") == "desc"
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	page := h.Theory.List(filter, sortKey, descending, limit, offset)
	writeJSON(w, map[string]any{
		"theories": page.Theories,
		"total":    page.Total,
		"has_more": page.HasMore,
	})
}

type commentRequest struct {
	Version string `json:"version"`
	Comment string `json:"comment"`
}

// HandleAddComment handles POST /theories/{id}/comments.
func (h *Handlers) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}
	t, err := h.Theory.AddComment(id, req.Version, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, t)
}

// HandleGetTheory handles GET /theories/{id}?version=.
func (h *Handlers) HandleGetTheory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	version := r.URL.Query().Get("version")
	t, err := h.Theory.Get(id, version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, t)
}

type executeRequest struct {
	Version  string `json:"version"`
	VCFText  string `json:"vcf_text"`
	FamilyID string `json:"family_id"`
}

// HandleExecuteTheory handles POST /theories/{id}/execute. Requires
// EXECUTE_THEORY consent.
func (h *Handlers) HandleExecuteTheory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.requireAccess(w, r, access.ActionExecuteTheory, id) {
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}

	t, err := h.Theory.Get(id, req.Version)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.Theory.Execute(*t, req.VCFText, req.FamilyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

type evidenceRequest struct {
	Version      string  `json:"version"`
	FamilyID     string  `json:"family_id"`
	BayesFactor  float64 `json:"bayes_factor"`
	EvidenceType string  `json:"evidence_type"`
	Weight       float64 `json:"weight"`
	Source       string  `json:"source"`
}

// HandleAddEvidence handles POST /theories/{id}/evidence.
func (h *Handlers) HandleAddEvidence(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req evidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}
	if err := h.Evidence.AddEvidence(id, req.Version, req.FamilyID, req.BayesFactor, req.EvidenceType, req.Weight, req.Source); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{"recorded": true})
}

// HandlePosterior handles GET /theories/{id}/posterior?prior&version.
func (h *Handlers) HandlePosterior(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	version := r.URL.Query().Get("version")
	prior, err := strconv.ParseFloat(r.URL.Query().Get("prior"), 64)
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "prior must be a number"))
		return
	}
	result := h.Evidence.UpdatePosterior(id, version, prior)
	writeJSON(w, result)
}

type forkRequest struct {
	NewID         string                  `json:"new_id"`
	Modifications []theory.Modification   `json:"modifications"`
	Reason        string                  `json:"reason"`
	ParentVersion string                  `json:"parent_version"`
}

// HandleForkTheory handles POST /theories/{id}/fork.
func (h *Handlers) HandleForkTheory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "could not read request body"))
		return
	}
	var req forkRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}

	parent, err := h.Theory.Get(id, req.ParentVersion)
	if err != nil {
		writeError(w, err)
		return
	}

	forkResult, child, err := h.Theory.Fork(*parent, req.NewID, req.Modifications, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{"fork": forkResult, "theory": child})
}
