// Copyright 2025 Certen Protocol

package server

import (
	"encoding/json"
	"net/http"

	"github.com/xtergo/dnaresearch/pkg/access"
	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/genomic"
)

type genomicStoreRequest struct {
	Sequence     string `json:"sequence"`
	Reference    string `json:"reference"`
	IndividualID string `json:"individual_id"`
	VCFText      string `json:"vcf_text"`
}

// HandleGenomicStore handles POST /genomic/store. Requires
// READ_GENOMIC_DATA consent (the anchor+diff store is itself raw
// genomic data at rest).
func (h *Handlers) HandleGenomicStore(w http.ResponseWriter, r *http.Request) {
	if !h.requireAccess(w, r, access.ActionReadGenomicData, "") {
		return
	}

	var req genomicStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}

	anchor := h.Genomic.CreateAnchor(req.Sequence, req.Reference)

	variants := genomic.ParseVCF(req.VCFText)
	diffs, err := h.Genomic.StoreDifferences(anchor.AnchorID, req.IndividualID, variants)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"anchor":      anchor,
		"differences": diffs,
	})
}

// HandleMaterialize handles GET /genomic/materialize/{id}/{anchor}.
// {id} is the individual_id. Requires READ_GENOMIC_DATA consent.
func (h *Handlers) HandleMaterialize(w http.ResponseWriter, r *http.Request) {
	individualID := r.PathValue("id")
	anchorID := r.PathValue("anchor")
	if !h.requireAccess(w, r, access.ActionReadGenomicData, anchorID) {
		return
	}

	sequence, err := h.Genomic.Materialize(individualID, anchorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"individual_id": individualID, "anchor_id": anchorID, "sequence": sequence})
}
