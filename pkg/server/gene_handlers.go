// Copyright 2025 Certen Protocol

package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/xtergo/dnaresearch/pkg/access"
	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/genomic"
)

// HandleGeneSearch handles GET /genes/search?query&limit.
func (h *Handlers) HandleGeneSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, map[string]any{"genes": h.GeneCatalog.Search(query, limit)})
}

// HandleGeneMetadata handles GET /genes/{symbol}.
func (h *Handlers) HandleGeneMetadata(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	info, ok := h.GeneCatalog.Get(symbol)
	if !ok {
		writeError(w, apperr.Newf(apperr.NotFound, "gene %q not found", symbol))
		return
	}
	writeJSON(w, info)
}

type interpretRequest struct {
	VCFText string `json:"vcf_text"`
}

// HandleInterpretVariants handles POST /genes/{gene}/interpret.
// Requires ANALYZE_VARIANTS consent. It parses the submitted VCF body
// and reports how many variants fall inside the named gene's region,
// a lighter-weight companion to the full theory execution workflow.
func (h *Handlers) HandleInterpretVariants(w http.ResponseWriter, r *http.Request) {
	gene := r.PathValue("gene")
	if !h.requireAccess(w, r, access.ActionAnalyzeVariants, gene) {
		return
	}

	var req interpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "request body must be valid JSON"))
		return
	}

	info, ok := h.GeneCatalog.Get(gene)
	if !ok {
		writeError(w, apperr.Newf(apperr.NotFound, "gene %q not found", gene))
		return
	}

	variants := genomic.ParseVCF(req.VCFText)
	hits := 0
	for _, v := range variants {
		if v.Chromosome == info.Chromosome && v.Position >= info.Start && v.Position <= info.End {
			hits++
		}
	}

	writeJSON(w, map[string]any{
		"gene":           gene,
		"variant_count":  len(variants),
		"gene_hit_count": hits,
	})
}
