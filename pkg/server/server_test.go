// Copyright 2025 Certen Protocol

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xtergo/dnaresearch/pkg/access"
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

func newTestHandlers() *Handlers {
	l := ledger.New()
	cs := consent.New(consent.WithLedger(l))
	gate := access.New(cs, access.WithLedger(l))
	gs := genomic.New()
	ev := evidence.New()
	th := theory.New(theory.WithEvidence(ev), theory.WithLedger(l))
	wh := webhook.New(webhook.WithLedger(l))
	ca := cache.New()
	co := compliance.New(compliance.WithCache(ca))
	up := upload.New("test-secret")

	catalog := NewGeneCatalog(map[string][]GeneInfo{
		"BRCA1": {{Chromosome: "17", Start: 43044295, End: 43125483}},
	})

	return New(l, cs, gate, gs, ev, th, wh, ca, co, up, catalog)
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandlers()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected status field: %v", body["status"])
	}
}

func TestHandleGeneMetadata_Found(t *testing.T) {
	h := newTestHandlers()
	req := httptest.NewRequest(http.MethodGet, "/genes/BRCA1", nil)
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var info GeneInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.Symbol != "BRCA1" {
		t.Fatalf("expected symbol BRCA1, got %q", info.Symbol)
	}
}

func TestHandleGeneMetadata_NotFound(t *testing.T) {
	h := newTestHandlers()
	req := httptest.NewRequest(http.MethodGet, "/genes/UNKNOWN", nil)
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleInterpretVariants_DeniedWithoutConsent(t *testing.T) {
	h := newTestHandlers()
	body := `{"vcf_text":""}`
	req := httptest.NewRequest(http.MethodPost, "/genes/BRCA1/interpret", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without consent, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Access-Audit-ID") == "" {
		t.Fatal("expected X-Access-Audit-ID header to be set even on denial")
	}
}
