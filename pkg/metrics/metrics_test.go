package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_RegistersAllMetrics(t *testing.T) {
	m, reg := New()
	if m == nil || reg == nil {
		t.Fatalf("expected non-nil registry")
	}

	m.LedgerEntriesTotal.WithLabelValues("CONSENT_GRANTED").Inc()
	m.LedgerBlocksSealed.Inc()
	m.AccessChecksTotal.WithLabelValues("VIEW_RAW_SEQUENCE", "true").Inc()
	m.WebhookEventsTotal.WithLabelValues("partner_1", "SEQUENCING_COMPLETE").Inc()
	m.WebhookRetriesTotal.Inc()
	m.CacheHitsTotal.Inc()
	m.CacheMissesTotal.Inc()
	m.TheoryExecutionsTotal.WithLabelValues("strong").Inc()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	Handler(reg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "dnaresearch_ledger_entries_total") {
		t.Fatalf("expected ledger entries metric in output, got: %s", body)
	}
	if !strings.Contains(body, "dnaresearch_theory_executions_total") {
		t.Fatalf("expected theory executions metric in output")
	}
}
