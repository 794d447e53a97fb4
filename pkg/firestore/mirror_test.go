// Copyright 2025 Certen Protocol

package firestore

import (
	"context"
	"testing"
	"time"

	"github.com/xtergo/dnaresearch/pkg/compliance"
	"github.com/xtergo/dnaresearch/pkg/ledger"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), &ClientConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestMirrorService_NoopWhenDisabled(t *testing.T) {
	m, err := NewMirrorService(&MirrorServiceConfig{Client: disabledClient(t)})
	if err != nil {
		t.Fatalf("NewMirrorService: %v", err)
	}
	if m.IsEnabled() {
		t.Fatal("expected disabled mirror service")
	}

	block := &ledger.Block{BlockID: 1, Timestamp: time.Now(), BlockHash: "h"}
	entries := []*ledger.LedgerEntry{{EntryID: "e1", UserID: "u1", EntryType: ledger.EntryConsentGranted}}
	if err := m.OnBlockSealed(context.Background(), block, entries); err != nil {
		t.Fatalf("OnBlockSealed on disabled mirror should be a no-op, got %v", err)
	}

	score := compliance.Score{Overall: 0.9}
	if err := m.OnComplianceScoreUpdated(context.Background(), score, 0); err != nil {
		t.Fatalf("OnComplianceScoreUpdated on disabled mirror should be a no-op, got %v", err)
	}
}

func TestMirrorService_ComputeMirrorHashIsDeterministic(t *testing.T) {
	m, err := NewMirrorService(&MirrorServiceConfig{Client: disabledClient(t)})
	if err != nil {
		t.Fatalf("NewMirrorService: %v", err)
	}

	entry := &AuditMirrorEntry{
		EntryType:    "CONSENT_GRANTED",
		Timestamp:    time.Unix(1700000000, 0),
		DataHash:     "abc123",
		PreviousHash: ledger.ZeroHash,
	}

	h1 := m.computeMirrorHash(entry)
	h2 := m.computeMirrorHash(entry)
	if h1 == "" {
		t.Fatal("expected non-empty hash")
	}
	if h1 != h2 {
		t.Fatalf("expected deterministic hash, got %s then %s", h1, h2)
	}

	entry.DataHash = "different"
	if h3 := m.computeMirrorHash(entry); h3 == h1 {
		t.Fatal("expected hash to change when DataHash changes")
	}
}

func TestMirrorService_VerifyMirrorChainRequiresEnabled(t *testing.T) {
	m, err := NewMirrorService(&MirrorServiceConfig{Client: disabledClient(t)})
	if err != nil {
		t.Fatalf("NewMirrorService: %v", err)
	}
	if _, err := m.VerifyMirrorChain(context.Background(), "u1"); err == nil {
		t.Fatal("expected error verifying chain on a disabled mirror")
	}
}
