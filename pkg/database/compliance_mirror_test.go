// Copyright 2025 Certen Protocol

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/xtergo/dnaresearch/pkg/compliance"
)

func TestComplianceMirror_UpsertPIAConvertsAndPersists(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not configured")
	}

	mirror := NewComplianceMirror(&Client{db: testDB})
	ctx := context.Background()

	id := "pia_" + uuid.New().String()[:8]
	approvedAt := time.Now().UTC().Truncate(time.Second)
	pia := &compliance.PIA{
		ID:          id,
		Title:       "Genomic analysis PIA",
		Description: "assessment for cohort linkage study",
		Status:      compliance.PIAApproved,
		CreatedAt:   approvedAt.Add(-time.Hour),
		ApprovedAt:  &approvedAt,
	}
	defer func() {
		_, _ = testDB.ExecContext(ctx, "DELETE FROM pia_records WHERE pia_id = $1", id)
	}()

	if err := mirror.UpsertPIA(ctx, pia); err != nil {
		t.Fatalf("upsert pia: %v", err)
	}

	got, err := mirror.repo.GetPIA(ctx, id)
	if err != nil {
		t.Fatalf("get pia: %v", err)
	}
	if got.Status != string(compliance.PIAApproved) {
		t.Errorf("expected status %s, got %s", compliance.PIAApproved, got.Status)
	}
	if !got.ApprovedAt.Valid {
		t.Error("expected approved_at to be set")
	}
}

func TestComplianceMirror_UpsertDPAAndBreachConvertAndPersist(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not configured")
	}

	mirror := NewComplianceMirror(&Client{db: testDB})
	ctx := context.Background()

	dpaID := "dpa_" + uuid.New().String()[:8]
	now := time.Now().UTC().Truncate(time.Second)
	dpa := &compliance.DPA{
		ID:        dpaID,
		PartnerID: "partner_a",
		Status:    compliance.DPAActive,
		SignedAt:  now,
		ExpiresAt: now.Add(365 * 24 * time.Hour),
	}
	defer func() {
		_, _ = testDB.ExecContext(ctx, "DELETE FROM dpa_records WHERE dpa_id = $1", dpaID)
	}()
	if err := mirror.UpsertDPA(ctx, dpa); err != nil {
		t.Fatalf("upsert dpa: %v", err)
	}
	active, err := mirror.repo.ListActiveDPAs(ctx)
	if err != nil {
		t.Fatalf("list active dpas: %v", err)
	}
	found := false
	for _, d := range active {
		if d.ID == dpaID {
			found = true
		}
	}
	if !found {
		t.Error("expected mirrored dpa to be listed as active")
	}

	breachID := "breach_" + uuid.New().String()[:8]
	resolvedAt := now
	breach := &compliance.Breach{
		ID:          breachID,
		Description: "unauthorized access attempt",
		Severity:    "high",
		Status:      compliance.BreachResolved,
		ReportedAt:  now.Add(-time.Hour),
		NotifyBy:    now.Add(71 * time.Hour),
		ResolvedAt:  &resolvedAt,
	}
	defer func() {
		_, _ = testDB.ExecContext(ctx, "DELETE FROM breach_records WHERE breach_id = $1", breachID)
	}()
	if err := mirror.UpsertBreach(ctx, breach); err != nil {
		t.Fatalf("upsert breach: %v", err)
	}
	overdue, err := mirror.repo.ListOverdueBreaches(ctx, now.Add(200*time.Hour))
	if err != nil {
		t.Fatalf("list overdue breaches: %v", err)
	}
	for _, b := range overdue {
		if b.ID == breachID {
			t.Error("resolved breach should not appear as overdue")
		}
	}
}
