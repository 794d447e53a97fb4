// Copyright 2025 Certen Protocol
//
// Unit tests for ComplianceRepository
// Uses test database or mocks for isolation

package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestComplianceUpsertAndGetPIA(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not configured")
	}

	repo := NewComplianceRepository(&Client{db: testDB})
	ctx := context.Background()

	piaID := "pia_" + uuid.New().String()[:8]
	pia := &PIARow{
		ID:          piaID,
		Title:       "Raw sequence pipeline PIA",
		Description: "Assessment of raw FASTQ ingestion risk",
		Status:      "DRAFT",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	defer func() {
		_, _ = testDB.ExecContext(ctx, "DELETE FROM pia_records WHERE pia_id = $1", piaID)
	}()

	if err := repo.UpsertPIA(ctx, pia); err != nil {
		t.Fatalf("Failed to upsert pia: %v", err)
	}

	got, err := repo.GetPIA(ctx, piaID)
	if err != nil {
		t.Fatalf("Failed to get pia: %v", err)
	}
	if got.Title != pia.Title {
		t.Errorf("Expected title %s, got %s", pia.Title, got.Title)
	}
	if got.ApprovedAt.Valid {
		t.Error("Expected approved_at to be unset for a draft")
	}

	pia.Status = "APPROVED"
	pia.ApprovedAt = sql.NullTime{Time: time.Now().UTC().Truncate(time.Second), Valid: true}
	if err := repo.UpsertPIA(ctx, pia); err != nil {
		t.Fatalf("Failed to upsert approved pia: %v", err)
	}

	approved, err := repo.GetPIA(ctx, piaID)
	if err != nil {
		t.Fatalf("Failed to get approved pia: %v", err)
	}
	if approved.Status != "APPROVED" {
		t.Errorf("Expected status APPROVED, got %s", approved.Status)
	}
	if !approved.ApprovedAt.Valid {
		t.Error("Expected approved_at to be set")
	}
}

func TestCompliancePIANotFound(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not configured")
	}

	repo := NewComplianceRepository(&Client{db: testDB})
	ctx := context.Background()

	_, err := repo.GetPIA(ctx, "nonexistent_pia_id")
	if err != ErrPIANotFound {
		t.Errorf("Expected ErrPIANotFound, got %v", err)
	}
}

func TestComplianceListActiveDPAs(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not configured")
	}

	repo := NewComplianceRepository(&Client{db: testDB})
	ctx := context.Background()

	activeID := "dpa_" + uuid.New().String()[:8]
	expiredID := "dpa_" + uuid.New().String()[:8]

	active := &DPARow{
		ID:        activeID,
		PartnerID: "partner_" + uuid.New().String()[:8],
		Status:    "active",
		SignedAt:  time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Second),
		ExpiresAt: time.Now().UTC().Add(365 * 24 * time.Hour).Truncate(time.Second),
	}
	expired := &DPARow{
		ID:        expiredID,
		PartnerID: "partner_" + uuid.New().String()[:8],
		Status:    "expired",
		SignedAt:  time.Now().UTC().Add(-400 * 24 * time.Hour).Truncate(time.Second),
		ExpiresAt: time.Now().UTC().Add(-35 * 24 * time.Hour).Truncate(time.Second),
	}
	defer func() {
		_, _ = testDB.ExecContext(ctx, "DELETE FROM dpa_records WHERE dpa_id IN ($1, $2)", activeID, expiredID)
	}()

	if err := repo.UpsertDPA(ctx, active); err != nil {
		t.Fatalf("Failed to upsert active dpa: %v", err)
	}
	if err := repo.UpsertDPA(ctx, expired); err != nil {
		t.Fatalf("Failed to upsert expired dpa: %v", err)
	}

	dpas, err := repo.ListActiveDPAs(ctx)
	if err != nil {
		t.Fatalf("Failed to list active dpas: %v", err)
	}
	found := false
	for _, d := range dpas {
		if d.ID == expiredID {
			t.Error("Expected expired dpa to be excluded from active list")
		}
		if d.ID == activeID {
			found = true
		}
	}
	if !found {
		t.Error("Expected active dpa to be present in active list")
	}
}

func TestComplianceListOverdueBreaches(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not configured")
	}

	repo := NewComplianceRepository(&Client{db: testDB})
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)

	overdueID := "breach_" + uuid.New().String()[:8]
	resolvedID := "breach_" + uuid.New().String()[:8]
	futureID := "breach_" + uuid.New().String()[:8]

	overdue := &BreachRow{
		ID:          overdueID,
		Description: "Unauthorized access to raw sequence bucket",
		Severity:    "HIGH",
		Status:      "INVESTIGATING",
		ReportedAt:  now.Add(-96 * time.Hour),
		NotifyBy:    now.Add(-24 * time.Hour),
	}
	resolved := &BreachRow{
		ID:          resolvedID,
		Description: "Misdirected consent notification email",
		Severity:    "LOW",
		Status:      "resolved",
		ReportedAt:  now.Add(-96 * time.Hour),
		NotifyBy:    now.Add(-24 * time.Hour),
		ResolvedAt:  sql.NullTime{Time: now.Add(-12 * time.Hour), Valid: true},
	}
	future := &BreachRow{
		ID:          futureID,
		Description: "Pending triage",
		Severity:    "MEDIUM",
		Status:      "INVESTIGATING",
		ReportedAt:  now,
		NotifyBy:    now.Add(48 * time.Hour),
	}
	defer func() {
		_, _ = testDB.ExecContext(ctx, "DELETE FROM breach_records WHERE breach_id IN ($1, $2, $3)", overdueID, resolvedID, futureID)
	}()

	for _, b := range []*BreachRow{overdue, resolved, future} {
		if err := repo.UpsertBreach(ctx, b); err != nil {
			t.Fatalf("Failed to upsert breach %s: %v", b.ID, err)
		}
	}

	results, err := repo.ListOverdueBreaches(ctx, now)
	if err != nil {
		t.Fatalf("Failed to list overdue breaches: %v", err)
	}

	var ids []string
	for _, b := range results {
		ids = append(ids, b.ID)
	}
	hasOverdue, hasResolved, hasFuture := false, false, false
	for _, id := range ids {
		switch id {
		case overdueID:
			hasOverdue = true
		case resolvedID:
			hasResolved = true
		case futureID:
			hasFuture = true
		}
	}
	if !hasOverdue {
		t.Error("Expected overdue unresolved breach to be included")
	}
	if hasResolved {
		t.Error("Expected resolved breach to be excluded even though past notify_by")
	}
	if hasFuture {
		t.Error("Expected breach with future notify_by to be excluded")
	}
}
