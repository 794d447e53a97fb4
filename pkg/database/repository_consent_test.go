// Copyright 2025 Certen Protocol
//
// Unit tests for ConsentRepository
// Uses test database or mocks for isolation

package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Test database connection string (use test database or skip)
var testDB *sql.DB

func TestMain(m *testing.M) {
	connStr := os.Getenv("DNARESEARCH_TEST_DB")
	if connStr == "" {
		// Skip database tests if no test DB configured
		os.Exit(0)
	}

	var err error
	testDB, err = sql.Open("postgres", connStr)
	if err != nil {
		panic("Failed to connect to test database: " + err.Error())
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

func TestConsentUpsertAndGet(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not configured")
	}

	repo := NewConsentRepository(&Client{db: testDB})
	ctx := context.Background()

	consentID := "consent_" + uuid.New().String()[:8]
	rec := &ConsentRecord{
		ConsentID:       consentID,
		UserID:          "user_" + uuid.New().String()[:8],
		ConsentType:     "RAW_SEQUENCE_RESEARCH",
		Status:          "GRANTED",
		DigitalSig:      "sig-abc123",
		IPAddress:       "203.0.113.5",
		UserAgent:       "test-agent/1.0",
		ConsentTextHash: "hash-xyz",
		GrantedAt:       time.Now().UTC().Truncate(time.Second),
	}
	defer func() {
		_, _ = testDB.ExecContext(ctx, "DELETE FROM consent_records WHERE consent_id = $1", consentID)
	}()

	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("Failed to upsert consent record: %v", err)
	}

	got, err := repo.Get(ctx, consentID)
	if err != nil {
		t.Fatalf("Failed to get consent record: %v", err)
	}
	if got.UserID != rec.UserID {
		t.Errorf("Expected user %s, got %s", rec.UserID, got.UserID)
	}
	if got.Status != "GRANTED" {
		t.Errorf("Expected status GRANTED, got %s", got.Status)
	}

	// Withdraw and re-upsert
	rec.Status = "WITHDRAWN"
	rec.WithdrawnAt = sql.NullTime{Time: time.Now().UTC().Truncate(time.Second), Valid: true}
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("Failed to upsert withdrawal: %v", err)
	}

	updated, err := repo.Get(ctx, consentID)
	if err != nil {
		t.Fatalf("Failed to get updated consent record: %v", err)
	}
	if updated.Status != "WITHDRAWN" {
		t.Errorf("Expected status WITHDRAWN, got %s", updated.Status)
	}
	if !updated.WithdrawnAt.Valid {
		t.Error("Expected withdrawn_at to be set")
	}
}

func TestConsentGetNotFound(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not configured")
	}

	repo := NewConsentRepository(&Client{db: testDB})
	ctx := context.Background()

	_, err := repo.Get(ctx, "nonexistent_consent_id")
	if err != ErrConsentNotFound {
		t.Errorf("Expected ErrConsentNotFound, got %v", err)
	}
}

func TestConsentListForUser(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not configured")
	}

	repo := NewConsentRepository(&Client{db: testDB})
	ctx := context.Background()

	userID := "user_" + uuid.New().String()[:8]
	var createdIDs []string
	for i := 0; i < 3; i++ {
		id := "consent_" + uuid.New().String()[:8]
		createdIDs = append(createdIDs, id)
		rec := &ConsentRecord{
			ConsentID:   id,
			UserID:      userID,
			ConsentType: "RAW_SEQUENCE_RESEARCH",
			Status:      "GRANTED",
			DigitalSig:  "sig",
			GrantedAt:   time.Now().UTC().Add(time.Duration(i) * time.Minute).Truncate(time.Second),
		}
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("Failed to upsert consent %d: %v", i, err)
		}
	}
	defer func() {
		for _, id := range createdIDs {
			_, _ = testDB.ExecContext(ctx, "DELETE FROM consent_records WHERE consent_id = $1", id)
		}
	}()

	records, err := repo.ListForUser(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to list consent records: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 consent records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].GrantedAt.After(records[i-1].GrantedAt) {
			t.Error("Expected records ordered newest first")
		}
	}
}
