// Copyright 2025 Certen Protocol
//
// Consent Repository - durable mirror of pkg/consent.Record, so a
// consent grant or withdrawal survives a process restart even though
// pkg/consent.Store itself is an in-memory, single-writer cache.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ConsentRecord is the durable row shape for a consent grant.
type ConsentRecord struct {
	ConsentID       string
	UserID          string
	ConsentType     string
	Status          string
	DigitalSig      string
	IPAddress       string
	UserAgent       string
	ConsentTextHash string
	GrantedAt       time.Time
	ExpiresAt       sql.NullTime
	WithdrawnAt     sql.NullTime
}

// ConsentRepository persists consent records to Postgres.
type ConsentRepository struct {
	client *Client
}

// NewConsentRepository creates a new consent repository.
func NewConsentRepository(client *Client) *ConsentRepository {
	return &ConsentRepository{client: client}
}

// Upsert inserts or updates a consent record, keyed by ConsentID.
func (r *ConsentRepository) Upsert(ctx context.Context, rec *ConsentRecord) error {
	query := `
		INSERT INTO consent_records (
			consent_id, user_id, consent_type, status, digital_sig,
			ip_address, user_agent, consent_text_hash, granted_at, expires_at, withdrawn_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (consent_id) DO UPDATE SET
			status = EXCLUDED.status,
			expires_at = EXCLUDED.expires_at,
			withdrawn_at = EXCLUDED.withdrawn_at`

	_, err := r.client.ExecContext(ctx, query,
		rec.ConsentID, rec.UserID, rec.ConsentType, rec.Status, rec.DigitalSig,
		rec.IPAddress, rec.UserAgent, rec.ConsentTextHash, rec.GrantedAt, rec.ExpiresAt, rec.WithdrawnAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert consent record: %w", err)
	}
	return nil
}

// Get retrieves a consent record by ID.
func (r *ConsentRepository) Get(ctx context.Context, consentID string) (*ConsentRecord, error) {
	query := `
		SELECT consent_id, user_id, consent_type, status, digital_sig,
			ip_address, user_agent, consent_text_hash, granted_at, expires_at, withdrawn_at
		FROM consent_records
		WHERE consent_id = $1`

	rec := &ConsentRecord{}
	err := r.client.QueryRowContext(ctx, query, consentID).Scan(
		&rec.ConsentID, &rec.UserID, &rec.ConsentType, &rec.Status, &rec.DigitalSig,
		&rec.IPAddress, &rec.UserAgent, &rec.ConsentTextHash, &rec.GrantedAt, &rec.ExpiresAt, &rec.WithdrawnAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrConsentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consent record: %w", err)
	}
	return rec, nil
}

// ListForUser returns every consent record for a user, newest first.
func (r *ConsentRepository) ListForUser(ctx context.Context, userID string) ([]*ConsentRecord, error) {
	query := `
		SELECT consent_id, user_id, consent_type, status, digital_sig,
			ip_address, user_agent, consent_text_hash, granted_at, expires_at, withdrawn_at
		FROM consent_records
		WHERE user_id = $1
		ORDER BY granted_at DESC`

	rows, err := r.client.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query consent records: %w", err)
	}
	defer rows.Close()

	var records []*ConsentRecord
	for rows.Next() {
		rec := &ConsentRecord{}
		if err := rows.Scan(
			&rec.ConsentID, &rec.UserID, &rec.ConsentType, &rec.Status, &rec.DigitalSig,
			&rec.IPAddress, &rec.UserAgent, &rec.ConsentTextHash, &rec.GrantedAt, &rec.ExpiresAt, &rec.WithdrawnAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan consent record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
