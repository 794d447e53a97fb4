// Copyright 2025 Certen Protocol

package database

import (
	"context"
	"database/sql"

	"github.com/xtergo/dnaresearch/pkg/consent"
)

// ConsentMirror adapts a ConsentRepository to consent.Mirror,
// converting between consent.Record and the durable ConsentRecord row
// shape on every upsert.
type ConsentMirror struct {
	repo *ConsentRepository
}

// NewConsentMirror builds a ConsentMirror backed by client.
func NewConsentMirror(client *Client) *ConsentMirror {
	return &ConsentMirror{repo: NewConsentRepository(client)}
}

func (m *ConsentMirror) Upsert(ctx context.Context, rec *consent.Record) error {
	row := &ConsentRecord{
		ConsentID:       rec.ConsentID,
		UserID:          rec.UserID,
		ConsentType:     string(rec.ConsentType),
		Status:          string(rec.Status),
		DigitalSig:      rec.DigitalSig,
		IPAddress:       rec.IPAddress,
		UserAgent:       rec.UserAgent,
		ConsentTextHash: rec.ConsentTextHash,
		GrantedAt:       rec.GrantedAt,
	}
	if rec.ExpiresAt != nil {
		row.ExpiresAt = sql.NullTime{Time: *rec.ExpiresAt, Valid: true}
	}
	if rec.WithdrawnAt != nil {
		row.WithdrawnAt = sql.NullTime{Time: *rec.WithdrawnAt, Valid: true}
	}
	return m.repo.Upsert(ctx, row)
}
