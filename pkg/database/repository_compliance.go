// Copyright 2025 Certen Protocol
//
// Compliance Repository - durable mirror of pkg/compliance's PIA, DPA,
// and breach records, so compliance.Registry's in-memory state can be
// rehydrated after a restart and queried directly for reporting.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PIARow is the durable row shape for a Privacy Impact Assessment.
type PIARow struct {
	ID          string
	Title       string
	Description string
	Status      string
	CreatedAt   time.Time
	ApprovedAt  sql.NullTime
}

// DPARow is the durable row shape for a Data Processing Agreement.
type DPARow struct {
	ID        string
	PartnerID string
	Status    string
	SignedAt  time.Time
	ExpiresAt time.Time
}

// BreachRow is the durable row shape for a breach record.
type BreachRow struct {
	ID          string
	Description string
	Severity    string
	Status      string
	ReportedAt  time.Time
	NotifyBy    time.Time
	ResolvedAt  sql.NullTime
}

// ComplianceRepository persists PIA/DPA/breach records to Postgres.
type ComplianceRepository struct {
	client *Client
}

// NewComplianceRepository creates a new compliance repository.
func NewComplianceRepository(client *Client) *ComplianceRepository {
	return &ComplianceRepository{client: client}
}

// UpsertPIA inserts or updates a PIA row.
func (r *ComplianceRepository) UpsertPIA(ctx context.Context, p *PIARow) error {
	query := `
		INSERT INTO pia_records (pia_id, title, description, status, created_at, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pia_id) DO UPDATE SET status = EXCLUDED.status, approved_at = EXCLUDED.approved_at`
	_, err := r.client.ExecContext(ctx, query, p.ID, p.Title, p.Description, p.Status, p.CreatedAt, p.ApprovedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert pia record: %w", err)
	}
	return nil
}

// GetPIA retrieves a PIA row by ID.
func (r *ComplianceRepository) GetPIA(ctx context.Context, id string) (*PIARow, error) {
	query := `SELECT pia_id, title, description, status, created_at, approved_at FROM pia_records WHERE pia_id = $1`
	p := &PIARow{}
	err := r.client.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.CreatedAt, &p.ApprovedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPIANotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pia record: %w", err)
	}
	return p, nil
}

// UpsertDPA inserts or updates a DPA row.
func (r *ComplianceRepository) UpsertDPA(ctx context.Context, d *DPARow) error {
	query := `
		INSERT INTO dpa_records (dpa_id, partner_id, status, signed_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (dpa_id) DO UPDATE SET status = EXCLUDED.status, expires_at = EXCLUDED.expires_at`
	_, err := r.client.ExecContext(ctx, query, d.ID, d.PartnerID, d.Status, d.SignedAt, d.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to upsert dpa record: %w", err)
	}
	return nil
}

// ListActiveDPAs returns every DPA row with status 'active'.
func (r *ComplianceRepository) ListActiveDPAs(ctx context.Context) ([]*DPARow, error) {
	query := `SELECT dpa_id, partner_id, status, signed_at, expires_at FROM dpa_records WHERE status = 'active'`
	rows, err := r.client.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query dpa records: %w", err)
	}
	defer rows.Close()

	var out []*DPARow
	for rows.Next() {
		d := &DPARow{}
		if err := rows.Scan(&d.ID, &d.PartnerID, &d.Status, &d.SignedAt, &d.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan dpa record: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpsertBreach inserts or updates a breach row.
func (r *ComplianceRepository) UpsertBreach(ctx context.Context, b *BreachRow) error {
	query := `
		INSERT INTO breach_records (breach_id, description, severity, status, reported_at, notify_by, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (breach_id) DO UPDATE SET status = EXCLUDED.status, resolved_at = EXCLUDED.resolved_at`
	_, err := r.client.ExecContext(ctx, query, b.ID, b.Description, b.Severity, b.Status, b.ReportedAt, b.NotifyBy, b.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert breach record: %w", err)
	}
	return nil
}

// ListOverdueBreaches returns every unresolved breach past its notify_by deadline.
func (r *ComplianceRepository) ListOverdueBreaches(ctx context.Context, now time.Time) ([]*BreachRow, error) {
	query := `
		SELECT breach_id, description, severity, status, reported_at, notify_by, resolved_at
		FROM breach_records
		WHERE status != 'resolved' AND notify_by < $1`
	rows, err := r.client.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue breaches: %w", err)
	}
	defer rows.Close()

	var out []*BreachRow
	for rows.Next() {
		b := &BreachRow{}
		if err := rows.Scan(&b.ID, &b.Description, &b.Severity, &b.Status, &b.ReportedAt, &b.NotifyBy, &b.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan breach record: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
