// Copyright 2025 Certen Protocol

package database

import (
	"context"
	"database/sql"

	"github.com/xtergo/dnaresearch/pkg/compliance"
)

// ComplianceMirror adapts a ComplianceRepository to compliance.Mirror,
// converting between compliance's PIA/DPA/Breach types and their
// durable row shapes on every upsert.
type ComplianceMirror struct {
	repo *ComplianceRepository
}

// NewComplianceMirror builds a ComplianceMirror backed by client.
func NewComplianceMirror(client *Client) *ComplianceMirror {
	return &ComplianceMirror{repo: NewComplianceRepository(client)}
}

func (m *ComplianceMirror) UpsertPIA(ctx context.Context, p *compliance.PIA) error {
	row := &PIARow{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
	if p.ApprovedAt != nil {
		row.ApprovedAt = sql.NullTime{Time: *p.ApprovedAt, Valid: true}
	}
	return m.repo.UpsertPIA(ctx, row)
}

func (m *ComplianceMirror) UpsertDPA(ctx context.Context, d *compliance.DPA) error {
	row := &DPARow{
		ID:        d.ID,
		PartnerID: d.PartnerID,
		Status:    string(d.Status),
		SignedAt:  d.SignedAt,
		ExpiresAt: d.ExpiresAt,
	}
	return m.repo.UpsertDPA(ctx, row)
}

func (m *ComplianceMirror) UpsertBreach(ctx context.Context, b *compliance.Breach) error {
	row := &BreachRow{
		ID:          b.ID,
		Description: b.Description,
		Severity:    b.Severity,
		Status:      string(b.Status),
		ReportedAt:  b.ReportedAt,
		NotifyBy:    b.NotifyBy,
	}
	if b.ResolvedAt != nil {
		row.ResolvedAt = sql.NullTime{Time: *b.ResolvedAt, Valid: true}
	}
	return m.repo.UpsertBreach(ctx, row)
}
