// Copyright 2025 Certen Protocol
//
// Package compliance implements the regulatory compliance registry:
// Privacy Impact Assessments, Data Processing Agreements, and breach
// records, each with a fixed lifecycle and deadlines, plus an
// aggregate compliance score.

package compliance

import "time"

// PIAStatus is the closed set of Privacy Impact Assessment states.
type PIAStatus string

const (
	PIADraft    PIAStatus = "draft"
	PIASubmitted PIAStatus = "submitted"
	PIAApproved PIAStatus = "approved"
	PIARejected PIAStatus = "rejected"
)

// DPAStatus is the closed set of Data Processing Agreement states.
type DPAStatus string

const (
	DPADraft    DPAStatus = "draft"
	DPAActive   DPAStatus = "active"
	DPAExpired  DPAStatus = "expired"
	DPATerminated DPAStatus = "terminated"
)

// BreachStatus is the closed set of breach-record states.
type BreachStatus string

const (
	BreachReported  BreachStatus = "reported"
	BreachInvestigating BreachStatus = "investigating"
	BreachNotified  BreachStatus = "notified"
	BreachResolved  BreachStatus = "resolved"
)

const (
	breachNotificationWindow = 72 * time.Hour
	dpaDefaultValidity       = 3 * 365 * 24 * time.Hour
	dpaExpiringSoonWindow    = 90 * 24 * time.Hour
)

// PIA is a Privacy Impact Assessment.
type PIA struct {
	ID          string
	Title       string
	Description string
	Status      PIAStatus
	CreatedAt   time.Time
	ApprovedAt  *time.Time
}

// DPA is a Data Processing Agreement.
type DPA struct {
	ID         string
	PartnerID  string
	Status     DPAStatus
	SignedAt   time.Time
	ExpiresAt  time.Time
}

// ExpiringSoon reports whether d expires within the 90-day window.
func (d DPA) ExpiringSoon(now time.Time) bool {
	return d.Status == DPAActive && !d.ExpiresAt.Before(now) && d.ExpiresAt.Sub(now) <= dpaExpiringSoonWindow
}

// Breach is a data breach record.
type Breach struct {
	ID          string
	Description string
	Severity    string
	Status      BreachStatus
	ReportedAt  time.Time
	NotifyBy    time.Time // reported_at + 72h
	ResolvedAt  *time.Time
}

// Overdue reports whether the breach's 72-hour notification deadline
// has passed without resolution.
func (b Breach) Overdue(now time.Time) bool {
	return b.Status != BreachResolved && now.After(b.NotifyBy)
}

// Score is the weighted compliance score across PIA approvals, breach
// resolution, and active DPA coverage.
type Score struct {
	ApprovedPIARatio float64
	ResolvedBreachRatio float64
	ActiveDPARatio   float64
	Overall          float64
}
