// Copyright 2025 Certen Protocol
//
// Package consent implements the consent form registry and per-user
// consent record lifecycle: capture, check, and withdrawal, with
// every grant and withdrawal mirrored into the audit ledger.

package consent

import "time"

// ConsentType is the closed set of consent categories.
type ConsentType string

const (
	TypeGenomicAnalysis       ConsentType = "GENOMIC_ANALYSIS"
	TypeDataSharing           ConsentType = "DATA_SHARING"
	TypeResearchParticipation ConsentType = "RESEARCH_PARTICIPATION"
	TypeCommercialUse         ConsentType = "COMMERCIAL_USE"
	TypeLongTermStorage       ConsentType = "LONG_TERM_STORAGE"
)

// Status is the closed set of ConsentRecord lifecycle states.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusWithdrawn Status = "WITHDRAWN"
	StatusExpired   Status = "EXPIRED"
	StatusPending   Status = "PENDING"
)

// Form is an immutable, registered consent form.
type Form struct {
	FormID         string
	Version        string
	Title          string
	Description    string
	Grants         []ConsentType
	RequiredFields []string
	ConsentText    string
	ValidityDays   int // 0 means no expiry
}

// Record is a single (user, consent type) consent grant derived from
// capturing a Form.
type Record struct {
	ConsentID       string
	UserID          string
	ConsentType     ConsentType
	Status          Status
	GrantedAt       time.Time
	ExpiresAt       *time.Time
	WithdrawnAt     *time.Time
	DigitalSig      string
	IPAddress       string
	UserAgent       string
	ConsentTextHash string
	Metadata        map[string]any
}
