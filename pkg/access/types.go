// Copyright 2025 Certen Protocol
//
// Package access implements the access-control gate: it maps a
// requested action to the consent types it requires, asks the consent
// store whether the caller holds each one, and records every attempt
// both locally and in the audit ledger.

package access

import (
	"time"

	"github.com/xtergo/dnaresearch/pkg/consent"
)

// Action is the closed set of gated operations.
type Action string

const (
	ActionReadGenomicData Action = "READ_GENOMIC_DATA"
	ActionAnalyzeVariants Action = "ANALYZE_VARIANTS"
	ActionShareData       Action = "SHARE_DATA"
	ActionGenerateReports Action = "GENERATE_REPORTS"
	ActionExecuteTheory   Action = "EXECUTE_THEORY"
)

// requiredConsents is the fixed action -> consent-types table.
// Extension requires a code release.
var requiredConsents = map[Action][]consent.ConsentType{
	ActionReadGenomicData: {consent.TypeGenomicAnalysis},
	ActionAnalyzeVariants: {consent.TypeGenomicAnalysis},
	ActionShareData:       {consent.TypeDataSharing},
	ActionGenerateReports: {consent.TypeGenomicAnalysis},
	ActionExecuteTheory:   {consent.TypeGenomicAnalysis, consent.TypeResearchParticipation},
}

// Request describes a single access attempt.
type Request struct {
	UserID     string
	Action     Action
	ResourceID string
	IPAddress  string
}

// Result is the outcome of a Check call.
type Result struct {
	AuditID             string
	Granted             bool
	Reason              string
	ConsentTypesChecked []consent.ConsentType
	Timestamp           time.Time
}

// Attempt is the in-memory record of a single Check call, kept in
// addition to the ledger entry it also produces.
type Attempt struct {
	AuditID    string
	UserID     string
	Action     Action
	ResourceID string
	Granted    bool
	Reason     string
	Timestamp  time.Time
	IPAddress  string
}
