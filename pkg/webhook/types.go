// Copyright 2025 Certen Protocol
//
// Package webhook implements the sequencing-partner callback
// pipeline: partner registry, HMAC verification, queued async
// dispatch, a per-event state machine, and retry with exponential
// backoff.

package webhook

import "time"

// EventType is the closed set of partner callback kinds.
type EventType string

const (
	EventSequencingComplete EventType = "SEQUENCING_COMPLETE"
	EventQCComplete         EventType = "QC_COMPLETE"
	EventAnalysisComplete   EventType = "ANALYSIS_COMPLETE"
	EventUploadComplete     EventType = "UPLOAD_COMPLETE"
	EventErrorNotification  EventType = "ERROR_NOTIFICATION"
)

// Status is the closed set of per-event lifecycle states.
type Status string

const (
	StatusReceived   Status = "RECEIVED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusRetrying   Status = "RETRYING"
)

// Partner is a registered sequencing partner.
type Partner struct {
	PartnerID       string
	Name            string
	Secret          string
	Active          bool
	SupportedEvents map[EventType]bool
	WebhookURL      string
	TimeoutSeconds  int
	MaxRetries      int
}

// Event is a single admitted partner callback and its processing state.
type Event struct {
	EventID      string
	PartnerID    string
	EventType    EventType
	Data         map[string]any
	Timestamp    time.Time
	Status       Status
	Signature    string
	RetryCount   int
	MaxRetries   int
	NextRetry    *time.Time
	ErrorMessage string
	ProcessedAt  *time.Time
	Result       map[string]any
}
