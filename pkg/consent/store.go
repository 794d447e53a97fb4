package consent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/ledger"
)

// LedgerAppender is the seam the consent store depends on for
// auditing. pkg/ledger.Ledger satisfies it directly.
type LedgerAppender interface {
	Append(entryType ledger.EntryType, userID string, payload map[string]any, metadata map[string]any) (string, error)
}

// Mirror is the seam the consent store uses to persist records beyond
// its own in-memory map, so a grant or withdrawal survives a process
// restart. A deployment with no database configured leaves this nil
// and Store behaves exactly as an in-memory cache.
type Mirror interface {
	Upsert(ctx context.Context, rec *Record) error
}

// Store owns consent forms and every captured ConsentRecord. A single
// mutex guards both maps; capture/check/withdraw acquire it briefly
// and do any hashing outside the critical section where possible.
type Store struct {
	mu sync.Mutex

	logger   *log.Logger
	verifier SignatureVerifier
	ledger   LedgerAppender
	mirror   Mirror

	forms   map[string]*Form
	records map[string][]*Record // keyed by user_id

	counter uint64
}

// Option configures a Store at construction time.
type Option func(*Store)

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithSignatureVerifier(v SignatureVerifier) Option {
	return func(s *Store) { s.verifier = v }
}

func WithLedger(l LedgerAppender) Option {
	return func(s *Store) { s.ledger = l }
}

func WithMirror(m Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// New creates an empty consent Store.
func New(opts ...Option) *Store {
	s := &Store{
		logger:   log.New(log.Writer(), "[Consent] ", log.LstdFlags),
		verifier: NewPrefixVerifier(),
		forms:    make(map[string]*Form),
		records:  make(map[string][]*Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterForm adds an immutable consent form to the registry.
func (s *Store) RegisterForm(f Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := f
	s.forms[f.FormID] = &cp
	s.logger.Printf("registered form %s v%s (%d consent types)", f.FormID, f.Version, len(f.Grants))
}

// Capture validates user_data against form requirements and the
// signature, then creates one ConsentRecord per ConsentType granted
// by the form. Every capture emits one ledger event.
func (s *Store) Capture(userID, formID string, userData map[string]any, ip, ua, signature string) (*Record, error) {
	s.mu.Lock()
	form, ok := s.forms[formID]
	s.mu.Unlock()
	if !ok {
		return nil, errFormNotFound(formID)
	}

	var missing []string
	for _, field := range form.RequiredFields {
		if _, present := userData[field]; !present {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, errMissingFields(missing)
	}

	if !s.verifier.Verify(form.ConsentText, userData, signature) {
		return nil, errInvalidSignature()
	}

	textHash := sha256.Sum256([]byte(form.ConsentText))
	now := time.Now().UTC()

	s.mu.Lock()
	s.counter++
	prefix := fmt.Sprintf("consent-%d-%s", s.counter, userID)

	var first *Record
	var captured []*Record
	for i, ct := range form.Grants {
		rec := &Record{
			ConsentID:       fmt.Sprintf("%s-%d", prefix, i),
			UserID:          userID,
			ConsentType:     ct,
			Status:          StatusActive,
			GrantedAt:       now,
			DigitalSig:      signature,
			IPAddress:       ip,
			UserAgent:       ua,
			ConsentTextHash: hex.EncodeToString(textHash[:]),
			Metadata: map[string]any{
				"form_id":      form.FormID,
				"form_version": form.Version,
				"user_data":    userData,
			},
		}
		if form.ValidityDays > 0 {
			exp := now.AddDate(0, 0, form.ValidityDays)
			rec.ExpiresAt = &exp
		}
		s.records[userID] = append(s.records[userID], rec)
		captured = append(captured, rec)
		if i == 0 {
			first = rec
		}
	}
	s.logger.Printf("captured consent for user=%s form=%s types=%d", userID, formID, len(form.Grants))
	s.mu.Unlock()

	if s.mirror != nil {
		for _, rec := range captured {
			if err := s.mirror.Upsert(context.Background(), rec); err != nil {
				s.logger.Printf("durable mirror upsert failed for consent=%s: %v", rec.ConsentID, err)
			}
		}
	}

	if s.ledger != nil {
		payload := map[string]any{
			"form_id":      form.FormID,
			"form_version": form.Version,
			"user_id":      userID,
			"granted_at":   now.Format(time.RFC3339Nano),
		}
		if _, err := s.ledger.Append(ledger.EntryConsentGranted, userID, payload, nil); err != nil {
			return nil, apperr.Wrap(err)
		}
	}

	return first, nil
}

// Check reports whether an active, unexpired consent exists for
// (userID, consentType). An ACTIVE record found to be past its
// expires_at is mutated to EXPIRED as a side effect.
func (s *Store) Check(userID string, consentType ConsentType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.newestActiveLocked(userID, consentType)
	if rec == nil {
		return false
	}
	if rec.ExpiresAt != nil && rec.ExpiresAt.Before(time.Now().UTC()) {
		rec.Status = StatusExpired
		return false
	}
	return true
}

// newestActiveLocked must be called with s.mu held.
func (s *Store) newestActiveLocked(userID string, consentType ConsentType) *Record {
	var newest *Record
	for _, rec := range s.records[userID] {
		if rec.ConsentType != consentType || rec.Status != StatusActive {
			continue
		}
		if newest == nil || rec.GrantedAt.After(newest.GrantedAt) {
			newest = rec
		}
	}
	return newest
}

// Withdraw transitions every ACTIVE record for (userID, consentType)
// to WITHDRAWN, appending reason to each record's metadata, and emits
// one CONSENT_WITHDRAWN ledger event when at least one was withdrawn.
func (s *Store) Withdraw(userID string, consentType ConsentType, reason string) (bool, error) {
	s.mu.Lock()
	now := time.Now().UTC()
	var withdrew bool
	var withdrawn []*Record
	for _, rec := range s.records[userID] {
		if rec.ConsentType != consentType || rec.Status != StatusActive {
			continue
		}
		rec.Status = StatusWithdrawn
		rec.WithdrawnAt = &now
		if rec.Metadata == nil {
			rec.Metadata = map[string]any{}
		}
		rec.Metadata["withdrawal_reason"] = reason
		withdrew = true
		withdrawn = append(withdrawn, rec)
	}
	if withdrew {
		s.logger.Printf("withdrew consent for user=%s type=%s", userID, consentType)
	}
	s.mu.Unlock()

	if !withdrew {
		return false, nil
	}

	if s.mirror != nil {
		for _, rec := range withdrawn {
			if err := s.mirror.Upsert(context.Background(), rec); err != nil {
				s.logger.Printf("durable mirror upsert failed for consent=%s: %v", rec.ConsentID, err)
			}
		}
	}

	if s.ledger != nil {
		payload := map[string]any{
			"user_id":      userID,
			"consent_type": string(consentType),
			"reason":       reason,
			"withdrawn_at": now.Format(time.RFC3339Nano),
		}
		if _, err := s.ledger.Append(ledger.EntryConsentWithdrawn, userID, payload, nil); err != nil {
			return true, apperr.Wrap(err)
		}
	}
	return true, nil
}

// Records returns a snapshot of every consent record for userID.
func (s *Store) Records(userID string) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Record, len(s.records[userID]))
	for i, r := range s.records[userID] {
		cp := *r
		out[i] = &cp
	}
	return out
}
