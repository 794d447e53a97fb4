// Copyright 2025 Certen Protocol
//
// Firestore Mirror Service
// Pushes sealed ledger blocks, per-user audit entries, and
// compliance scores to Firestore so a dashboard can read them
// without querying the primary store directly. All methods are
// no-ops when the underlying client is disabled.

package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	gcpfirestore "cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/xtergo/dnaresearch/pkg/compliance"
	"github.com/xtergo/dnaresearch/pkg/ledger"
)

// MirrorService pushes committed ledger and compliance state to
// Firestore. It keeps its own hash chain per user, independent of
// the ledger's block chaining, so a dashboard reader can detect
// whether the mirror itself was tampered with in transit.
type MirrorService struct {
	client *Client
	logger *log.Logger

	auditChains   map[string]string // userID -> latest mirrorHash
	auditChainsMu sync.RWMutex
}

// MirrorServiceConfig holds configuration for the mirror service.
type MirrorServiceConfig struct {
	Client *Client
	Logger *log.Logger
}

// NewMirrorService creates a new Firestore mirror service.
func NewMirrorService(cfg *MirrorServiceConfig) (*MirrorService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("Firestore client is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[FirestoreMirror] ", log.LstdFlags)
	}

	return &MirrorService{
		client:      cfg.Client,
		logger:      cfg.Logger,
		auditChains: make(map[string]string),
	}, nil
}

// IsEnabled returns whether the mirror service is enabled.
func (m *MirrorService) IsEnabled() bool {
	return m.client != nil && m.client.IsEnabled()
}

// OnBlockSealed mirrors a newly sealed ledger block. The ledger calls
// it fire-and-forget (in a goroutine) right after it seals a block,
// whether from Append at the threshold or from ForceCommit, so it
// never adds latency to the write path.
func (m *MirrorService) OnBlockSealed(ctx context.Context, block *ledger.Block, entries []*ledger.LedgerEntry) error {
	if !m.IsEnabled() {
		return nil
	}

	entryTypes := make(map[string]int, len(entries))
	for _, e := range entries {
		entryTypes[string(e.EntryType)]++
	}

	snapshot := &BlockSnapshot{
		BlockID:           block.BlockID,
		SealedAt:          block.Timestamp,
		PreviousBlockHash: block.PreviousBlockHash,
		MerkleRoot:        block.MerkleRoot,
		BlockHash:         block.BlockHash,
		EntryCount:        len(block.EntryIDs),
		EntryTypes:        entryTypes,
	}

	if err := m.client.CreateBlockSnapshot(ctx, snapshot); err != nil {
		return err
	}

	for _, e := range entries {
		if err := m.mirrorEntry(ctx, e); err != nil {
			m.logger.Printf("Warning: failed to mirror entry %s for user %s: %v", e.EntryID, e.UserID, err)
		}
	}
	return nil
}

// mirrorEntry appends one ledger entry to its user's mirrored audit
// trail, chaining MirrorHash off the previous mirrored entry.
func (m *MirrorService) mirrorEntry(ctx context.Context, e *ledger.LedgerEntry) error {
	if e.UserID == "" {
		return nil
	}

	previousHash := m.cachedChainHash(e.UserID)
	if previousHash == "" {
		if prev, err := m.client.GetLatestAuditMirrorEntry(ctx, e.UserID); err == nil && prev != nil {
			previousHash = prev.MirrorHash
		}
	}

	mirror := &AuditMirrorEntry{
		EntryID:      uuid.New().String(),
		EntryType:    string(e.EntryType),
		Timestamp:    e.Timestamp,
		DataHash:     e.DataHash,
		PreviousHash: previousHash,
		Metadata:     e.Metadata,
	}
	mirror.MirrorHash = m.computeMirrorHash(mirror)

	if err := m.client.CreateAuditMirrorEntry(ctx, e.UserID, mirror); err != nil {
		return err
	}

	m.auditChainsMu.Lock()
	m.auditChains[e.UserID] = mirror.MirrorHash
	m.auditChainsMu.Unlock()
	return nil
}

func (m *MirrorService) cachedChainHash(userID string) string {
	m.auditChainsMu.RLock()
	defer m.auditChainsMu.RUnlock()
	return m.auditChains[userID]
}

// OnComplianceScoreUpdated mirrors the current compliance score for
// the dashboard.
func (m *MirrorService) OnComplianceScoreUpdated(ctx context.Context, score compliance.Score, overdueBreachCount int) error {
	if !m.IsEnabled() {
		return nil
	}
	snapshot := &ComplianceSnapshot{
		Timestamp:           time.Now(),
		ApprovedPIARatio:    score.ApprovedPIARatio,
		ResolvedBreachRatio: score.ResolvedBreachRatio,
		ActiveDPARatio:      score.ActiveDPARatio,
		Overall:             score.Overall,
		OverdueBreachCount:  overdueBreachCount,
	}
	return m.client.CreateComplianceSnapshot(ctx, snapshot)
}

// computeMirrorHash computes a SHA-256 hash over the entry's
// hash-relevant fields for chain integrity.
func (m *MirrorService) computeMirrorHash(entry *AuditMirrorEntry) string {
	data := map[string]interface{}{
		"entryType":    entry.EntryType,
		"timestamp":    entry.Timestamp.Unix(),
		"dataHash":     entry.DataHash,
		"previousHash": entry.PreviousHash,
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		m.logger.Printf("Warning: failed to marshal mirror entry for hashing: %v", err)
		return ""
	}
	hash := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(hash[:])
}

// AuditChainVerification holds the result of a mirror chain check.
type AuditChainVerification struct {
	UserID     string    `json:"userId"`
	EntryCount int       `json:"entryCount"`
	Verified   bool      `json:"verified"`
	Errors     []string  `json:"errors,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// VerifyMirrorChain verifies the integrity of a user's mirrored
// audit trail, independent of whether the ledger itself is intact.
func (m *MirrorService) VerifyMirrorChain(ctx context.Context, userID string) (*AuditChainVerification, error) {
	if !m.IsEnabled() {
		return nil, fmt.Errorf("firestore mirror is disabled")
	}

	collPath := fmt.Sprintf("users/%s/auditTrail", userID)
	query := m.client.firestore.Collection(collPath).OrderBy("timestamp", gcpfirestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}

	result := &AuditChainVerification{UserID: userID, EntryCount: len(docs), Verified: true, CheckedAt: time.Now()}
	if len(docs) == 0 {
		return result, nil
	}

	var previousHash string
	for i, doc := range docs {
		var entry AuditMirrorEntry
		if err := doc.DataTo(&entry); err != nil {
			result.Verified = false
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: failed to parse: %v", i, err))
			continue
		}
		entry.EntryID = doc.Ref.ID

		if entry.PreviousHash != previousHash {
			result.Verified = false
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d (%s): previousHash mismatch", i, entry.EntryID))
		}
		if computed := m.computeMirrorHash(&entry); entry.MirrorHash != computed {
			result.Verified = false
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d (%s): mirrorHash mismatch", i, entry.EntryID))
		}
		previousHash = entry.MirrorHash
	}
	return result, nil
}

// ClearChainCache drops the in-memory per-user hash cache, forcing
// the next mirror write to look up the previous hash from Firestore.
func (m *MirrorService) ClearChainCache() {
	m.auditChainsMu.Lock()
	defer m.auditChainsMu.Unlock()
	m.auditChains = make(map[string]string)
}
