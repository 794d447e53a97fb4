// Copyright 2025 Certen Protocol
//
// Firestore Client
// Firebase Admin SDK client for mirroring ledger blocks and
// compliance scores to Firestore for a real-time dashboard.

package firestore

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	gcpfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// Client wraps the Firestore client with project-specific functionality.
type Client struct {
	app       *firebase.App
	firestore *gcpfirestore.Client
	projectID string
	logger    *log.Logger
	enabled   bool
	mu        sync.RWMutex
}

// ClientConfig holds configuration for the Firestore client.
type ClientConfig struct {
	// ProjectID is the Firebase/GCP project ID.
	ProjectID string

	// CredentialsFile is the path to the service account JSON file.
	// If empty, uses GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsFile string

	// Enabled controls whether Firestore operations are actually
	// performed. If false, all operations are no-ops, so the
	// dashboard mirror can be left off in local development and
	// single-tenant deployments without code changes.
	Enabled bool

	Logger *log.Logger
}

// DefaultConfig returns a ClientConfig populated from environment
// variables.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		Enabled:         getEnvBool("FIRESTORE_ENABLED", false),
		Logger:          log.New(os.Stdout, "[Firestore] ", log.LstdFlags),
	}
}

// NewClient creates a new Firestore client. When cfg.Enabled is
// false, it returns a no-op client rather than an error.
func NewClient(ctx context.Context, cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[Firestore] ", log.LstdFlags)
	}

	client := &Client{
		projectID: cfg.ProjectID,
		logger:    cfg.Logger,
		enabled:   cfg.Enabled,
	}

	if !cfg.Enabled {
		cfg.Logger.Println("Firestore mirror is DISABLED - running in no-op mode")
		return client, nil
	}

	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required when Firestore is enabled")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	client.app = app
	client.firestore = firestoreClient

	cfg.Logger.Printf("Firestore client initialized for project: %s", cfg.ProjectID)
	return client, nil
}

// Close closes the Firestore client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.firestore != nil {
		return c.firestore.Close()
	}
	return nil
}

// IsEnabled returns whether the Firestore mirror is enabled.
func (c *Client) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Collection returns a reference to a Firestore collection.
func (c *Client) Collection(path string) *gcpfirestore.CollectionRef {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.Collection(path)
}

// Doc returns a reference to a Firestore document.
func (c *Client) Doc(path string) *gcpfirestore.DocumentRef {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.Doc(path)
}

// CreateBlockSnapshot mirrors a sealed ledger block.
// Path: /ledgerBlocks/{blockID}
func (c *Client) CreateBlockSnapshot(ctx context.Context, snapshot *BlockSnapshot) error {
	if !c.IsEnabled() {
		c.logger.Printf("Firestore disabled - skipping block snapshot for block=%d", snapshot.BlockID)
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("Firestore client not initialized")
	}

	docPath := fmt.Sprintf("ledgerBlocks/%d", snapshot.BlockID)
	_, err := c.firestore.Doc(docPath).Set(ctx, map[string]interface{}{
		"blockId":           snapshot.BlockID,
		"sealedAt":          snapshot.SealedAt,
		"previousBlockHash": snapshot.PreviousBlockHash,
		"merkleRoot":        snapshot.MerkleRoot,
		"blockHash":         snapshot.BlockHash,
		"entryCount":        snapshot.EntryCount,
		"entryTypes":        snapshot.EntryTypes,
	})
	if err != nil {
		c.logger.Printf("Failed to create block snapshot: %v", err)
		return fmt.Errorf("failed to create block snapshot: %w", err)
	}

	c.logger.Printf("Mirrored ledger block %d (%d entries)", snapshot.BlockID, snapshot.EntryCount)
	return nil
}

// CreateAuditMirrorEntry mirrors one ledger entry into a per-user
// audit trail collection.
// Path: /users/{userID}/auditTrail/{entryID}
func (c *Client) CreateAuditMirrorEntry(ctx context.Context, userID string, entry *AuditMirrorEntry) error {
	if !c.IsEnabled() {
		c.logger.Printf("Firestore disabled - skipping audit mirror for user=%s type=%s", userID, entry.EntryType)
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("Firestore client not initialized")
	}

	if entry.EntryID == "" {
		entry.EntryID = fmt.Sprintf("%s_%d", entry.EntryType, time.Now().UnixNano())
	}

	docPath := fmt.Sprintf("users/%s/auditTrail/%s", userID, entry.EntryID)
	_, err := c.firestore.Doc(docPath).Set(ctx, map[string]interface{}{
		"entryType":    entry.EntryType,
		"timestamp":    entry.Timestamp,
		"dataHash":     entry.DataHash,
		"previousHash": entry.PreviousHash,
		"mirrorHash":   entry.MirrorHash,
		"metadata":     entry.Metadata,
	})
	if err != nil {
		c.logger.Printf("Failed to create audit mirror entry: %v", err)
		return fmt.Errorf("failed to create audit mirror entry: %w", err)
	}

	c.logger.Printf("Mirrored audit entry: user=%s type=%s", userID, entry.EntryType)
	return nil
}

// CreateComplianceSnapshot mirrors the current compliance score.
// Path: /complianceSnapshots/{snapshotID}
func (c *Client) CreateComplianceSnapshot(ctx context.Context, snapshot *ComplianceSnapshot) error {
	if !c.IsEnabled() {
		c.logger.Printf("Firestore disabled - skipping compliance snapshot")
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("Firestore client not initialized")
	}

	if snapshot.SnapshotID == "" {
		snapshot.SnapshotID = fmt.Sprintf("score_%d", time.Now().UnixNano())
	}

	docPath := fmt.Sprintf("complianceSnapshots/%s", snapshot.SnapshotID)
	_, err := c.firestore.Doc(docPath).Set(ctx, map[string]interface{}{
		"timestamp":           snapshot.Timestamp,
		"approvedPiaRatio":    snapshot.ApprovedPIARatio,
		"resolvedBreachRatio": snapshot.ResolvedBreachRatio,
		"activeDpaRatio":      snapshot.ActiveDPARatio,
		"overall":             snapshot.Overall,
		"overdueBreachCount":  snapshot.OverdueBreachCount,
	})
	if err != nil {
		c.logger.Printf("Failed to create compliance snapshot: %v", err)
		return fmt.Errorf("failed to create compliance snapshot: %w", err)
	}

	c.logger.Printf("Mirrored compliance snapshot: overall=%.3f", snapshot.Overall)
	return nil
}

// GetLatestAuditMirrorEntry retrieves the most recent mirrored audit
// entry for a user, used to chain MirrorHash against PreviousHash.
func (c *Client) GetLatestAuditMirrorEntry(ctx context.Context, userID string) (*AuditMirrorEntry, error) {
	if !c.IsEnabled() || c.firestore == nil {
		return nil, nil
	}

	collPath := fmt.Sprintf("users/%s/auditTrail", userID)
	query := c.firestore.Collection(collPath).OrderBy("timestamp", gcpfirestore.Desc).Limit(1)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	var entry AuditMirrorEntry
	if err := docs[0].DataTo(&entry); err != nil {
		return nil, fmt.Errorf("failed to parse audit mirror entry: %w", err)
	}
	entry.EntryID = docs[0].Ref.ID
	return &entry, nil
}

// Batch creates a new Firestore batch for atomic writes.
func (c *Client) Batch() *gcpfirestore.WriteBatch {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.Batch()
}

// RunTransaction runs a Firestore transaction.
func (c *Client) RunTransaction(ctx context.Context, f func(context.Context, *gcpfirestore.Transaction) error) error {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.RunTransaction(ctx, f)
}

// Health checks if the Firestore connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	if !c.IsEnabled() {
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("Firestore client not initialized")
	}
	_, _ = c.firestore.Collection("_health_check").Doc("ping").Get(ctx)
	return nil
}

func getEnvBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val == "true" || val == "1" || val == "yes"
}
