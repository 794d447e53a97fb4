package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/merkle"
)

// DefaultBlockThreshold is the number of pending entries that
// triggers an automatic block seal.
const DefaultBlockThreshold = 10

// Ledger is the single-writer, hash-chained audit log. append is
// fully serialized; VerifyIntegrity, GetEntry, and AuditTrail are
// reader operations that observe a consistent snapshot of sealed
// blocks plus the pending buffer.
type Ledger struct {
	mu sync.Mutex

	kv             KV
	logger         *log.Logger
	blockThreshold int
	metrics        MetricsRecorder
	sealObserver   BlockSealObserver

	counter uint64

	entries    map[string]*LedgerEntry
	entryOrder []string // all entry ids in append order
	pending    []string // entry ids not yet sealed into a block

	blocks []*Block // blocks[0] is the genesis block
}

// MetricsRecorder receives observability events as the ledger appends
// entries and seals blocks. *metrics.Registry satisfies this.
type MetricsRecorder interface {
	ObserveEntry(entryType string)
	ObserveBlockSealed()
}

// BlockSealObserver receives a copy of each newly sealed block and the
// entries it contains, for mirroring to an external dashboard store.
// *firestore.MirrorService satisfies this. Called fire-and-forget in
// its own goroutine so a slow or failing observer never adds latency
// to the append path.
type BlockSealObserver interface {
	OnBlockSealed(ctx context.Context, block *Block, entries []*LedgerEntry) error
}

// Option configures a Ledger at construction time.
type Option func(*Ledger)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithMetrics wires a recorder that observes appends and block seals.
func WithMetrics(m MetricsRecorder) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithBlockSealObserver wires an observer notified after every block
// seal, for mirroring sealed blocks to an external store.
func WithBlockSealObserver(o BlockSealObserver) Option {
	return func(l *Ledger) { l.sealObserver = o }
}

// WithBlockThreshold overrides DefaultBlockThreshold.
func WithBlockThreshold(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.blockThreshold = n
		}
	}
}

// WithKV attaches a durable KV backend. Defaults to an in-memory store.
func WithKV(kv KV) Option {
	return func(l *Ledger) { l.kv = kv }
}

// New creates a fresh Ledger seeded with a genesis block.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		blockThreshold: DefaultBlockThreshold,
		logger:         log.New(log.Writer(), "[Ledger] ", log.LstdFlags),
		entries:        make(map[string]*LedgerEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.kv == nil {
		l.kv = NewMemKV()
	}
	l.blocks = []*Block{genesisBlock()}
	l.persistBlock(l.blocks[0])
	return l
}

func genesisBlock() *Block {
	b := &Block{
		BlockID:           0,
		Timestamp:         time.Now().UTC(),
		PreviousBlockHash: ZeroHash,
		MerkleRoot:        ZeroHash,
		EntryIDs:          nil,
		Nonce:             0,
	}
	b.BlockHash = computeBlockHash(b)
	return b
}

// computeBlockHash hashes the canonicalized block header (everything
// but the entry list).
func computeBlockHash(b *Block) string {
	header := map[string]any{
		"block_id":            b.BlockID,
		"timestamp":           b.Timestamp.UTC().Format(time.RFC3339Nano),
		"previous_block_hash": b.PreviousBlockHash,
		"merkle_root":         b.MerkleRoot,
		"nonce":               b.Nonce,
	}
	canon, err := canonicalizeValue(header)
	if err != nil {
		// canonicalizeValue only fails on unmarshalable inputs; the
		// header above is never such a value.
		panic(fmt.Sprintf("ledger: failed to canonicalize block header: %v", err))
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:])
}

// merkleRootOf computes the Merkle root over the given entries' data
// hashes. An empty entry list maps to ZeroHash.
func merkleRootOf(entries []*LedgerEntry) (string, error) {
	if len(entries) == 0 {
		return ZeroHash, nil
	}
	leaves := make([][]byte, len(entries))
	for i, e := range entries {
		raw, err := hex.DecodeString(e.DataHash)
		if err != nil {
			return "", fmt.Errorf("ledger: invalid data_hash on entry %s: %w", e.EntryID, err)
		}
		leaves[i] = raw
	}
	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return "", fmt.Errorf("ledger: failed to build merkle tree: %w", err)
	}
	return tree.RootHex(), nil
}

// Append canonicalizes payload, computes its data hash, and appends a
// new pending entry. When the pending buffer reaches the block
// threshold, a block is sealed automatically.
func (l *Ledger) Append(entryType EntryType, userID string, payload map[string]any, metadata map[string]any) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	canon, err := canonicalize(payload)
	if err != nil {
		return "", apperr.Wrap(fmt.Errorf("canonicalize payload: %w", err))
	}
	sum := sha256.Sum256(canon)

	l.counter++
	entryID := fmt.Sprintf("entry-%d", l.counter)
	tip := l.blocks[len(l.blocks)-1]

	entry := &LedgerEntry{
		EntryID:      entryID,
		EntryType:    entryType,
		UserID:       userID,
		Timestamp:    time.Now().UTC(),
		DataHash:     hex.EncodeToString(sum[:]),
		PreviousHash: tip.BlockHash,
		Metadata:     metadata,
	}

	l.entries[entryID] = entry
	l.entryOrder = append(l.entryOrder, entryID)
	l.pending = append(l.pending, entryID)

	l.logger.Printf("appended %s (type=%s user=%s)", entryID, entryType, userID)
	if l.metrics != nil {
		l.metrics.ObserveEntry(string(entryType))
	}

	if len(l.pending) >= l.blockThreshold {
		if _, err := l.sealLocked(); err != nil {
			return entryID, err
		}
	}

	return entryID, nil
}

// ForceCommit seals any pending entries into a new block. It is a
// no-op if the pending buffer is empty.
func (l *Ledger) ForceCommit() (uint64, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return 0, false, nil
	}
	id, err := l.sealLocked()
	return id, err == nil, err
}

func (l *Ledger) sealLocked() (uint64, error) {
	pendingEntries := make([]*LedgerEntry, len(l.pending))
	for i, id := range l.pending {
		pendingEntries[i] = l.entries[id]
	}

	root, err := merkleRootOf(pendingEntries)
	if err != nil {
		return 0, apperr.Wrap(err)
	}

	tip := l.blocks[len(l.blocks)-1]
	block := &Block{
		BlockID:           tip.BlockID + 1,
		Timestamp:         time.Now().UTC(),
		PreviousBlockHash: tip.BlockHash,
		MerkleRoot:        root,
		EntryIDs:          append([]string(nil), l.pending...),
		Nonce:             0,
	}
	block.BlockHash = computeBlockHash(block)

	for _, e := range pendingEntries {
		e.BlockHash = block.BlockHash
	}

	l.blocks = append(l.blocks, block)
	l.pending = nil
	l.persistBlock(block)

	l.logger.Printf("sealed block %d (%d entries, root=%s)", block.BlockID, len(block.EntryIDs), block.MerkleRoot[:8])
	if l.metrics != nil {
		l.metrics.ObserveBlockSealed()
	}
	if l.sealObserver != nil {
		sealed := block
		observedEntries := append([]*LedgerEntry(nil), pendingEntries...)
		go func() {
			if err := l.sealObserver.OnBlockSealed(context.Background(), sealed, observedEntries); err != nil {
				l.logger.Printf("block seal observer failed for block %d: %v", sealed.BlockID, err)
			}
		}()
	}

	return block.BlockID, nil
}

// GetEntry looks up an entry by id, checking the pending buffer first
// and then sealed blocks.
func (l *Ledger) GetEntry(entryID string) (*LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[entryID]
	if !ok {
		return nil, errEntryNotFound(entryID)
	}
	cp := *e
	return &cp, nil
}

// AuditTrail returns every entry for userID, newest first.
func (l *Ledger) AuditTrail(userID string) []*LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*LedgerEntry
	for _, id := range l.entryOrder {
		e := l.entries[id]
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// VerifyIntegrity recomputes every sealed block's hash and Merkle
// root and checks the chain links. It never attempts self-repair.
func (l *Ledger) VerifyIntegrity() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 1; i < len(l.blocks); i++ {
		prev := l.blocks[i-1]
		cur := l.blocks[i]

		if cur.PreviousBlockHash != prev.BlockHash {
			l.logger.Printf("integrity check failed: block %d previous_block_hash mismatch", cur.BlockID)
			return false
		}

		entries := make([]*LedgerEntry, len(cur.EntryIDs))
		for j, id := range cur.EntryIDs {
			e, ok := l.entries[id]
			if !ok {
				l.logger.Printf("integrity check failed: block %d missing entry %s", cur.BlockID, id)
				return false
			}
			entries[j] = e
		}
		root, err := merkleRootOf(entries)
		if err != nil || root != cur.MerkleRoot {
			l.logger.Printf("integrity check failed: block %d merkle root mismatch", cur.BlockID)
			return false
		}

		if computeBlockHash(cur) != cur.BlockHash {
			l.logger.Printf("integrity check failed: block %d block_hash mismatch", cur.BlockID)
			return false
		}
	}
	return true
}

// BlockCount returns the number of blocks including the genesis block.
func (l *Ledger) BlockCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.blocks)
}

// Tamper is a test/debug hook that corrupts a sealed block's hash to
// exercise VerifyIntegrity's failure path; it has no production use.
func (l *Ledger) Tamper(blockID uint64, hash string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.blocks {
		if b.BlockID == blockID {
			b.BlockHash = hash
			return
		}
	}
}

// ProveEntry returns a Merkle inclusion proof for a sealed entry
// against its block's root, built from the block's own entry set.
func (l *Ledger) ProveEntry(entryID string) (*merkle.InclusionProof, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[entryID]
	if !ok || e.BlockHash == "" {
		return nil, "", errEntryNotFound(entryID)
	}

	var block *Block
	for _, b := range l.blocks {
		if b.BlockHash == e.BlockHash {
			block = b
			break
		}
	}
	if block == nil {
		return nil, "", errEntryNotFound(entryID)
	}

	leaves := make([][]byte, len(block.EntryIDs))
	index := -1
	for i, id := range block.EntryIDs {
		raw, err := hex.DecodeString(l.entries[id].DataHash)
		if err != nil {
			return nil, "", apperr.Wrap(err)
		}
		leaves[i] = raw
		if id == entryID {
			index = i
		}
	}
	if index < 0 {
		return nil, "", errEntryNotFound(entryID)
	}
	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return nil, "", apperr.Wrap(err)
	}
	proof, err := tree.GenerateProof(index)
	if err != nil {
		return nil, "", apperr.Wrap(err)
	}
	return proof, block.BlockHash, nil
}

func (l *Ledger) persistBlock(b *Block) {
	if l.kv == nil {
		return
	}
	blob, err := json.Marshal(b)
	if err != nil {
		l.logger.Printf("failed to marshal block %d for persistence: %v", b.BlockID, err)
		return
	}
	key := []byte(fmt.Sprintf("ledger:block:%020d", b.BlockID))
	if err := l.kv.Set(key, blob); err != nil {
		l.logger.Printf("failed to persist block %d: %v", b.BlockID, err)
	}
}
