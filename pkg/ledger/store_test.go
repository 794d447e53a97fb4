package ledger

import (
	"context"
	"testing"
	"time"
)

type fakeSealObserver struct {
	sealed chan *Block
}

func (o *fakeSealObserver) OnBlockSealed(_ context.Context, block *Block, _ []*LedgerEntry) error {
	o.sealed <- block
	return nil
}

func TestNew_HasGenesisBlock(t *testing.T) {
	l := New()
	if l.BlockCount() != 1 {
		t.Fatalf("expected 1 block (genesis), got %d", l.BlockCount())
	}
	if !l.VerifyIntegrity() {
		t.Fatalf("expected fresh ledger to verify")
	}
}

func TestAppend_AutoSealsAtThreshold(t *testing.T) {
	l := New(WithBlockThreshold(10))
	for i := 0; i < 10; i++ {
		if _, err := l.Append(EntryDataAccess, "user_001", map[string]any{"i": i}, nil); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if l.BlockCount() != 2 {
		t.Fatalf("expected genesis + 1 sealed block, got %d", l.BlockCount())
	}
	if !l.VerifyIntegrity() {
		t.Fatalf("expected ledger to verify after auto-seal")
	}
}

func TestVerifyIntegrity_DetectsTampering(t *testing.T) {
	l := New(WithBlockThreshold(10))
	for i := 0; i < 10; i++ {
		if _, err := l.Append(EntryDataAccess, "user_001", map[string]any{"i": i}, nil); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if !l.VerifyIntegrity() {
		t.Fatalf("expected ledger to verify before tampering")
	}
	l.Tamper(1, "x")
	if l.VerifyIntegrity() {
		t.Fatalf("expected tampering to be detected")
	}
}

func TestForceCommit_NoOpWhenEmpty(t *testing.T) {
	l := New()
	_, sealed, err := l.ForceCommit()
	if err != nil {
		t.Fatalf("force commit: %v", err)
	}
	if sealed {
		t.Fatalf("expected no-op on empty pending buffer")
	}
}

func TestAuditTrail_FiltersByUserNewestFirst(t *testing.T) {
	l := New()
	id1, _ := l.Append(EntryDataAccess, "user_a", map[string]any{"n": 1}, nil)
	_, _ = l.Append(EntryDataAccess, "user_b", map[string]any{"n": 2}, nil)
	id3, _ := l.Append(EntryDataAccess, "user_a", map[string]any{"n": 3}, nil)

	trail := l.AuditTrail("user_a")
	if len(trail) != 2 {
		t.Fatalf("expected 2 entries for user_a, got %d", len(trail))
	}
	if trail[0].EntryID != id3 || trail[1].EntryID != id1 {
		t.Fatalf("expected newest-first order, got %v", trail)
	}
}

func TestGetEntry_PendingAndSealed(t *testing.T) {
	l := New(WithBlockThreshold(10))
	id, _ := l.Append(EntryDataAccess, "user_001", nil, nil)

	got, err := l.GetEntry(id)
	if err != nil {
		t.Fatalf("get pending entry: %v", err)
	}
	if got.BlockHash != "" {
		t.Fatalf("expected pending entry to have no block hash yet")
	}

	for i := 0; i < 9; i++ {
		_, _ = l.Append(EntryDataAccess, "user_001", nil, nil)
	}
	got, err = l.GetEntry(id)
	if err != nil {
		t.Fatalf("get sealed entry: %v", err)
	}
	if got.BlockHash == "" {
		t.Fatalf("expected sealed entry to carry a block hash")
	}
}

func TestProveEntry_VerifiesAgainstBlockRoot(t *testing.T) {
	l := New(WithBlockThreshold(4))
	var ids []string
	for i := 0; i < 4; i++ {
		id, _ := l.Append(EntryDataAccess, "user_001", map[string]any{"i": i}, nil)
		ids = append(ids, id)
	}

	proof, blockHash, err := l.ProveEntry(ids[2])
	if err != nil {
		t.Fatalf("prove entry: %v", err)
	}
	if blockHash == "" {
		t.Fatalf("expected non-empty block hash")
	}
	if proof.LeafHash == "" {
		t.Fatalf("expected proof to carry the leaf hash")
	}
}

func TestSealLocked_NotifiesBlockSealObserver(t *testing.T) {
	observer := &fakeSealObserver{sealed: make(chan *Block, 1)}
	l := New(WithBlockThreshold(3), WithBlockSealObserver(observer))
	for i := 0; i < 3; i++ {
		if _, err := l.Append(EntryDataAccess, "user_001", map[string]any{"i": i}, nil); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	select {
	case block := <-observer.sealed:
		if block.BlockID != 1 {
			t.Fatalf("expected the first sealed block (id 1), got %d", block.BlockID)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected block seal observer to be notified")
	}
}
