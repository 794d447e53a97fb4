package ledger

import "sync"

// MemKV is an in-memory KV implementation, the default backing store
// for a fresh Ledger. Production deployments can substitute a durable
// KV (see pkg/kvdb for a CometBFT-backed adapter) without changing
// any ledger logic.
type MemKV struct {
	mu    sync.RWMutex
	store map[string][]byte
}

// NewMemKV creates an empty in-memory KV store.
func NewMemKV() *MemKV {
	return &MemKV{store: make(map[string][]byte)}
}

func (m *MemKV) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.store[string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.store[string(key)] = cp
	return nil
}
