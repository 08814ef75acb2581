package storage

import (
	"context"
	"strings"
	"sync"
)

// MemoryKV is an in-memory key-value store used in tests and as a last-resort
// fallback when the durable store cannot be opened.
type MemoryKV struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{records: make(map[string][]byte)}
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := append([]byte(nil), value...)
	m.records[key] = cp
	return nil
}

func (m *MemoryKV) GetAll(_ context.Context, prefix string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte)
	for k, v := range m.records {
		if strings.HasPrefix(k, prefix) {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *MemoryKV) Close() error { return nil }
