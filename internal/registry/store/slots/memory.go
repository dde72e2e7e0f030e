// Package slots provides Substrate implementations for the registry store.
package slots

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

// Memory keeps slots in a map guarded by one lock. Suitable for tests and
// single-process deployments.
type Memory struct {
	mu    deadlock.RWMutex
	slots map[domain.Address][]byte
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[domain.Address][]byte)}
}

func (m *Memory) CreateIfAbsent(_ context.Context, addr domain.Address, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[addr]; ok {
		return sentinel.ErrAlreadyUsed
	}
	m.slots[addr] = clone(data)
	return nil
}

func (m *Memory) Upsert(_ context.Context, addr domain.Address, data []byte, guard func(prev []byte) error) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.slots[addr]
	if ok && guard != nil {
		if err := guard(clone(prev)); err != nil {
			return false, err
		}
	}
	m.slots[addr] = clone(data)
	return !ok, nil
}

func (m *Memory) Get(_ context.Context, addr domain.Address) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(data), nil
}

func (m *Memory) GetMany(_ context.Context, addrs []domain.Address) (map[domain.Address][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[domain.Address][]byte, len(addrs))
	for _, addr := range addrs {
		if data, ok := m.slots[addr]; ok {
			out[addr] = clone(data)
		}
	}
	return out, nil
}

// Len reports the number of occupied slots.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.slots)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
