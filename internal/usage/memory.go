package usage

import (
	"context"
	"sync"

	"ask-api/internal/shared"
)

// MemoryStore keeps records in process. Used for local runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]shared.UsageRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]shared.UsageRecord{}}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*shared.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryStore) Set(_ context.Context, rec shared.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.UserID] = rec
	return nil
}

func (m *MemoryStore) Increment(_ context.Context, userID string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return ErrRecordNotFound
	}
	rec.RequestCount += delta
	m.records[userID] = rec
	return nil
}

func (m *MemoryStore) SetIfDate(_ context.Context, rec shared.UsageRecord, expectedDate string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.records[rec.UserID]
	if cur.LastRequestDate != expectedDate {
		return false, nil
	}
	m.records[rec.UserID] = rec
	return true, nil
}
