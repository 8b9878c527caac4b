package store

import (
	"context"
	"sort"
	"sync"

	"github.com/coopledger/feedcost/feed"
	"github.com/coopledger/feedcost/flock"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	batches map[string]flock.Batch
	deaths  []flock.DeathRecord
	bags    map[string]feed.Bag
}

func NewMemory() *Memory {
	return &Memory{
		batches: make(map[string]flock.Batch),
		bags:    make(map[string]feed.Bag),
	}
}

func (m *Memory) CreateBatch(_ context.Context, b flock.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.batches[b.ID]; ok {
		return ErrDuplicateID
	}
	m.batches[b.ID] = b
	return nil
}

func (m *Memory) ListBatches(_ context.Context) ([]flock.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	batches := make([]flock.Batch, 0, len(m.batches))
	for _, b := range m.batches {
		batches = append(batches, b)
	}
	sort.Slice(batches, func(i, j int) bool {
		if batches[i].AcquiredAt.Equal(batches[j].AcquiredAt) {
			return batches[i].ID < batches[j].ID
		}
		return batches[i].AcquiredAt.Before(batches[j].AcquiredAt)
	})
	return batches, nil
}

func (m *Memory) DeactivateBatch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return ErrNotFound
	}
	b.Active = false
	m.batches[id] = b
	return nil
}

func (m *Memory) CreateDeath(_ context.Context, d flock.DeathRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deaths = append(m.deaths, d)
	sort.SliceStable(m.deaths, func(i, j int) bool {
		return m.deaths[i].Date.Before(m.deaths[j].Date)
	})
	return nil
}

func (m *Memory) ListDeaths(_ context.Context) ([]flock.DeathRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	deaths := make([]flock.DeathRecord, len(m.deaths))
	copy(deaths, m.deaths)
	return deaths, nil
}

func (m *Memory) CreateFeedBag(_ context.Context, b feed.Bag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bags[b.ID]; ok {
		return ErrDuplicateID
	}
	m.bags[b.ID] = b
	return nil
}

func (m *Memory) ListFeedBags(_ context.Context) ([]feed.Bag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bags := make([]feed.Bag, 0, len(m.bags))
	for _, b := range m.bags {
		bags = append(bags, b)
	}
	sort.Slice(bags, func(i, j int) bool {
		if bags[i].OpenedAt.Equal(bags[j].OpenedAt) {
			return bags[i].ID < bags[j].ID
		}
		return bags[i].OpenedAt.Before(bags[j].OpenedAt)
	})
	return bags, nil
}

func (m *Memory) MarkDepleted(_ context.Context, id string, at flock.TimePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bags[id]
	if !ok {
		return ErrNotFound
	}
	if b.DepletedAt != nil {
		return ErrAlreadyDepleted
	}
	b.DepletedAt = &at
	m.bags[id] = b
	return nil
}

func (m *Memory) DeleteFeedBag(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bags[id]; !ok {
		return ErrNotFound
	}
	delete(m.bags, id)
	return nil
}

func (m *Memory) Close() error { return nil }
