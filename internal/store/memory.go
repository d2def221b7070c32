// internal/store/memory.go
//
// In-memory registry of live tables.
//
// Characteristics:
//   - Stores *table.Table objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - ErrNotFound is returned for missing table IDs on Get().

package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/robalobadob/pidro/internal/table"
)

var ErrNotFound = errors.New("not found")

// Store defines the registry interface for tables.
type Store interface {
	// Save adds or replaces a table.
	Save(ctx context.Context, t *table.Table) error

	// Get retrieves a table by ID.
	Get(ctx context.Context, id uuid.UUID) (*table.Table, error)

	// List returns all tables, oldest first.
	List(ctx context.Context) ([]*table.Table, error)

	// Close closes every table.
	Close()
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.RWMutex
	tables map[uuid.UUID]*table.Table
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{tables: make(map[uuid.UUID]*table.Table)}
}

func (m *memory) Save(ctx context.Context, t *table.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.ID] = t
	return nil
}

func (m *memory) Get(ctx context.Context, id uuid.UUID) (*table.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tables[id]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

func (m *memory) List(ctx context.Context) ([]*table.Table, error) {
	m.mu.RLock()
	out := make([]*table.Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tables {
		t.Close()
		delete(m.tables, id)
	}
}
