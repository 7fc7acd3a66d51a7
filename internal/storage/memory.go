// internal/storage/memory.go
package storage

import (
	"context"
	"sync"

	"mcp-calorie-ledger/internal/models"
)

// MemoryStore keeps day records in a process-local map. This is the
// default store: state lives exactly as long as the session.
type MemoryStore struct {
	mu   sync.RWMutex
	days map[string]*models.DayRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		days: make(map[string]*models.DayRecord),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*models.DayRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.days[key]
	if !ok {
		return nil, nil
	}

	// Copy out so callers can't mutate stored state in place.
	out := &models.DayRecord{
		Totals:  rec.Totals,
		History: make([]models.FoodEntry, len(rec.History)),
	}
	copy(out.History, rec.History)
	return out, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, rec *models.DayRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := &models.DayRecord{
		Totals:  rec.Totals,
		History: make([]models.FoodEntry, len(rec.History)),
	}
	copy(stored.History, rec.History)
	m.days[key] = stored
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
