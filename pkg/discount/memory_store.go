package discount

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type naturalKey struct {
	productID string
	date      string
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]Record
	byKey map[naturalKey]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[uuid.UUID]Record),
		byKey: make(map[naturalKey]uuid.UUID),
	}
}

func keyOf(r *Record) naturalKey {
	return naturalKey{productID: r.ProductID, date: r.Date()}
}

func (m *MemoryStore) Upsert(_ context.Context, rec *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := *rec
	if id, ok := m.byKey[keyOf(rec)]; ok {
		existing := m.byID[id]
		out.ID = existing.ID
		out.CreatedAt = existing.CreatedAt
	}
	m.byID[out.ID] = out
	m.byKey[keyOf(&out)] = out.ID
	return &out, nil
}

func (m *MemoryStore) List(_ context.Context, productID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0)
	for _, r := range m.byID {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Record) int {
		return a.HolidayDate.Compare(b.HolidayDate)
	})
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &r, nil
}

func (m *MemoryStore) Update(_ context.Context, rec *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[rec.ID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if other, taken := m.byKey[keyOf(rec)]; taken && other != rec.ID {
		return nil, ErrDuplicateRecord
	}

	out := *rec
	out.CreatedAt = existing.CreatedAt
	delete(m.byKey, keyOf(&existing))
	m.byID[out.ID] = out
	m.byKey[keyOf(&out)] = out.ID
	return &out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return ErrRecordNotFound
	}
	delete(m.byID, id)
	delete(m.byKey, keyOf(&r))
	return nil
}
