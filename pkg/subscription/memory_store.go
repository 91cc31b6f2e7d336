package subscription

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used in tests and single-instance setups.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]*Subscription)}
}

func (m *MemoryStore) Get(_ context.Context, accountID string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subs[accountID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (m *MemoryStore) Create(_ context.Context, sub *Subscription) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[sub.AccountID]; ok {
		return false, nil
	}
	m.subs[sub.AccountID] = sub.Clone()
	return true, nil
}

func (m *MemoryStore) Update(_ context.Context, accountID string, fn func(*Subscription) error) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subs[accountID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return m.apply(sub, fn)
}

func (m *MemoryStore) UpdateByCustomer(_ context.Context, customerRef string, fn func(*Subscription) error) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs {
		if Deref(sub.CustomerRef) == customerRef {
			return m.apply(sub, fn)
		}
	}
	return nil, ErrSubscriptionNotFound
}

// apply must be called with m.mu held.
func (m *MemoryStore) apply(current *Subscription, fn func(*Subscription) error) (*Subscription, error) {
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	m.subs[working.AccountID] = working
	return working.Clone(), nil
}
