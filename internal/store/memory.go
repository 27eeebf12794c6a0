package store

import (
	"context"
	"sync"

	"github.com/rahul/agendabot/internal/agenda"
)

// MemoryStore is a map-backed Store for tests and throwaway runs.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]agenda.Item
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]agenda.Item)}
}

func (m *MemoryStore) Put(_ context.Context, it agenda.Item) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}
	m.items[it.ID] = it
	return it.ID, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (agenda.Item, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return agenda.Item{}, false, ErrClosed
	}
	it, ok := m.items[id]
	return it, ok, nil
}

func (m *MemoryStore) Range(_ context.Context, start, end agenda.Date) ([]agenda.Item, error) {
	return m.filter(func(it agenda.Item) bool {
		d := agenda.DateOf(it.OccursAt)
		return !d.Before(start) && !end.Before(d)
	})
}

func (m *MemoryStore) Search(_ context.Context, query string) ([]agenda.Item, error) {
	return m.filter(func(it agenda.Item) bool { return matches(it, query) })
}

func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	_, ok := m.items[id]
	delete(m.items, id)
	return ok, nil
}

func (m *MemoryStore) UpdateField(_ context.Context, id string, u agenda.FieldUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	it, ok := m.items[id]
	if !ok {
		return false, nil
	}
	u.Apply(&it)
	m.items[id] = it
	return true, nil
}

func (m *MemoryStore) UpdateItem(_ context.Context, next agenda.Item) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	cur, ok := m.items[next.ID]
	if !ok {
		return false, nil
	}
	next.CreatedAt = cur.CreatedAt
	m.items[next.ID] = next
	return true, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	return len(m.items), nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryStore) filter(keep func(agenda.Item) bool) ([]agenda.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	var out []agenda.Item
	for _, it := range m.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	sortByOccurrence(out)
	return out, nil
}
