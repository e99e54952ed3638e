package content

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/watercord/NigeriaGovhub-sub001/internal/search"
)

// MemoryStore is an in-process Repository. Items are kept in insertion
// order, which is the tie-break order for equal publish dates.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	items  []Item
}

func NewMemoryStore(items ...Item) *MemoryStore {
	m := &MemoryStore{}
	for i := range items {
		it := items[i]
		_ = m.Create(context.Background(), &it)
	}
	return m
}

func (m *MemoryStore) Search(_ context.Context, kind Kind, f search.Filter) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	candidates := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		if kind == "" || it.Kind == kind {
			candidates = append(candidates, it)
		}
	}
	return search.Apply(candidates, search.Compose(f), Item.SearchFields,
		func(it Item) time.Time { return it.PublishedDate }), nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, it := range m.items {
		if it.ID == id {
			cp := it
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) Create(_ context.Context, it *Item) error {
	now := time.Now().UTC()
	if err := it.Validate(now); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(it.Kind, it.Title, 0) {
		return errDuplicateTitle
	}
	m.nextID++
	it.ID = m.nextID
	it.CreatedAt = now
	it.UpdatedAt = now
	m.items = append(m.items, *it)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, it *Item) error {
	now := time.Now().UTC()
	if err := it.Validate(now); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(it.Kind, it.Title, it.ID) {
		return errDuplicateTitle
	}
	for i := range m.items {
		if m.items[i].ID == it.ID {
			it.CreatedAt = m.items[i].CreatedAt
			it.UpdatedAt = now
			m.items[i] = *it
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) Seed(ctx context.Context, items []Item) (int, error) {
	created := 0
	for i := range items {
		it := items[i]
		if m.exists(it.Kind, it.Title) {
			continue
		}
		if err := m.Create(ctx, &it); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (m *MemoryStore) exists(kind Kind, title string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taken(kind, strings.TrimSpace(title), 0)
}

// taken reports whether another item already uses kind and title. Callers
// hold m.mu.
func (m *MemoryStore) taken(kind Kind, title string, self int64) bool {
	for _, it := range m.items {
		if it.ID != self && it.Kind == kind && it.Title == title {
			return true
		}
	}
	return false
}
