// Package history keeps a short, per-visitor list of recent searches. A
// visitor is identified by an anonymous cookie, not by account.
package history

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

const DefaultTTL = 30 * 24 * time.Hour

// Entry is one remembered search.
type Entry struct {
	Query    string `json:"q,omitempty"`
	Category string `json:"category,omitempty"`
	Kind     string `json:"kind,omitempty"`
}

func (e Entry) empty() bool {
	return strings.TrimSpace(e.Query) == "" && strings.TrimSpace(e.Category) == ""
}

func (e Entry) encode() (string, error) {
	b, err := json.Marshal(e)
	return string(b), err
}

func decode(s string) (Entry, bool) {
	var e Entry
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return Entry{}, false
	}
	return e, true
}

// Store remembers searches per visitor, most recent first, without
// duplicates.
type Store interface {
	Add(ctx context.Context, visitor string, e Entry) error
	List(ctx context.Context, visitor string) ([]Entry, error)
	Clear(ctx context.Context, visitor string) error
}

// DefaultMaxVisitors bounds how many visitors a MemoryStore remembers.
const DefaultMaxVisitors = 10000

// MemoryStore is process-local; entries are lost on restart. Visitors idle
// for longer than DefaultTTL are dropped, and once MaxVisitors is reached
// the least recently active visitor is evicted.
type MemoryStore struct {
	mu          sync.Mutex
	limit       int
	maxVisitors int
	ttl         time.Duration
	now         func() time.Time
	visitors    map[string]*visitorEntries
}

type visitorEntries struct {
	entries []Entry
	touched time.Time
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 10
	}
	return &MemoryStore{
		limit:       limit,
		maxVisitors: DefaultMaxVisitors,
		ttl:         DefaultTTL,
		now:         time.Now,
		visitors:    make(map[string]*visitorEntries),
	}
}

func (m *MemoryStore) Add(_ context.Context, visitor string, e Entry) error {
	if e.empty() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	v, ok := m.live(visitor, now)
	if !ok {
		m.makeRoom(now)
		v = &visitorEntries{}
		m.visitors[visitor] = v
	}
	list := []Entry{e}
	for _, old := range v.entries {
		if old != e {
			list = append(list, old)
		}
	}
	if len(list) > m.limit {
		list = list[:m.limit]
	}
	v.entries = list
	v.touched = now
	return nil
}

// live returns the visitor's entries unless they have expired.
func (m *MemoryStore) live(visitor string, now time.Time) (*visitorEntries, bool) {
	v, ok := m.visitors[visitor]
	if !ok {
		return nil, false
	}
	if now.Sub(v.touched) > m.ttl {
		delete(m.visitors, visitor)
		return nil, false
	}
	return v, true
}

// makeRoom drops expired visitors, then the oldest ones until a new
// visitor fits. Callers hold m.mu.
func (m *MemoryStore) makeRoom(now time.Time) {
	if len(m.visitors) < m.maxVisitors {
		return
	}
	for id, v := range m.visitors {
		if now.Sub(v.touched) > m.ttl {
			delete(m.visitors, id)
		}
	}
	for len(m.visitors) >= m.maxVisitors {
		var oldest string
		var oldestAt time.Time
		for id, v := range m.visitors {
			if oldest == "" || v.touched.Before(oldestAt) {
				oldest, oldestAt = id, v.touched
			}
		}
		delete(m.visitors, oldest)
	}
}

func (m *MemoryStore) List(_ context.Context, visitor string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.live(visitor, m.now())
	if !ok {
		return []Entry{}, nil
	}
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context, visitor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.visitors, visitor)
	return nil
}
