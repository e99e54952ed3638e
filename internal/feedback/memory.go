package feedback

import (
	"context"
	"sync"
	"time"
)

type pair struct {
	user, item int64
}

// MemoryStore is an in-process Repository.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	feedback  []Feedback
	comments  []Comment
	likes     map[pair]struct{}
	bookmarks []pair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{likes: make(map[pair]struct{})}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateFeedback(_ context.Context, f *Feedback) error {
	if err := f.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = m.id()
	f.CreatedAt = time.Now().UTC()
	m.feedback = append(m.feedback, *f)
	return nil
}

// ListFeedback returns the newest entries first.
func (m *MemoryStore) ListFeedback(_ context.Context, limit int) ([]Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit = clampLimit(limit)
	out := make([]Feedback, 0, min(limit, len(m.feedback)))
	for i := len(m.feedback) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.feedback[i])
	}
	return out, nil
}

func (m *MemoryStore) AddComment(_ context.Context, c *Comment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	c.CreatedAt = time.Now().UTC()
	m.comments = append(m.comments, *c)
	return nil
}

func (m *MemoryStore) ListComments(_ context.Context, itemID int64) ([]Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Comment
	for _, c := range m.comments {
		if c.ItemID == itemID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) SetLike(_ context.Context, userID, itemID int64, liked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if liked {
		m.likes[pair{userID, itemID}] = struct{}{}
	} else {
		delete(m.likes, pair{userID, itemID})
	}
	return nil
}

func (m *MemoryStore) LikeCount(_ context.Context, itemID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for p := range m.likes {
		if p.item == itemID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) SetBookmark(_ context.Context, userID, itemID int64, saved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := pair{userID, itemID}
	kept := m.bookmarks[:0]
	for _, b := range m.bookmarks {
		if b != p {
			kept = append(kept, b)
		}
	}
	m.bookmarks = kept
	if saved {
		m.bookmarks = append(m.bookmarks, p)
	}
	return nil
}

// Bookmarks returns the user's saved item ids, most recently saved first.
func (m *MemoryStore) Bookmarks(_ context.Context, userID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []int64
	for i := len(m.bookmarks) - 1; i >= 0; i-- {
		if m.bookmarks[i].user == userID {
			out = append(out, m.bookmarks[i].item)
		}
	}
	return out, nil
}
