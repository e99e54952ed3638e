package feedback

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Repository stores citizen feedback and engagement on content items.
type Repository interface {
	CreateFeedback(ctx context.Context, f *Feedback) error
	ListFeedback(ctx context.Context, limit int) ([]Feedback, error)
	AddComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, itemID int64) ([]Comment, error)
	SetLike(ctx context.Context, userID, itemID int64, liked bool) error
	LikeCount(ctx context.Context, itemID int64) (int, error)
	SetBookmark(ctx context.Context, userID, itemID int64, saved bool) error
	Bookmarks(ctx context.Context, userID int64) ([]int64, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

func (s *Store) CreateFeedback(ctx context.Context, f *Feedback) error {
	if err := f.Validate(); err != nil {
		return err
	}
	const q = `
		INSERT INTO feedback (user_id, name, email, subject, message, rating, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at
	`
	return s.db.QueryRowContext(ctx, q, f.UserID, f.Name, f.Email, f.Subject, f.Message, f.Rating,
		time.Now().UTC()).Scan(&f.ID, &f.CreatedAt)
}

func (s *Store) ListFeedback(ctx context.Context, limit int) ([]Feedback, error) {
	const q = `
		SELECT id, user_id, name, email, subject, message, rating, created_at
		FROM feedback ORDER BY created_at DESC, id DESC LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, q, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Feedback
	for rows.Next() {
		var f Feedback
		var uid sql.NullInt64
		if err := rows.Scan(&f.ID, &uid, &f.Name, &f.Email, &f.Subject, &f.Message, &f.Rating, &f.CreatedAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			f.UserID = &uid.Int64
		}
		res = append(res, f)
	}
	return res, rows.Err()
}

func (s *Store) AddComment(ctx context.Context, c *Comment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	const q = `
		INSERT INTO comments (item_id, user_id, body, created_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at
	`
	return s.db.QueryRowContext(ctx, q, c.ItemID, c.UserID, c.Body, time.Now().UTC()).Scan(&c.ID, &c.CreatedAt)
}

func (s *Store) ListComments(ctx context.Context, itemID int64) ([]Comment, error) {
	const q = `
		SELECT c.id, c.item_id, c.user_id, u.username, c.body, c.created_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.item_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`
	rows, err := s.db.QueryContext(ctx, q, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ItemID, &c.UserID, &c.Username, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *Store) setPair(ctx context.Context, table string, userID, itemID int64, on bool) error {
	var q string
	if on {
		q = `INSERT INTO ` + table + ` (user_id, item_id, created_at) VALUES ($1, $2, now())
			ON CONFLICT (user_id, item_id) DO UPDATE SET created_at = EXCLUDED.created_at`
	} else {
		q = `DELETE FROM ` + table + ` WHERE user_id = $1 AND item_id = $2`
	}
	_, err := s.db.ExecContext(ctx, q, userID, itemID)
	return err
}

func (s *Store) SetLike(ctx context.Context, userID, itemID int64, liked bool) error {
	return s.setPair(ctx, "likes", userID, itemID, liked)
}

func (s *Store) LikeCount(ctx context.Context, itemID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM likes WHERE item_id = $1`, itemID).Scan(&n)
	return n, err
}

func (s *Store) SetBookmark(ctx context.Context, userID, itemID int64, saved bool) error {
	return s.setPair(ctx, "bookmarks", userID, itemID, saved)
}

func (s *Store) Bookmarks(ctx context.Context, userID int64) ([]int64, error) {
	const q = `SELECT array_agg(item_id ORDER BY created_at DESC) FROM bookmarks WHERE user_id = $1`
	var ids pq.Int64Array
	if err := s.db.QueryRowContext(ctx, q, userID).Scan(&ids); err != nil {
		return nil, err
	}
	return []int64(ids), nil
}
