package content

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/watercord/NigeriaGovhub-sub001/internal/search"
)

var ErrNotFound = errors.New("content item not found")

// Repository is the content store used by handlers and pages. An empty kind
// searches across all kinds.
type Repository interface {
	Search(ctx context.Context, kind Kind, f search.Filter) ([]Item, error)
	Get(ctx context.Context, id int64) (*Item, error)
	Create(ctx context.Context, it *Item) error
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id int64) error
	Seed(ctx context.Context, items []Item) (int, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const itemColumns = "id, kind, title, summary, content, category, image_url, published_date, created_at, updated_at"

// SearchQuery renders the SQL and arguments for a search.
func SearchQuery(kind Kind, f search.Filter) (string, []any) {
	clauses := []string{}
	args := []any{}
	idx := 1
	if kind != "" {
		clauses = append(clauses, "kind = $"+strconv.Itoa(idx))
		args = append(args, string(kind))
		idx++
	}
	where, pargs := search.Compose(f).Where(idx)
	clauses = append(clauses, where)
	args = append(args, pargs...)
	query := "SELECT " + itemColumns + " FROM content_items WHERE " +
		strings.Join(clauses, " AND ") + " ORDER BY published_date DESC, id ASC"
	return query, args
}

func (s *Store) Search(ctx context.Context, kind Kind, f search.Filter) ([]Item, error) {
	query, args := SearchQuery(kind, f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Kind, &it.Title, &it.Summary, &it.Content, &it.Category,
			&it.ImageURL, &it.PublishedDate, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM content_items WHERE id = $1", id)
	var it Item
	if err := row.Scan(&it.ID, &it.Kind, &it.Title, &it.Summary, &it.Content, &it.Category,
		&it.ImageURL, &it.PublishedDate, &it.CreatedAt, &it.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (s *Store) Create(ctx context.Context, it *Item) error {
	now := time.Now().UTC()
	if err := it.Validate(now); err != nil {
		return err
	}
	const q = `
		INSERT INTO content_items
		(kind, title, summary, content, category, image_url, published_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, q, it.Kind, it.Title, it.Summary, it.Content, it.Category,
		it.ImageURL, it.PublishedDate, now, now).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	return duplicateTitle(err)
}

// duplicateTitle maps the (kind, title) unique violation to a field error.
func duplicateTitle(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return errDuplicateTitle
	}
	return err
}

func (s *Store) Update(ctx context.Context, it *Item) error {
	now := time.Now().UTC()
	if err := it.Validate(now); err != nil {
		return err
	}
	const q = `
		UPDATE content_items
		SET kind = $1, title = $2, summary = $3, content = $4, category = $5,
		    image_url = $6, published_date = $7, updated_at = $8
		WHERE id = $9
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, q, it.Kind, it.Title, it.Summary, it.Content, it.Category,
		it.ImageURL, it.PublishedDate, now, it.ID).Scan(&it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return duplicateTitle(err)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM content_items WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Seed inserts items that are not already present, keyed by kind and title.
func (s *Store) Seed(ctx context.Context, items []Item) (int, error) {
	const q = `
		INSERT INTO content_items
		(kind, title, summary, content, category, image_url, published_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		ON CONFLICT (kind, title) DO NOTHING
	`
	now := time.Now().UTC()
	created := 0
	for i := range items {
		it := items[i]
		if err := it.Validate(now); err != nil {
			return created, err
		}
		res, err := s.db.ExecContext(ctx, q, it.Kind, it.Title, it.Summary, it.Content, it.Category,
			it.ImageURL, it.PublishedDate, now)
		if err != nil {
			return created, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
		}
	}
	return created, nil
}
