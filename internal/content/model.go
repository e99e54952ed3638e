package content

import (
	"strings"
	"time"

	"github.com/watercord/NigeriaGovhub-sub001/internal/search"
)

type Kind string

const (
	KindProject     Kind = "project"
	KindNews        Kind = "news"
	KindOpportunity Kind = "opportunity"
	KindService     Kind = "service"
)

var Kinds = []Kind{KindProject, KindNews, KindOpportunity, KindService}

// Plural is the route segment for the kind.
func (k Kind) Plural() string {
	switch k {
	case KindNews:
		return "news"
	case KindOpportunity:
		return "opportunities"
	default:
		return string(k) + "s"
	}
}

func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if k == v {
			return true
		}
	}
	return false
}

// ParseKind accepts singular or plural names, case-insensitively.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if s == string(k) || s == k.Plural() {
			return k, true
		}
	}
	return "", false
}

type Item struct {
	ID            int64     `json:"id" yaml:"-"`
	Kind          Kind      `json:"kind" yaml:"kind"`
	Title         string    `json:"title" yaml:"title"`
	Summary       string    `json:"summary" yaml:"summary"`
	Content       string    `json:"content" yaml:"content"`
	Category      string    `json:"category" yaml:"category"`
	ImageURL      string    `json:"image_url,omitempty" yaml:"image_url"`
	PublishedDate time.Time `json:"published_date" yaml:"published_date"`
	CreatedAt     time.Time `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"-"`
}

func (it Item) SearchFields() search.Fields {
	return search.Fields{
		Title:    it.Title,
		Summary:  it.Summary,
		Content:  it.Content,
		Category: it.Category,
	}
}

// FieldError reports an invalid item field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

var errDuplicateTitle = &FieldError{Field: "title", Reason: "already exists for this kind"}

// Validate trims text fields and fills defaults in place.
func (it *Item) Validate(now time.Time) error {
	it.Title = strings.TrimSpace(it.Title)
	it.Summary = strings.TrimSpace(it.Summary)
	it.Category = strings.TrimSpace(it.Category)
	if !it.Kind.Valid() {
		return &FieldError{Field: "kind", Reason: "must be one of project, news, opportunity, service"}
	}
	if it.Title == "" {
		return &FieldError{Field: "title", Reason: "is required"}
	}
	if len(it.Title) > 200 {
		return &FieldError{Field: "title", Reason: "must be at most 200 characters"}
	}
	if it.PublishedDate.IsZero() {
		it.PublishedDate = now
	}
	return nil
}
