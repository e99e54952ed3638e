// Package search composes optional content filters into a single predicate
// that can be rendered as a parameterized SQL WHERE fragment or evaluated
// in memory. Both renderings share the same matching rules: every clause is
// a case-insensitive substring test over one or more columns, and clauses
// are AND-ed together.
package search

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Filter holds the user-supplied search constraints. Empty fields impose no
// constraint.
type Filter struct {
	FreeText string `json:"q,omitempty"`
	Category string `json:"category,omitempty"`
}

func NewFilter(freeText, category string) Filter {
	return Filter{FreeText: freeText, Category: category}.Normalize()
}

func (f Filter) Normalize() Filter {
	return Filter{
		FreeText: strings.TrimSpace(f.FreeText),
		Category: strings.TrimSpace(f.Category),
	}
}

func (f Filter) IsEmpty() bool {
	f = f.Normalize()
	return f.FreeText == "" && f.Category == ""
}

// Fields is the searchable view of a content record.
type Fields struct {
	Title    string
	Summary  string
	Content  string
	Category string
}

// Column names a searchable field both as a SQL column and as an accessor
// on Fields.
type Column struct {
	Name  string
	value func(Fields) string
}

var (
	TitleColumn    = Column{Name: "title", value: func(f Fields) string { return f.Title }}
	SummaryColumn  = Column{Name: "summary", value: func(f Fields) string { return f.Summary }}
	ContentColumn  = Column{Name: "content", value: func(f Fields) string { return f.Content }}
	CategoryColumn = Column{Name: "category", value: func(f Fields) string { return f.Category }}
)

// Clause matches when Term is a case-insensitive substring of any of its
// columns.
type Clause struct {
	Columns []Column
	Term    string
}

func (c Clause) Match(f Fields) bool {
	term := strings.ToLower(c.Term)
	for _, col := range c.Columns {
		if strings.Contains(strings.ToLower(col.value(f)), term) {
			return true
		}
	}
	return false
}

// Predicate is a conjunction of clauses. The zero value matches everything.
type Predicate []Clause

// Compose builds the predicate for a filter: free text is matched against
// title, summary and content; category against the category column.
func Compose(f Filter) Predicate {
	f = f.Normalize()
	var p Predicate
	p = p.With(f.FreeText, TitleColumn, SummaryColumn, ContentColumn)
	p = p.With(f.Category, CategoryColumn)
	return p
}

// With appends a clause for term over cols. Blank terms are skipped.
func (p Predicate) With(term string, cols ...Column) Predicate {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return p
	}
	return append(p, Clause{Columns: cols, Term: term})
}

func (p Predicate) Match(f Fields) bool {
	for _, c := range p {
		if !c.Match(f) {
			return false
		}
	}
	return true
}

// Where renders the predicate as SQL. Placeholders start at $firstArg and
// each clause binds a single argument shared by its columns. An empty
// predicate renders as "1=1".
func (p Predicate) Where(firstArg int) (string, []any) {
	if len(p) == 0 {
		return "1=1", nil
	}
	parts := make([]string, 0, len(p))
	args := make([]any, 0, len(p))
	idx := firstArg
	for _, c := range p {
		placeholder := "$" + strconv.Itoa(idx)
		ors := make([]string, 0, len(c.Columns))
		for _, col := range c.Columns {
			ors = append(ors, col.Name+" ILIKE "+placeholder)
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
		args = append(args, "%"+EscapeLike(c.Term)+"%")
		idx++
	}
	return strings.Join(parts, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters using Postgres' default escape
// character.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Result is an ordered set of matches plus their count.
type Result[T any] struct {
	Results []T `json:"results"`
	Count   int `json:"count"`
}

func NewResult[T any](items []T) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Results: items, Count: len(items)}
}

// Apply filters items with p and orders matches newest first. Items with the
// same publish time keep their input order.
func Apply[T any](items []T, p Predicate, fields func(T) Fields, published func(T) time.Time) []T {
	matched := make([]T, 0, len(items))
	for _, it := range items {
		if p.Match(fields(it)) {
			matched = append(matched, it)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return published(matched[i]).After(published(matched[j]))
	})
	return matched
}
