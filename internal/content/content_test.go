package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watercord/NigeriaGovhub-sub001/internal/history"
	"github.com/watercord/NigeriaGovhub-sub001/internal/metrics"
	"github.com/watercord/NigeriaGovhub-sub001/internal/search"
)

var day = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func seedItems() []Item {
	return []Item{
		{Kind: KindOpportunity, Title: "Tech Grant", Summary: "Startup funding", Category: "Finance", PublishedDate: day.Add(-24 * time.Hour)},
		{Kind: KindOpportunity, Title: "Farm Support", Summary: "Inputs for growers", Category: "Agriculture", PublishedDate: day},
		{Kind: KindNews, Title: "Grant round announced", Category: "Finance", PublishedDate: day.Add(time.Hour)},
		{Kind: KindOpportunity, Title: "Export Credit", Content: "Matching grant for exporters", Category: "Trade Finance", PublishedDate: day.Add(-24 * time.Hour)},
	}
}

func titles(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestMemoryStoreSearch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(seedItems()...)

	all, err := store.Search(ctx, KindOpportunity, search.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Farm Support", "Tech Grant", "Export Credit"}, titles(all))

	grant, err := store.Search(ctx, KindOpportunity, search.Filter{FreeText: "grant"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tech Grant", "Export Credit"}, titles(grant))

	trade, err := store.Search(ctx, KindOpportunity, search.Filter{FreeText: "grant", Category: "trade"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Export Credit"}, titles(trade))

	everywhere, err := store.Search(ctx, "", search.Filter{FreeText: "grant"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Grant round announced", "Tech Grant", "Export Credit"}, titles(everywhere))
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	it := &Item{Kind: KindService, Title: "  Passport Renewal  "}
	require.NoError(t, store.Create(ctx, it))
	assert.Equal(t, "Passport Renewal", it.Title)
	assert.False(t, it.PublishedDate.IsZero())

	it.Summary = "Renew online"
	require.NoError(t, store.Update(ctx, it))
	got, err := store.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renew online", got.Summary)

	require.NoError(t, store.Delete(ctx, it.ID))
	_, err = store.Get(ctx, it.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, it.ID), ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, &Item{ID: 99, Kind: KindNews, Title: "x"}), ErrNotFound)

	var ferr *FieldError
	require.ErrorAs(t, store.Create(ctx, &Item{Kind: "event", Title: "x"}), &ferr)
	assert.Equal(t, "kind", ferr.Field)
	require.ErrorAs(t, store.Create(ctx, &Item{Kind: KindNews, Title: " "}), &ferr)
	assert.Equal(t, "title", ferr.Field)
}

func TestMemoryStoreRejectsDuplicateTitlePerKind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first := &Item{Kind: KindNews, Title: "Budget Published"}
	require.NoError(t, store.Create(ctx, first))

	var ferr *FieldError
	require.ErrorAs(t, store.Create(ctx, &Item{Kind: KindNews, Title: " Budget Published "}), &ferr)
	assert.Equal(t, "title", ferr.Field)

	require.NoError(t, store.Create(ctx, &Item{Kind: KindProject, Title: "Budget Published"}),
		"titles are unique per kind only")

	second := &Item{Kind: KindNews, Title: "Budget Debated"}
	require.NoError(t, store.Create(ctx, second))
	second.Title = "Budget Published"
	require.ErrorAs(t, store.Update(ctx, second), &ferr)

	first.Summary = "updated"
	require.NoError(t, store.Update(ctx, first), "an item may keep its own title")
}

func TestMemoryStoreSeedIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	n, err := store.Seed(context.Background(), seedItems())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = store.Seed(context.Background(), seedItems())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSearchQuery(t *testing.T) {
	q, args := SearchQuery(KindOpportunity, search.Filter{FreeText: "grant", Category: "finance"})
	assert.Equal(t, "SELECT "+itemColumns+" FROM content_items WHERE kind = $1 AND "+
		"(title ILIKE $2 OR summary ILIKE $2 OR content ILIKE $2) AND (category ILIKE $3) "+
		"ORDER BY published_date DESC, id ASC", q)
	assert.Equal(t, []any{"opportunity", "%grant%", "%finance%"}, args)

	q, args = SearchQuery("", search.Filter{})
	assert.Equal(t, "SELECT "+itemColumns+" FROM content_items WHERE 1=1 ORDER BY published_date DESC, id ASC", q)
	assert.Empty(t, args)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"opportunities": KindOpportunity,
		"Opportunity":   KindOpportunity,
		"news":          KindNews,
		"projects":      KindProject,
		"service":       KindService,
	} {
		got, ok := ParseKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseKind("events")
	assert.False(t, ok)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	data := `items:
  - kind: opportunity
    title: Tech Grant
    category: Finance
    published_date: 2026-09-01T09:00:00Z
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	items, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, KindOpportunity, items[0].Kind)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), items[0].PublishedDate.UTC())
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Search(context.Context, Kind, search.Filter) ([]Item, error) {
	return nil, errors.New("connection refused")
}

type testEnv struct {
	router  http.Handler
	history *history.MemoryStore
	metrics *metrics.Metrics
}

func newEnv(t *testing.T, store Repository) testEnv {
	t.Helper()
	hist := history.NewMemoryStore(10)
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	h := &Handler{
		Store:   store,
		History: hist,
		Metrics: m,
		Logger:  slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAdmin(r)
	return testEnv{router: r, history: hist, metrics: m}
}

type searchBody struct {
	Results []Item `json:"results"`
	Count   int    `json:"count"`
}

func TestSearchEndpoint(t *testing.T) {
	env := newEnv(t, NewMemoryStore(seedItems()...))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/search?q=grant", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body searchBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"Tech Grant", "Export Credit"}, titles(body.Results))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Searches.WithLabelValues("opportunity")))

	var visitor *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == history.VisitorCookie {
			visitor = c
		}
	}
	require.NotNil(t, visitor)
	entries, err := env.history.List(context.Background(), visitor.Value)
	require.NoError(t, err)
	assert.Equal(t, []history.Entry{{Query: "grant", Kind: "opportunity"}}, entries)
}

func TestSearchEndpointEmptyResultIsArray(t *testing.T) {
	env := newEnv(t, NewMemoryStore(seedItems()...))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/search?q=zzz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[],"count":0}`, rec.Body.String())
}

func TestSearchEndpointStoreFailure(t *testing.T) {
	env := newEnv(t, failingStore{NewMemoryStore()})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/search?q=grant", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"search failed"}`, rec.Body.String())
}

func TestListAndDetailByKind(t *testing.T) {
	store := NewMemoryStore(seedItems()...)
	env := newEnv(t, store)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/news?category=finance", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body searchBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"Grant round announced"}, titles(body.Results))
	newsID := body.Results[0].ID

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/news/"+itoa(newsID), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/"+itoa(newsID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "kind mismatch is a 404")

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/news/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminCRUD(t *testing.T) {
	store := NewMemoryStore()
	env := newEnv(t, store)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/content",
		strings.NewReader(`{"kind":"project","title":"Rural Roads","category":"Infrastructure"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Item
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotZero(t, created.ID)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/content/"+itoa(created.ID),
		strings.NewReader(`{"kind":"project","title":"Rural Roads Phase 2","category":"Infrastructure"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	got, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rural Roads Phase 2", got.Title)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/content",
		strings.NewReader(`{"kind":"project","title":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/content",
		strings.NewReader(`{"kind":"project","title":"Rural Roads Phase 2"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"title: already exists for this kind"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/content/"+itoa(created.ID), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/content/"+itoa(created.ID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
