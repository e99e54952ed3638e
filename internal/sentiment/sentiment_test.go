package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watercord/NigeriaGovhub-sub001/internal/config"
	"github.com/watercord/NigeriaGovhub-sub001/internal/feedback"
	"github.com/watercord/NigeriaGovhub-sub001/internal/metrics"
)

func TestParseSummary(t *testing.T) {
	got := parseSummary(`SENTIMENT: Negative
SUMMARY: Citizens struggle to find grant deadlines.
THEMES: deadlines, search, mobile layout, login, extra`)

	assert.Equal(t, "negative", got.Sentiment)
	assert.Equal(t, "Citizens struggle to find grant deadlines.", got.Summary)
	assert.Equal(t, []string{"deadlines", "search", "mobile layout", "login"}, got.Themes)
}

func TestParseSummaryTruncatesThemesOnRuneBoundaries(t *testing.T) {
	long := "a" + strings.Repeat("é", 80)
	got := parseSummary("THEMES: " + long + ", ok")

	require.Len(t, got.Themes, 2)
	assert.True(t, utf8.ValidString(got.Themes[0]))
	assert.Equal(t, maxThemeLen, utf8.RuneCountInString(got.Themes[0]))
	assert.Equal(t, "a"+strings.Repeat("é", maxThemeLen-1), got.Themes[0])

	body, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `\ufffd`)
}

func TestParseSummaryFallsBackToNeutral(t *testing.T) {
	got := parseSummary("Overall people seem happy.")
	assert.Equal(t, "neutral", got.Sentiment)
	assert.Empty(t, got.Summary)
	assert.NotNil(t, got.Themes)

	got = parseSummary("SENTIMENT: ecstatic")
	assert.Equal(t, "neutral", got.Sentiment)
}

func TestBuildPromptCapsMessages(t *testing.T) {
	msgs := make([]string, maxMessages+10)
	for i := range msgs {
		msgs[i] = "line\nbreak"
	}
	p := buildPrompt(msgs)
	assert.Equal(t, maxMessages, strings.Count(p, "- line break"))
}

func TestNew(t *testing.T) {
	_, err := New(t.Context(), config.AIConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(t.Context(), config.AIConfig{Provider: "claude"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(t.Context(), config.AIConfig{Provider: "bard", APIKey: "k"})
	assert.ErrorContains(t, err, "unknown AI provider")

	s, err := New(t.Context(), config.AIConfig{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", s.(*openaiProvider).model)
	assert.Equal(t, openaiBaseURL, s.(*openaiProvider).baseURL)

	s, err = New(t.Context(), config.AIConfig{Provider: "claude", APIKey: "k", BaseURL: "http://gateway:8080/"})
	require.NoError(t, err)
	assert.Equal(t, "http://gateway:8080", s.(*claudeProvider).baseURL)
}

func TestClaudeProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, claudePath, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		var req claudeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[0].Content, "- The portal is slow")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"text": "SENTIMENT: negative\nSUMMARY: Slow pages.\nTHEMES: performance"}},
		})
	}))
	defer srv.Close()

	p, err := New(t.Context(), config.AIConfig{Provider: "claude", APIKey: "secret", Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)
	got, err := p.Summarize(t.Context(), []string{"The portal is slow"})
	require.NoError(t, err)
	assert.Equal(t, Summary{Sentiment: "negative", Summary: "Slow pages.", Themes: []string{"performance"}}, got)
}

func TestOpenAIProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, openaiPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := &openaiProvider{apiKey: "secret", model: "m", baseURL: srv.URL, client: srv.Client()}
	_, err := p.Summarize(t.Context(), []string{"hello"})
	assert.ErrorContains(t, err, "status 429")
}

type stubSummarizer struct {
	got []string
	err error
}

func (s *stubSummarizer) Summarize(_ context.Context, msgs []string) (Summary, error) {
	s.got = msgs
	if s.err != nil {
		return Summary{}, s.err
	}
	return Summary{Sentiment: "positive", Summary: "Good.", Themes: []string{"ease"}}, nil
}

func newHandler(t *testing.T, s Summarizer, entries ...feedback.Feedback) (*Handler, *metrics.Metrics) {
	t.Helper()
	store := feedback.NewMemoryStore()
	for i := range entries {
		require.NoError(t, store.CreateFeedback(t.Context(), &entries[i]))
	}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	return &Handler{
		Summarizer: s,
		Feedback:   store,
		Metrics:    m,
		Logger:     slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}, m
}

func post(h *Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Summarize(rec, httptest.NewRequest(http.MethodPost, "/api/admin/feedback/summary", nil))
	return rec
}

func TestHandlerUnconfigured(t *testing.T) {
	h, m := newHandler(t, nil)
	rec := post(h)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SentimentRuns.WithLabelValues("unconfigured")))
}

func TestHandlerEmpty(t *testing.T) {
	stub := &stubSummarizer{}
	h, _ := newHandler(t, stub)
	rec := post(h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sentiment":"neutral","summary":"No feedback yet.","themes":[],"count":0}`, rec.Body.String())
	assert.Nil(t, stub.got)
}

func TestHandlerSummarizes(t *testing.T) {
	stub := &stubSummarizer{}
	h, m := newHandler(t, stub,
		feedback.Feedback{Name: "a", Email: "a@example.com", Subject: "Search", Message: "Works well"},
		feedback.Feedback{Name: "b", Email: "b@example.com", Message: "Love it"},
	)
	rec := post(h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sentiment":"positive","summary":"Good.","themes":["ease"],"count":2}`, rec.Body.String())
	assert.Equal(t, []string{"Love it", "Search: Works well"}, stub.got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SentimentRuns.WithLabelValues("ok")))
}

func TestHandlerProviderFailure(t *testing.T) {
	h, m := newHandler(t, &stubSummarizer{err: errors.New("boom")},
		feedback.Feedback{Name: "a", Email: "a@example.com", Message: "x"})
	rec := post(h)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SentimentRuns.WithLabelValues("error")))
}
