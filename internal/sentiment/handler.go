package sentiment

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/watercord/NigeriaGovhub-sub001/internal/feedback"
	"github.com/watercord/NigeriaGovhub-sub001/internal/httputil"
	"github.com/watercord/NigeriaGovhub-sub001/internal/metrics"
)

type FeedbackLister interface {
	ListFeedback(ctx context.Context, limit int) ([]feedback.Feedback, error)
}

// Handler serves feedback summaries to admins. A nil Summarizer means the
// feature is switched off.
type Handler struct {
	Summarizer Summarizer
	Feedback   FeedbackLister
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/api/admin/feedback/summary", h.Summarize)
}

type summaryResponse struct {
	Summary
	Count int `json:"count"`
}

// Summarize handles POST /api/admin/feedback/summary?limit=N.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	if h.Summarizer == nil {
		h.Metrics.IncSentimentRun("unconfigured")
		httputil.WriteError(w, http.StatusServiceUnavailable, ErrNotConfigured.Error())
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxMessages {
		limit = maxMessages
	}
	entries, err := h.Feedback.ListFeedback(r.Context(), limit)
	if err != nil {
		h.Logger.Error("list feedback for summary", "err", err)
		h.Metrics.IncSentimentRun("error")
		httputil.WriteError(w, http.StatusInternalServerError, "could not load feedback")
		return
	}
	if len(entries) == 0 {
		h.Metrics.IncSentimentRun("empty")
		httputil.WriteJSON(w, http.StatusOK, summaryResponse{
			Summary: Summary{Sentiment: defaultLabel, Summary: "No feedback yet.", Themes: []string{}},
		})
		return
	}
	msgs := make([]string, len(entries))
	for i, e := range entries {
		msgs[i] = e.Message
		if e.Subject != "" {
			msgs[i] = e.Subject + ": " + e.Message
		}
	}
	sum, err := h.Summarizer.Summarize(r.Context(), msgs)
	if err != nil {
		h.Logger.Error("summarize feedback", "err", err, "messages", len(msgs))
		h.Metrics.IncSentimentRun("error")
		httputil.WriteError(w, http.StatusBadGateway, "summary provider failed")
		return
	}
	h.Metrics.IncSentimentRun("ok")
	h.Logger.Info("feedback summarized", "messages", len(msgs), "sentiment", sum.Sentiment)
	httputil.WriteJSON(w, http.StatusOK, summaryResponse{Summary: sum, Count: len(msgs)})
}
