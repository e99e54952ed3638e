package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the portal's Prometheus collectors.
type Metrics struct {
	Searches          *prometheus.CounterVec
	AccessDecisions   *prometheus.CounterVec
	FeedbackSubmitted prometheus.Counter
	SentimentRuns     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// New registers the collectors with prometheus.DefaultRegisterer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govhub_searches_total",
			Help: "Content searches served, by content kind",
		}, []string{"kind"}),
		AccessDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govhub_access_decisions_total",
			Help: "Access gate decisions, by outcome (allow, login, fallback)",
		}, []string{"outcome"}),
		FeedbackSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "govhub_feedback_submitted_total",
			Help: "Feedback entries submitted through the portal",
		}),
		SentimentRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govhub_sentiment_runs_total",
			Help: "Feedback sentiment summaries requested, by result",
		}, []string{"result"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "govhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) IncSearch(kind string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncAccessDecision(outcome string) {
	if m == nil {
		return
	}
	m.AccessDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncFeedbackSubmitted() {
	if m == nil {
		return
	}
	m.FeedbackSubmitted.Inc()
}

func (m *Metrics) IncSentimentRun(result string) {
	if m == nil {
		return
	}
	m.SentimentRuns.WithLabelValues(result).Inc()
}

// ObserveRequest records a request duration. Call with time.Now() taken at
// the start of the request.
func (m *Metrics) ObserveRequest(route, status string, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
}
