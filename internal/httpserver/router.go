package httpserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/watercord/NigeriaGovhub-sub001/internal/access"
	"github.com/watercord/NigeriaGovhub-sub001/internal/auth"
	"github.com/watercord/NigeriaGovhub-sub001/internal/content"
	"github.com/watercord/NigeriaGovhub-sub001/internal/feedback"
	"github.com/watercord/NigeriaGovhub-sub001/internal/history"
	"github.com/watercord/NigeriaGovhub-sub001/internal/httputil"
	"github.com/watercord/NigeriaGovhub-sub001/internal/metrics"
	"github.com/watercord/NigeriaGovhub-sub001/internal/pages"
	"github.com/watercord/NigeriaGovhub-sub001/internal/sentiment"
)

// Deps carries everything the router mounts. Gatherer defaults to
// prometheus.DefaultGatherer.
type Deps struct {
	Logger    *slog.Logger
	Auth      *auth.Service
	Gate      *access.Gate
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Content   *content.Handler
	History   *history.Handler
	Feedback  *feedback.Handler
	Sentiment *sentiment.Handler
	Pages     *pages.Pages
}

func NewRouter(d Deps) http.Handler {
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Logger, d.Metrics))
	r.Use(auth.IdentityMiddleware(d.Auth))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Auth
	authHandler := &auth.Handler{Service: d.Auth, Logger: d.Logger}
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/logout", authHandler.Logout)
	r.With(auth.JWTMiddleware(d.Auth)).Get("/api/auth/me", authHandler.Me)

	// Public content, search history and feedback.
	d.Content.Register(r)
	r.Get("/api/search/history", d.History.List)
	r.Delete("/api/search/history", d.History.Clear)
	d.Feedback.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.JWTMiddleware(d.Auth))
		d.Feedback.RegisterUser(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(d.Gate.Middleware(auth.RoleAdmin))
		d.Content.RegisterAdmin(r)
		d.Feedback.RegisterAdmin(r)
		d.Sentiment.RegisterAdmin(r)
	})

	// Server-rendered pages.
	d.Pages.Register(r)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/opportunities", http.StatusFound)
	})

	// CORS wrapper (simple, for local UI/tools).
	return withCORS(r)
}

// requestLogger logs each request and records its latency against the
// matched route pattern, so path parameters do not explode label cardinality.
func requestLogger(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.ObserveRequest(route, strconv.Itoa(status), start)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
