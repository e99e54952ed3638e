package access

import (
	"log/slog"
	"net/http"

	"github.com/watercord/NigeriaGovhub-sub001/internal/auth"
	"github.com/watercord/NigeriaGovhub-sub001/internal/httputil"
	"github.com/watercord/NigeriaGovhub-sub001/internal/metrics"
)

// Gate applies Decide to HTTP requests. It expects auth.IdentityMiddleware
// to have run; a missing identity is treated as anonymous.
type Gate struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func NewGate(logger *slog.Logger, m *metrics.Metrics) *Gate {
	return &Gate{Logger: logger, Metrics: m}
}

func identity(r *http.Request) *auth.Identity {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	return id
}

// Check evaluates the gate for r without writing a response.
func (g *Gate) Check(r *http.Request, required auth.Role) Decision {
	id := identity(r)
	fallback := "/"
	if id != nil {
		fallback = FallbackFor(id.Role)
	}
	d := Decide(id, required, r.URL.RequestURI(), fallback)

	outcome := "allow"
	switch {
	case d.Allowed():
	case id == nil:
		outcome = "login"
		g.Logger.Warn("access denied: not signed in", "path", r.URL.Path, "required_role", required)
	default:
		outcome = "fallback"
		g.Logger.Warn("access denied: role mismatch",
			"path", r.URL.Path,
			"user_id", id.UserID,
			"role", id.Role,
			"required_role", required,
		)
	}
	g.Metrics.IncAccessDecision(outcome)
	return d
}

// Protect wraps a server-rendered page. Only an Allow decision reaches next;
// every other outcome is a 303 redirect.
func (g *Gate) Protect(required auth.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Check(r, required)
		if !d.Allowed() {
			http.Redirect(w, r, d.Location(), http.StatusSeeOther)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// RequireRole wraps a REST handler, answering 401 for anonymous callers and
// 403 for the wrong role.
func (g *Gate) RequireRole(required auth.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Check(r, required)
		if d.Allowed() {
			next.ServeHTTP(w, r)
			return
		}
		if identity(r) == nil {
			httputil.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		httputil.WriteError(w, http.StatusForbidden, "insufficient role")
	})
}

// Middleware adapts RequireRole for router groups.
func (g *Gate) Middleware(required auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.RequireRole(required, next)
	}
}
