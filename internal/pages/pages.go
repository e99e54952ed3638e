// Package pages serves the server-rendered portal pages. Protected pages
// are wrapped with the access gate; they never check roles themselves.
package pages

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/watercord/NigeriaGovhub-sub001/internal/access"
	"github.com/watercord/NigeriaGovhub-sub001/internal/auth"
	"github.com/watercord/NigeriaGovhub-sub001/internal/content"
	"github.com/watercord/NigeriaGovhub-sub001/internal/feedback"
	"github.com/watercord/NigeriaGovhub-sub001/internal/history"
	"github.com/watercord/NigeriaGovhub-sub001/internal/httputil"
	"github.com/watercord/NigeriaGovhub-sub001/internal/metrics"
	"github.com/watercord/NigeriaGovhub-sub001/internal/search"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	searchFailedText = "We could not load opportunities right now. Please try again later."
	loginFailedText  = "Invalid username or password."
	pageFailedText   = "This page could not be loaded right now."
)

var pageNames = []string{
	"login",
	"opportunities",
	"user_dashboard",
	"admin_dashboard",
	"manage_feedback",
	"manage_content",
}

type Pages struct {
	Auth     *auth.Service
	Content  content.Repository
	Feedback feedback.Repository
	History  history.Store
	Gate     *access.Gate
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	templates map[string]*template.Template
}

// New parses the embedded templates. The remaining fields are set by the
// caller before Register.
func New() (*Pages, error) {
	p := &Pages{templates: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

func (p *Pages) Register(r chi.Router) {
	r.Get("/login", p.LoginForm)
	r.Post("/login", p.Login)
	r.Post("/logout", p.Logout)
	r.Get("/opportunities", p.Opportunities)

	r.Method(http.MethodGet, "/dashboard/user", p.Gate.Protect(auth.RoleUser, http.HandlerFunc(p.UserDashboard)))
	r.Method(http.MethodGet, "/dashboard/admin", p.Gate.Protect(auth.RoleAdmin, http.HandlerFunc(p.AdminDashboard)))
	r.Method(http.MethodGet, "/dashboard/admin/manage-feedback", p.Gate.Protect(auth.RoleAdmin, http.HandlerFunc(p.ManageFeedback)))
	r.Method(http.MethodGet, "/dashboard/admin/manage-content", p.Gate.Protect(auth.RoleAdmin, http.HandlerFunc(p.ManageContent)))
}

type view struct {
	Title    string
	Identity *auth.Identity
	Error    string
	Data     any
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		v.Identity = id
	}
	var buf bytes.Buffer
	if err := p.templates[name].ExecuteTemplate(&buf, "layout", v); err != nil {
		p.Logger.Error("render page", "page", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type loginData struct {
	Username string
	Redirect string
}

// localRedirect keeps only same-site targets.
func localRedirect(p string) string {
	if httputil.IsLocalPath(p) {
		return p
	}
	return ""
}

// LoginForm handles GET /login. Signed-in visitors go straight on.
func (p *Pages) LoginForm(w http.ResponseWriter, r *http.Request) {
	target := localRedirect(r.URL.Query().Get("redirect"))
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		if target == "" {
			target = access.FallbackFor(id.Role)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	p.render(w, r, http.StatusOK, "login", view{Title: "Sign in", Data: loginData{Redirect: target}})
}

// Login handles POST /login.
func (p *Pages) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	target := localRedirect(r.PostForm.Get("redirect"))

	user, token, err := p.Auth.Authenticate(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		status := http.StatusUnauthorized
		msg := loginFailedText
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			p.Logger.Error("page login", "err", err)
			status, msg = http.StatusInternalServerError, pageFailedText
		} else {
			p.Logger.Warn("page login failed", "username", username)
		}
		p.render(w, r, status, "login", view{
			Title: "Sign in",
			Error: msg,
			Data:  loginData{Username: username, Redirect: target},
		})
		return
	}

	http.SetCookie(w, p.Auth.SessionCookie(token))
	p.Logger.Info("page login", "user_id", user.ID, "role", user.Role)
	if target == "" {
		target = access.FallbackFor(user.Role)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout handles POST /logout.
func (p *Pages) Logout(w http.ResponseWriter, r *http.Request) {
	p.Auth.Revoke(r)
	http.SetCookie(w, p.Auth.ClearCookie())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type opportunitiesData struct {
	Query    string
	Category string
	Results  []content.Item
	Recent   []history.Entry
}

// Opportunities handles GET /opportunities. A store failure renders an
// empty result list with a generic message.
func (p *Pages) Opportunities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := search.NewFilter(q.Get("q"), q.Get("category"))
	data := opportunitiesData{Query: filter.FreeText, Category: filter.Category, Results: []content.Item{}}
	v := view{Title: "Opportunities"}
	status := http.StatusOK

	items, err := p.Content.Search(r.Context(), content.KindOpportunity, filter)
	if err != nil {
		p.Logger.Error("opportunities page search", "err", err)
		v.Error = searchFailedText
		status = http.StatusInternalServerError
	} else {
		data.Results = items
		p.Metrics.IncSearch(string(content.KindOpportunity))
	}

	if p.History != nil {
		visitor := history.VisitorID(w, r)
		if err == nil && !filter.IsEmpty() {
			entry := history.Entry{Query: filter.FreeText, Category: filter.Category, Kind: string(content.KindOpportunity)}
			if herr := p.History.Add(r.Context(), visitor, entry); herr != nil {
				p.Logger.Warn("record search history", "err", herr)
			}
		}
		if recent, herr := p.History.List(r.Context(), visitor); herr == nil {
			data.Recent = recent
		}
	}

	v.Data = data
	p.render(w, r, status, "opportunities", v)
}

type userDashboardData struct {
	Bookmarks []content.Item
}

// UserDashboard handles GET /dashboard/user.
func (p *Pages) UserDashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	v := view{Title: "Your dashboard"}
	data := userDashboardData{}

	ids, err := p.Feedback.Bookmarks(r.Context(), id.UserID)
	if err != nil {
		p.Logger.Error("dashboard bookmarks", "err", err, "user_id", id.UserID)
		v.Error = pageFailedText
	}
	for _, itemID := range ids {
		it, err := p.Content.Get(r.Context(), itemID)
		if err != nil {
			continue
		}
		data.Bookmarks = append(data.Bookmarks, *it)
	}
	v.Data = data
	p.render(w, r, http.StatusOK, "user_dashboard", v)
}

type kindCount struct {
	Kind  content.Kind
	Count int
}

type section struct {
	Kind  content.Kind
	Items []content.Item
}

// sections loads every kind concurrently, newest first within each kind.
func (p *Pages) sections(r *http.Request) ([]section, error) {
	out := make([]section, len(content.Kinds))
	g, ctx := errgroup.WithContext(r.Context())
	for i, k := range content.Kinds {
		g.Go(func() error {
			items, err := p.Content.Search(ctx, k, search.Filter{})
			if err != nil {
				return err
			}
			out[i] = section{Kind: k, Items: items}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminDashboard handles GET /dashboard/admin.
func (p *Pages) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	v := view{Title: "Administration"}
	secs, err := p.sections(r)
	if err != nil {
		p.Logger.Error("admin dashboard", "err", err)
		v.Error = pageFailedText
	}
	counts := make([]kindCount, 0, len(secs))
	for _, s := range secs {
		counts = append(counts, kindCount{Kind: s.Kind, Count: len(s.Items)})
	}
	v.Data = struct{ Counts []kindCount }{counts}
	p.render(w, r, http.StatusOK, "admin_dashboard", v)
}

// ManageFeedback handles GET /dashboard/admin/manage-feedback.
func (p *Pages) ManageFeedback(w http.ResponseWriter, r *http.Request) {
	v := view{Title: "Manage feedback"}
	entries, err := p.Feedback.ListFeedback(r.Context(), 0)
	if err != nil {
		p.Logger.Error("manage feedback page", "err", err)
		v.Error = pageFailedText
	}
	v.Data = struct{ Feedback []feedback.Feedback }{entries}
	p.render(w, r, http.StatusOK, "manage_feedback", v)
}

// ManageContent handles GET /dashboard/admin/manage-content.
func (p *Pages) ManageContent(w http.ResponseWriter, r *http.Request) {
	v := view{Title: "Manage content"}
	secs, err := p.sections(r)
	if err != nil {
		p.Logger.Error("manage content page", "err", err)
		v.Error = pageFailedText
	}
	v.Data = struct{ Sections []section }{secs}
	p.render(w, r, http.StatusOK, "manage_content", v)
}
