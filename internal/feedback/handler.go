package feedback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/watercord/NigeriaGovhub-sub001/internal/auth"
	"github.com/watercord/NigeriaGovhub-sub001/internal/content"
	"github.com/watercord/NigeriaGovhub-sub001/internal/httputil"
	"github.com/watercord/NigeriaGovhub-sub001/internal/metrics"
)

// ItemLookup resolves content items referenced by comments, likes and
// bookmarks.
type ItemLookup interface {
	Get(ctx context.Context, id int64) (*content.Item, error)
}

type Handler struct {
	Store   Repository
	Items   ItemLookup
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Register mounts routes open to anonymous visitors.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/feedback", h.Submit)
	r.Get("/api/content/{id}/comments", h.ListComments)
}

// RegisterUser mounts routes that need a signed-in user.
func (h *Handler) RegisterUser(r chi.Router) {
	r.Post("/api/content/{id}/comments", h.AddComment)
	r.Post("/api/content/{id}/like", h.like(true))
	r.Delete("/api/content/{id}/like", h.like(false))
	r.Post("/api/content/{id}/bookmark", h.bookmark(true))
	r.Delete("/api/content/{id}/bookmark", h.bookmark(false))
	r.Get("/api/me/bookmarks", h.ListBookmarks)
}

// RegisterAdmin mounts feedback review routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/api/admin/feedback", h.ListFeedback)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var ierr *InvalidError
	if errors.As(err, &ierr) {
		httputil.WriteError(w, http.StatusBadRequest, ierr.Error())
		return
	}
	h.Logger.Error(op, "err", err)
	httputil.WriteError(w, http.StatusInternalServerError, op+" failed")
}

// Submit handles POST /api/feedback.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var f Feedback
	if err := httputil.DecodeJSON(r, &f); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f.ID, f.UserID = 0, nil
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		uid := id.UserID
		f.UserID = &uid
	}
	if err := h.Store.CreateFeedback(r.Context(), &f); err != nil {
		h.fail(w, "submit feedback", err)
		return
	}
	h.Metrics.IncFeedbackSubmitted()
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"id": f.ID})
}

// ListFeedback handles GET /api/admin/feedback?limit=N.
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Store.ListFeedback(r.Context(), limit)
	if err != nil {
		h.fail(w, "list feedback", err)
		return
	}
	if items == nil {
		items = []Feedback{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"feedback": items, "count": len(items)})
}

// itemID parses {id} and confirms the item exists, writing the error
// response itself when it does not.
func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	if _, err := h.Items.Get(r.Context(), id); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "not found")
		} else {
			h.Logger.Error("lookup content", "err", err, "id", id)
			httputil.WriteError(w, http.StatusInternalServerError, "could not load item")
		}
		return 0, false
	}
	return id, true
}

func caller(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "authentication required")
	}
	return id, ok
}

// ListComments handles GET /api/content/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	comments, err := h.Store.ListComments(r.Context(), itemID)
	if err != nil {
		h.fail(w, "list comments", err)
		return
	}
	if comments == nil {
		comments = []Comment{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"comments": comments, "count": len(comments)})
}

// AddComment handles POST /api/content/{id}/comments.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var in struct {
		Body string `json:"body"`
	}
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c := Comment{ItemID: itemID, UserID: user.UserID, Username: user.Username, Body: in.Body}
	if err := h.Store.AddComment(r.Context(), &c); err != nil {
		h.fail(w, "add comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) like(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := caller(w, r)
		if !ok {
			return
		}
		itemID, ok := h.itemID(w, r)
		if !ok {
			return
		}
		if err := h.Store.SetLike(r.Context(), user.UserID, itemID, on); err != nil {
			h.fail(w, "update like", err)
			return
		}
		n, err := h.Store.LikeCount(r.Context(), itemID)
		if err != nil {
			h.fail(w, "count likes", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"liked": on, "likes": n})
	}
}

func (h *Handler) bookmark(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := caller(w, r)
		if !ok {
			return
		}
		itemID, ok := h.itemID(w, r)
		if !ok {
			return
		}
		if err := h.Store.SetBookmark(r.Context(), user.UserID, itemID, on); err != nil {
			h.fail(w, "update bookmark", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"bookmarked": on})
	}
}

// ListBookmarks handles GET /api/me/bookmarks. Items deleted since they were
// bookmarked are skipped.
func (h *Handler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	ids, err := h.Store.Bookmarks(r.Context(), user.UserID)
	if err != nil {
		h.fail(w, "list bookmarks", err)
		return
	}
	items := make([]content.Item, 0, len(ids))
	for _, id := range ids {
		it, err := h.Items.Get(r.Context(), id)
		if errors.Is(err, content.ErrNotFound) {
			continue
		}
		if err != nil {
			h.fail(w, "load bookmark", err)
			return
		}
		items = append(items, *it)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": items, "count": len(items)})
}
