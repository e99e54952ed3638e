package content

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/watercord/NigeriaGovhub-sub001/internal/history"
	"github.com/watercord/NigeriaGovhub-sub001/internal/httputil"
	"github.com/watercord/NigeriaGovhub-sub001/internal/metrics"
	"github.com/watercord/NigeriaGovhub-sub001/internal/search"
)

type Handler struct {
	Store   Repository
	History history.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Register mounts the public content routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/opportunities/search", h.searchHandler(KindOpportunity))
	for _, k := range Kinds {
		r.Get("/api/"+k.Plural(), h.searchHandler(k))
		r.Get("/api/"+k.Plural()+"/{id}", h.detailHandler(k))
	}
}

// RegisterAdmin mounts content management routes. Callers must wrap r with
// the admin access gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/api/admin/content", h.Create)
	r.Put("/api/admin/content/{id}", h.Update)
	r.Delete("/api/admin/content/{id}", h.Delete)
}

func filterFromRequest(r *http.Request) search.Filter {
	q := r.URL.Query()
	return search.NewFilter(q.Get("q"), q.Get("category"))
}

// searchHandler answers {"results": [...], "count": N}, or 500 with
// {"error": ...} when the store fails.
func (h *Handler) searchHandler(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := filterFromRequest(r)
		items, err := h.Store.Search(r.Context(), kind, filter)
		if err != nil {
			h.Logger.Error("search content", "err", err, "kind", kind)
			httputil.WriteError(w, http.StatusInternalServerError, "search failed")
			return
		}
		h.Metrics.IncSearch(string(kind))
		h.remember(w, r, kind, filter)
		httputil.WriteJSON(w, http.StatusOK, search.NewResult(items))
	}
}

func (h *Handler) remember(w http.ResponseWriter, r *http.Request, kind Kind, f search.Filter) {
	if h.History == nil || f.IsEmpty() {
		return
	}
	entry := history.Entry{Query: f.FreeText, Category: f.Category, Kind: string(kind)}
	if err := h.History.Add(r.Context(), history.VisitorID(w, r), entry); err != nil {
		h.Logger.Warn("record search history", "err", err)
	}
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) detailHandler(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			httputil.WriteError(w, http.StatusBadRequest, "invalid id")
			return
		}
		it, err := h.Store.Get(r.Context(), id)
		if errors.Is(err, ErrNotFound) || (err == nil && it.Kind != kind) {
			httputil.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			h.Logger.Error("get content", "err", err, "id", id)
			httputil.WriteError(w, http.StatusInternalServerError, "could not load item")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, it)
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	var ferr *FieldError
	switch {
	case errors.As(err, &ferr):
		httputil.WriteError(w, http.StatusBadRequest, ferr.Error())
	case errors.Is(err, ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not found")
	default:
		h.Logger.Error(op, "err", err)
		httputil.WriteError(w, http.StatusInternalServerError, op+" failed")
	}
}

// Create handles POST /api/admin/content.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var it Item
	if err := httputil.DecodeJSON(r, &it); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	it.ID = 0
	if err := h.Store.Create(r.Context(), &it); err != nil {
		h.writeStoreError(w, "create content", err)
		return
	}
	h.Logger.Info("content created", "id", it.ID, "kind", it.Kind)
	httputil.WriteJSON(w, http.StatusCreated, it)
}

// Update handles PUT /api/admin/content/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var it Item
	if err := httputil.DecodeJSON(r, &it); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	it.ID = id
	if err := h.Store.Update(r.Context(), &it); err != nil {
		h.writeStoreError(w, "update content", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, it)
}

// Delete handles DELETE /api/admin/content/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, "delete content", err)
		return
	}
	h.Logger.Info("content deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
