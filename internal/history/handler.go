package history

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/watercord/NigeriaGovhub-sub001/internal/httputil"
)

const VisitorCookie = "govhub_visitor"

// VisitorID returns the visitor id from the request cookie, issuing a new
// one on w when the cookie is missing or malformed.
func VisitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(VisitorCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(DefaultTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

type Handler struct {
	Store  Store
	Logger *slog.Logger
}

// List handles GET /api/search/history.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.List(r.Context(), VisitorID(w, r))
	if err != nil {
		h.Logger.Error("list search history", "err", err)
		httputil.WriteError(w, http.StatusInternalServerError, "could not load search history")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"history": entries})
}

// Clear handles DELETE /api/search/history.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Clear(r.Context(), VisitorID(w, r)); err != nil {
		h.Logger.Error("clear search history", "err", err)
		httputil.WriteError(w, http.StatusInternalServerError, "could not clear search history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
