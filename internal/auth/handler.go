package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/watercord/NigeriaGovhub-sub001/internal/httputil"
)

var writeError = httputil.WriteError

type Handler struct {
	Service *Service
	Logger  *slog.Logger
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := httputil.DecodeJSON(r, &in); err != nil || in.Username == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	user, token, err := h.Service.Authenticate(r.Context(), in.Username, in.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.Logger.Error("authenticate", "err", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	http.SetCookie(w, h.Service.SessionCookie(token))
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := httputil.DecodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.Service.Register(r.Context(), in.Username, in.Email, in.Password)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, ErrUserExists):
			writeError(w, http.StatusConflict, "username already taken")
		default:
			h.Logger.Error("register user", "err", err)
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	token, err := h.Service.IssueToken(user)
	if err != nil {
		h.Logger.Error("issue token", "err", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	h.Logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	http.SetCookie(w, h.Service.SessionCookie(token))
	httputil.WriteJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout. The presented token stops
// resolving even if a copy of it is replayed as a bearer token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Service.Revoke(r)
	http.SetCookie(w, h.Service.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me. Requires JWTMiddleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, id)
}
