package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError reports a registration field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type Service struct {
	store      UserStore
	secret     []byte
	cookieName string
	now        func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // token id -> token expiry
}

func NewService(store UserStore, secret, cookieName string) *Service {
	return &Service{
		store:      store,
		secret:     []byte(secret),
		cookieName: cookieName,
		now:        func() time.Time { return time.Now().UTC() },
		revoked:    make(map[string]time.Time),
	}
}

func (s *Service) CookieName() string {
	return s.cookieName
}

// Register creates a regular user account.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case len(username) < 3:
		return nil, &ValidationError{Field: "username", Reason: "must be at least 3 characters"}
	case len(password) < 8:
		return nil, &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &ValidationError{Field: "email", Reason: "must be a valid address"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{Username: username, Email: email, PasswordHash: string(hash), Role: RoleUser}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, string, error) {
	user, err := s.store.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) IssueToken(user *User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

func (s *Service) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(s.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// Resolve returns the identity carried by the request's bearer token or
// session cookie. The role is read from the account store on every call,
// so role changes and deleted accounts apply to tokens already issued.
// Invalid, expired or revoked credentials resolve to no identity.
func (s *Service) Resolve(r *http.Request) (*Identity, bool) {
	token := s.tokenFrom(r)
	if token == "" {
		return nil, false
	}
	claims, err := s.ParseToken(token)
	if err != nil || s.isRevoked(claims.ID) {
		return nil, false
	}
	user, err := s.store.GetByID(r.Context(), claims.UserID)
	if err != nil {
		return nil, false
	}
	return user.Identity(), true
}

// Revoke invalidates the token presented with r until it would have
// expired anyway. Requests without a valid token are ignored.
func (s *Service) Revoke(r *http.Request) {
	token := s.tokenFrom(r)
	if token == "" {
		return
	}
	claims, err := s.ParseToken(token)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
}

func (s *Service) isRevoked(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[id]
	return ok
}

// SessionCookie wraps a token for browser sessions.
func (s *Service) SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Service) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
