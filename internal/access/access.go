// Package access decides whether a request may reach a role-protected page
// or action. The decision is a plain value computed from the request's
// resolved identity; HTTP wrappers turn it into a redirect or a JSON error.
package access

import (
	"net/url"
	"strings"

	"github.com/watercord/NigeriaGovhub-sub001/internal/auth"
	"github.com/watercord/NigeriaGovhub-sub001/internal/httputil"
)

const LoginPath = "/login"

// Decision is either Allow or a redirect to Location. The zero value is not
// an allow.
type Decision struct {
	allowed  bool
	location string
}

func Allow() Decision {
	return Decision{allowed: true}
}

func RedirectTo(path string) Decision {
	return Decision{location: path}
}

func (d Decision) Allowed() bool {
	return d.allowed
}

// Location is the redirect target; "/" for a zero Decision.
func (d Decision) Location() string {
	if d.allowed {
		return ""
	}
	if d.location == "" {
		return "/"
	}
	return d.location
}

func (d Decision) String() string {
	if d.allowed {
		return "allow"
	}
	return "redirect " + d.Location()
}

// Decide computes the gate outcome for one request:
//
//	no identity          -> redirect to the login page, returning to originalPath
//	role != required     -> redirect to fallback
//	role == required     -> allow
func Decide(id *auth.Identity, required auth.Role, originalPath, fallback string) Decision {
	if id == nil {
		return RedirectTo(LoginRedirect(originalPath))
	}
	if id.Role != required {
		if !httputil.IsLocalPath(fallback) {
			fallback = "/"
		}
		return RedirectTo(fallback)
	}
	return Allow()
}

// LoginRedirect builds the login URL that returns to originalPath after
// sign-in. Slashes are left readable; non-local paths collapse to "/".
func LoginRedirect(originalPath string) string {
	if !httputil.IsLocalPath(originalPath) {
		originalPath = "/"
	}
	return LoginPath + "?redirect=" + strings.ReplaceAll(url.QueryEscape(originalPath), "%2F", "/")
}

// FallbackFor is the landing page for a signed-in user who lacks the role a
// page requires.
func FallbackFor(role auth.Role) string {
	switch role {
	case auth.RoleAdmin:
		return "/dashboard/admin"
	case auth.RoleUser:
		return "/dashboard/user"
	default:
		return "/"
	}
}
