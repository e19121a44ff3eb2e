// Package guard decides, per request, whether a path is reachable for the
// current identity and profile, or where to send the caller instead.
package guard

import (
	"strings"

	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

const (
	LoginPath           = "/auth/login"
	SignupPath          = "/auth/signup"
	CompleteProfilePath = "/auth/complete-profile"
	DashboardPath       = "/dashboard"
)

var protectedPrefixes = []string{
	"/dashboard",
	"/instructor",
	"/student",
	"/chat",
	"/community/new",
}

// Paths an identity may visit before its profile is complete.
var authFlowPrefixes = []string{
	"/auth/login",
	"/auth/signup",
	"/auth/callback",
	"/auth/complete-profile",
	"/auth/error",
	"/auth/signup-success",
	"/auth/confirm",
	"/auth/logout",
	"/auth/oauth",
}

type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Decision is either Allow (empty RedirectTo) or a redirect target.
type Decision struct {
	RedirectTo string
}

func (d Decision) Allowed() bool {
	return d.RedirectTo == ""
}

var Allow = Decision{}

func redirect(path string) Decision {
	return Decision{RedirectTo: path}
}

func Evaluate(identity *Identity, path string, profile *models.Profile) Decision {
	if identity == nil {
		if hasAnyPrefix(path, protectedPrefixes) {
			return redirect(LoginPath)
		}
		return Allow
	}

	if !profile.Usable() {
		if !hasAnyPrefix(path, authFlowPrefixes) {
			return redirect(CompleteProfilePath)
		}
		return Allow
	}

	if path == LoginPath || path == SignupPath {
		return redirect(DashboardPath)
	}
	return Allow
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
