package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/pkg/utils"
)

const testSecret = "middleware-secret"

type stubProfileLoader struct {
	profile *models.Profile
	err     error
	calls   int
}

func (s *stubProfileLoader) GetByID(_ context.Context, _ uuid.UUID) (*models.Profile, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.profile == nil {
		return nil, pgx.ErrNoRows
	}
	return s.profile, nil
}

func newGuardedApp(loader *stubProfileLoader) *fiber.App {
	app := fiber.New()
	app.Use(LoadIdentity(testSecret))
	app.Use(RouteGuard(loader, nil))
	app.Get("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func sessionCookie(t *testing.T, userID uuid.UUID) *http.Cookie {
	t.Helper()
	token, err := utils.GenerateToken(userID.String(), "user@example.com", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return &http.Cookie{Name: SessionCookie, Value: token}
}

func TestRouteGuardRedirectsAnonymousFromProtectedPaths(t *testing.T) {
	loader := &stubProfileLoader{}
	app := newGuardedApp(loader)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusSeeOther || resp.Header.Get("Location") != "/auth/login" {
		t.Fatalf("expected 303 to /auth/login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/courses", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected public path to pass, got %d", resp.StatusCode)
	}
	if loader.calls != 0 {
		t.Fatalf("anonymous requests must not load a profile")
	}
}

func TestRouteGuardSendsIncompleteProfilesToCompletion(t *testing.T) {
	loader := &stubProfileLoader{}
	app := newGuardedApp(loader)
	cookie := sessionCookie(t, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/community", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusSeeOther || resp.Header.Get("Location") != "/auth/complete-profile" {
		t.Fatalf("expected redirect to completion, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/complete-profile", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected completion page to be reachable, got %d", resp.StatusCode)
	}
}

func TestRouteGuardBouncesCompleteProfilesFromLogin(t *testing.T) {
	role := models.RoleStudent
	userID := uuid.New()
	loader := &stubProfileLoader{profile: &models.Profile{ID: userID, Role: &role, IsProfileComplete: true}}
	app := newGuardedApp(loader)

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.Header.Set("Authorization", "Bearer "+sessionCookie(t, userID).Value)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusSeeOther || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLoadIdentityIgnoresConfirmTokens(t *testing.T) {
	app := fiber.New()
	app.Use(LoadIdentity(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if _, ok := UserID(c); ok {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	token, err := utils.GenerateConfirmToken(uuid.NewString(), "user@example.com", testSecret)
	if err != nil {
		t.Fatalf("GenerateConfirmToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected confirm token to be rejected as a session, got %d", resp.StatusCode)
	}
}

func TestRouteGuardFailsClosedOnStoreError(t *testing.T) {
	loader := &stubProfileLoader{err: errors.New("db down")}
	app := newGuardedApp(loader)

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	req.AddCookie(sessionCookie(t, uuid.New()))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
