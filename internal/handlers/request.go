package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/guard"
	"github.com/MINHYEOKJEON99/mat-we/internal/middleware"
)

func currentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	return middleware.UserID(c)
}

// viewerID is nil for anonymous visitors of public pages.
func viewerID(c *fiber.Ctx) *uuid.UUID {
	userID, ok := middleware.UserID(c)
	if !ok {
		return nil
	}
	return &userID
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func seeOther(c *fiber.Ctx, path string) error {
	return c.Redirect(path, fiber.StatusSeeOther)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func redirectToDashboard(c *fiber.Ctx) error {
	return seeOther(c, guard.DashboardPath)
}

func authErrorPath(message string) string {
	return "/auth/error?message=" + url.QueryEscape(message)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
