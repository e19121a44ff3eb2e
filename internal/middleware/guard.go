package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MINHYEOKJEON99/mat-we/internal/guard"
	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

type profileLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// RouteGuard loads the caller's profile on every request and applies the
// access rules in guard.Evaluate. It must run after LoadIdentity.
func RouteGuard(profiles profileLoader, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("middleware", "RouteGuard")

	return func(c *fiber.Ctx) error {
		var identity *guard.Identity
		var profile *models.Profile

		if userID, ok := UserID(c); ok {
			identity = &guard.Identity{UserID: userID, Email: Email(c)}

			loaded, err := profiles.GetByID(c.UserContext(), userID)
			switch {
			case err == nil:
				profile = loaded
				c.Locals(localProfile, profile)
			case errors.Is(err, pgx.ErrNoRows):
			default:
				log.Error("load profile failed", "user_id", userID, "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to load profile",
				})
			}
		}

		decision := guard.Evaluate(identity, c.Path(), profile)
		if !decision.Allowed() {
			return c.Redirect(decision.RedirectTo, fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// Profile returns the profile RouteGuard loaded for this request, if any.
func Profile(c *fiber.Ctx) *models.Profile {
	profile, _ := c.Locals(localProfile).(*models.Profile)
	return profile
}
