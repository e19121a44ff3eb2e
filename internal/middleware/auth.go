package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/pkg/utils"
)

const SessionCookie = "matwe_session"

const (
	localUserID  = "user_id"
	localEmail   = "email"
	localProfile = "profile"
)

// LoadIdentity reads the session token from the cookie or a Bearer header and
// stores the identity in Locals. A missing or invalid token is not an error
// here; the route guard decides what anonymous visitors may see.
func LoadIdentity(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			tokenString = c.Cookies(SessionCookie)
		}
		if tokenString == "" {
			return c.Next()
		}

		claims, err := utils.ValidateToken(tokenString, secret, utils.PurposeSession)
		if err != nil {
			return c.Next()
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return c.Next()
		}

		c.Locals(localUserID, userID)
		c.Locals(localEmail, claims.Email)
		return c.Next()
	}
}

// AuthRequired rejects requests that reached it without an identity.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserID(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		return c.Next()
	}
}

func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals(localUserID).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}

func Email(c *fiber.Ctx) string {
	email, _ := c.Locals(localEmail).(string)
	return email
}

func bearerToken(header string) string {
	parts := strings.Split(strings.TrimSpace(header), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
