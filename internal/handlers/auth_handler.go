package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/guard"
	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
	"github.com/MINHYEOKJEON99/mat-we/internal/middleware"
	"github.com/MINHYEOKJEON99/mat-we/internal/services"
	"github.com/MINHYEOKJEON99/mat-we/pkg/utils"
)

const (
	oauthStateCookie = "matwe_oauth_state"
	oauthNextCookie  = "matwe_oauth_next"
	oauthStateTTL    = 10 * time.Minute
)

type authApplicationService interface {
	Signup(ctx context.Context, input services.SignupInput) error
	ConfirmEmail(ctx context.Context, token string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Providers() []string
	AuthCodeURL(provider, state string) (string, error)
	CompleteOAuth(ctx context.Context, provider, code string) (*services.OAuthResult, error)
}

type AuthHandler struct {
	service       authApplicationService
	secureCookies bool
	log           *logger.Logger
}

func NewAuthHandler(service authApplicationService, secureCookies bool, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthHandler{
		service:       service,
		secureCookies: secureCookies,
		log:           log.With("handler", "AuthHandler"),
	}
}

type signupRequest struct {
	Email       string `json:"email" form:"email" validate:"required,email"`
	Password    string `json:"password" form:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" form:"display_name" validate:"required,max=20"`
	Role        string `json:"role" form:"role" validate:"required,role"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"providers": h.service.Providers(),
		"next":      safeNext(c.Query("next")),
	})
}

func (h *AuthHandler) SignupPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"providers": h.service.Providers(),
		"roles":     []string{"instructor", "student"},
	})
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg := validateForm(req); msg != "" {
		return badRequest(c, msg)
	}

	err := h.service.Signup(c.UserContext(), services.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	return seeOther(c, "/auth/signup-success")
}

func (h *AuthHandler) SignupSuccess(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Check your inbox to confirm your email address"})
}

func (h *AuthHandler) Confirm(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return seeOther(c, authErrorPath("Confirmation link is missing its token"))
	}

	sessionToken, err := h.service.ConfirmEmail(c.UserContext(), token)
	if err != nil {
		h.log.Warn("email confirmation failed", "error", err)
		return seeOther(c, authErrorPath("Confirmation link is invalid or expired"))
	}

	h.setSessionCookie(c, sessionToken)
	return redirectToDashboard(c)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg := validateForm(req); msg != "" {
		return badRequest(c, msg)
	}

	token, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapAuthError(c, err)
	}

	h.setSessionCookie(c, token)
	return redirectToDashboard(c)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.clearCookie(c, middleware.SessionCookie)
	return seeOther(c, guard.LoginPath)
}

// OAuthStart redirects to the provider. The state cookie carries the provider
// name because every provider shares one callback URL.
func (h *AuthHandler) OAuthStart(c *fiber.Ctx) error {
	provider := strings.ToLower(strings.TrimSpace(c.Params("provider")))
	state := uuid.NewString()

	authURL, err := h.service.AuthCodeURL(provider, state)
	if err != nil {
		return seeOther(c, authErrorPath("Unsupported sign-in provider"))
	}

	h.setShortCookie(c, oauthStateCookie, provider+":"+state)
	h.setShortCookie(c, oauthNextCookie, safeNext(c.Query("next")))
	return seeOther(c, authURL)
}

func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	stored := c.Cookies(oauthStateCookie)
	next := safeNext(c.Cookies(oauthNextCookie))
	h.clearCookie(c, oauthStateCookie)
	h.clearCookie(c, oauthNextCookie)

	if providerErr := c.Query("error"); providerErr != "" {
		return seeOther(c, authErrorPath("Sign-in was cancelled: "+providerErr))
	}

	provider, state, ok := strings.Cut(stored, ":")
	if !ok || state == "" || state != c.Query("state") {
		return seeOther(c, authErrorPath("Sign-in session expired, please try again"))
	}

	result, err := h.service.CompleteOAuth(c.UserContext(), provider, c.Query("code"))
	if err != nil {
		h.log.Error("oauth callback failed", "provider", provider, "error", err)
		return seeOther(c, authErrorPath("Could not complete sign-in"))
	}

	h.setSessionCookie(c, result.Token)
	if !result.ProfileComplete {
		return seeOther(c, guard.CompleteProfilePath)
	}
	return seeOther(c, next)
}

func (h *AuthHandler) AuthError(c *fiber.Ctx) error {
	message := strings.TrimSpace(c.Query("message"))
	if message == "" {
		message = "Something went wrong while signing in"
	}
	return c.JSON(fiber.Map{"error": message})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(utils.SessionTokenTTL),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) setShortCookie(c *fiber.Ctx, name, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(oauthStateTTL),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func mapAuthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	case errors.Is(err, services.ErrEmailNotConfirmed):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Email is not confirmed yet"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process authentication request"})
	}
}
