package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/middleware"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/services"
)

type profileApplicationService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	CompleteProfile(ctx context.Context, userID uuid.UUID, input services.CompleteProfileInput) (*models.Profile, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*services.DashboardView, error)
}

type ProfileHandler struct {
	service profileApplicationService
}

func NewProfileHandler(service profileApplicationService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type completeProfileRequest struct {
	DisplayName      string   `json:"display_name" form:"display_name" validate:"required,min=2,max=20"`
	Role             string   `json:"role" form:"role" validate:"required,role"`
	Bio              string   `json:"bio" form:"bio" validate:"max=1000"`
	InterestedSports []string `json:"interested_sports" form:"interested_sports" validate:"min=1,dive,sport"`
}

func (h *ProfileHandler) CompleteProfileForm(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	profile, err := h.service.GetProfile(c.UserContext(), userID)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		return mapProfileError(c, err)
	}
	if profile.Usable() {
		return seeOther(c, "/")
	}

	sports := make([]fiber.Map, 0, len(models.AllSports))
	for _, sport := range models.AllSports {
		sports = append(sports, fiber.Map{"value": sport, "label": sport.Label()})
	}

	return c.JSON(fiber.Map{
		"email":   middleware.Email(c),
		"profile": profile,
		"sports":  sports,
		"roles":   []models.Role{models.RoleInstructor, models.RoleStudent},
	})
}

func (h *ProfileHandler) CompleteProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req completeProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg := validateForm(req); msg != "" {
		return badRequest(c, msg)
	}

	avatar, err := readAvatar(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	_, err = h.service.CompleteProfile(c.UserContext(), userID, services.CompleteProfileInput{
		Email:            middleware.Email(c),
		DisplayName:      req.DisplayName,
		Role:             req.Role,
		Bio:              req.Bio,
		InterestedSports: req.InterestedSports,
		Avatar:           avatar,
	})
	if err != nil {
		return mapProfileError(c, err)
	}

	return seeOther(c, "/")
}

func (h *ProfileHandler) Dashboard(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	view, err := h.service.Dashboard(c.UserContext(), userID)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(view)
}

// readAvatar returns nil when the form carries no file.
func readAvatar(c *fiber.Ctx) (*services.AvatarUpload, error) {
	header, err := c.FormFile("avatar")
	if err != nil || header == nil || header.Size == 0 {
		return nil, nil
	}
	if header.Size > services.MaxAvatarBytes {
		return nil, errors.New("avatar must be 5MB or smaller")
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.New("failed to read avatar")
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, services.MaxAvatarBytes+1))
	if err != nil {
		return nil, errors.New("failed to read avatar")
	}

	return &services.AvatarUpload{Filename: header.Filename, Content: content}, nil
}

func mapProfileError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process profile request"})
	}
}
