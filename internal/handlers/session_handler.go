package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/middleware"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/services"
)

type sessionApplicationService interface {
	Create(ctx context.Context, studentID uuid.UUID, input services.CreateSessionInput) (*models.PTSession, error)
	Confirm(ctx context.Context, actorID, sessionID uuid.UUID, date, clock string) (*models.PTSession, error)
	Reject(ctx context.Context, actorID, sessionID uuid.UUID, confirmed bool) (*models.PTSession, error)
	List(ctx context.Context, actorID uuid.UUID, status string) ([]models.PTSession, error)
}

type SessionHandler struct {
	service sessionApplicationService
}

func NewSessionHandler(service sessionApplicationService) *SessionHandler {
	return &SessionHandler{service: service}
}

type createSessionRequest struct {
	InstructorID string  `json:"instructor_id" form:"instructor_id" validate:"required,uuid"`
	Duration     int     `json:"duration" form:"duration" validate:"gt=0"`
	Price        float64 `json:"price" form:"price" validate:"gte=0"`
	Notes        string  `json:"notes" form:"notes" validate:"max=2000"`
}

type confirmSessionRequest struct {
	Date string `json:"date" form:"date"`
	Time string `json:"time" form:"time"`
}

type rejectSessionRequest struct {
	Confirm bool `json:"confirm" form:"confirm"`
}

func (h *SessionHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg := validateForm(req); msg != "" {
		return badRequest(c, msg)
	}
	instructorID, err := uuid.Parse(req.InstructorID)
	if err != nil {
		return badRequest(c, "Invalid instructor id")
	}

	session, err := h.service.Create(c.UserContext(), userID, services.CreateSessionInput{
		InstructorID: instructorID,
		Duration:     req.Duration,
		Price:        req.Price,
		Notes:        req.Notes,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return seeOther(c, "/chat/"+session.ID.String())
}

// List serves both /instructor/pt-sessions and /student/pt-sessions; the
// route fixes which side the caller must be on.
func (h *SessionHandler) List(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return unauthorized(c)
		}
		if profile := middleware.Profile(c); profile != nil && !profile.HasRole(role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}

		sessions, err := h.service.List(c.UserContext(), userID, c.Query("status"))
		if err != nil {
			return mapSessionError(c, err)
		}

		return c.JSON(fiber.Map{"sessions": sessions})
	}
}

func (h *SessionHandler) Confirm(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid session id")
	}

	var req confirmSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if _, err := h.service.Confirm(c.UserContext(), userID, sessionID, req.Date, req.Time); err != nil {
		return mapSessionError(c, err)
	}

	return seeOther(c, "/chat/"+sessionID.String())
}

func (h *SessionHandler) Reject(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid session id")
	}

	var req rejectSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if _, err := h.service.Reject(c.UserContext(), userID, sessionID, req.Confirm); err != nil {
		return mapSessionError(c, err)
	}

	return seeOther(c, "/instructor/pt-sessions")
}

func mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotParticipant):
		return redirectToDashboard(c)
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Session is no longer pending"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
