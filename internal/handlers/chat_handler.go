package handlers

import (
	"context"
	"errors"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/services"
	chatws "github.com/MINHYEOKJEON99/mat-we/internal/websocket"
)

type chatApplicationService interface {
	View(ctx context.Context, userID, sessionID uuid.UUID) (*services.ChatView, error)
	PostMessage(ctx context.Context, senderID, sessionID uuid.UUID, body string) (*models.ChatMessage, error)
}

type sessionGate interface {
	Gate(ctx context.Context, userID, sessionID uuid.UUID) (*services.SessionView, error)
}

type ChatHandler struct {
	service chatApplicationService
	gate    sessionGate
	hub     *chatws.Hub
}

func NewChatHandler(service chatApplicationService, gate sessionGate, hub *chatws.Hub) *ChatHandler {
	return &ChatHandler{
		service: service,
		gate:    gate,
		hub:     hub,
	}
}

type postMessageRequest struct {
	Message string `json:"message" form:"message"`
}

func (h *ChatHandler) View(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid session id")
	}

	view, err := h.service.View(c.UserContext(), userID, sessionID)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(view)
}

func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid session id")
	}

	var req postMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	message, err := h.service.PostMessage(c.UserContext(), userID, sessionID, req.Message)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

// WebSocketGate runs the session gate before the upgrade so only the two
// participants can subscribe.
func (h *ChatHandler) WebSocketGate(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid session id")
	}

	if _, err := h.gate.Gate(c.UserContext(), userID, sessionID); err != nil {
		return mapChatError(c, err)
	}

	c.Locals("session_id", sessionID)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(uuid.UUID)
	sessionID, _ := conn.Locals("session_id").(uuid.UUID)
	client := chatws.NewClient(h.hub, conn, sessionID, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service)
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotParticipant):
		return redirectToDashboard(c)
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
