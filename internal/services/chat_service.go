package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/realtime"
)

type messageStore interface {
	Create(ctx context.Context, sessionID, senderID uuid.UUID, body string) (*models.ChatMessage, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error)
	GetWithSender(ctx context.Context, messageID uuid.UUID) (*models.ChatMessage, error)
}

type sessionGate interface {
	Gate(ctx context.Context, userID, sessionID uuid.UUID) (*SessionView, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event realtime.MessageInserted) error
}

type ChatService struct {
	gate      sessionGate
	messages  messageStore
	publisher eventPublisher
	log       *logger.Logger
}

func NewChatService(gate sessionGate, messages messageStore, publisher eventPublisher, log *logger.Logger) *ChatService {
	if log == nil {
		log = logger.Nop()
	}
	return &ChatService{
		gate:      gate,
		messages:  messages,
		publisher: publisher,
		log:       log.With("service", "ChatService"),
	}
}

// ChatView is the chat page: the gated session plus the full history.
type ChatView struct {
	*SessionView
	Messages []models.ChatMessage `json:"messages"`
}

func (s *ChatService) View(ctx context.Context, userID, sessionID uuid.UUID) (*ChatView, error) {
	view, err := s.gate.Gate(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &ChatView{SessionView: view, Messages: messages}, nil
}

// PostMessage stores a message from a participant and announces it on the
// bus. A publish failure is logged; the message is already committed.
func (s *ChatService) PostMessage(ctx context.Context, senderID, sessionID uuid.UUID, body string) (*models.ChatMessage, error) {
	if _, err := s.gate.Gate(ctx, senderID, sessionID); err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("message", "message must not be empty")
	}

	message, err := s.messages.Create(ctx, sessionID, senderID, body)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := realtime.MessageInserted{PTSessionID: sessionID, MessageID: message.ID}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn("publish chat insert failed", "pt_session_id", sessionID, "message_id", message.ID, "error", err)
		}
	}

	return message, nil
}

func (s *ChatService) LookupMessage(ctx context.Context, messageID uuid.UUID) (*models.ChatMessage, error) {
	message, err := s.messages.GetWithSender(ctx, messageID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return message, nil
}
