package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(
	ctx context.Context,
	sessionID uuid.UUID,
	senderID uuid.UUID,
	body string,
) (*models.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (pt_session_id, sender_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, pt_session_id, sender_id, message, created_at
	`

	var message models.ChatMessage
	err := r.db.QueryRow(ctx, query, sessionID, senderID, body).Scan(
		&message.ID,
		&message.PTSessionID,
		&message.SenderID,
		&message.Message,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

const messageWithSenderSelect = `
	SELECT m.id, m.pt_session_id, m.sender_id, m.message, m.created_at,
		   p.id, p.display_name, p.avatar_url, p.role
	FROM chat_messages m
	JOIN profiles p ON p.id = m.sender_id
`

func scanMessageWithSender(row interface{ Scan(dest ...any) error }) (*models.ChatMessage, error) {
	var message models.ChatMessage
	var sender profileSummary
	targets := append([]any{
		&message.ID,
		&message.PTSessionID,
		&message.SenderID,
		&message.Message,
		&message.CreatedAt,
	}, sender.targets()...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	message.Sender = sender.profile()
	return &message, nil
}

// ListBySession returns the whole thread oldest first. Rows sharing a
// timestamp are ordered by id so the order is stable across loads.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	rows, err := r.db.Query(ctx, messageWithSenderSelect+`
		WHERE m.pt_session_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		message, err := scanMessageWithSender(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *MessageRepository) GetWithSender(ctx context.Context, messageID uuid.UUID) (*models.ChatMessage, error) {
	return scanMessageWithSender(r.db.QueryRow(ctx, messageWithSenderSelect+`WHERE m.id = $1`, messageID))
}
