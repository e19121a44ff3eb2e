package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID          uuid.UUID `json:"id"`
	PTSessionID uuid.UUID `json:"pt_session_id"`
	SenderID    uuid.UUID `json:"sender_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	Sender      *Profile  `json:"sender,omitempty"`
}
