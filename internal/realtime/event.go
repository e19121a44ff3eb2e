package realtime

import "github.com/google/uuid"

// MessageInserted is published after a chat message row is committed. It
// carries ids only; subscribers load the row themselves.
type MessageInserted struct {
	PTSessionID uuid.UUID `json:"pt_session_id"`
	MessageID   uuid.UUID `json:"message_id"`
}
