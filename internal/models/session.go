package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusConfirmed SessionStatus = "confirmed"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// PTSession is a one-on-one personal-training engagement.
type PTSession struct {
	ID           uuid.UUID     `json:"id"`
	InstructorID uuid.UUID     `json:"instructor_id"`
	StudentID    uuid.UUID     `json:"student_id"`
	ScheduledAt  *time.Time    `json:"scheduled_at"`
	Duration     int           `json:"duration"`
	Status       SessionStatus `json:"status"`
	Price        float64       `json:"price"`
	Notes        *string       `json:"notes"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Instructor   *Profile      `json:"instructor,omitempty"`
	Student      *Profile      `json:"student,omitempty"`
}

func (s *PTSession) IsParticipant(userID uuid.UUID) bool {
	return s != nil && (s.InstructorID == userID || s.StudentID == userID)
}
