package models

import (
	"time"

	"github.com/google/uuid"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

func (l CourseLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

type Course struct {
	ID           uuid.UUID    `json:"id"`
	InstructorID uuid.UUID    `json:"instructor_id"`
	Title        string       `json:"title"`
	Description  *string      `json:"description"`
	ThumbnailURL *string      `json:"thumbnail_url"`
	Price        float64      `json:"price"`
	Level        *CourseLevel `json:"level"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Instructor   *Profile     `json:"instructor,omitempty"`
}

type CourseVideo struct {
	ID            uuid.UUID `json:"id"`
	CourseID      uuid.UUID `json:"course_id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	PlaybackID    *string   `json:"mux_playback_id"`
	AssetID       *string   `json:"mux_asset_id"`
	Duration      *int      `json:"duration"`
	OrderIndex    int       `json:"order_index"`
	CreatedAt     time.Time `json:"created_at"`
	PlaybackURL   string    `json:"playback_url,omitempty"`
	DurationLabel string    `json:"duration_label,omitempty"`
}

type Enrollment struct {
	ID         uuid.UUID `json:"id"`
	StudentID  uuid.UUID `json:"student_id"`
	CourseID   uuid.UUID `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Course     *Course   `json:"course,omitempty"`
}
