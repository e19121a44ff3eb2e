package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/repository"
)

const (
	scheduleDateLayout = "2006-01-02"
	scheduleTimeLayout = "15:04"
)

type sessionStore interface {
	Create(ctx context.Context, input repository.CreateSessionInput) (*models.PTSession, error)
	GetByID(ctx context.Context, sessionID uuid.UUID) (*models.PTSession, error)
	UpdateIfPending(ctx context.Context, sessionID uuid.UUID, next models.SessionStatus, scheduledAt *time.Time) (*models.PTSession, error)
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.PTSession, error)
}

type profileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type SessionService struct {
	sessions sessionStore
	profiles profileReader
	location *time.Location
}

func NewSessionService(sessions sessionStore, profiles profileReader, location *time.Location) *SessionService {
	if location == nil {
		location = time.UTC
	}
	return &SessionService{
		sessions: sessions,
		profiles: profiles,
		location: location,
	}
}

// SessionView is what an admitted participant sees of a session.
type SessionView struct {
	Session      *models.PTSession `json:"session"`
	IsInstructor bool              `json:"is_instructor"`
	OtherParty   *models.Profile   `json:"other_party"`
	CanRespond   bool              `json:"can_respond"`
}

// Gate admits only the two participants of a session. It runs on every
// request that touches a session or its chat.
func (s *SessionService) Gate(ctx context.Context, userID, sessionID uuid.UUID) (*SessionView, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	if !session.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}

	instructor, err := s.profiles.GetByID(ctx, session.InstructorID)
	if err != nil {
		return nil, fmt.Errorf("load instructor profile: %w", notFoundIfNoRows(err))
	}
	student, err := s.profiles.GetByID(ctx, session.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load student profile: %w", notFoundIfNoRows(err))
	}
	session.Instructor = instructor
	session.Student = student

	isInstructor := session.InstructorID == userID
	other := instructor
	if isInstructor {
		other = student
	}

	return &SessionView{
		Session:      session,
		IsInstructor: isInstructor,
		OtherParty:   other,
		CanRespond:   isInstructor && session.Status == models.StatusPending,
	}, nil
}

type CreateSessionInput struct {
	InstructorID uuid.UUID
	Duration     int
	Price        float64
	Notes        string
}

// Create opens a pending request from a student to an instructor.
func (s *SessionService) Create(ctx context.Context, studentID uuid.UUID, input CreateSessionInput) (*models.PTSession, error) {
	if err := validateCreateSession(input); err != nil {
		return nil, err
	}

	student, err := s.profiles.GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	if !student.HasRole(models.RoleStudent) {
		return nil, ErrForbidden
	}

	instructor, err := s.profiles.GetByID(ctx, input.InstructorID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	if !instructor.HasRole(models.RoleInstructor) {
		return nil, ErrNotFound
	}

	var notes *string
	if trimmed := strings.TrimSpace(input.Notes); trimmed != "" {
		notes = &trimmed
	}

	return s.sessions.Create(ctx, repository.CreateSessionInput{
		InstructorID: input.InstructorID,
		StudentID:    studentID,
		Duration:     input.Duration,
		Price:        input.Price,
		Notes:        notes,
	})
}

func validateCreateSession(input CreateSessionInput) error {
	if input.InstructorID == uuid.Nil {
		return invalid("instructor_id", "instructor is required")
	}
	if input.Duration <= 0 {
		return invalid("duration", "duration must be greater than 0")
	}
	if input.Price < 0 {
		return invalid("price", "price must be 0 or greater")
	}
	return nil
}

// ParseSchedule combines a YYYY-MM-DD date and an HH:MM time in loc.
func ParseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, invalid("scheduled_at", "date and time are required")
	}
	if len(date) != len(scheduleDateLayout) || len(clock) != len(scheduleTimeLayout) {
		return time.Time{}, invalid("scheduled_at", "date must be YYYY-MM-DD and time HH:MM")
	}
	if loc == nil {
		loc = time.UTC
	}

	scheduled, err := time.ParseInLocation(scheduleDateLayout+" "+scheduleTimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, invalid("scheduled_at", "date must be YYYY-MM-DD and time HH:MM")
	}
	return scheduled, nil
}

// Confirm schedules a pending session. Nothing is written unless the date and
// time parse.
func (s *SessionService) Confirm(ctx context.Context, actorID, sessionID uuid.UUID, date, clock string) (*models.PTSession, error) {
	if _, err := s.instructorGate(ctx, actorID, sessionID); err != nil {
		return nil, err
	}

	scheduledAt, err := ParseSchedule(date, clock, s.location)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, sessionID, models.StatusConfirmed, &scheduledAt)
}

// Reject cancels a pending session. The caller must pass confirmed=true.
func (s *SessionService) Reject(ctx context.Context, actorID, sessionID uuid.UUID, confirmed bool) (*models.PTSession, error) {
	if _, err := s.instructorGate(ctx, actorID, sessionID); err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, invalid("confirm", "rejection must be confirmed")
	}

	return s.transition(ctx, sessionID, models.StatusCancelled, nil)
}

func (s *SessionService) instructorGate(ctx context.Context, actorID, sessionID uuid.UUID) (*SessionView, error) {
	view, err := s.Gate(ctx, actorID, sessionID)
	if err != nil {
		return nil, err
	}
	if !view.IsInstructor {
		return nil, ErrForbidden
	}
	return view, nil
}

func (s *SessionService) transition(
	ctx context.Context,
	sessionID uuid.UUID,
	next models.SessionStatus,
	scheduledAt *time.Time,
) (*models.PTSession, error) {
	updated, err := s.sessions.UpdateIfPending(ctx, sessionID, next, scheduledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return updated, nil
}

// List returns the actor's sessions from their side of the relationship.
func (s *SessionService) List(ctx context.Context, actorID uuid.UUID, status string) ([]models.PTSession, error) {
	profile, err := s.profiles.GetByID(ctx, actorID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	if profile.Role == nil {
		return nil, ErrForbidden
	}

	filter := repository.SessionListFilter{ActorID: actorID}
	switch *profile.Role {
	case models.RoleInstructor:
		filter.Role = models.RoleInstructor
	case models.RoleStudent:
		filter.Role = models.RoleStudent
	default:
		return nil, ErrForbidden
	}

	if status = strings.TrimSpace(status); status != "" {
		parsed := models.SessionStatus(strings.ToLower(status))
		if !parsed.Valid() {
			return nil, invalid("status", "unknown status")
		}
		filter.Status = &parsed
	}

	return s.sessions.List(ctx, filter)
}
