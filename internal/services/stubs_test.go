package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/realtime"
	"github.com/MINHYEOKJEON99/mat-we/internal/repository"
)

type stubProfiles struct {
	profiles map[uuid.UUID]*models.Profile
}

func newStubProfiles(profiles ...*models.Profile) *stubProfiles {
	s := &stubProfiles{profiles: map[uuid.UUID]*models.Profile{}}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

func (s *stubProfiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func newProfile(role models.Role, name string) *models.Profile {
	r := role
	return &models.Profile{
		ID:                uuid.New(),
		DisplayName:       name,
		Role:              &r,
		InterestedSports:  []models.SportType{models.SportJiujitsu},
		IsProfileComplete: true,
	}
}

type stubSessions struct {
	sessions     map[uuid.UUID]*models.PTSession
	lastCreate   repository.CreateSessionInput
	updateCalls  int
	lastNext     models.SessionStatus
	lastSchedule *time.Time
	lastFilter   repository.SessionListFilter
}

func newStubSessions(sessions ...*models.PTSession) *stubSessions {
	s := &stubSessions{sessions: map[uuid.UUID]*models.PTSession{}}
	for _, session := range sessions {
		s.sessions[session.ID] = session
	}
	return s
}

func (s *stubSessions) Create(_ context.Context, input repository.CreateSessionInput) (*models.PTSession, error) {
	s.lastCreate = input
	session := &models.PTSession{
		ID:           uuid.New(),
		InstructorID: input.InstructorID,
		StudentID:    input.StudentID,
		Duration:     input.Duration,
		Price:        input.Price,
		Notes:        input.Notes,
		Status:       models.StatusPending,
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *stubSessions) GetByID(_ context.Context, id uuid.UUID) (*models.PTSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (s *stubSessions) UpdateIfPending(_ context.Context, id uuid.UUID, next models.SessionStatus, scheduledAt *time.Time) (*models.PTSession, error) {
	s.updateCalls++
	s.lastNext = next
	s.lastSchedule = scheduledAt
	session, ok := s.sessions[id]
	if !ok || session.Status != models.StatusPending {
		return nil, pgx.ErrNoRows
	}
	session.Status = next
	if scheduledAt != nil {
		session.ScheduledAt = scheduledAt
	}
	copied := *session
	return &copied, nil
}

func (s *stubSessions) List(_ context.Context, filter repository.SessionListFilter) ([]models.PTSession, error) {
	s.lastFilter = filter
	return []models.PTSession{}, nil
}

type stubMessages struct {
	created []models.ChatMessage
}

func (s *stubMessages) Create(_ context.Context, sessionID, senderID uuid.UUID, body string) (*models.ChatMessage, error) {
	message := models.ChatMessage{
		ID:          uuid.New(),
		PTSessionID: sessionID,
		SenderID:    senderID,
		Message:     body,
		CreatedAt:   time.Now(),
	}
	s.created = append(s.created, message)
	return &message, nil
}

func (s *stubMessages) ListBySession(_ context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	out := make([]models.ChatMessage, 0)
	for _, m := range s.created {
		if m.PTSessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMessages) GetWithSender(_ context.Context, id uuid.UUID) (*models.ChatMessage, error) {
	for _, m := range s.created {
		if m.ID == id {
			copied := m
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type recordingPublisher struct {
	events []realtime.MessageInserted
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event realtime.MessageInserted) error {
	p.events = append(p.events, event)
	return p.err
}
