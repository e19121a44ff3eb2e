package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

type CreateSessionInput struct {
	InstructorID uuid.UUID
	StudentID    uuid.UUID
	Duration     int
	Price        float64
	Notes        *string
}

type SessionListFilter struct {
	ActorID uuid.UUID
	Role    models.Role
	Status  *models.SessionStatus
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, instructor_id, student_id, scheduled_at, duration, status, price::float8, notes, created_at, updated_at`

func sessionTargets(session *models.PTSession, status *string) []any {
	return []any{
		&session.ID,
		&session.InstructorID,
		&session.StudentID,
		&session.ScheduledAt,
		&session.Duration,
		status,
		&session.Price,
		&session.Notes,
		&session.CreatedAt,
		&session.UpdatedAt,
	}
}

func scanSession(row interface{ Scan(dest ...any) error }) (*models.PTSession, error) {
	var session models.PTSession
	var status string
	if err := row.Scan(sessionTargets(&session, &status)...); err != nil {
		return nil, err
	}
	session.Status = models.SessionStatus(status)
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.PTSession, error) {
	query := `
		INSERT INTO pt_sessions (instructor_id, student_id, duration, status, price, notes)
		VALUES ($1, $2, $3, 'pending', $4, $5)
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.InstructorID,
		input.StudentID,
		input.Duration,
		input.Price,
		input.Notes,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (*models.PTSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM pt_sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

// UpdateIfPending moves a pending session to next. It returns pgx.ErrNoRows
// when the session is missing or no longer pending, leaving the row untouched.
func (r *SessionRepository) UpdateIfPending(
	ctx context.Context,
	sessionID uuid.UUID,
	next models.SessionStatus,
	scheduledAt *time.Time,
) (*models.PTSession, error) {
	query := `
		UPDATE pt_sessions
		SET status = $2,
			scheduled_at = COALESCE($3, scheduled_at),
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, string(next), scheduledAt))
}

// List returns the actor's sessions newest first, each with the other
// participant's profile attached.
func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.PTSession, error) {
	ownColumn, otherColumn := "s.student_id", "s.instructor_id"
	switch filter.Role {
	case models.RoleInstructor:
		ownColumn, otherColumn = "s.instructor_id", "s.student_id"
	case models.RoleStudent:
	default:
		return []models.PTSession{}, nil
	}

	columns := []string{
		"s.id", "s.instructor_id", "s.student_id", "s.scheduled_at", "s.duration",
		"s.status", "s.price::float8", "s.notes", "s.created_at", "s.updated_at",
	}
	columns = append(columns, summaryColumns("p")...)

	builder := psql.Select(columns...).
		From("pt_sessions s").
		Join("profiles p ON p.id = " + otherColumn).
		Where(squirrel.Eq{ownColumn: filter.ActorID}).
		OrderBy("s.created_at DESC", "s.id DESC")
	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"s.status": string(*filter.Status)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.PTSession, 0)
	for rows.Next() {
		var session models.PTSession
		var status string
		var other profileSummary
		targets := append(sessionTargets(&session, &status), other.targets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		session.Status = models.SessionStatus(status)
		if filter.Role == models.RoleInstructor {
			session.Student = other.profile()
		} else {
			session.Instructor = other.profile()
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
