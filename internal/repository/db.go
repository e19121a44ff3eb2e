package repository

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so every repository can run
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const uniqueViolation = "23505"

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// profileSummary scans the author/participant columns joined onto another row.
type profileSummary struct {
	id          uuid.UUID
	displayName string
	avatarURL   *string
	role        *string
}

func summaryColumns(alias string) []string {
	return []string{
		alias + ".id",
		alias + ".display_name",
		alias + ".avatar_url",
		alias + ".role",
	}
}

func (p *profileSummary) targets() []any {
	return []any{&p.id, &p.displayName, &p.avatarURL, &p.role}
}

func (p *profileSummary) profile() *models.Profile {
	return &models.Profile{
		ID:          p.id,
		DisplayName: p.displayName,
		AvatarURL:   p.avatarURL,
		Role:        roleFromDB(p.role),
	}
}

func roleFromDB(raw *string) *models.Role {
	if raw == nil {
		return nil
	}
	role, err := models.ParseRole(*raw)
	if err != nil {
		return nil
	}
	return &role
}

func roleToDB(role *models.Role) *string {
	if role == nil {
		return nil
	}
	value := string(*role)
	return &value
}

func sportsFromDB(raw []string) []models.SportType {
	sports := make([]models.SportType, 0, len(raw))
	for _, value := range raw {
		sports = append(sports, models.SportType(value))
	}
	return sports
}

func sportsToDB(sports []models.SportType) []string {
	out := make([]string, 0, len(sports))
	for _, sport := range sports {
		out = append(out, string(sport))
	}
	return out
}
