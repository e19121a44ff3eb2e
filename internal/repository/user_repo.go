package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, COALESCE(email, ''), password_hash, signup_display_name, signup_role,
	email_confirmed_at, oauth_provider, oauth_subject, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var user models.User
	var signupRole *string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.SignupName,
		&signupRole,
		&user.EmailConfirmedAt,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.SignupRole = roleFromDB(signupRole)
	return &user, nil
}

type CreatePasswordUserInput struct {
	Email        string
	PasswordHash string
	DisplayName  string
	Role         models.Role
}

func (r *UserRepository) CreatePasswordUser(ctx context.Context, input CreatePasswordUserInput) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, signup_display_name, signup_role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, input.Email, input.PasswordHash, input.DisplayName, string(input.Role)))
}

func (r *UserRepository) CreateOAuthUser(ctx context.Context, provider, subject string, email *string) (*models.User, error) {
	query := `
		INSERT INTO users (email, oauth_provider, oauth_subject, email_confirmed_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, email, provider, subject))
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE oauth_provider = $1 AND oauth_subject = $2`
	return scanUser(r.db.QueryRow(ctx, query, provider, subject))
}

// LinkOAuth attaches a provider identity to an existing email account. An
// OAuth login proves the email, so it also confirms it.
func (r *UserRepository) LinkOAuth(ctx context.Context, id uuid.UUID, provider, subject string) (*models.User, error) {
	query := `
		UPDATE users
		SET oauth_provider = $2,
			oauth_subject = $3,
			email_confirmed_at = COALESCE(email_confirmed_at, NOW()),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, provider, subject))
}

func (r *UserRepository) MarkEmailConfirmed(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		UPDATE users
		SET email_confirmed_at = COALESCE(email_confirmed_at, NOW()), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id))
}
