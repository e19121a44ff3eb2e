package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, email, display_name, bio, role, avatar_url, interested_sports,
	is_profile_complete, created_at, updated_at`

func scanProfile(row interface{ Scan(dest ...any) error }) (*models.Profile, error) {
	var profile models.Profile
	var role *string
	var sports []string
	err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.DisplayName,
		&profile.Bio,
		&role,
		&profile.AvatarURL,
		&sports,
		&profile.IsProfileComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	profile.Role = roleFromDB(role)
	profile.InterestedSports = sportsFromDB(sports)
	return &profile, nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(r.db.QueryRow(ctx, query, id))
}

type CreateEmptyProfileInput struct {
	ID          uuid.UUID
	Email       *string
	DisplayName string
	Role        *models.Role
	AvatarURL   *string
}

// CreateEmpty inserts an incomplete profile for a fresh identity. It is a
// no-op when the profile already exists.
func (r *ProfileRepository) CreateEmpty(ctx context.Context, input CreateEmptyProfileInput) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (id, email, display_name, role, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, input.ID, input.Email, input.DisplayName, roleToDB(input.Role), input.AvatarURL)
	return err
}

func (r *ProfileRepository) BackfillEmail(ctx context.Context, id uuid.UUID, email string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET email = $2, updated_at = NOW()
		WHERE id = $1 AND (email IS NULL OR email = '')
	`, id, email)
	return err
}

type CompleteProfileInput struct {
	ID               uuid.UUID
	Email            *string
	DisplayName      string
	Bio              *string
	Role             models.Role
	AvatarURL        *string
	InterestedSports []models.SportType
}

func (r *ProfileRepository) UpsertComplete(ctx context.Context, input CompleteProfileInput) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (id, email, display_name, bio, role, avatar_url, interested_sports, is_profile_complete)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		ON CONFLICT (id) DO UPDATE
		SET email = COALESCE(profiles.email, EXCLUDED.email),
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			role = EXCLUDED.role,
			avatar_url = EXCLUDED.avatar_url,
			interested_sports = EXCLUDED.interested_sports,
			is_profile_complete = TRUE,
			updated_at = NOW()
		RETURNING ` + profileColumns
	return scanProfile(r.db.QueryRow(
		ctx,
		query,
		input.ID,
		input.Email,
		input.DisplayName,
		input.Bio,
		string(input.Role),
		input.AvatarURL,
		sportsToDB(input.InterestedSports),
	))
}
