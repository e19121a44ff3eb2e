package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

type CreateVideoInput struct {
	CourseID    uuid.UUID
	Title       string
	Description *string
	PlaybackID  *string
	AssetID     *string
	Duration    *int
	OrderIndex  int
}

type VideoRepository struct {
	db DBTX
}

func NewVideoRepository(db DBTX) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = `id, course_id, title, description, mux_playback_id, mux_asset_id, duration, order_index, created_at`

func scanVideo(row interface{ Scan(dest ...any) error }) (*models.CourseVideo, error) {
	var video models.CourseVideo
	err := row.Scan(
		&video.ID,
		&video.CourseID,
		&video.Title,
		&video.Description,
		&video.PlaybackID,
		&video.AssetID,
		&video.Duration,
		&video.OrderIndex,
		&video.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *VideoRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseVideo, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+videoColumns+`
		FROM course_videos
		WHERE course_id = $1
		ORDER BY order_index ASC, created_at ASC
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := make([]models.CourseVideo, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *video)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return videos, nil
}

// NextOrderIndex is max(order_index)+1, or 0 for an empty course.
func (r *VideoRepository) NextOrderIndex(ctx context.Context, courseID uuid.UUID) (int, error) {
	var next int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(order_index) + 1, 0)
		FROM course_videos
		WHERE course_id = $1
	`, courseID).Scan(&next)
	return next, err
}

func (r *VideoRepository) Create(ctx context.Context, input CreateVideoInput) (*models.CourseVideo, error) {
	query := `
		INSERT INTO course_videos (course_id, title, description, mux_playback_id, mux_asset_id, duration, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + videoColumns
	return scanVideo(r.db.QueryRow(
		ctx,
		query,
		input.CourseID,
		input.Title,
		input.Description,
		input.PlaybackID,
		input.AssetID,
		input.Duration,
		input.OrderIndex,
	))
}
