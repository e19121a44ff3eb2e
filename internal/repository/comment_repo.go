package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

type CommentRepository struct {
	db DBTX
}

func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, postID, authorID uuid.UUID, content string) (*models.PostComment, error) {
	var comment models.PostComment
	err := r.db.QueryRow(ctx, `
		INSERT INTO post_comments (post_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, author_id, content, created_at
	`, postID, authorID, content).Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.Content,
		&comment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]models.PostComment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.post_id, c.author_id, c.content, c.created_at,
			   p.id, p.display_name, p.avatar_url, p.role
		FROM post_comments c
		JOIN profiles p ON p.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]models.PostComment, 0)
	for rows.Next() {
		var comment models.PostComment
		var author profileSummary
		targets := append([]any{
			&comment.ID,
			&comment.PostID,
			&comment.AuthorID,
			&comment.Content,
			&comment.CreatedAt,
		}, author.targets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		comment.Author = author.profile()
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

// Delete removes the author's own comment on postID and reports whether a
// row went away.
func (r *CommentRepository) Delete(ctx context.Context, postID, commentID, authorID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM post_comments
		WHERE id = $1 AND post_id = $2 AND author_id = $3
	`, commentID, postID, authorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
