package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

type PostInput struct {
	Title    string
	Content  string
	ImageURL *string
}

type PostRepository struct {
	db DBTX
}

func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

var postSelectColumns = append([]string{
	"cp.id", "cp.author_id", "cp.title", "cp.content", "cp.image_url",
	"cp.likes_count", "cp.comments_count", "cp.created_at", "cp.updated_at",
}, summaryColumns("p")...)

const postReturning = `id, author_id, title, content, image_url, likes_count, comments_count, created_at, updated_at`

func postTargets(post *models.CommunityPost) []any {
	return []any{
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Content,
		&post.ImageURL,
		&post.LikesCount,
		&post.CommentsCount,
		&post.CreatedAt,
		&post.UpdatedAt,
	}
}

func scanPost(row interface{ Scan(dest ...any) error }) (*models.CommunityPost, error) {
	var post models.CommunityPost
	if err := row.Scan(postTargets(&post)...); err != nil {
		return nil, err
	}
	return &post, nil
}

func scanPostWithAuthor(row interface{ Scan(dest ...any) error }) (*models.CommunityPost, error) {
	var post models.CommunityPost
	var author profileSummary
	if err := row.Scan(append(postTargets(&post), author.targets()...)...); err != nil {
		return nil, err
	}
	post.Author = author.profile()
	return &post, nil
}

func (r *PostRepository) postQuery() squirrel.SelectBuilder {
	return psql.Select(postSelectColumns...).
		From("community_posts cp").
		Join("profiles p ON p.id = cp.author_id")
}

func (r *PostRepository) List(ctx context.Context) ([]models.CommunityPost, error) {
	query, args, err := r.postQuery().OrderBy("cp.created_at DESC", "cp.id DESC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]models.CommunityPost, 0)
	for rows.Next() {
		post, err := scanPostWithAuthor(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CommunityPost, error) {
	query, args, err := r.postQuery().Where(squirrel.Eq{"cp.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanPostWithAuthor(r.db.QueryRow(ctx, query, args...))
}

func (r *PostRepository) Create(ctx context.Context, authorID uuid.UUID, input PostInput) (*models.CommunityPost, error) {
	query := `
		INSERT INTO community_posts (author_id, title, content, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + postReturning
	return scanPost(r.db.QueryRow(ctx, query, authorID, input.Title, input.Content, input.ImageURL))
}

func (r *PostRepository) Update(ctx context.Context, id, authorID uuid.UUID, input PostInput) (*models.CommunityPost, error) {
	query := `
		UPDATE community_posts
		SET title = $3, content = $4, image_url = $5, updated_at = NOW()
		WHERE id = $1 AND author_id = $2
		RETURNING ` + postReturning
	return scanPost(r.db.QueryRow(ctx, query, id, authorID, input.Title, input.Content, input.ImageURL))
}

func (r *PostRepository) Delete(ctx context.Context, id, authorID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM community_posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostRepository) AdjustLikes(ctx context.Context, id uuid.UUID, delta int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE community_posts
		SET likes_count = GREATEST(likes_count + $2, 0)
		WHERE id = $1
	`, id, delta)
	return err
}

func (r *PostRepository) AdjustComments(ctx context.Context, id uuid.UUID, delta int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE community_posts
		SET comments_count = GREATEST(comments_count + $2, 0)
		WHERE id = $1
	`, id, delta)
	return err
}
