package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/repository"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type postStore interface {
	List(ctx context.Context) ([]models.CommunityPost, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CommunityPost, error)
	Create(ctx context.Context, authorID uuid.UUID, input repository.PostInput) (*models.CommunityPost, error)
	Update(ctx context.Context, id, authorID uuid.UUID, input repository.PostInput) (*models.CommunityPost, error)
	Delete(ctx context.Context, id, authorID uuid.UUID) (bool, error)
	AdjustLikes(ctx context.Context, id uuid.UUID, delta int) error
	AdjustComments(ctx context.Context, id uuid.UUID, delta int) error
}

type commentStore interface {
	Create(ctx context.Context, postID, authorID uuid.UUID, content string) (*models.PostComment, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]models.PostComment, error)
	Delete(ctx context.Context, postID, commentID, authorID uuid.UUID) (bool, error)
}

type likeStore interface {
	Insert(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Delete(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Exists(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	ListLikedPostIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// communityStores is the set of stores bound to one transaction.
type communityStores struct {
	posts    postStore
	comments commentStore
	likes    likeStore
}

func repositoryStores(tx pgx.Tx) communityStores {
	return communityStores{
		posts:    repository.NewPostRepository(tx),
		comments: repository.NewCommentRepository(tx),
		likes:    repository.NewLikeRepository(tx),
	}
}

// CommunityService keeps likes_count and comments_count in step with their
// child rows by changing both in one transaction.
type CommunityService struct {
	db       txBeginner
	posts    postStore
	comments commentStore
	likes    likeStore
	txStores func(tx pgx.Tx) communityStores
}

func NewCommunityService(
	db txBeginner,
	posts postStore,
	comments commentStore,
	likes likeStore,
) *CommunityService {
	return &CommunityService{
		db:       db,
		posts:    posts,
		comments: comments,
		likes:    likes,
		txStores: repositoryStores,
	}
}

type FeedView struct {
	Posts        []models.CommunityPost `json:"posts"`
	LikedPostIDs []uuid.UUID            `json:"liked_post_ids"`
}

func (s *CommunityService) Feed(ctx context.Context, viewer *uuid.UUID) (*FeedView, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}

	view := &FeedView{Posts: posts, LikedPostIDs: []uuid.UUID{}}
	if viewer != nil {
		liked, err := s.likes.ListLikedPostIDs(ctx, *viewer)
		if err != nil {
			return nil, err
		}
		view.LikedPostIDs = liked
	}
	return view, nil
}

type PostForm struct {
	Title    string
	Content  string
	ImageURL string
}

func (f PostForm) toInput() (repository.PostInput, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return repository.PostInput{}, invalid("title", "title is required")
	}
	content := strings.TrimSpace(f.Content)
	if content == "" {
		return repository.PostInput{}, invalid("content", "content is required")
	}
	return repository.PostInput{
		Title:    title,
		Content:  content,
		ImageURL: optionalString(f.ImageURL),
	}, nil
}

func (s *CommunityService) CreatePost(ctx context.Context, authorID uuid.UUID, form PostForm) (*models.CommunityPost, error) {
	input, err := form.toInput()
	if err != nil {
		return nil, err
	}
	return s.posts.Create(ctx, authorID, input)
}

type PostDetailView struct {
	Post     *models.CommunityPost `json:"post"`
	IsLiked  bool                  `json:"is_liked"`
	IsAuthor bool                  `json:"is_author"`
	Comments []models.PostComment  `json:"comments"`
}

func (s *CommunityService) PostDetail(ctx context.Context, viewer *uuid.UUID, postID uuid.UUID) (*PostDetailView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}

	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	view := &PostDetailView{Post: post, Comments: comments}
	if viewer != nil {
		view.IsAuthor = post.AuthorID == *viewer
		view.IsLiked, err = s.likes.Exists(ctx, postID, *viewer)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

// UpdatePost and DeletePost answer ErrNotFound to anyone but the author.
func (s *CommunityService) UpdatePost(ctx context.Context, authorID, postID uuid.UUID, form PostForm) (*models.CommunityPost, error) {
	input, err := form.toInput()
	if err != nil {
		return nil, err
	}
	post, err := s.posts.Update(ctx, postID, authorID, input)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return post, nil
}

func (s *CommunityService) DeletePost(ctx context.Context, authorID, postID uuid.UUID) error {
	deleted, err := s.posts.Delete(ctx, postID, authorID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Like is idempotent; only a newly inserted row moves the counter.
func (s *CommunityService) Like(ctx context.Context, userID, postID uuid.UUID) error {
	return s.inTx(ctx, func(tx communityStores) error {
		if err := ensurePost(ctx, tx.posts, postID); err != nil {
			return err
		}
		inserted, err := tx.likes.Insert(ctx, postID, userID)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		return tx.posts.AdjustLikes(ctx, postID, 1)
	})
}

func (s *CommunityService) Unlike(ctx context.Context, userID, postID uuid.UUID) error {
	return s.inTx(ctx, func(tx communityStores) error {
		deleted, err := tx.likes.Delete(ctx, postID, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return nil
		}
		return tx.posts.AdjustLikes(ctx, postID, -1)
	})
}

func (s *CommunityService) AddComment(ctx context.Context, authorID, postID uuid.UUID, body string) (*models.PostComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("content", "comment must not be empty")
	}

	var created *models.PostComment
	err := s.inTx(ctx, func(tx communityStores) error {
		if err := ensurePost(ctx, tx.posts, postID); err != nil {
			return err
		}
		comment, err := tx.comments.Create(ctx, postID, authorID, body)
		if err != nil {
			return err
		}
		created = comment
		return tx.posts.AdjustComments(ctx, postID, 1)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *CommunityService) DeleteComment(ctx context.Context, authorID, postID, commentID uuid.UUID) error {
	return s.inTx(ctx, func(tx communityStores) error {
		deleted, err := tx.comments.Delete(ctx, postID, commentID, authorID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotFound
		}
		return tx.posts.AdjustComments(ctx, postID, -1)
	})
}

func (s *CommunityService) inTx(ctx context.Context, fn func(tx communityStores) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(s.txStores(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func ensurePost(ctx context.Context, posts postStore, postID uuid.UUID) error {
	if _, err := posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
