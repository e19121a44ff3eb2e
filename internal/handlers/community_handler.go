package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/services"
)

type communityApplicationService interface {
	Feed(ctx context.Context, viewer *uuid.UUID) (*services.FeedView, error)
	CreatePost(ctx context.Context, authorID uuid.UUID, form services.PostForm) (*models.CommunityPost, error)
	PostDetail(ctx context.Context, viewer *uuid.UUID, postID uuid.UUID) (*services.PostDetailView, error)
	UpdatePost(ctx context.Context, authorID, postID uuid.UUID, form services.PostForm) (*models.CommunityPost, error)
	DeletePost(ctx context.Context, authorID, postID uuid.UUID) error
	Like(ctx context.Context, userID, postID uuid.UUID) error
	Unlike(ctx context.Context, userID, postID uuid.UUID) error
	AddComment(ctx context.Context, authorID, postID uuid.UUID, body string) (*models.PostComment, error)
	DeleteComment(ctx context.Context, authorID, postID, commentID uuid.UUID) error
}

type CommunityHandler struct {
	service communityApplicationService
}

func NewCommunityHandler(service communityApplicationService) *CommunityHandler {
	return &CommunityHandler{service: service}
}

type postRequest struct {
	Title    string `json:"title" form:"title" validate:"required,max=200"`
	Content  string `json:"content" form:"content" validate:"required"`
	ImageURL string `json:"image_url" form:"image_url" validate:"omitempty,url"`
}

func (r postRequest) toForm() services.PostForm {
	return services.PostForm{Title: r.Title, Content: r.Content, ImageURL: r.ImageURL}
}

type commentRequest struct {
	Content string `json:"content" form:"content"`
}

func (h *CommunityHandler) Feed(c *fiber.Ctx) error {
	view, err := h.service.Feed(c.UserContext(), viewerID(c))
	if err != nil {
		return mapCommunityError(c, err)
	}
	return c.JSON(view)
}

func (h *CommunityHandler) NewPostForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"fields": []string{"title", "content", "image_url"}})
}

func (h *CommunityHandler) CreatePost(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg := validateForm(req); msg != "" {
		return badRequest(c, msg)
	}

	post, err := h.service.CreatePost(c.UserContext(), userID, req.toForm())
	if err != nil {
		return mapCommunityError(c, err)
	}
	return seeOther(c, "/community/"+post.ID.String())
}

func (h *CommunityHandler) PostDetail(c *fiber.Ctx) error {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid post id")
	}

	view, err := h.service.PostDetail(c.UserContext(), viewerID(c), postID)
	if err != nil {
		return mapCommunityError(c, err)
	}
	return c.JSON(view)
}

func (h *CommunityHandler) UpdatePost(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid post id")
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg := validateForm(req); msg != "" {
		return badRequest(c, msg)
	}

	post, err := h.service.UpdatePost(c.UserContext(), userID, postID, req.toForm())
	if err != nil {
		return mapCommunityError(c, err)
	}
	return c.JSON(fiber.Map{"post": post})
}

func (h *CommunityHandler) DeletePost(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid post id")
	}

	if err := h.service.DeletePost(c.UserContext(), userID, postID); err != nil {
		return mapCommunityError(c, err)
	}
	return seeOther(c, "/community")
}

func (h *CommunityHandler) Like(c *fiber.Ctx) error {
	return h.toggleLike(c, h.service.Like)
}

func (h *CommunityHandler) Unlike(c *fiber.Ctx) error {
	return h.toggleLike(c, h.service.Unlike)
}

func (h *CommunityHandler) toggleLike(c *fiber.Ctx, apply func(ctx context.Context, userID, postID uuid.UUID) error) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid post id")
	}

	if err := apply(c.UserContext(), userID, postID); err != nil {
		return mapCommunityError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CommunityHandler) AddComment(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid post id")
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := h.service.AddComment(c.UserContext(), userID, postID, req.Content)
	if err != nil {
		return mapCommunityError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": comment})
}

func (h *CommunityHandler) DeleteComment(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid post id")
	}
	commentID, ok := parseIDParam(c, "commentID")
	if !ok {
		return badRequest(c, "Invalid comment id")
	}

	if err := h.service.DeleteComment(c.UserContext(), userID, postID, commentID); err != nil {
		return mapCommunityError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapCommunityError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process community request"})
	}
}
