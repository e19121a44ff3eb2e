package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/services"
)

type stubCommunityService struct {
	communityApplicationService

	likeErr     error
	likes       int
	unlikes     int
	commentErr  error
	createCalls int
	lastViewer  *uuid.UUID
}

func (s *stubCommunityService) Feed(_ context.Context, viewer *uuid.UUID) (*services.FeedView, error) {
	s.lastViewer = viewer
	return &services.FeedView{Posts: []models.CommunityPost{}, LikedPostIDs: []uuid.UUID{}}, nil
}

func (s *stubCommunityService) CreatePost(_ context.Context, authorID uuid.UUID, form services.PostForm) (*models.CommunityPost, error) {
	s.createCalls++
	return &models.CommunityPost{ID: uuid.New(), AuthorID: authorID, Title: form.Title}, nil
}

func (s *stubCommunityService) Like(_ context.Context, _, _ uuid.UUID) error {
	s.likes++
	return s.likeErr
}

func (s *stubCommunityService) Unlike(_ context.Context, _, _ uuid.UUID) error {
	s.unlikes++
	return s.likeErr
}

func (s *stubCommunityService) AddComment(_ context.Context, authorID, postID uuid.UUID, body string) (*models.PostComment, error) {
	if s.commentErr != nil {
		return nil, s.commentErr
	}
	return &models.PostComment{ID: uuid.New(), PostID: postID, AuthorID: authorID, Content: body}, nil
}

func TestFeedIsPublic(t *testing.T) {
	service := &stubCommunityService{}
	handler := NewCommunityHandler(service)
	app := newTestApp(nil)
	app.Get("/community", handler.Feed)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/community", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastViewer != nil {
		t.Fatalf("anonymous feed must not carry a viewer")
	}
}

func TestCreatePostRedirectsToPost(t *testing.T) {
	userID := uuid.New()
	service := &stubCommunityService{}
	handler := NewCommunityHandler(service)
	app := newTestApp(&userID)
	app.Post("/community/new", handler.CreatePost)

	req := httptest.NewRequest(http.MethodPost, "/community/new", strings.NewReader("title=%EC%95%94%EB%B0%94&content=detail"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther || !strings.HasPrefix(resp.Header.Get("Location"), "/community/") {
		t.Fatalf("expected redirect to the new post, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestCreatePostRequiresContent(t *testing.T) {
	userID := uuid.New()
	service := &stubCommunityService{}
	handler := NewCommunityHandler(service)
	app := newTestApp(&userID)
	app.Post("/community/new", handler.CreatePost)

	req := httptest.NewRequest(http.MethodPost, "/community/new", strings.NewReader(`{"title":"only a title"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.createCalls != 0 {
		t.Fatalf("service must not be called without content")
	}
}

func TestLikeAndUnlike(t *testing.T) {
	userID := uuid.New()
	service := &stubCommunityService{}
	handler := NewCommunityHandler(service)
	app := newTestApp(&userID)
	app.Post("/community/:id/like", handler.Like)
	app.Delete("/community/:id/like", handler.Unlike)

	postPath := "/community/" + uuid.NewString() + "/like"
	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		resp, err := app.Test(httptest.NewRequest(method, postPath, nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected 204 for %s, got %d", method, resp.StatusCode)
		}
	}
	if service.likes != 1 || service.unlikes != 1 {
		t.Fatalf("expected one like and one unlike, got %d/%d", service.likes, service.unlikes)
	}
}

func TestLikeMissingPost(t *testing.T) {
	userID := uuid.New()
	handler := NewCommunityHandler(&stubCommunityService{likeErr: services.ErrNotFound})
	app := newTestApp(&userID)
	app.Post("/community/:id/like", handler.Like)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/community/"+uuid.NewString()+"/like", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAddCommentReturnsBlankBodyError(t *testing.T) {
	userID := uuid.New()
	handler := NewCommunityHandler(&stubCommunityService{
		commentErr: &services.ValidationError{Field: "content", Message: "comment must not be empty"},
	})
	app := newTestApp(&userID)
	app.Post("/community/:id/comments", handler.AddComment)

	req := httptest.NewRequest(http.MethodPost, "/community/"+uuid.NewString()+"/comments", strings.NewReader(`{"content":"   "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error"] != "content: comment must not be empty" {
		t.Fatalf("unexpected error %q", payload["error"])
	}
}
