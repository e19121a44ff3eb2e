package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/services"
)

// stubCourseService implements only what these tests touch; the embedded
// interface panics if anything else is called.
type stubCourseService struct {
	courseApplicationService

	detail        *services.CourseDetailView
	studentErr    error
	enrollErr     error
	addVideoCalls int
	lastVideo     services.VideoForm
	lastCourseID  uuid.UUID
}

func (s *stubCourseService) CourseDetail(_ context.Context, _, courseID uuid.UUID) (*services.CourseDetailView, error) {
	s.lastCourseID = courseID
	return s.detail, nil
}

func (s *stubCourseService) Enroll(_ context.Context, _, courseID uuid.UUID) error {
	s.lastCourseID = courseID
	return s.enrollErr
}

func (s *stubCourseService) StudentCourse(_ context.Context, _, courseID uuid.UUID) (*services.CourseDetailView, error) {
	s.lastCourseID = courseID
	if s.studentErr != nil {
		return nil, s.studentErr
	}
	return s.detail, nil
}

func (s *stubCourseService) AddVideo(_ context.Context, _, courseID uuid.UUID, form services.VideoForm) (*models.CourseVideo, error) {
	s.addVideoCalls++
	s.lastCourseID = courseID
	s.lastVideo = form
	return &models.CourseVideo{ID: uuid.New(), CourseID: courseID, Title: form.Title}, nil
}

func TestCourseDetailRequiresLogin(t *testing.T) {
	handler := NewCourseHandler(&stubCourseService{})
	app := newTestApp(nil)
	app.Get("/courses/:id", handler.Detail)

	courseID := uuid.New()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/courses/"+courseID.String(), nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	expectRedirect(t, resp, "/auth/login?next=%2Fcourses%2F"+courseID.String())
}

func TestCourseDetailRedirectsEnrolledStudents(t *testing.T) {
	userID := uuid.New()
	courseID := uuid.New()
	service := &stubCourseService{detail: &services.CourseDetailView{Enrolled: true}}
	handler := NewCourseHandler(service)

	app := newTestApp(&userID)
	app.Get("/courses/:id", handler.Detail)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/courses/"+courseID.String(), nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	expectRedirect(t, resp, "/student/courses/"+courseID.String())
}

func TestEnrollRedirectsToClassroom(t *testing.T) {
	userID := uuid.New()
	courseID := uuid.New()
	handler := NewCourseHandler(&stubCourseService{})

	app := newTestApp(&userID)
	app.Post("/courses/:id/enroll", handler.Enroll)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/courses/"+courseID.String()+"/enroll", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	expectRedirect(t, resp, "/student/courses/"+courseID.String())
}

func TestEnrollRejectsInstructors(t *testing.T) {
	userID := uuid.New()
	handler := NewCourseHandler(&stubCourseService{enrollErr: services.ErrForbidden})

	app := newTestApp(&userID)
	app.Post("/courses/:id/enroll", handler.Enroll)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/courses/"+uuid.NewString()+"/enroll", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestStudentCourseRedirectsWhenNotEnrolled(t *testing.T) {
	userID := uuid.New()
	courseID := uuid.New()
	handler := NewCourseHandler(&stubCourseService{studentErr: services.ErrNotEnrolled})

	app := newTestApp(&userID)
	app.Get("/student/courses/:id", handler.StudentCourse)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/student/courses/"+courseID.String(), nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	expectRedirect(t, resp, "/courses/"+courseID.String())
}

func TestAddVideoRejectsNonAlphanumericPlaybackID(t *testing.T) {
	userID := uuid.New()
	service := &stubCourseService{}
	handler := NewCourseHandler(service)

	app := newTestApp(&userID)
	app.Post("/instructor/courses/:id/videos", handler.AddVideo)

	path := "/instructor/courses/" + uuid.NewString() + "/videos"
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"title":"Armbar","mux_playback_id":"abc-123"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.addVideoCalls != 0 {
		t.Fatalf("service must not be called for an invalid playback id")
	}

	req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"title":"Armbar","mux_playback_id":"abc123","duration":95}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastVideo.Duration == nil || *service.lastVideo.Duration != 95 {
		t.Fatalf("expected duration 95 to reach the service")
	}
}
