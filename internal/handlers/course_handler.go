package handlers

import (
	"context"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/guard"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/services"
)

type courseApplicationService interface {
	Featured(ctx context.Context) ([]models.Course, error)
	Catalog(ctx context.Context, viewer *uuid.UUID, level string) (*services.CatalogView, error)
	CourseDetail(ctx context.Context, viewer, courseID uuid.UUID) (*services.CourseDetailView, error)
	Enroll(ctx context.Context, studentID, courseID uuid.UUID) error
	StudentCourses(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error)
	StudentCourse(ctx context.Context, studentID, courseID uuid.UUID) (*services.CourseDetailView, error)
	InstructorCourses(ctx context.Context, instructorID uuid.UUID) ([]models.Course, error)
	CreateCourse(ctx context.Context, instructorID uuid.UUID, form services.CourseForm) (*models.Course, error)
	OwnedCourse(ctx context.Context, instructorID, courseID uuid.UUID) (*services.CourseDetailView, error)
	UpdateCourse(ctx context.Context, instructorID, courseID uuid.UUID, form services.CourseForm) (*models.Course, error)
	DeleteCourse(ctx context.Context, instructorID, courseID uuid.UUID) error
	AddVideo(ctx context.Context, instructorID, courseID uuid.UUID, form services.VideoForm) (*models.CourseVideo, error)
	InstructorPage(ctx context.Context, instructorID uuid.UUID) (*services.InstructorView, error)
}

type CourseHandler struct {
	service courseApplicationService
}

func NewCourseHandler(service courseApplicationService) *CourseHandler {
	return &CourseHandler{service: service}
}

type courseRequest struct {
	Title        string  `json:"title" form:"title" validate:"required,max=200"`
	Description  string  `json:"description" form:"description"`
	ThumbnailURL string  `json:"thumbnail_url" form:"thumbnail_url" validate:"omitempty,url"`
	Price        float64 `json:"price" form:"price" validate:"gte=0"`
	Level        string  `json:"level" form:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

func (r courseRequest) toForm() services.CourseForm {
	return services.CourseForm{
		Title:        r.Title,
		Description:  r.Description,
		ThumbnailURL: r.ThumbnailURL,
		Price:        r.Price,
		Level:        r.Level,
	}
}

type videoRequest struct {
	Title       string `json:"title" form:"title" validate:"required,max=200"`
	Description string `json:"description" form:"description"`
	PlaybackID  string `json:"mux_playback_id" form:"mux_playback_id" validate:"omitempty,alphanum"`
	AssetID     string `json:"mux_asset_id" form:"mux_asset_id"`
	Duration    *int   `json:"duration" form:"duration" validate:"omitempty,gte=0"`
}

func (h *CourseHandler) Home(c *fiber.Ctx) error {
	courses, err := h.service.Featured(c.UserContext())
	if err != nil {
		return mapCourseError(c, err)
	}
	return c.JSON(fiber.Map{"courses": courses})
}

func (h *CourseHandler) Catalog(c *fiber.Ctx) error {
	view, err := h.service.Catalog(c.UserContext(), viewerID(c), c.Query("level"))
	if err != nil {
		return mapCourseError(c, err)
	}
	return c.JSON(view)
}

func (h *CourseHandler) Detail(c *fiber.Ctx) error {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid course id")
	}
	userID, ok := currentUserID(c)
	if !ok {
		return seeOther(c, guard.LoginPath+"?next="+url.QueryEscape(c.Path()))
	}

	view, err := h.service.CourseDetail(c.UserContext(), userID, courseID)
	if err != nil {
		return mapCourseError(c, err)
	}
	if view.Enrolled {
		return seeOther(c, "/student/courses/"+courseID.String())
	}
	return c.JSON(view)
}

func (h *CourseHandler) Enroll(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid course id")
	}

	if err := h.service.Enroll(c.UserContext(), userID, courseID); err != nil {
		return mapCourseError(c, err)
	}
	return seeOther(c, "/student/courses/"+courseID.String())
}

func (h *CourseHandler) StudentCourses(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	enrollments, err := h.service.StudentCourses(c.UserContext(), userID)
	if err != nil {
		return mapCourseError(c, err)
	}
	return c.JSON(fiber.Map{"enrollments": enrollments})
}

func (h *CourseHandler) StudentCourse(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid course id")
	}

	view, err := h.service.StudentCourse(c.UserContext(), userID, courseID)
	if err != nil {
		if errors.Is(err, services.ErrNotEnrolled) {
			return seeOther(c, "/courses/"+courseID.String())
		}
		return mapCourseError(c, err)
	}
	return c.JSON(view)
}

func (h *CourseHandler) InstructorCourses(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	courses, err := h.service.InstructorCourses(c.UserContext(), userID)
	if err != nil {
		return mapCourseError(c, err)
	}
	return c.JSON(fiber.Map{"courses": courses})
}

func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req courseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg := validateForm(req); msg != "" {
		return badRequest(c, msg)
	}

	course, err := h.service.CreateCourse(c.UserContext(), userID, req.toForm())
	if err != nil {
		return mapCourseError(c, err)
	}
	return seeOther(c, "/instructor/courses/"+course.ID.String())
}

func (h *CourseHandler) OwnedCourse(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid course id")
	}

	view, err := h.service.OwnedCourse(c.UserContext(), userID, courseID)
	if err != nil {
		return mapCourseError(c, err)
	}
	return c.JSON(view)
}

func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid course id")
	}

	var req courseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg := validateForm(req); msg != "" {
		return badRequest(c, msg)
	}

	course, err := h.service.UpdateCourse(c.UserContext(), userID, courseID, req.toForm())
	if err != nil {
		return mapCourseError(c, err)
	}
	return c.JSON(fiber.Map{"course": course})
}

func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid course id")
	}

	if err := h.service.DeleteCourse(c.UserContext(), userID, courseID); err != nil {
		return mapCourseError(c, err)
	}
	return seeOther(c, "/instructor/courses")
}

func (h *CourseHandler) AddVideo(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid course id")
	}

	var req videoRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg := validateForm(req); msg != "" {
		return badRequest(c, msg)
	}

	video, err := h.service.AddVideo(c.UserContext(), userID, courseID, services.VideoForm{
		Title:       req.Title,
		Description: req.Description,
		PlaybackID:  req.PlaybackID,
		AssetID:     req.AssetID,
		Duration:    req.Duration,
	})
	if err != nil {
		return mapCourseError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"video": video})
}

func (h *CourseHandler) InstructorPage(c *fiber.Ctx) error {
	instructorID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid instructor id")
	}

	view, err := h.service.InstructorPage(c.UserContext(), instructorID)
	if err != nil {
		return mapCourseError(c, err)
	}
	return c.JSON(view)
}

func mapCourseError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process course request"})
	}
}
