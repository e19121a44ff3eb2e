package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/repository"
	"github.com/MINHYEOKJEON99/mat-we/internal/video"
)

const (
	homeCourseLimit       = 6
	instructorCourseLimit = 3
)

var ErrNotEnrolled = errors.New("not enrolled")

type courseStore interface {
	List(ctx context.Context, filter repository.CourseFilter) ([]models.Course, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	Create(ctx context.Context, instructorID uuid.UUID, input repository.CourseInput) (*models.Course, error)
	Update(ctx context.Context, id, instructorID uuid.UUID, input repository.CourseInput) (*models.Course, error)
	Delete(ctx context.Context, id, instructorID uuid.UUID) (bool, error)
}

type videoStore interface {
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseVideo, error)
	NextOrderIndex(ctx context.Context, courseID uuid.UUID) (int, error)
	Create(ctx context.Context, input repository.CreateVideoInput) (*models.CourseVideo, error)
}

type enrollmentStore interface {
	Create(ctx context.Context, studentID, courseID uuid.UUID) (*models.Enrollment, error)
	Exists(ctx context.Context, studentID, courseID uuid.UUID) (bool, error)
	ListCourseIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error)
}

type CourseService struct {
	courses     courseStore
	videos      videoStore
	enrollments enrollmentStore
	profiles    profileReader
}

func NewCourseService(
	courses courseStore,
	videos videoStore,
	enrollments enrollmentStore,
	profiles profileReader,
) *CourseService {
	return &CourseService{
		courses:     courses,
		videos:      videos,
		enrollments: enrollments,
		profiles:    profiles,
	}
}

func (s *CourseService) Featured(ctx context.Context) ([]models.Course, error) {
	return s.courses.List(ctx, repository.CourseFilter{Limit: homeCourseLimit})
}

type CatalogView struct {
	Courses           []models.Course `json:"courses"`
	Level             string          `json:"level,omitempty"`
	EnrolledCourseIDs []uuid.UUID     `json:"enrolled_course_ids"`
}

// Catalog lists every course, optionally by level. viewer may be nil.
func (s *CourseService) Catalog(ctx context.Context, viewer *uuid.UUID, level string) (*CatalogView, error) {
	filter := repository.CourseFilter{}
	if level = strings.ToLower(strings.TrimSpace(level)); level != "" && level != "all" {
		parsed := models.CourseLevel(level)
		if !parsed.Valid() {
			return nil, invalid("level", "unknown course level")
		}
		filter.Level = &parsed
	}

	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	view := &CatalogView{Courses: courses, Level: level, EnrolledCourseIDs: []uuid.UUID{}}
	if viewer != nil {
		ids, err := s.enrollments.ListCourseIDs(ctx, *viewer)
		if err != nil {
			return nil, err
		}
		view.EnrolledCourseIDs = ids
	}
	return view, nil
}

type CourseDetailView struct {
	Course   *models.Course       `json:"course"`
	Videos   []models.CourseVideo `json:"videos"`
	Enrolled bool                 `json:"enrolled"`
}

func (s *CourseService) CourseDetail(ctx context.Context, viewer, courseID uuid.UUID) (*CourseDetailView, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}

	enrolled, err := s.enrollments.Exists(ctx, viewer, courseID)
	if err != nil {
		return nil, err
	}

	videos, err := s.videos.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// the outline shows titles and durations only; playback needs enrollment
	for i := range videos {
		videos[i].PlaybackID = nil
		videos[i].AssetID = nil
	}
	video.Decorate(videos)

	return &CourseDetailView{Course: course, Videos: videos, Enrolled: enrolled}, nil
}

// Enroll is idempotent: an existing enrollment is not an error.
func (s *CourseService) Enroll(ctx context.Context, studentID, courseID uuid.UUID) error {
	if err := s.requireRole(ctx, studentID, models.RoleStudent); err != nil {
		return err
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return notFoundIfNoRows(err)
	}

	if _, err := s.enrollments.Create(ctx, studentID, courseID); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func (s *CourseService) StudentCourses(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error) {
	return s.enrollments.ListByStudent(ctx, studentID)
}

// StudentCourse is the classroom view; it requires an enrollment.
func (s *CourseService) StudentCourse(ctx context.Context, studentID, courseID uuid.UUID) (*CourseDetailView, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}

	enrolled, err := s.enrollments.Exists(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	videos, err := s.videos.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return &CourseDetailView{Course: course, Videos: video.Decorate(videos), Enrolled: true}, nil
}

type CourseForm struct {
	Title        string
	Description  string
	ThumbnailURL string
	Price        float64
	Level        string
}

func (f CourseForm) toInput() (repository.CourseInput, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return repository.CourseInput{}, invalid("title", "title is required")
	}
	if f.Price < 0 {
		return repository.CourseInput{}, invalid("price", "price must be 0 or greater")
	}

	input := repository.CourseInput{
		Title:        title,
		Description:  optionalString(f.Description),
		ThumbnailURL: optionalString(f.ThumbnailURL),
		Price:        f.Price,
	}
	if level := strings.ToLower(strings.TrimSpace(f.Level)); level != "" {
		parsed := models.CourseLevel(level)
		if !parsed.Valid() {
			return repository.CourseInput{}, invalid("level", "unknown course level")
		}
		input.Level = &parsed
	}
	return input, nil
}

func (s *CourseService) InstructorCourses(ctx context.Context, instructorID uuid.UUID) ([]models.Course, error) {
	if err := s.requireRole(ctx, instructorID, models.RoleInstructor); err != nil {
		return nil, err
	}
	return s.courses.List(ctx, repository.CourseFilter{InstructorID: &instructorID})
}

func (s *CourseService) CreateCourse(ctx context.Context, instructorID uuid.UUID, form CourseForm) (*models.Course, error) {
	if err := s.requireRole(ctx, instructorID, models.RoleInstructor); err != nil {
		return nil, err
	}
	input, err := form.toInput()
	if err != nil {
		return nil, err
	}
	return s.courses.Create(ctx, instructorID, input)
}

// OwnedCourse returns ErrNotFound for courses that exist but belong to
// someone else.
func (s *CourseService) OwnedCourse(ctx context.Context, instructorID, courseID uuid.UUID) (*CourseDetailView, error) {
	course, err := s.ownedCourse(ctx, instructorID, courseID)
	if err != nil {
		return nil, err
	}
	videos, err := s.videos.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return &CourseDetailView{Course: course, Videos: video.Decorate(videos)}, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, instructorID, courseID uuid.UUID, form CourseForm) (*models.Course, error) {
	input, err := form.toInput()
	if err != nil {
		return nil, err
	}
	course, err := s.courses.Update(ctx, courseID, instructorID, input)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(ctx context.Context, instructorID, courseID uuid.UUID) error {
	deleted, err := s.courses.Delete(ctx, courseID, instructorID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

type VideoForm struct {
	Title       string
	Description string
	PlaybackID  string
	AssetID     string
	Duration    *int
}

func (s *CourseService) AddVideo(ctx context.Context, instructorID, courseID uuid.UUID, form VideoForm) (*models.CourseVideo, error) {
	if _, err := s.ownedCourse(ctx, instructorID, courseID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(form.Title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}
	playbackID := strings.TrimSpace(form.PlaybackID)
	if playbackID != "" && !video.IsValidPlaybackID(playbackID) {
		return nil, invalid("mux_playback_id", "playback id must be alphanumeric")
	}
	if form.Duration != nil && *form.Duration < 0 {
		return nil, invalid("duration", "duration must be 0 or greater")
	}

	orderIndex, err := s.videos.NextOrderIndex(ctx, courseID)
	if err != nil {
		return nil, err
	}

	created, err := s.videos.Create(ctx, repository.CreateVideoInput{
		CourseID:    courseID,
		Title:       title,
		Description: optionalString(form.Description),
		PlaybackID:  optionalString(playbackID),
		AssetID:     optionalString(form.AssetID),
		Duration:    form.Duration,
		OrderIndex:  orderIndex,
	})
	if err != nil {
		return nil, err
	}
	decorated := video.Decorate([]models.CourseVideo{*created})
	return &decorated[0], nil
}

type InstructorView struct {
	Profile *models.Profile `json:"profile"`
	Courses []models.Course `json:"courses"`
}

func (s *CourseService) InstructorPage(ctx context.Context, instructorID uuid.UUID) (*InstructorView, error) {
	profile, err := s.profiles.GetByID(ctx, instructorID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	if !profile.HasRole(models.RoleInstructor) {
		return nil, ErrNotFound
	}

	courses, err := s.courses.List(ctx, repository.CourseFilter{
		InstructorID: &instructorID,
		Limit:        instructorCourseLimit,
	})
	if err != nil {
		return nil, err
	}

	// the public page never exposes the email
	public := *profile
	public.Email = nil
	return &InstructorView{Profile: &public, Courses: courses}, nil
}

func (s *CourseService) ownedCourse(ctx context.Context, instructorID, courseID uuid.UUID) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	if course.InstructorID != instructorID {
		return nil, ErrNotFound
	}
	return course, nil
}

func (s *CourseService) requireRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrForbidden
		}
		return err
	}
	if !profile.HasRole(role) {
		return ErrForbidden
	}
	return nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
