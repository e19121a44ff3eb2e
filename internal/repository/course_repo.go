package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

type CourseFilter struct {
	Level        *models.CourseLevel
	InstructorID *uuid.UUID
	Limit        uint64
}

type CourseInput struct {
	Title        string
	Description  *string
	ThumbnailURL *string
	Price        float64
	Level        *models.CourseLevel
}

type CourseRepository struct {
	db DBTX
}

func NewCourseRepository(db DBTX) *CourseRepository {
	return &CourseRepository{db: db}
}

var courseSelectColumns = append([]string{
	"c.id", "c.instructor_id", "c.title", "c.description", "c.thumbnail_url",
	"c.price::float8", "c.level", "c.created_at", "c.updated_at",
}, summaryColumns("p")...)

const courseReturning = `id, instructor_id, title, description, thumbnail_url, price::float8, level, created_at, updated_at`

func courseTargets(course *models.Course, level **string) []any {
	return []any{
		&course.ID,
		&course.InstructorID,
		&course.Title,
		&course.Description,
		&course.ThumbnailURL,
		&course.Price,
		level,
		&course.CreatedAt,
		&course.UpdatedAt,
	}
}

func levelFromDB(raw *string) *models.CourseLevel {
	if raw == nil {
		return nil
	}
	level := models.CourseLevel(*raw)
	if !level.Valid() {
		return nil
	}
	return &level
}

func levelToDB(level *models.CourseLevel) *string {
	if level == nil {
		return nil
	}
	value := string(*level)
	return &value
}

func scanCourse(row interface{ Scan(dest ...any) error }) (*models.Course, error) {
	var course models.Course
	var level *string
	if err := row.Scan(courseTargets(&course, &level)...); err != nil {
		return nil, err
	}
	course.Level = levelFromDB(level)
	return &course, nil
}

func scanCourseWithInstructor(row interface{ Scan(dest ...any) error }) (*models.Course, error) {
	var course models.Course
	var level *string
	var instructor profileSummary
	targets := append(courseTargets(&course, &level), instructor.targets()...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	course.Level = levelFromDB(level)
	course.Instructor = instructor.profile()
	return &course, nil
}

// List returns courses newest first with their instructor attached.
func (r *CourseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	builder := psql.Select(courseSelectColumns...).
		From("courses c").
		Join("profiles p ON p.id = c.instructor_id").
		OrderBy("c.created_at DESC", "c.id DESC")

	if filter.Level != nil {
		builder = builder.Where(squirrel.Eq{"c.level": string(*filter.Level)})
	}
	if filter.InstructorID != nil {
		builder = builder.Where(squirrel.Eq{"c.instructor_id": *filter.InstructorID})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		course, err := scanCourseWithInstructor(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	query, args, err := psql.Select(courseSelectColumns...).
		From("courses c").
		Join("profiles p ON p.id = c.instructor_id").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanCourseWithInstructor(r.db.QueryRow(ctx, query, args...))
}

func (r *CourseRepository) Create(ctx context.Context, instructorID uuid.UUID, input CourseInput) (*models.Course, error) {
	query := `
		INSERT INTO courses (instructor_id, title, description, thumbnail_url, price, level)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + courseReturning
	return scanCourse(r.db.QueryRow(
		ctx,
		query,
		instructorID,
		input.Title,
		input.Description,
		input.ThumbnailURL,
		input.Price,
		levelToDB(input.Level),
	))
}

// Update only touches a course owned by instructorID; anything else is
// pgx.ErrNoRows.
func (r *CourseRepository) Update(ctx context.Context, id, instructorID uuid.UUID, input CourseInput) (*models.Course, error) {
	query := `
		UPDATE courses
		SET title = $3,
			description = $4,
			thumbnail_url = $5,
			price = $6,
			level = $7,
			updated_at = NOW()
		WHERE id = $1 AND instructor_id = $2
		RETURNING ` + courseReturning
	return scanCourse(r.db.QueryRow(
		ctx,
		query,
		id,
		instructorID,
		input.Title,
		input.Description,
		input.ThumbnailURL,
		input.Price,
		levelToDB(input.Level),
	))
}

func (r *CourseRepository) Delete(ctx context.Context, id, instructorID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1 AND instructor_id = $2`, id, instructorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
