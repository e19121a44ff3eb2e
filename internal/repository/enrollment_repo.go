package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

type EnrollmentRepository struct {
	db DBTX
}

func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create returns a unique violation when the student is already enrolled.
func (r *EnrollmentRepository) Create(ctx context.Context, studentID, courseID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.QueryRow(ctx, `
		INSERT INTO enrollments (student_id, course_id)
		VALUES ($1, $2)
		RETURNING id, student_id, course_id, enrolled_at
	`, studentID, courseID).Scan(
		&enrollment.ID,
		&enrollment.StudentID,
		&enrollment.CourseID,
		&enrollment.EnrolledAt,
	)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, courseID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2
		)
	`, studentID, courseID).Scan(&exists)
	return exists, err
}

func (r *EnrollmentRepository) ListCourseIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT course_id FROM enrollments WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByStudent returns enrollments newest first with course and instructor.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error) {
	columns := append([]string{"e.id", "e.student_id", "e.course_id", "e.enrolled_at"}, courseSelectColumns...)
	query, args, err := psql.Select(columns...).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Join("profiles p ON p.id = c.instructor_id").
		Where("e.student_id = ?", studentID).
		OrderBy("e.enrolled_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := make([]models.Enrollment, 0)
	for rows.Next() {
		var enrollment models.Enrollment
		var course models.Course
		var level *string
		var instructor profileSummary

		targets := []any{&enrollment.ID, &enrollment.StudentID, &enrollment.CourseID, &enrollment.EnrolledAt}
		targets = append(targets, courseTargets(&course, &level)...)
		targets = append(targets, instructor.targets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		course.Level = levelFromDB(level)
		course.Instructor = instructor.profile()
		enrollment.Course = &course
		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return enrollments, nil
}
