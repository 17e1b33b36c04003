package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
)

const enrollmentColumns = `id, student_id, course_id, academic_year, semester, status, credit_hours,
        is_audit, counts_toward_degree, enrolled_at, completed_at, dropped_at, withdrawn_at,
        notes, created_at, updated_at`

// EnrollmentRepository handles persistence of course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns a course enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_enrollments WHERE id = $1`, enrollmentColumns)
	var enrollment models.CourseEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with student and course context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseEnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.academic_year, e.semester, e.status,
        e.credit_hours, e.is_audit, e.counts_toward_degree, e.enrolled_at, e.completed_at,
        e.dropped_at, e.withdrawn_at, e.notes, e.created_at, e.updated_at,
        s.full_name AS student_name, s.student_number AS student_number,
        c.code AS course_code, c.title AS course_title
        FROM course_enrollments e
        LEFT JOIN students s ON s.id = e.student_id
        LEFT JOIN courses c ON c.id = e.course_id
        WHERE e.id = $1`
	var detail models.CourseEnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsActive reports whether the student already holds an Enrolled record
// for the course. One active enrollment per (student, course) pair is allowed.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM course_enrollments
        WHERE student_id = $1 AND course_id = $2 AND status = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, models.CourseEnrollmentEnrolled); err != nil {
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return exists, nil
}

// Create inserts a new course enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO course_enrollments (id, student_id, course_id, academic_year, semester,
        status, credit_hours, is_audit, counts_toward_degree, enrolled_at, notes, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :academic_year, :semester,
        :status, :credit_hours, :is_audit, :counts_toward_degree, :enrolled_at, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateStatus moves an enrollment to a terminal state stamping the matching
// date column and appending the reason to the notes trail.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.CourseEnrollmentStatus, at time.Time, reason string) error {
	var stampColumn string
	switch status {
	case models.CourseEnrollmentCompleted:
		stampColumn = "completed_at"
	case models.CourseEnrollmentDropped:
		stampColumn = "dropped_at"
	case models.CourseEnrollmentWithdrawn:
		stampColumn = "withdrawn_at"
	default:
		return fmt.Errorf("unsupported enrollment status %q", status)
	}
	query := fmt.Sprintf(`UPDATE course_enrollments
        SET status = $2, %s = $3,
            notes = CASE WHEN $4 = '' THEN notes ELSE TRIM(BOTH E'\n' FROM notes || E'\n' || $4) END,
            updated_at = $3
        WHERE id = $1`, stampColumn)
	result, err := r.db.ExecContext(ctx, query, id, status, at, reason)
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return requireRow(result)
}

// List returns enrollments with student/course context matching the filter.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, int, error) {
	base := `FROM course_enrollments e
LEFT JOIN students s ON s.id = e.student_id
LEFT JOIN courses c ON c.id = e.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("e.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("e.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.course_id, e.academic_year, e.semester, e.status,
        e.credit_hours, e.is_audit, e.counts_toward_degree, e.enrolled_at, e.completed_at,
        e.dropped_at, e.withdrawn_at, e.notes, e.created_at, e.updated_at,
        s.full_name AS student_name, s.student_number AS student_number,
        c.code AS course_code, c.title AS course_title
        %s ORDER BY e.enrolled_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var enrollments []models.CourseEnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// ListGradedByStudent returns every enrollment of the student joined with its
// course and active final grade, ordered by term. This is the read model that
// feeds GPA aggregation, transcripts, prerequisite checks and degree audits.
func (r *EnrollmentRepository) ListGradedByStudent(ctx context.Context, studentID string) ([]models.GradedEnrollment, error) {
	const query = `SELECT e.id AS enrollment_id, e.course_id, c.code AS course_code, c.title AS course_title,
        c.category, e.academic_year, e.semester, e.status, e.credit_hours, e.is_audit,
        e.counts_toward_degree,
        g.letter_grade AS letter_grade, g.grade_points AS grade_points, g.quality_points AS quality_points
        FROM course_enrollments e
        LEFT JOIN courses c ON c.id = e.course_id
        LEFT JOIN grades g ON g.enrollment_id = e.id AND g.is_final = TRUE AND g.status = $2
        WHERE e.student_id = $1
        ORDER BY e.academic_year ASC, e.semester ASC, c.code ASC`
	var enrollments []models.GradedEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, models.GradeStatusActive); err != nil {
		return nil, fmt.Errorf("list graded enrollments: %w", err)
	}
	return enrollments, nil
}
