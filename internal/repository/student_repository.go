package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
)

const studentColumns = `id, student_number, full_name, email, program_code, department,
        enrollment_status, academic_standing, cumulative_gpa, status_notes,
        expected_graduation_date, actual_graduation_date, last_academic_review,
        active, created_at, updated_at`

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByStudentNumber returns a student by institutional student number.
func (r *StudentRepository) FindByStudentNumber(ctx context.Context, number string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE student_number = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, number); err != nil {
		return nil, err
	}
	return &student, nil
}

// List returns students filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR student_number ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ProgramCode != "" {
		conditions = append(conditions, fmt.Sprintf("program_code = $%d", len(args)+1))
		args = append(args, filter.ProgramCode)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("enrollment_status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":      "full_name",
		"student_number": "student_number",
		"created_at":     "created_at",
	}
	sortBy := allowedSorts[filter.SortBy]
	if sortBy == "" {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`, studentColumns, base+clause, sortBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, student_number, full_name, email, program_code, department,
        enrollment_status, academic_standing, cumulative_gpa, status_notes, active, created_at, updated_at)
        VALUES (:id, :student_number, :full_name, :email, :program_code, :department,
        :enrollment_status, :academic_standing, :cumulative_gpa, :status_notes, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// UpdateEnrollmentStatus persists a status transition. Notes are appended to
// the audit trail, never overwritten, and an actual graduation date is stamped
// when provided.
func (r *StudentRepository) UpdateEnrollmentStatus(ctx context.Context, id string, status models.EnrollmentStatus, notes string, graduatedAt *time.Time) error {
	const query = `UPDATE students
        SET enrollment_status = $2,
            status_notes = CASE WHEN $3 = '' THEN status_notes ELSE TRIM(BOTH E'\n' FROM status_notes || E'\n' || $3) END,
            actual_graduation_date = COALESCE($4, actual_graduation_date),
            updated_at = $5
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, notes, graduatedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return requireRow(result)
}

// UpdateAcademicStanding persists a standing change plus the review timestamp.
func (r *StudentRepository) UpdateAcademicStanding(ctx context.Context, id string, standing models.AcademicStanding, notes string, reviewedAt time.Time) error {
	const query = `UPDATE students
        SET academic_standing = $2,
            status_notes = CASE WHEN $3 = '' THEN status_notes ELSE TRIM(BOTH E'\n' FROM status_notes || E'\n' || $3) END,
            last_academic_review = $4,
            updated_at = $4
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, standing, notes, reviewedAt)
	if err != nil {
		return fmt.Errorf("update academic standing: %w", err)
	}
	return requireRow(result)
}

// UpdateCumulativeGPA stores the recomputed cumulative GPA (nil clears it).
func (r *StudentRepository) UpdateCumulativeGPA(ctx context.Context, id string, gpa *float64) error {
	const query = `UPDATE students SET cumulative_gpa = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, gpa, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update cumulative gpa: %w", err)
	}
	return requireRow(result)
}

// Deactivate soft-deletes a student. Records are never physically removed.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE students SET active = FALSE, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
