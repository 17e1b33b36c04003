package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
)

const gradeColumns = `id, enrollment_id, grade_type, letter_grade, numeric_grade, grade_points,
        quality_points, status, is_final, graded_by, comments, supersedes_id, created_at`

// GradeRepository handles the append-only grade ledger.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// FindByID returns a grade row by its ID.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades WHERE id = $1`, gradeColumns)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// FindActiveFinal returns the current Active Final grade of an enrollment, if any.
func (r *GradeRepository) FindActiveFinal(ctx context.Context, enrollmentID string) (*models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades
        WHERE enrollment_id = $1 AND is_final = TRUE AND status = $2`, gradeColumns)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, enrollmentID, models.GradeStatusActive); err != nil {
		return nil, err
	}
	return &grade, nil
}

// ListByEnrollment returns the full grade history of an enrollment, newest first.
func (r *GradeRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades WHERE enrollment_id = $1 ORDER BY created_at DESC`, gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// Append inserts a new Active grade row. When supersedeID is set the prior row
// is marked Changed inside the same transaction, so the history never loses a
// value and at most one Active row exists per (enrollment, final) slot.
func (r *GradeRepository) Append(ctx context.Context, grade *models.Grade, supersedeID string) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	grade.Status = models.GradeStatusActive
	if supersedeID != "" {
		grade.SupersedesID = &supersedeID
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if supersedeID != "" {
		const supersede = `UPDATE grades SET status = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, supersede, supersedeID, models.GradeStatusChanged); err != nil {
			return fmt.Errorf("supersede grade: %w", err)
		}
	}

	const insert = `INSERT INTO grades (id, enrollment_id, grade_type, letter_grade, numeric_grade,
        grade_points, quality_points, status, is_final, graded_by, comments, supersedes_id, created_at)
        VALUES (:id, :enrollment_id, :grade_type, :letter_grade, :numeric_grade,
        :grade_points, :quality_points, :status, :is_final, :graded_by, :comments, :supersedes_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, grade); err != nil {
		return fmt.Errorf("insert grade: %w", err)
	}

	return tx.Commit()
}
