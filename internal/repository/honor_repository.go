package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
)

// HonorRepository handles the append-only academic honors ledger.
type HonorRepository struct {
	db *sqlx.DB
}

// NewHonorRepository constructs the repository.
func NewHonorRepository(db *sqlx.DB) *HonorRepository {
	return &HonorRepository{db: db}
}

// Create inserts a new honor record.
func (r *HonorRepository) Create(ctx context.Context, honor *models.AcademicHonor) error {
	if honor.ID == "" {
		honor.ID = uuid.NewString()
	}
	if honor.CreatedAt.IsZero() {
		honor.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO academic_honors (id, student_id, type, title, qualifying_gpa,
        academic_year, semester, active, created_at)
        VALUES (:id, :student_id, :type, :title, :qualifying_gpa,
        :academic_year, :semester, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, honor); err != nil {
		return fmt.Errorf("create honor: %w", err)
	}
	return nil
}

// ListByStudent returns a student's honors, newest first.
func (r *HonorRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AcademicHonor, error) {
	const query = `SELECT id, student_id, type, title, qualifying_gpa, academic_year, semester, active, created_at
        FROM academic_honors WHERE student_id = $1 ORDER BY created_at DESC`
	var honors []models.AcademicHonor
	if err := r.db.SelectContext(ctx, &honors, query, studentID); err != nil {
		return nil, fmt.Errorf("list honors: %w", err)
	}
	return honors, nil
}

// Deactivate hides an honor without deleting it.
func (r *HonorRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE academic_honors SET active = FALSE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate honor: %w", err)
	}
	return requireRow(result)
}
