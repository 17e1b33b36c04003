package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
)

// DegreeRepository handles degree requirement templates and progress snapshots.
type DegreeRepository struct {
	db *sqlx.DB
}

// NewDegreeRepository constructs the repository.
func NewDegreeRepository(db *sqlx.DB) *DegreeRepository {
	return &DegreeRepository{db: db}
}

// FindTemplateByCode returns a degree requirement template with its categories.
func (r *DegreeRepository) FindTemplateByCode(ctx context.Context, degreeCode string) (*models.DegreeRequirementTemplate, error) {
	const query = `SELECT id, degree_code, degree_name, required_credit_hours, minimum_gpa, created_at, updated_at
        FROM degree_requirement_templates WHERE degree_code = $1`
	var template models.DegreeRequirementTemplate
	if err := r.db.GetContext(ctx, &template, query, degreeCode); err != nil {
		return nil, err
	}

	const categoryQuery = `SELECT id, template_id, category, required_credit_hours
        FROM degree_requirement_categories WHERE template_id = $1 ORDER BY category ASC`
	if err := r.db.SelectContext(ctx, &template.Categories, categoryQuery, template.ID); err != nil {
		return nil, fmt.Errorf("list requirement categories: %w", err)
	}
	return &template, nil
}

// SaveProgress upserts the (student, degree) audit snapshot.
func (r *DegreeRepository) SaveProgress(ctx context.Context, progress *models.DegreeProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	if progress.CalculatedAt.IsZero() {
		progress.CalculatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO degree_progress (id, student_id, degree_code, required_credit_hours,
        completed_credit_hours, remaining_credit_hours, completion_percentage, cumulative_gpa,
        meets_gpa_requirement, expected_graduation_date, calculated_at)
        VALUES (:id, :student_id, :degree_code, :required_credit_hours,
        :completed_credit_hours, :remaining_credit_hours, :completion_percentage, :cumulative_gpa,
        :meets_gpa_requirement, :expected_graduation_date, :calculated_at)
        ON CONFLICT (student_id, degree_code)
        DO UPDATE SET required_credit_hours = EXCLUDED.required_credit_hours,
            completed_credit_hours = EXCLUDED.completed_credit_hours,
            remaining_credit_hours = EXCLUDED.remaining_credit_hours,
            completion_percentage = EXCLUDED.completion_percentage,
            cumulative_gpa = EXCLUDED.cumulative_gpa,
            meets_gpa_requirement = EXCLUDED.meets_gpa_requirement,
            expected_graduation_date = EXCLUDED.expected_graduation_date,
            calculated_at = EXCLUDED.calculated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("save degree progress: %w", err)
	}
	return nil
}

// FindProgress returns the stored snapshot for a (student, degree) pair.
func (r *DegreeRepository) FindProgress(ctx context.Context, studentID, degreeCode string) (*models.DegreeProgress, error) {
	const query = `SELECT id, student_id, degree_code, required_credit_hours, completed_credit_hours,
        remaining_credit_hours, completion_percentage, cumulative_gpa, meets_gpa_requirement,
        expected_graduation_date, calculated_at
        FROM degree_progress WHERE student_id = $1 AND degree_code = $2`
	var progress models.DegreeProgress
	if err := r.db.GetContext(ctx, &progress, query, studentID, degreeCode); err != nil {
		return nil, err
	}
	return &progress, nil
}
