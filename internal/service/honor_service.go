package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type honorRepository interface {
	Create(ctx context.Context, honor *models.AcademicHonor) error
	ListByStudent(ctx context.Context, studentID string) ([]models.AcademicHonor, error)
	Deactivate(ctx context.Context, id string) error
}

// honorGPAFloor maps honor types that demand a minimum cumulative GPA.
var honorGPAFloor = map[models.HonorType]float64{
	models.HonorDeansList:      3.5,
	models.HonorPresidentsList: 3.9,
}

// AwardHonorRequest grants an academic honor to a student.
type AwardHonorRequest struct {
	StudentID    string           `json:"student_id" validate:"required"`
	Type         models.HonorType `json:"type" validate:"required"`
	Title        string           `json:"title" validate:"required"`
	AcademicYear string           `json:"academic_year" validate:"required"`
	Semester     string           `json:"semester" validate:"required"`
}

// HonorService manages student honors and awards. Honors are append-only:
// a revoked honor is deactivated, never deleted.
type HonorService struct {
	honors    honorRepository
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHonorService constructs HonorService.
func NewHonorService(honors honorRepository, students studentReader, validate *validator.Validate, logger *zap.Logger) *HonorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HonorService{honors: honors, students: students, validator: validate, logger: logger}
}

// Award grants an honor. GPA-gated honor types are rejected when the
// student's cumulative GPA is missing or below the type's floor; the GPA at
// award time is recorded on the honor as its qualifying value.
func (s *HonorService) Award(ctx context.Context, req AwardHonorRequest) (*models.AcademicHonor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid honor payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown honor type %q", req.Type))
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if floor, gated := honorGPAFloor[req.Type]; gated {
		if student.CumulativeGPA == nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidStanding, fmt.Sprintf("honor %s requires GPA >= %.2f, student has no GPA on record", req.Type, floor))
		}
		if *student.CumulativeGPA < floor {
			return nil, appErrors.Clone(appErrors.ErrInvalidStanding, fmt.Sprintf("honor %s requires GPA >= %.2f, student has %.2f", req.Type, floor, *student.CumulativeGPA))
		}
	}

	honor := &models.AcademicHonor{
		StudentID:     student.ID,
		Type:          req.Type,
		Title:         req.Title,
		QualifyingGPA: student.CumulativeGPA,
		AcademicYear:  req.AcademicYear,
		Semester:      req.Semester,
		Active:        true,
	}
	if err := s.honors.Create(ctx, honor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create honor")
	}
	return honor, nil
}

// List returns every honor on a student's record, active and revoked alike.
func (s *HonorService) List(ctx context.Context, studentID string) ([]models.AcademicHonor, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	honors, err := s.honors.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list honors")
	}
	return honors, nil
}

// Revoke deactivates an honor.
func (s *HonorService) Revoke(ctx context.Context, honorID string) error {
	if err := s.honors.Deactivate(ctx, honorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "honor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke honor")
	}
	return nil
}
