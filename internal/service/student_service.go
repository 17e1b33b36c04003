package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByStudentNumber(ctx context.Context, number string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Create(ctx context.Context, student *models.Student) error
	UpdateEnrollmentStatus(ctx context.Context, id string, status models.EnrollmentStatus, notes string, graduatedAt *time.Time) error
	UpdateAcademicStanding(ctx context.Context, id string, standing models.AcademicStanding, notes string, reviewedAt time.Time) error
	Deactivate(ctx context.Context, id string) error
}

// CreateStudentRequest describes an admission intake payload.
type CreateStudentRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	FullName      string `json:"full_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	ProgramCode   string `json:"program_code" validate:"required"`
	Department    string `json:"department" validate:"required"`
}

// UpdateEnrollmentStatusRequest moves a student through the program lifecycle.
type UpdateEnrollmentStatusRequest struct {
	NewStatus models.EnrollmentStatus `json:"new_status" validate:"required"`
	Notes     string                  `json:"notes"`
}

// UpdateAcademicStandingRequest assigns a new academic standing.
type UpdateAcademicStandingRequest struct {
	NewStanding models.AcademicStanding `json:"new_standing" validate:"required"`
	Notes       string                  `json:"notes"`
}

// StudentService manages student records and the program-level state machine.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// Create registers a newly admitted applicant. The program lifecycle always
// starts at Applied with a NewStudent standing.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if existing, err := s.repo.FindByStudentNumber(ctx, req.StudentNumber); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student number %s already registered", req.StudentNumber))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
	}

	student := &models.Student{
		StudentNumber:    req.StudentNumber,
		FullName:         req.FullName,
		Email:            req.Email,
		ProgramCode:      req.ProgramCode,
		Department:       req.Department,
		EnrollmentStatus: models.EnrollmentStatusApplied,
		AcademicStanding: models.StandingNewStudent,
		Active:           true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("student_number", student.StudentNumber))
	return student, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// UpdateEnrollmentStatus applies a program-level status transition. Transitions
// are checked against the allow-list: terminal statuses admit none, and moving
// to Graduated stamps the actual graduation date.
func (s *StudentService) UpdateEnrollmentStatus(ctx context.Context, studentID string, req UpdateEnrollmentStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.NewStatus.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown enrollment status %q", req.NewStatus))
	}
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.EnrollmentStatus.CanTransitionTo(req.NewStatus) {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot transition from %s to %s", student.EnrollmentStatus, req.NewStatus))
	}

	var graduatedAt *time.Time
	if req.NewStatus == models.EnrollmentStatusGraduated {
		now := time.Now().UTC()
		graduatedAt = &now
	}
	if err := s.repo.UpdateEnrollmentStatus(ctx, studentID, req.NewStatus, req.Notes, graduatedAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	s.logger.Info("enrollment status updated",
		zap.String("student_id", studentID),
		zap.String("from", string(student.EnrollmentStatus)),
		zap.String("to", string(req.NewStatus)))
	return nil
}

// UpdateAcademicStanding assigns a standing after checking the student's
// cumulative GPA against the standing's minimum threshold.
func (s *StudentService) UpdateAcademicStanding(ctx context.Context, studentID string, req UpdateAcademicStandingRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid standing payload")
	}
	if !req.NewStanding.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown academic standing %q", req.NewStanding))
	}
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	minimum := req.NewStanding.MinimumGPA()
	gpa := 0.0
	if student.CumulativeGPA != nil {
		gpa = *student.CumulativeGPA
	}
	if gpa < minimum {
		return appErrors.Clone(appErrors.ErrInvalidStanding,
			fmt.Sprintf("standing %s requires GPA >= %.2f, student has %.2f", req.NewStanding, minimum, gpa))
	}

	if err := s.repo.UpdateAcademicStanding(ctx, studentID, req.NewStanding, req.Notes, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic standing")
	}
	return nil
}

// Deactivate soft-deletes a student record.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	return nil
}
