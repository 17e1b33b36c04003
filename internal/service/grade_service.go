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

type gradeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	FindActiveFinal(ctx context.Context, enrollmentID string) (*models.Grade, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error)
	Append(ctx context.Context, grade *models.Grade, supersedeID string) error
}

type enrollmentGradeWriter interface {
	FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error)
	UpdateStatus(ctx context.Context, id string, status models.CourseEnrollmentStatus, at time.Time, reason string) error
}

// RecordGradeRequest records a grade against a course enrollment. Exactly one
// of letter_grade / numeric_grade must be supplied; the other is derived.
type RecordGradeRequest struct {
	EnrollmentID string           `json:"enrollment_id" validate:"required"`
	GradeType    models.GradeType `json:"grade_type" validate:"required"`
	LetterGrade  string           `json:"letter_grade"`
	NumericGrade *float64         `json:"numeric_grade"`
	GradedBy     string           `json:"graded_by"`
}

// UpdateGradeRequest corrects a previously recorded grade.
type UpdateGradeRequest struct {
	LetterGrade  string   `json:"letter_grade"`
	NumericGrade *float64 `json:"numeric_grade"`
	Comment      string   `json:"comment" validate:"required"`
	GradedBy     string   `json:"graded_by" validate:"required"`
}

// GradeService maintains the append-only grade ledger.
type GradeService struct {
	grades      gradeRepository
	enrollments enrollmentGradeWriter
	cache       *CacheService
	metrics     *MetricsService
	recalc      *RecalcWorker
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeRepository, enrollments enrollmentGradeWriter, cache *CacheService, metrics *MetricsService, recalc *RecalcWorker, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, enrollments: enrollments, cache: cache, metrics: metrics, recalc: recalc, validator: validate, logger: logger}
}

// Record writes a new grade row. A Final grade supersedes any prior Active
// Final grade for the enrollment and marks the enrollment Completed.
func (s *GradeService) Record(ctx context.Context, req RecordGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if !req.GradeType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown grade type %q", req.GradeType))
	}
	letter, numeric, points, err := deriveGradeValues(req.LetterGrade, req.NumericGrade)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	grade := &models.Grade{
		EnrollmentID:  enrollment.ID,
		GradeType:     req.GradeType,
		LetterGrade:   letter,
		NumericGrade:  numeric,
		GradePoints:   points,
		QualityPoints: round2(points * enrollment.CreditHours),
		IsFinal:       req.GradeType == models.GradeTypeFinal,
	}
	if req.GradedBy != "" {
		grade.GradedBy = &req.GradedBy
	}

	supersedeID := ""
	if grade.IsFinal {
		prior, err := s.grades.FindActiveFinal(ctx, enrollment.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect final grade")
		}
		if prior != nil {
			supersedeID = prior.ID
		}
	}

	if err := s.grades.Append(ctx, grade, supersedeID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}

	if grade.IsFinal && enrollment.Status == models.CourseEnrollmentEnrolled {
		if err := s.enrollments.UpdateStatus(ctx, enrollment.ID, models.CourseEnrollmentCompleted, time.Now().UTC(), ""); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete enrollment")
		}
	}

	s.metrics.IncGradeRecorded()
	s.invalidateStudent(ctx, enrollment.StudentID)
	s.scheduleRecalc(enrollment.StudentID)
	s.logger.Info("grade recorded",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("grade_type", string(grade.GradeType)),
		zap.String("letter", grade.LetterGrade),
		zap.Bool("final", grade.IsFinal))
	return grade, nil
}

// Update corrects an existing grade by appending a replacement row and
// marking the original Changed. Prior values stay in the ledger untouched.
func (s *GradeService) Update(ctx context.Context, gradeID string, req UpdateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	prior, err := s.grades.FindByID(ctx, gradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if prior.Status != models.GradeStatusActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "grade has already been superseded")
	}
	letter, numeric, points, err := deriveGradeValues(req.LetterGrade, req.NumericGrade)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.enrollments.FindByID(ctx, prior.EnrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	grade := &models.Grade{
		EnrollmentID:  prior.EnrollmentID,
		GradeType:     prior.GradeType,
		LetterGrade:   letter,
		NumericGrade:  numeric,
		GradePoints:   points,
		QualityPoints: round2(points * enrollment.CreditHours),
		IsFinal:       prior.IsFinal,
		Comments:      &req.Comment,
	}
	grade.GradedBy = &req.GradedBy

	if err := s.grades.Append(ctx, grade, prior.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}

	s.metrics.IncGradeRecorded()
	s.invalidateStudent(ctx, enrollment.StudentID)
	s.scheduleRecalc(enrollment.StudentID)
	s.logger.Info("grade updated",
		zap.String("grade_id", gradeID),
		zap.String("replacement_id", grade.ID))
	return grade, nil
}

// History returns the full grade history of an enrollment, newest first.
func (s *GradeService) History(ctx context.Context, enrollmentID string) ([]models.Grade, error) {
	if _, err := s.enrollments.FindByID(ctx, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	grades, err := s.grades.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

func (s *GradeService) scheduleRecalc(studentID string) {
	if s.recalc == nil {
		return
	}
	if err := s.recalc.Enqueue(studentID); err != nil {
		s.logger.Warn("failed to schedule gpa recalculation", zap.String("student_id", studentID), zap.Error(err))
	}
}

func (s *GradeService) invalidateStudent(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStudent(ctx, studentID); err != nil {
		s.logger.Warn("failed to invalidate student cache", zap.String("student_id", studentID), zap.Error(err))
	}
}

// deriveGradeValues enforces that exactly one representation was supplied and
// derives the other plus the 4.0-scale points.
func deriveGradeValues(letter string, numericIn *float64) (string, float64, float64, error) {
	switch {
	case letter != "" && numericIn != nil:
		return "", 0, 0, appErrors.Clone(appErrors.ErrValidation, "supply either letter_grade or numeric_grade, not both")
	case letter == "" && numericIn == nil:
		return "", 0, 0, appErrors.Clone(appErrors.ErrValidation, "either letter_grade or numeric_grade is required")
	case letter != "":
		if !ValidLetterGrade(letter) {
			return "", 0, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown letter grade %q", letter))
		}
		numeric, _ := NumericFromLetter(letter)
		points, _ := PointsFromLetter(letter)
		return letter, numeric, points, nil
	default:
		numeric := *numericIn
		if numeric < 0 || numeric > 100 {
			return "", 0, 0, appErrors.Clone(appErrors.ErrValidation, "numeric grade must be between 0 and 100")
		}
		derived := LetterFromNumeric(numeric)
		points, _ := PointsFromLetter(derived)
		return derived, numeric, points, nil
	}
}
