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

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseEnrollmentDetail, error)
	ExistsActive(ctx context.Context, studentID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.CourseEnrollment) error
	UpdateStatus(ctx context.Context, id string, status models.CourseEnrollmentStatus, at time.Time, reason string) error
	List(ctx context.Context, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, int, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	ListPrerequisites(ctx context.Context, courseID string) ([]models.Prerequisite, error)
}

// EnrollCourseRequest registers a student into a catalog course for a term.
type EnrollCourseRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	CourseCode   string `json:"course_code" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
	IsAudit      bool   `json:"is_audit"`
}

// EnrollmentActionRequest carries the reason for a drop or withdrawal.
type EnrollmentActionRequest struct {
	Reason string `json:"reason"`
}

// EnrollmentService manages the course-enrollment state machine.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	courses   courseReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, courses courseReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, courses: courses, metrics: metrics, validator: validate, logger: logger}
}

// Enroll registers a student in a course. Credit hours are snapshotted from
// the catalog entry at enrollment time; a second Enrolled record for the same
// (student, course) pair is rejected.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollCourseRequest) (*models.CourseEnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "student record is deactivated")
	}
	course, err := s.courses.FindByCode(ctx, req.CourseCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", req.CourseCode))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exists, err := s.repo.ExistsActive(ctx, student.ID, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("student already has an active enrollment in %s", course.Code))
	}

	enrollment := &models.CourseEnrollment{
		StudentID:          student.ID,
		CourseID:           course.ID,
		AcademicYear:       req.AcademicYear,
		Semester:           req.Semester,
		Status:             models.CourseEnrollmentEnrolled,
		CreditHours:        course.CreditHours,
		IsAudit:            req.IsAudit,
		CountsTowardDegree: !req.IsAudit,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.metrics.IncEnrollmentCreated()
	s.logger.Info("student enrolled in course",
		zap.String("student_id", student.ID),
		zap.String("course_code", course.Code),
		zap.Float64("credit_hours", course.CreditHours))

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// Drop moves an active enrollment to Dropped.
func (s *EnrollmentService) Drop(ctx context.Context, enrollmentID string, req EnrollmentActionRequest) error {
	return s.close(ctx, enrollmentID, models.CourseEnrollmentDropped, req.Reason)
}

// Withdraw moves an active enrollment to Withdrawn. Withdrawn enrollments keep
// any recorded grades but never contribute to GPA.
func (s *EnrollmentService) Withdraw(ctx context.Context, enrollmentID string, req EnrollmentActionRequest) error {
	return s.close(ctx, enrollmentID, models.CourseEnrollmentWithdrawn, req.Reason)
}

func (s *EnrollmentService) close(ctx context.Context, enrollmentID string, status models.CourseEnrollmentStatus, reason string) error {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.CourseEnrollmentEnrolled {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("enrollment is %s, only Enrolled records can move to %s", enrollment.Status, status))
	}
	if err := s.repo.UpdateStatus(ctx, enrollmentID, status, time.Now().UTC(), reason); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	s.logger.Info("enrollment closed",
		zap.String("enrollment_id", enrollmentID),
		zap.String("status", string(status)))
	return nil
}

// Get returns one enrollment with context.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.CourseEnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
