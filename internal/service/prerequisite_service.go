package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// PrerequisiteService checks whether a student's completed coursework
// satisfies a course's prerequisites. All prerequisites must be met; there is
// no alternative-path ("or") semantics in the catalog.
type PrerequisiteService struct {
	courses courseReader
	history gradedHistoryReader
	logger  *zap.Logger
}

// NewPrerequisiteService constructs PrerequisiteService.
func NewPrerequisiteService(courses courseReader, history gradedHistoryReader, logger *zap.Logger) *PrerequisiteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrerequisiteService{courses: courses, history: history, logger: logger}
}

// Validate reports whether the student may enroll in the course identified by
// courseID. A prerequisite counts as satisfied only when the student has a
// completed, countable enrollment for the required course code. Prerequisites
// whose code matches nothing in the catalog are reported as unsatisfiable
// rather than silently skipped.
func (s *PrerequisiteService) Validate(ctx context.Context, studentID, courseID string) (*models.PrerequisiteValidationResult, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	prereqs, err := s.courses.ListPrerequisites(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}

	result := &models.PrerequisiteValidationResult{
		CourseID:   course.ID,
		CourseCode: course.Code,
		IsValid:    true,
	}
	if len(prereqs) == 0 {
		result.Messages = append(result.Messages, fmt.Sprintf("%s has no prerequisites", course.Code))
		return result, nil
	}

	completed, err := s.completedCourseCodes(ctx, studentID)
	if err != nil {
		return nil, err
	}

	for _, prereq := range prereqs {
		code := strings.ToUpper(strings.TrimSpace(prereq.RequiredCourseCode))
		if completed[code] {
			result.Messages = append(result.Messages, fmt.Sprintf("prerequisite %s satisfied", code))
			continue
		}
		result.IsValid = false
		result.MissingPrerequisites = append(result.MissingPrerequisites, code)
		if _, err := s.courses.FindByCode(ctx, code); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				result.Messages = append(result.Messages, fmt.Sprintf("prerequisite %s does not exist in the catalog", code))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve prerequisite course")
		}
		result.Messages = append(result.Messages, fmt.Sprintf("prerequisite %s has not been completed", code))
	}
	return result, nil
}

// completedCourseCodes collects the catalog codes of every course the student
// has completed with a countable final grade.
func (s *PrerequisiteService) completedCourseCodes(ctx context.Context, studentID string) (map[string]bool, error) {
	rows, err := s.history.ListGradedByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded history")
	}
	completed := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.Status == models.CourseEnrollmentCompleted && r.Countable() {
			completed[strings.ToUpper(r.CourseCode)] = true
		}
	}
	return completed, nil
}
