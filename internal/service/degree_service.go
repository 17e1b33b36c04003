package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/pkg/config"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type degreeRepository interface {
	FindTemplateByCode(ctx context.Context, degreeCode string) (*models.DegreeRequirementTemplate, error)
	SaveProgress(ctx context.Context, progress *models.DegreeProgress) error
	FindProgress(ctx context.Context, studentID, degreeCode string) (*models.DegreeProgress, error)
}

// DegreeService audits student progress against degree requirement templates.
// An audit is always recomputed from the student's current graded history and
// then persisted as a snapshot.
type DegreeService struct {
	degrees  degreeRepository
	students studentReader
	history  gradedHistoryReader
	metrics  *MetricsService
	academic config.AcademicConfig
	logger   *zap.Logger
}

// NewDegreeService constructs DegreeService.
func NewDegreeService(degrees degreeRepository, students studentReader, history gradedHistoryReader, metrics *MetricsService, academic config.AcademicConfig, logger *zap.Logger) *DegreeService {
	if academic.CreditHoursPerTerm <= 0 {
		academic.CreditHoursPerTerm = 15
	}
	if academic.TermMonths <= 0 {
		academic.TermMonths = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DegreeService{degrees: degrees, students: students, history: history, metrics: metrics, academic: academic, logger: logger}
}

// Audit recomputes the student's degree progress against their program's
// requirement template, persists the snapshot and returns it. Remaining
// credit hours never go below zero: credits beyond the requirement do not
// produce a negative balance or a completion percentage above 100.
func (s *DegreeService) Audit(ctx context.Context, studentID string) (*models.DegreeProgress, error) {
	student, template, rows, err := s.loadAuditInputs(ctx, studentID)
	if err != nil {
		return nil, err
	}

	completed := completedCreditHours(rows, "")
	remaining := math.Max(template.RequiredCreditHours-completed, 0)
	percentage := 100.0
	if template.RequiredCreditHours > 0 {
		percentage = round2(math.Min(completed/template.RequiredCreditHours, 1) * 100)
	}
	gpa := aggregateGPA(rows, func(models.GradedEnrollment) bool { return true })

	progress := &models.DegreeProgress{
		StudentID:            student.ID,
		DegreeCode:           template.DegreeCode,
		RequiredCreditHours:  template.RequiredCreditHours,
		CompletedCreditHours: completed,
		RemainingCreditHours: remaining,
		CompletionPercentage: percentage,
		CumulativeGPA:        gpa,
		MeetsGPARequirement:  meetsGPARequirement(gpa, template.MinimumGPA),
		CalculatedAt:         time.Now().UTC(),
	}
	if remaining > 0 {
		eta := s.expectedGraduation(progress.CalculatedAt, remaining)
		progress.ExpectedGraduationDate = &eta
	}
	for _, category := range template.Categories {
		done := completedCreditHours(rows, category.Category)
		progress.Categories = append(progress.Categories, models.CategoryProgress{
			Category:             category.Category,
			RequiredCreditHours:  category.RequiredCreditHours,
			CompletedCreditHours: done,
			RemainingCreditHours: math.Max(category.RequiredCreditHours-done, 0),
		})
	}

	if err := s.degrees.SaveProgress(ctx, progress); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist degree progress")
	}
	if s.metrics != nil {
		s.metrics.IncDegreeAudit()
	}
	return progress, nil
}

// GetProgress returns the most recently persisted audit snapshot, running a
// fresh audit when none exists yet.
func (s *DegreeService) GetProgress(ctx context.Context, studentID string) (*models.DegreeProgress, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	progress, err := s.degrees.FindProgress(ctx, studentID, student.ProgramCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.Audit(ctx, studentID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load degree progress")
	}
	return progress, nil
}

// CheckGraduationEligibility audits the student and reports whether they may
// graduate: zero remaining credit hours and the template's GPA floor met.
func (s *DegreeService) CheckGraduationEligibility(ctx context.Context, studentID string) (*models.GraduationEligibility, error) {
	progress, err := s.Audit(ctx, studentID)
	if err != nil {
		return nil, err
	}

	eligibility := &models.GraduationEligibility{
		StudentID:            progress.StudentID,
		DegreeCode:           progress.DegreeCode,
		RemainingCreditHours: progress.RemainingCreditHours,
		MeetsGPARequirement:  progress.MeetsGPARequirement,
		IsEligible:           progress.RemainingCreditHours == 0 && progress.MeetsGPARequirement,
		CheckedAt:            time.Now().UTC(),
	}
	if progress.RemainingCreditHours > 0 {
		eligibility.UnmetRequirements = append(eligibility.UnmetRequirements,
			fmt.Sprintf("%.1f credit hours remaining of %.1f required", progress.RemainingCreditHours, progress.RequiredCreditHours))
	}
	if !progress.MeetsGPARequirement {
		if progress.CumulativeGPA == nil {
			eligibility.UnmetRequirements = append(eligibility.UnmetRequirements, "no cumulative GPA on record")
		} else {
			eligibility.UnmetRequirements = append(eligibility.UnmetRequirements,
				fmt.Sprintf("cumulative GPA %.2f is below the required minimum", *progress.CumulativeGPA))
		}
	}
	for _, category := range progress.Categories {
		if category.RemainingCreditHours > 0 {
			eligibility.UnmetRequirements = append(eligibility.UnmetRequirements,
				fmt.Sprintf("%s: %.1f credit hours remaining", category.Category, category.RemainingCreditHours))
		}
	}
	return eligibility, nil
}

func (s *DegreeService) loadAuditInputs(ctx context.Context, studentID string) (*models.Student, *models.DegreeRequirementTemplate, []models.GradedEnrollment, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	template, err := s.degrees.FindTemplateByCode(ctx, student.ProgramCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no degree requirement template for program %s", student.ProgramCode))
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load degree template")
	}
	rows, err := s.history.ListGradedByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded history")
	}
	return student, template, rows, nil
}

// expectedGraduation projects a completion date assuming a standard course
// load each term.
func (s *DegreeService) expectedGraduation(from time.Time, remainingCreditHours float64) time.Time {
	terms := int(math.Ceil(remainingCreditHours / s.academic.CreditHoursPerTerm))
	if terms < 1 {
		terms = 1
	}
	return from.AddDate(0, terms*s.academic.TermMonths, 0)
}

// completedCreditHours sums credit hours over countable completed enrollments,
// optionally restricted to one requirement category.
func completedCreditHours(rows []models.GradedEnrollment, category models.CourseCategory) float64 {
	var total float64
	for _, r := range rows {
		if r.Status != models.CourseEnrollmentCompleted || !r.Countable() {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		total += r.CreditHours
	}
	return total
}

func meetsGPARequirement(gpa *float64, minimum float64) bool {
	if minimum <= 0 {
		return true
	}
	return gpa != nil && *gpa >= minimum
}
