package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type gradedHistoryReader interface {
	ListGradedByStudent(ctx context.Context, studentID string) ([]models.GradedEnrollment, error)
}

type studentGPAStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	UpdateCumulativeGPA(ctx context.Context, id string, gpa *float64) error
}

// GPAService computes cumulative and per-term GPA from the grade ledger.
// Every figure is recomputed from graded history on each call; the student
// row only carries the latest persisted cumulative value for display.
type GPAService struct {
	history  gradedHistoryReader
	students studentGPAStore
	cache    *CacheService
	logger   *zap.Logger
}

// NewGPAService constructs GPAService.
func NewGPAService(history gradedHistoryReader, students studentGPAStore, cache *CacheService, logger *zap.Logger) *GPAService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GPAService{history: history, students: students, cache: cache, logger: logger}
}

// CalculateCumulativeGPA recomputes a student's cumulative GPA over all
// countable enrollments and persists it on the student row. The result is nil
// when the student has no countable credit hours.
func (s *GPAService) CalculateCumulativeGPA(ctx context.Context, studentID string) (*float64, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	rows, err := s.history.ListGradedByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded history")
	}

	gpa := aggregateGPA(rows, func(models.GradedEnrollment) bool { return true })
	if err := s.students.UpdateCumulativeGPA(ctx, studentID, gpa); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist cumulative gpa")
	}
	return gpa, nil
}

// CalculateTermGPA computes GPA restricted to one academic term. The returned
// TermGPA carries a nil GPA and zero credit hours when the term has no
// countable enrollments.
func (s *GPAService) CalculateTermGPA(ctx context.Context, studentID, academicYear, semester string) (*models.TermGPA, error) {
	rows, err := s.history.ListGradedByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded history")
	}
	term := models.TermGPA{AcademicYear: academicYear, Semester: semester}
	gpa := aggregateGPA(rows, func(r models.GradedEnrollment) bool {
		return r.AcademicYear == academicYear && r.Semester == semester
	})
	if gpa != nil {
		term.GPA = gpa
		for _, r := range rows {
			if r.Countable() && r.AcademicYear == academicYear && r.Semester == semester {
				term.CreditHours += r.CreditHours
			}
		}
	}
	return &term, nil
}

// GetGPAHistory returns one TermGPA per term in which the student has at
// least one countable enrollment, ordered chronologically.
func (s *GPAService) GetGPAHistory(ctx context.Context, studentID string) ([]models.TermGPA, error) {
	cacheKey := StudentCacheKey(studentID, "gpa-history")
	var cached []models.TermGPA
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	rows, err := s.history.ListGradedByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded history")
	}

	type termKey struct {
		year     string
		semester string
	}
	type termTotals struct {
		quality float64
		credits float64
	}
	totals := make(map[termKey]*termTotals)
	var order []termKey
	for _, r := range rows {
		if !r.Countable() {
			continue
		}
		key := termKey{year: r.AcademicYear, semester: r.Semester}
		t, ok := totals[key]
		if !ok {
			t = &termTotals{}
			totals[key] = t
			order = append(order, key)
		}
		t.quality += *r.QualityPoints
		t.credits += r.CreditHours
	}

	history := make([]models.TermGPA, 0, len(order))
	for _, key := range order {
		t := totals[key]
		if t.credits <= 0 {
			continue
		}
		gpa := round2(t.quality / t.credits)
		history = append(history, models.TermGPA{
			AcademicYear: key.year,
			Semester:     key.semester,
			GPA:          &gpa,
			CreditHours:  t.credits,
		})
	}

	s.cache.Set(ctx, cacheKey, history)
	return history, nil
}

// DetermineStanding maps a cumulative GPA to the academic standing the
// registrar would assign. Students with no attempted countable credits are
// always NEW_STUDENT regardless of GPA.
func DetermineStanding(cumulativeGPA *float64, attemptedCreditHours float64) models.AcademicStanding {
	if attemptedCreditHours <= 0 || cumulativeGPA == nil {
		return models.StandingNewStudent
	}
	gpa := *cumulativeGPA
	switch {
	case gpa >= 3.8:
		return models.StandingDeansList
	case gpa >= 2.0:
		return models.StandingGood
	case gpa >= 1.5:
		return models.StandingWarning
	case gpa >= 1.0:
		return models.StandingProbation
	default:
		return models.StandingSuspension
	}
}

// aggregateGPA sums quality points over countable rows passing the filter and
// divides by the matching credit hours. It returns nil when no credit hours
// qualify, never zero: an empty record is not a 0.0 GPA.
func aggregateGPA(rows []models.GradedEnrollment, include func(models.GradedEnrollment) bool) *float64 {
	var quality, credits float64
	for _, r := range rows {
		if !r.Countable() || !include(r) {
			continue
		}
		quality += *r.QualityPoints
		credits += r.CreditHours
	}
	if credits <= 0 {
		return nil
	}
	gpa := round2(quality / credits)
	return &gpa
}
