package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type mockGradedHistory struct {
	rows map[string][]models.GradedEnrollment
	err  error
}

func (m *mockGradedHistory) ListGradedByStudent(ctx context.Context, studentID string) ([]models.GradedEnrollment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[studentID], nil
}

func gradedRow(code string, credits float64, letter string, points float64, year, semester string) models.GradedEnrollment {
	quality := round2(points * credits)
	return models.GradedEnrollment{
		EnrollmentID:       "e-" + code,
		CourseID:           "c-" + code,
		CourseCode:         code,
		CourseTitle:        code + " Title",
		Category:           models.CategoryMajor,
		AcademicYear:       year,
		Semester:           semester,
		Status:             models.CourseEnrollmentCompleted,
		CreditHours:        credits,
		CountsTowardDegree: true,
		LetterGrade:        &letter,
		GradePoints:        &points,
		QualityPoints:      &quality,
	}
}

func TestCalculateCumulativeGPA(t *testing.T) {
	students := &mockStudentRepo{}
	seedStudent(students, "s1", models.EnrollmentStatusEnrolled, nil)
	history := &mockGradedHistory{rows: map[string][]models.GradedEnrollment{
		"s1": {
			gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"),
			gradedRow("MA201", 4, "B", 3.0, "2025", "FALL"),
		},
	}}
	svc := NewGPAService(history, students, nil, zap.NewNop())

	gpa, err := svc.CalculateCumulativeGPA(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, gpa)
	// (3*4.0 + 4*3.0) / 7 = 24/7
	assert.Equal(t, 3.43, *gpa)
	require.NotNil(t, students.students["s1"].CumulativeGPA)
	assert.Equal(t, 3.43, *students.students["s1"].CumulativeGPA)
}

func TestCalculateCumulativeGPAExcludesNonCountable(t *testing.T) {
	withdrawn := gradedRow("HI101", 3, "F", 0.0, "2025", "FALL")
	withdrawn.Status = models.CourseEnrollmentWithdrawn
	audit := gradedRow("AR101", 3, "A", 4.0, "2025", "FALL")
	audit.IsAudit = true
	audit.CountsTowardDegree = false
	ungraded := gradedRow("PH101", 3, "", 0, "2025", "FALL")
	ungraded.LetterGrade = nil
	ungraded.GradePoints = nil
	ungraded.QualityPoints = nil
	ungraded.Status = models.CourseEnrollmentEnrolled

	students := &mockStudentRepo{}
	seedStudent(students, "s1", models.EnrollmentStatusEnrolled, nil)
	history := &mockGradedHistory{rows: map[string][]models.GradedEnrollment{
		"s1": {gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"), withdrawn, audit, ungraded},
	}}
	svc := NewGPAService(history, students, nil, zap.NewNop())

	gpa, err := svc.CalculateCumulativeGPA(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, gpa)
	assert.Equal(t, 4.0, *gpa)
}

func TestCalculateCumulativeGPANoGradedWork(t *testing.T) {
	students := &mockStudentRepo{}
	seedStudent(students, "s1", models.EnrollmentStatusEnrolled, nil)
	svc := NewGPAService(&mockGradedHistory{}, students, nil, zap.NewNop())

	gpa, err := svc.CalculateCumulativeGPA(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, gpa)
	assert.Nil(t, students.students["s1"].CumulativeGPA)
}

func TestCalculateCumulativeGPAUnknownStudent(t *testing.T) {
	svc := NewGPAService(&mockGradedHistory{}, &mockStudentRepo{}, nil, zap.NewNop())

	_, err := svc.CalculateCumulativeGPA(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCalculateTermGPA(t *testing.T) {
	students := &mockStudentRepo{}
	seedStudent(students, "s1", models.EnrollmentStatusEnrolled, nil)
	history := &mockGradedHistory{rows: map[string][]models.GradedEnrollment{
		"s1": {
			gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"),
			gradedRow("MA201", 4, "B", 3.0, "2025", "FALL"),
			gradedRow("CS102", 3, "C", 2.0, "2026", "SPRING"),
		},
	}}
	svc := NewGPAService(history, students, nil, zap.NewNop())

	term, err := svc.CalculateTermGPA(context.Background(), "s1", "2026", "SPRING")
	require.NoError(t, err)
	require.NotNil(t, term.GPA)
	assert.Equal(t, 2.0, *term.GPA)
	assert.Equal(t, 3.0, term.CreditHours)

	// a term with no countable work has no GPA at all, not a 0.0
	empty, err := svc.CalculateTermGPA(context.Background(), "s1", "2024", "FALL")
	require.NoError(t, err)
	assert.Nil(t, empty.GPA)
	assert.Zero(t, empty.CreditHours)
}

func TestGetGPAHistory(t *testing.T) {
	students := &mockStudentRepo{}
	seedStudent(students, "s1", models.EnrollmentStatusEnrolled, nil)
	history := &mockGradedHistory{rows: map[string][]models.GradedEnrollment{
		"s1": {
			gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"),
			gradedRow("MA201", 4, "B", 3.0, "2025", "FALL"),
			gradedRow("CS102", 3, "C", 2.0, "2026", "SPRING"),
		},
	}}
	svc := NewGPAService(history, students, nil, zap.NewNop())

	terms, err := svc.GetGPAHistory(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "2025", terms[0].AcademicYear)
	require.NotNil(t, terms[0].GPA)
	assert.Equal(t, 3.43, *terms[0].GPA)
	assert.Equal(t, 7.0, terms[0].CreditHours)
	assert.Equal(t, "2026", terms[1].AcademicYear)
	require.NotNil(t, terms[1].GPA)
	assert.Equal(t, 2.0, *terms[1].GPA)
}

func TestDetermineStanding(t *testing.T) {
	gpa := func(v float64) *float64 { return &v }

	assert.Equal(t, models.StandingNewStudent, DetermineStanding(nil, 0))
	assert.Equal(t, models.StandingNewStudent, DetermineStanding(gpa(4.0), 0))
	assert.Equal(t, models.StandingDeansList, DetermineStanding(gpa(3.8), 12))
	assert.Equal(t, models.StandingGood, DetermineStanding(gpa(2.0), 12))
	assert.Equal(t, models.StandingWarning, DetermineStanding(gpa(1.7), 12))
	assert.Equal(t, models.StandingProbation, DetermineStanding(gpa(1.2), 12))
	assert.Equal(t, models.StandingSuspension, DetermineStanding(gpa(0.9), 12))
}
