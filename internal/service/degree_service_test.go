package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/pkg/config"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type mockDegreeRepo struct {
	templates map[string]models.DegreeRequirementTemplate
	saved     []models.DegreeProgress
	progress  map[string]models.DegreeProgress
}

func (m *mockDegreeRepo) FindTemplateByCode(ctx context.Context, degreeCode string) (*models.DegreeRequirementTemplate, error) {
	if tpl, ok := m.templates[degreeCode]; ok {
		return &tpl, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDegreeRepo) SaveProgress(ctx context.Context, progress *models.DegreeProgress) error {
	m.saved = append(m.saved, *progress)
	if m.progress == nil {
		m.progress = make(map[string]models.DegreeProgress)
	}
	m.progress[progress.StudentID+"/"+progress.DegreeCode] = *progress
	return nil
}

func (m *mockDegreeRepo) FindProgress(ctx context.Context, studentID, degreeCode string) (*models.DegreeProgress, error) {
	if p, ok := m.progress[studentID+"/"+degreeCode]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func newDegreeFixture(t *testing.T) (*DegreeService, *mockDegreeRepo, *mockStudentRepo, *mockGradedHistory) {
	t.Helper()
	degrees := &mockDegreeRepo{templates: map[string]models.DegreeRequirementTemplate{
		"CS-BS": {
			ID:                  "tpl-1",
			DegreeCode:          "CS-BS",
			DegreeName:          "B.S. Computer Science",
			RequiredCreditHours: 120,
			MinimumGPA:          2.0,
			Categories: []models.RequirementCategory{
				{ID: "rc-1", TemplateID: "tpl-1", Category: models.CategoryMajor, RequiredCreditHours: 60},
				{ID: "rc-2", TemplateID: "tpl-1", Category: models.CategoryGeneralEducation, RequiredCreditHours: 40},
				{ID: "rc-3", TemplateID: "tpl-1", Category: models.CategoryElective, RequiredCreditHours: 20},
			},
		},
	}}
	students := &mockStudentRepo{}
	seedStudent(students, "s1", models.EnrollmentStatusEnrolled, nil)
	history := &mockGradedHistory{rows: make(map[string][]models.GradedEnrollment)}
	svc := NewDegreeService(degrees, students, history, nil, config.AcademicConfig{}, nil)
	return svc, degrees, students, history
}

func TestDegreeAudit(t *testing.T) {
	svc, degrees, _, history := newDegreeFixture(t)
	history.rows["s1"] = []models.GradedEnrollment{
		gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"),
	}

	progress, err := svc.Audit(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "CS-BS", progress.DegreeCode)
	assert.Equal(t, 3.0, progress.CompletedCreditHours)
	assert.Equal(t, 117.0, progress.RemainingCreditHours)
	assert.Equal(t, 2.5, progress.CompletionPercentage)
	require.NotNil(t, progress.CumulativeGPA)
	assert.Equal(t, 4.0, *progress.CumulativeGPA)
	assert.True(t, progress.MeetsGPARequirement)
	require.NotNil(t, progress.ExpectedGraduationDate)

	// 117 remaining at 15 credits per 6-month term -> 8 terms -> 48 months
	expected := progress.CalculatedAt.AddDate(0, 48, 0)
	assert.WithinDuration(t, expected, *progress.ExpectedGraduationDate, time.Second)

	require.Len(t, progress.Categories, 3)
	assert.Equal(t, 3.0, progress.Categories[0].CompletedCreditHours)
	assert.Equal(t, 57.0, progress.Categories[0].RemainingCreditHours)
	assert.Equal(t, 40.0, progress.Categories[1].RemainingCreditHours)

	require.Len(t, degrees.saved, 1)
}

func TestDegreeAuditExcludesNonCountableWork(t *testing.T) {
	svc, _, _, history := newDegreeFixture(t)
	withdrawn := gradedRow("CS102", 3, "B", 3.0, "2025", "FALL")
	withdrawn.Status = models.CourseEnrollmentWithdrawn
	audited := gradedRow("CS103", 3, "A", 4.0, "2025", "FALL")
	audited.IsAudit = true
	audited.CountsTowardDegree = false
	history.rows["s1"] = []models.GradedEnrollment{
		gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"),
		withdrawn,
		audited,
	}

	progress, err := svc.Audit(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, progress.CompletedCreditHours)
}

func TestDegreeAuditRemainingClampedAtZero(t *testing.T) {
	svc, _, _, history := newDegreeFixture(t)
	var rows []models.GradedEnrollment
	for i := 0; i < 31; i++ {
		row := gradedRow("CS"+string(rune('A'+i%26))+"X", 4, "B", 3.0, "2025", "FALL")
		row.EnrollmentID = row.EnrollmentID + string(rune('0'+i%10))
		rows = append(rows, row)
	}
	history.rows["s1"] = rows // 124 credit hours against a 120 requirement

	progress, err := svc.Audit(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 124.0, progress.CompletedCreditHours)
	assert.Equal(t, 0.0, progress.RemainingCreditHours)
	assert.Equal(t, 100.0, progress.CompletionPercentage)
	assert.Nil(t, progress.ExpectedGraduationDate)
}

func TestDegreeAuditNoTemplate(t *testing.T) {
	svc, _, students, _ := newDegreeFixture(t)
	s := students.students["s1"]
	s.ProgramCode = "ART-BA"
	students.students["s1"] = s

	_, err := svc.Audit(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Contains(t, appErrors.FromError(err).Message, "ART-BA")
}

func TestDegreeGetProgressFallsBackToAudit(t *testing.T) {
	svc, degrees, _, history := newDegreeFixture(t)
	history.rows["s1"] = []models.GradedEnrollment{
		gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"),
	}

	progress, err := svc.GetProgress(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, progress.CompletedCreditHours)
	require.Len(t, degrees.saved, 1)

	// second call serves the stored snapshot without a fresh audit
	again, err := svc.GetProgress(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, progress.CompletedCreditHours, again.CompletedCreditHours)
	assert.Len(t, degrees.saved, 1)
}

func TestGraduationEligibilityNotEligible(t *testing.T) {
	svc, _, _, history := newDegreeFixture(t)
	history.rows["s1"] = []models.GradedEnrollment{
		gradedRow("CS101", 3, "D", 1.0, "2025", "FALL"),
	}

	eligibility, err := svc.CheckGraduationEligibility(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, eligibility.IsEligible)
	assert.False(t, eligibility.MeetsGPARequirement)
	assert.Contains(t, eligibility.UnmetRequirements, "117.0 credit hours remaining of 120.0 required")
	assert.Contains(t, eligibility.UnmetRequirements, "cumulative GPA 1.00 is below the required minimum")
}

func TestGraduationEligibilityEligible(t *testing.T) {
	svc, degrees, _, history := newDegreeFixture(t)
	tpl := degrees.templates["CS-BS"]
	tpl.RequiredCreditHours = 6
	tpl.Categories = []models.RequirementCategory{
		{ID: "rc-1", TemplateID: "tpl-1", Category: models.CategoryMajor, RequiredCreditHours: 6},
	}
	degrees.templates["CS-BS"] = tpl
	history.rows["s1"] = []models.GradedEnrollment{
		gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"),
		gradedRow("CS201", 3, "B", 3.0, "2026", "SPRING"),
	}

	eligibility, err := svc.CheckGraduationEligibility(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, eligibility.IsEligible)
	assert.Empty(t, eligibility.UnmetRequirements)
	assert.Equal(t, 0.0, eligibility.RemainingCreditHours)
}
