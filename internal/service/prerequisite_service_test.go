package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

func newPrerequisiteFixture(t *testing.T) (*PrerequisiteService, *mockCourseRepo, *mockGradedHistory) {
	t.Helper()
	courses := &mockCourseRepo{prereqs: make(map[string][]models.Prerequisite)}
	seedCourse(courses, "c-101", "CS101", 3)
	seedCourse(courses, "c-201", "CS201", 3)
	seedCourse(courses, "c-301", "CS301", 4)
	courses.prereqs["c-201"] = []models.Prerequisite{{ID: "p1", CourseID: "c-201", RequiredCourseCode: "CS101"}}
	courses.prereqs["c-301"] = []models.Prerequisite{
		{ID: "p2", CourseID: "c-301", RequiredCourseCode: "CS101"},
		{ID: "p3", CourseID: "c-301", RequiredCourseCode: "CS201"},
	}
	history := &mockGradedHistory{rows: make(map[string][]models.GradedEnrollment)}
	return NewPrerequisiteService(courses, history, nil), courses, history
}

func TestPrerequisiteValidateNoPrerequisites(t *testing.T) {
	svc, _, _ := newPrerequisiteFixture(t)

	result, err := svc.Validate(context.Background(), "s1", "c-101")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.MissingPrerequisites)
	assert.Contains(t, result.Messages, "CS101 has no prerequisites")
}

func TestPrerequisiteValidateSatisfied(t *testing.T) {
	svc, _, history := newPrerequisiteFixture(t)
	history.rows["s1"] = []models.GradedEnrollment{
		gradedRow("CS101", 3, "B", 3.0, "2025", "FALL"),
	}

	result, err := svc.Validate(context.Background(), "s1", "c-201")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.MissingPrerequisites)
	assert.Contains(t, result.Messages, "prerequisite CS101 satisfied")
}

func TestPrerequisiteValidateMissing(t *testing.T) {
	svc, _, history := newPrerequisiteFixture(t)
	history.rows["s1"] = []models.GradedEnrollment{
		gradedRow("CS101", 3, "B", 3.0, "2025", "FALL"),
	}

	result, err := svc.Validate(context.Background(), "s1", "c-301")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"CS201"}, result.MissingPrerequisites)
	assert.Contains(t, result.Messages, "prerequisite CS101 satisfied")
	assert.Contains(t, result.Messages, "prerequisite CS201 has not been completed")
}

func TestPrerequisiteValidateIgnoresNonCountableWork(t *testing.T) {
	svc, _, history := newPrerequisiteFixture(t)
	withdrawn := gradedRow("CS101", 3, "B", 3.0, "2025", "FALL")
	withdrawn.Status = models.CourseEnrollmentWithdrawn
	audited := gradedRow("CS101", 3, "A", 4.0, "2025", "SPRING")
	audited.IsAudit = true
	audited.CountsTowardDegree = false
	history.rows["s1"] = []models.GradedEnrollment{withdrawn, audited}

	result, err := svc.Validate(context.Background(), "s1", "c-201")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"CS101"}, result.MissingPrerequisites)
}

func TestPrerequisiteValidateUnknownCatalogCode(t *testing.T) {
	svc, courses, _ := newPrerequisiteFixture(t)
	courses.prereqs["c-201"] = []models.Prerequisite{{ID: "p9", CourseID: "c-201", RequiredCourseCode: "MA400"}}

	result, err := svc.Validate(context.Background(), "s1", "c-201")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"MA400"}, result.MissingPrerequisites)
	assert.Contains(t, result.Messages, "prerequisite MA400 does not exist in the catalog")
}

func TestPrerequisiteValidateUnknownCourse(t *testing.T) {
	svc, _, _ := newPrerequisiteFixture(t)

	_, err := svc.Validate(context.Background(), "s1", "c-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
