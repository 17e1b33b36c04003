package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.CourseEnrollment
	graded      map[string][]models.GradedEnrollment
	lastReason  string
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.CourseEnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.CourseEnrollmentDetail{CourseEnrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID && e.Status == models.CourseEnrollmentEnrolled {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.CourseEnrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "e-generated"
	}
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.CourseEnrollmentStatus, at time.Time, reason string) error {
	e, ok := m.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Status = status
	m.enrollments[id] = e
	m.lastReason = reason
	return nil
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, int, error) {
	out := make([]models.CourseEnrollmentDetail, 0, len(m.enrollments))
	for _, e := range m.enrollments {
		out = append(out, models.CourseEnrollmentDetail{CourseEnrollment: e})
	}
	return out, len(out), nil
}

func (m *mockEnrollmentRepo) ListGradedByStudent(ctx context.Context, studentID string) ([]models.GradedEnrollment, error) {
	return m.graded[studentID], nil
}

type mockCourseRepo struct {
	courses map[string]models.Course
	prereqs map[string][]models.Prerequisite
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	for _, c := range m.courses {
		if strings.EqualFold(c.Code, code) {
			course := c
			return &course, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ListPrerequisites(ctx context.Context, courseID string) ([]models.Prerequisite, error) {
	return m.prereqs[courseID], nil
}

func seedCourse(repo *mockCourseRepo, id, code string, credits float64) {
	if repo.courses == nil {
		repo.courses = make(map[string]models.Course)
	}
	repo.courses[id] = models.Course{
		ID:          id,
		Code:        code,
		Title:       code + " Title",
		Category:    models.CategoryMajor,
		CreditHours: credits,
		Active:      true,
	}
}

func newEnrollmentFixture(t *testing.T) (*EnrollmentService, *mockEnrollmentRepo, *mockStudentRepo, *mockCourseRepo) {
	t.Helper()
	enrollments := &mockEnrollmentRepo{}
	students := &mockStudentRepo{}
	courses := &mockCourseRepo{}
	seedStudent(students, "s1", models.EnrollmentStatusEnrolled, nil)
	seedCourse(courses, "c1", "CS101", 3)
	svc := NewEnrollmentService(enrollments, students, courses, nil, validator.New(), zap.NewNop())
	return svc, enrollments, students, courses
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	svc, repo, _, _ := newEnrollmentFixture(t)

	detail, err := svc.Enroll(context.Background(), EnrollCourseRequest{
		StudentID:    "s1",
		CourseCode:   "CS101",
		AcademicYear: "2026",
		Semester:     "FALL",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CourseEnrollmentEnrolled, detail.Status)
	assert.Equal(t, 3.0, detail.CreditHours)
	assert.True(t, detail.CountsTowardDegree)
	assert.False(t, detail.IsAudit)
	assert.Len(t, repo.enrollments, 1)
}

func TestEnrollmentServiceEnrollAudit(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)

	detail, err := svc.Enroll(context.Background(), EnrollCourseRequest{
		StudentID:    "s1",
		CourseCode:   "CS101",
		AcademicYear: "2026",
		Semester:     "FALL",
		IsAudit:      true,
	})
	require.NoError(t, err)
	assert.True(t, detail.IsAudit)
	assert.False(t, detail.CountsTowardDegree)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)

	_, err := svc.Enroll(context.Background(), EnrollCourseRequest{
		StudentID: "s1", CourseCode: "CS101", AcademicYear: "2026", Semester: "FALL",
	})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), EnrollCourseRequest{
		StudentID: "s1", CourseCode: "CS101", AcademicYear: "2026", Semester: "FALL",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollUnknownStudent(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)

	_, err := svc.Enroll(context.Background(), EnrollCourseRequest{
		StudentID: "missing", CourseCode: "CS101", AcademicYear: "2026", Semester: "FALL",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollInactiveStudent(t *testing.T) {
	svc, _, students, _ := newEnrollmentFixture(t)
	s := students.students["s1"]
	s.Active = false
	students.students["s1"] = s

	_, err := svc.Enroll(context.Background(), EnrollCourseRequest{
		StudentID: "s1", CourseCode: "CS101", AcademicYear: "2026", Semester: "FALL",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollUnknownCourse(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture(t)

	_, err := svc.Enroll(context.Background(), EnrollCourseRequest{
		StudentID: "s1", CourseCode: "NOPE999", AcademicYear: "2026", Semester: "FALL",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDropAndWithdraw(t *testing.T) {
	svc, repo, _, _ := newEnrollmentFixture(t)

	detail, err := svc.Enroll(context.Background(), EnrollCourseRequest{
		StudentID: "s1", CourseCode: "CS101", AcademicYear: "2026", Semester: "FALL",
	})
	require.NoError(t, err)

	err = svc.Drop(context.Background(), detail.ID, EnrollmentActionRequest{Reason: "schedule conflict"})
	require.NoError(t, err)
	assert.Equal(t, models.CourseEnrollmentDropped, repo.enrollments[detail.ID].Status)
	assert.Equal(t, "schedule conflict", repo.lastReason)

	// terminal states admit no further moves
	err = svc.Withdraw(context.Background(), detail.ID, EnrollmentActionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}
