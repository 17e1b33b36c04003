package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type mockStudentRepo struct {
	students    map[string]models.Student
	byNumber    map[string]string
	deactivated []string
	lastStatus  models.EnrollmentStatus
	lastNotes   string
	graduatedAt *time.Time
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByStudentNumber(ctx context.Context, number string) (*models.Student, error) {
	if id, ok := m.byNumber[number]; ok {
		s := m.students[id]
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if m.byNumber == nil {
		m.byNumber = make(map[string]string)
	}
	// the real repository stamps a fresh UUID on insert
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	m.students[student.ID] = *student
	m.byNumber[student.StudentNumber] = student.ID
	return nil
}

func (m *mockStudentRepo) UpdateEnrollmentStatus(ctx context.Context, id string, status models.EnrollmentStatus, notes string, graduatedAt *time.Time) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.EnrollmentStatus = status
	m.students[id] = s
	m.lastStatus = status
	m.lastNotes = notes
	m.graduatedAt = graduatedAt
	return nil
}

func (m *mockStudentRepo) UpdateAcademicStanding(ctx context.Context, id string, standing models.AcademicStanding, notes string, reviewedAt time.Time) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.AcademicStanding = standing
	m.students[id] = s
	return nil
}

func (m *mockStudentRepo) UpdateCumulativeGPA(ctx context.Context, id string, gpa *float64) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.CumulativeGPA = gpa
	m.students[id] = s
	return nil
}

func (m *mockStudentRepo) Deactivate(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	m.deactivated = append(m.deactivated, id)
	return nil
}

func seedStudent(repo *mockStudentRepo, id string, status models.EnrollmentStatus, gpa *float64) {
	if repo.students == nil {
		repo.students = make(map[string]models.Student)
		repo.byNumber = make(map[string]string)
	}
	repo.students[id] = models.Student{
		ID:               id,
		StudentNumber:    "S-" + id,
		FullName:         "Test Student",
		ProgramCode:      "CS-BS",
		EnrollmentStatus: status,
		AcademicStanding: models.StandingGood,
		CumulativeGPA:    gpa,
		Active:           true,
	}
	repo.byNumber["S-"+id] = id
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNumber: "2026-0001",
		FullName:      "Ada Example",
		Email:         "ada@example.edu",
		ProgramCode:   "CS-BS",
		Department:    "Computer Science",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, models.EnrollmentStatusApplied, student.EnrollmentStatus)
	assert.Equal(t, models.StandingNewStudent, student.AcademicStanding)
	assert.True(t, student.Active)
}

func TestStudentServiceCreateDuplicateNumber(t *testing.T) {
	repo := &mockStudentRepo{}
	seedStudent(repo, "s1", models.EnrollmentStatusEnrolled, nil)
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNumber: "S-s1",
		FullName:      "Duplicate",
		Email:         "dup@example.edu",
		ProgramCode:   "CS-BS",
		Department:    "Computer Science",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    models.EnrollmentStatus
		to      models.EnrollmentStatus
		allowed bool
	}{
		{"applied to admitted", models.EnrollmentStatusApplied, models.EnrollmentStatusAdmitted, true},
		{"admitted to enrolled", models.EnrollmentStatusAdmitted, models.EnrollmentStatusEnrolled, true},
		{"enrolled to graduated", models.EnrollmentStatusEnrolled, models.EnrollmentStatusGraduated, true},
		{"enrolled to suspended", models.EnrollmentStatusEnrolled, models.EnrollmentStatusSuspended, true},
		{"suspended back to enrolled", models.EnrollmentStatusSuspended, models.EnrollmentStatusEnrolled, true},
		{"applied straight to enrolled", models.EnrollmentStatusApplied, models.EnrollmentStatusEnrolled, false},
		{"graduated is terminal", models.EnrollmentStatusGraduated, models.EnrollmentStatusEnrolled, false},
		{"withdrawn is terminal", models.EnrollmentStatusWithdrawn, models.EnrollmentStatusEnrolled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockStudentRepo{}
			seedStudent(repo, "s1", tc.from, nil)
			svc := NewStudentService(repo, validator.New(), zap.NewNop())

			err := svc.UpdateEnrollmentStatus(context.Background(), "s1", UpdateEnrollmentStatusRequest{NewStatus: tc.to})
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, repo.students["s1"].EnrollmentStatus)
			} else {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
				assert.Equal(t, tc.from, repo.students["s1"].EnrollmentStatus)
			}
		})
	}
}

func TestStudentServiceGraduationStampsDate(t *testing.T) {
	repo := &mockStudentRepo{}
	seedStudent(repo, "s1", models.EnrollmentStatusEnrolled, nil)
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	err := svc.UpdateEnrollmentStatus(context.Background(), "s1", UpdateEnrollmentStatusRequest{NewStatus: models.EnrollmentStatusGraduated})
	require.NoError(t, err)
	require.NotNil(t, repo.graduatedAt)
	assert.WithinDuration(t, time.Now().UTC(), *repo.graduatedAt, time.Minute)
}

func TestStudentServiceStandingRequiresGPA(t *testing.T) {
	gpa := 2.0
	repo := &mockStudentRepo{}
	seedStudent(repo, "s1", models.EnrollmentStatusEnrolled, &gpa)
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	err := svc.UpdateAcademicStanding(context.Background(), "s1", UpdateAcademicStandingRequest{NewStanding: models.StandingDeansList})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStanding.Code, appErrors.FromError(err).Code)

	err = svc.UpdateAcademicStanding(context.Background(), "s1", UpdateAcademicStandingRequest{NewStanding: models.StandingGood})
	require.NoError(t, err)
	assert.Equal(t, models.StandingGood, repo.students["s1"].AcademicStanding)
}

func TestStudentServiceStandingNilGPATreatedAsZero(t *testing.T) {
	repo := &mockStudentRepo{}
	seedStudent(repo, "s1", models.EnrollmentStatusEnrolled, nil)
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	err := svc.UpdateAcademicStanding(context.Background(), "s1", UpdateAcademicStandingRequest{NewStanding: models.StandingGood})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStanding.Code, appErrors.FromError(err).Code)

	err = svc.UpdateAcademicStanding(context.Background(), "s1", UpdateAcademicStandingRequest{NewStanding: models.StandingProbation})
	require.NoError(t, err)
}

func TestStudentServiceUnknownStudent(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, validator.New(), zap.NewNop())

	err := svc.UpdateEnrollmentStatus(context.Background(), "missing", UpdateEnrollmentStatusRequest{NewStatus: models.EnrollmentStatusAdmitted})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
