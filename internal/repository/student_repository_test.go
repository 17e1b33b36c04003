package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "student_number", "full_name", "email", "program_code", "department",
		"enrollment_status", "academic_standing", "cumulative_gpa", "status_notes",
		"expected_graduation_date", "actual_graduation_date", "last_academic_review",
		"active", "created_at", "updated_at",
	}).AddRow("s1", "2026-0001", "Test Student", "student@example.com", "CS-BS", "Computer Science",
		"ENROLLED", "GOOD", 3.4, "", nil, nil, nil, true, now, now)
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM students WHERE id = \\$1").
		WithArgs("s1").
		WillReturnRows(studentRows())

	student, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "2026-0001", student.StudentNumber)
	assert.Equal(t, models.EnrollmentStatusEnrolled, student.EnrollmentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM students WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM students WHERE program_code = \\$1 ORDER BY created_at DESC LIMIT 20 OFFSET 0").
		WithArgs("CS-BS").
		WillReturnRows(studentRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM students WHERE program_code = \\$1").
		WithArgs("CS-BS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{ProgramCode: "CS-BS"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{
		StudentNumber:    "2026-0001",
		FullName:         "Test Student",
		Email:            "student@example.com",
		ProgramCode:      "CS-BS",
		Department:       "Computer Science",
		EnrollmentStatus: models.EnrollmentStatusApplied,
		AcademicStanding: models.StandingNewStudent,
		Active:           true,
	}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.False(t, student.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateEnrollmentStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	graduated := time.Now().UTC()
	mock.ExpectExec("UPDATE students").
		WithArgs("s1", models.EnrollmentStatusGraduated, "degree conferred", graduated, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateEnrollmentStatus(context.Background(), "s1", models.EnrollmentStatusGraduated, "degree conferred", &graduated)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateEnrollmentStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEnrollmentStatus(context.Background(), "missing", models.EnrollmentStatusEnrolled, "", nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStudentRepositoryUpdateCumulativeGPA(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	gpa := 3.43
	mock.ExpectExec("UPDATE students SET cumulative_gpa").
		WithArgs("s1", gpa, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateCumulativeGPA(context.Background(), "s1", &gpa)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET active = FALSE").
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Deactivate(context.Background(), "s1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
