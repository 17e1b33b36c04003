package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

func newTranscriptFixture(t *testing.T) (*TranscriptService, *mockGradedHistory) {
	t.Helper()
	students := &mockStudentRepo{}
	seedStudent(students, "s1", models.EnrollmentStatusEnrolled, nil)
	history := &mockGradedHistory{rows: make(map[string][]models.GradedEnrollment)}
	return NewTranscriptService(students, history, nil, nil), history
}

func TestTranscriptGenerate(t *testing.T) {
	svc, history := newTranscriptFixture(t)
	withdrawn := gradedRow("CS102", 3, "C", 2.0, "2025", "FALL")
	withdrawn.Status = models.CourseEnrollmentWithdrawn
	audited := gradedRow("HU300", 3, "A", 4.0, "2026", "SPRING")
	audited.IsAudit = true
	audited.CountsTowardDegree = false
	history.rows["s1"] = []models.GradedEnrollment{
		gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"),    // 12 quality points
		gradedRow("MA201", 4, "B+", 3.3, "2026", "SPRING"), // 13.2 quality points
		withdrawn,
		audited,
	}

	transcript, err := svc.Generate(context.Background(), "s1", false)
	require.NoError(t, err)
	assert.Equal(t, "S-s1", transcript.StudentNumber)
	assert.False(t, transcript.Official)

	// every enrollment is listed, including withdrawn and audited work
	require.Len(t, transcript.Lines, 4)
	assert.Equal(t, models.CourseEnrollmentWithdrawn, transcript.Lines[2].Status)
	assert.True(t, transcript.Lines[3].IsAudit)
	assert.Nil(t, transcript.Lines[2].GradePoints)
	assert.Nil(t, transcript.Lines[3].GradePoints)

	// only countable work contributes to the totals
	assert.Equal(t, 7.0, transcript.TotalCreditHours)
	assert.Equal(t, 25.2, transcript.TotalQualityPoints)
	require.NotNil(t, transcript.CumulativeGPA)
	assert.Equal(t, 3.6, *transcript.CumulativeGPA)
}

func TestTranscriptGenerateEmptyHistory(t *testing.T) {
	svc, _ := newTranscriptFixture(t)

	transcript, err := svc.Generate(context.Background(), "s1", true)
	require.NoError(t, err)
	assert.True(t, transcript.Official)
	assert.Empty(t, transcript.Lines)
	assert.Equal(t, 0.0, transcript.TotalCreditHours)
	assert.Nil(t, transcript.CumulativeGPA)
}

func TestTranscriptGenerateUnknownStudent(t *testing.T) {
	svc, _ := newTranscriptFixture(t)

	_, err := svc.Generate(context.Background(), "missing", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTranscriptRenderPDF(t *testing.T) {
	svc, history := newTranscriptFixture(t)
	history.rows["s1"] = []models.GradedEnrollment{
		gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"),
	}

	data, err := svc.RenderPDF(context.Background(), "s1", true)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestTranscriptRenderCSV(t *testing.T) {
	svc, history := newTranscriptFixture(t)
	history.rows["s1"] = []models.GradedEnrollment{
		gradedRow("CS101", 3, "A", 4.0, "2025", "FALL"),
	}

	data, err := svc.RenderCSV(context.Background(), "s1", false)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	row := records[1]
	cells := make(map[string]string, len(header))
	for i, name := range header {
		cells[name] = row[i]
	}
	assert.Equal(t, "CS101", cells["Course"])
	assert.Equal(t, "3.0", cells["Credits"])
	assert.Equal(t, "A", cells["Grade"])
	assert.Equal(t, "4.0", cells["Points"])
	assert.Equal(t, "12.00", cells["Quality Points"])
}
