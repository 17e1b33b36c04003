package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
	"github.com/campusworks/registrar-api/pkg/export"
)

// TranscriptService assembles academic transcripts from the graded history.
// The assembled view is cached per student; grade writes invalidate it.
type TranscriptService struct {
	students studentReader
	history  gradedHistoryReader
	cache    *CacheService
	pdf      *export.PDFExporter
	csv      *export.CSVExporter
	logger   *zap.Logger
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(students studentReader, history gradedHistoryReader, cache *CacheService, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{
		students: students,
		history:  history,
		cache:    cache,
		pdf:      export.NewPDFExporter(),
		csv:      export.NewCSVExporter(),
		logger:   logger,
	}
}

// Generate builds a transcript for the student. Every enrollment appears on
// it, including withdrawn and audit courses, but only countable enrollments
// contribute credit hours and quality points to the totals. Official controls
// the certification flag on the rendered document only.
func (s *TranscriptService) Generate(ctx context.Context, studentID string, official bool) (*models.Transcript, error) {
	cacheKey := StudentCacheKey(studentID, transcriptView(official))
	var cached models.Transcript
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	rows, err := s.history.ListGradedByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded history")
	}

	transcript := &models.Transcript{
		StudentID:     student.ID,
		StudentNumber: student.StudentNumber,
		StudentName:   student.FullName,
		ProgramCode:   student.ProgramCode,
		Department:    student.Department,
		Official:      official,
		GeneratedAt:   time.Now().UTC(),
	}
	for _, r := range rows {
		line := models.TranscriptLine{
			CourseCode:   r.CourseCode,
			CourseTitle:  r.CourseTitle,
			AcademicYear: r.AcademicYear,
			Semester:     r.Semester,
			Status:       r.Status,
			CreditHours:  r.CreditHours,
			IsAudit:      r.IsAudit,
		}
		if r.LetterGrade != nil {
			line.LetterGrade = *r.LetterGrade
		}
		if r.Countable() {
			line.GradePoints = r.GradePoints
			line.QualityPoints = r.QualityPoints
			transcript.TotalCreditHours += r.CreditHours
			transcript.TotalQualityPoints += *r.QualityPoints
		}
		transcript.Lines = append(transcript.Lines, line)
	}
	if transcript.TotalCreditHours > 0 {
		gpa := round2(transcript.TotalQualityPoints / transcript.TotalCreditHours)
		transcript.CumulativeGPA = &gpa
	}

	s.cache.Set(ctx, cacheKey, transcript)
	return transcript, nil
}

// RenderPDF generates the transcript and renders it as a PDF document.
func (s *TranscriptService) RenderPDF(ctx context.Context, studentID string, official bool) ([]byte, error) {
	transcript, err := s.Generate(ctx, studentID, official)
	if err != nil {
		return nil, err
	}
	title := "Unofficial Academic Transcript"
	if transcript.Official {
		title = "Official Academic Transcript"
	}
	preamble := []string{
		fmt.Sprintf("Student: %s (%s)", transcript.StudentName, transcript.StudentNumber),
		fmt.Sprintf("Program: %s, %s", transcript.ProgramCode, transcript.Department),
		fmt.Sprintf("Generated: %s", transcript.GeneratedAt.Format("2006-01-02 15:04 MST")),
	}
	summary := []string{
		fmt.Sprintf("Total credit hours: %.1f", transcript.TotalCreditHours),
		fmt.Sprintf("Total quality points: %.2f", transcript.TotalQualityPoints),
		fmt.Sprintf("Cumulative GPA: %s", formatGPA(transcript.CumulativeGPA)),
	}
	data, err := s.pdf.Render(transcriptDataset(transcript), title, preamble, summary)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript pdf")
	}
	return data, nil
}

// RenderCSV generates the transcript and renders its course lines as CSV.
func (s *TranscriptService) RenderCSV(ctx context.Context, studentID string, official bool) ([]byte, error) {
	transcript, err := s.Generate(ctx, studentID, official)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(transcriptDataset(transcript))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript csv")
	}
	return data, nil
}

func transcriptDataset(t *models.Transcript) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Course", "Title", "Year", "Semester", "Status", "Credits", "Grade", "Points", "Quality Points"},
	}
	for _, line := range t.Lines {
		grade := line.LetterGrade
		if line.IsAudit {
			grade = "AU"
		}
		points, quality := "", ""
		if line.GradePoints != nil {
			points = fmt.Sprintf("%.1f", *line.GradePoints)
		}
		if line.QualityPoints != nil {
			quality = fmt.Sprintf("%.2f", *line.QualityPoints)
		}
		data.Rows = append(data.Rows, map[string]string{
			"Course":         line.CourseCode,
			"Title":          line.CourseTitle,
			"Year":           line.AcademicYear,
			"Semester":       line.Semester,
			"Status":         string(line.Status),
			"Credits":        fmt.Sprintf("%.1f", line.CreditHours),
			"Grade":          grade,
			"Points":         points,
			"Quality Points": quality,
		})
	}
	return data
}

func transcriptView(official bool) string {
	if official {
		return "transcript:official"
	}
	return "transcript:unofficial"
}

func formatGPA(gpa *float64) string {
	if gpa == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *gpa)
}
