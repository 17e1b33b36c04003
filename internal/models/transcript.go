package models

import "time"

// TranscriptLine is one graded course row on a transcript. Withdrawn and
// audit enrollments appear on the transcript but carry no quality points.
type TranscriptLine struct {
	CourseCode    string                 `json:"course_code"`
	CourseTitle   string                 `json:"course_title"`
	AcademicYear  string                 `json:"academic_year"`
	Semester      string                 `json:"semester"`
	Status        CourseEnrollmentStatus `json:"status"`
	CreditHours   float64                `json:"credit_hours"`
	IsAudit       bool                   `json:"is_audit"`
	LetterGrade   string                 `json:"letter_grade,omitempty"`
	GradePoints   *float64               `json:"grade_points,omitempty"`
	QualityPoints *float64               `json:"quality_points,omitempty"`
}

// Transcript is a student's full academic record.
type Transcript struct {
	StudentID          string           `json:"student_id"`
	StudentNumber      string           `json:"student_number"`
	StudentName        string           `json:"student_name"`
	ProgramCode        string           `json:"program_code"`
	Department         string           `json:"department"`
	Lines              []TranscriptLine `json:"lines"`
	TotalCreditHours   float64          `json:"total_credit_hours"`
	TotalQualityPoints float64          `json:"total_quality_points"`
	CumulativeGPA      *float64         `json:"cumulative_gpa,omitempty"`
	Official           bool             `json:"official"`
	GeneratedAt        time.Time        `json:"generated_at"`
}
