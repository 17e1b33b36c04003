package models

import "time"

// CourseEnrollmentStatus represents the lifecycle of a course enrollment.
type CourseEnrollmentStatus string

// Possible course enrollment statuses. Enrolled is the initial state; the
// remaining three are terminal.
const (
	CourseEnrollmentEnrolled  CourseEnrollmentStatus = "ENROLLED"
	CourseEnrollmentCompleted CourseEnrollmentStatus = "COMPLETED"
	CourseEnrollmentDropped   CourseEnrollmentStatus = "DROPPED"
	CourseEnrollmentWithdrawn CourseEnrollmentStatus = "WITHDRAWN"
)

// CourseEnrollment links a student to a course for a term. CreditHours is a
// snapshot of the course's credit value at enrollment time and never changes
// afterwards, even if the catalog entry is edited.
type CourseEnrollment struct {
	ID                 string                 `db:"id" json:"id"`
	StudentID          string                 `db:"student_id" json:"student_id"`
	CourseID           string                 `db:"course_id" json:"course_id"`
	AcademicYear       string                 `db:"academic_year" json:"academic_year"`
	Semester           string                 `db:"semester" json:"semester"`
	Status             CourseEnrollmentStatus `db:"status" json:"status"`
	CreditHours        float64                `db:"credit_hours" json:"credit_hours"`
	IsAudit            bool                   `db:"is_audit" json:"is_audit"`
	CountsTowardDegree bool                   `db:"counts_toward_degree" json:"counts_toward_degree"`
	EnrolledAt         time.Time              `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt        *time.Time             `db:"completed_at" json:"completed_at,omitempty"`
	DroppedAt          *time.Time             `db:"dropped_at" json:"dropped_at,omitempty"`
	WithdrawnAt        *time.Time             `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
	Notes              string                 `db:"notes" json:"notes,omitempty"`
	CreatedAt          time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time              `db:"updated_at" json:"updated_at"`
}

// CourseEnrollmentDetail enriches CourseEnrollment with student and course info.
type CourseEnrollmentDetail struct {
	CourseEnrollment
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	CourseCode    string `db:"course_code" json:"course_code"`
	CourseTitle   string `db:"course_title" json:"course_title"`
}

// CourseEnrollmentFilter provides filters for listing course enrollments.
type CourseEnrollmentFilter struct {
	StudentID    string
	CourseID     string
	AcademicYear string
	Semester     string
	Status       CourseEnrollmentStatus
	Page         int
	PageSize     int
}

// GradedEnrollment is the read model joining a course enrollment with its
// course and, when present, its active final grade. It is the single source
// for GPA aggregation, transcripts, prerequisite checks and degree audits.
type GradedEnrollment struct {
	EnrollmentID       string                 `db:"enrollment_id" json:"enrollment_id"`
	CourseID           string                 `db:"course_id" json:"course_id"`
	CourseCode         string                 `db:"course_code" json:"course_code"`
	CourseTitle        string                 `db:"course_title" json:"course_title"`
	Category           CourseCategory         `db:"category" json:"category"`
	AcademicYear       string                 `db:"academic_year" json:"academic_year"`
	Semester           string                 `db:"semester" json:"semester"`
	Status             CourseEnrollmentStatus `db:"status" json:"status"`
	CreditHours        float64                `db:"credit_hours" json:"credit_hours"`
	IsAudit            bool                   `db:"is_audit" json:"is_audit"`
	CountsTowardDegree bool                   `db:"counts_toward_degree" json:"counts_toward_degree"`
	LetterGrade        *string                `db:"letter_grade" json:"letter_grade,omitempty"`
	GradePoints        *float64               `db:"grade_points" json:"grade_points,omitempty"`
	QualityPoints      *float64               `db:"quality_points" json:"quality_points,omitempty"`
}

// HasFinalGrade reports whether an active final grade is attached.
func (g GradedEnrollment) HasFinalGrade() bool {
	return g.GradePoints != nil
}

// Countable reports whether the enrollment participates in GPA and degree
// accounting: counts toward degree, not audit, not withdrawn, final-graded.
func (g GradedEnrollment) Countable() bool {
	return g.CountsTowardDegree &&
		!g.IsAudit &&
		g.Status != CourseEnrollmentWithdrawn &&
		g.HasFinalGrade()
}
