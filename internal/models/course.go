package models

import "time"

// CourseCategory buckets a course for degree-requirement accounting.
type CourseCategory string

const (
	CategoryGeneralEducation CourseCategory = "GENERAL_EDUCATION"
	CategoryMajor            CourseCategory = "MAJOR"
	CategoryElective         CourseCategory = "ELECTIVE"
)

// Course is a catalog entry students enroll in.
type Course struct {
	ID          string         `db:"id" json:"id"`
	Code        string         `db:"code" json:"code"`
	Title       string         `db:"title" json:"title"`
	Department  string         `db:"department" json:"department"`
	Category    CourseCategory `db:"category" json:"category"`
	CreditHours float64        `db:"credit_hours" json:"credit_hours"`
	Active      bool           `db:"active" json:"active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Prerequisite references a course that must appear in a student's completed
// set before enrollment in the owning course is permitted. The required course
// is referenced by catalog code and resolved at validation time.
type Prerequisite struct {
	ID                 string    `db:"id" json:"id"`
	CourseID           string    `db:"course_id" json:"course_id"`
	RequiredCourseCode string    `db:"required_course_code" json:"required_course_code"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// PrerequisiteValidationResult reports whether a student may enroll in a course.
type PrerequisiteValidationResult struct {
	CourseID             string   `json:"course_id"`
	CourseCode           string   `json:"course_code"`
	IsValid              bool     `json:"is_valid"`
	MissingPrerequisites []string `json:"missing_prerequisites,omitempty"`
	Messages             []string `json:"messages,omitempty"`
}

// CourseFilter provides filters for listing catalog courses.
type CourseFilter struct {
	Search     string
	Department string
	Category   CourseCategory
	Active     *bool
	Page       int
	PageSize   int
}
