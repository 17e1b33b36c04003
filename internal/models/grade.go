package models

import "time"

// GradeType classifies a grade entry within a course enrollment.
type GradeType string

const (
	GradeTypeQuiz       GradeType = "QUIZ"
	GradeTypeAssignment GradeType = "ASSIGNMENT"
	GradeTypeProject    GradeType = "PROJECT"
	GradeTypeMidterm    GradeType = "MIDTERM"
	GradeTypeFinal      GradeType = "FINAL"
)

// Valid reports whether the value is a known grade type.
func (t GradeType) Valid() bool {
	switch t {
	case GradeTypeQuiz, GradeTypeAssignment, GradeTypeProject, GradeTypeMidterm, GradeTypeFinal:
		return true
	}
	return false
}

// GradeStatus marks whether a grade row is current or superseded.
type GradeStatus string

const (
	GradeStatusActive  GradeStatus = "ACTIVE"
	GradeStatusChanged GradeStatus = "CHANGED"
)

// Grade is one immutable entry in a course enrollment's grade history. A grade
// is never edited in place: corrections append a new Active row and mark the
// prior row Changed, so the ledger keeps every value ever recorded. At most
// one Active Final grade exists per enrollment.
type Grade struct {
	ID            string      `db:"id" json:"id"`
	EnrollmentID  string      `db:"enrollment_id" json:"enrollment_id"`
	GradeType     GradeType   `db:"grade_type" json:"grade_type"`
	LetterGrade   string      `db:"letter_grade" json:"letter_grade"`
	NumericGrade  float64     `db:"numeric_grade" json:"numeric_grade"`
	GradePoints   float64     `db:"grade_points" json:"grade_points"`
	QualityPoints float64     `db:"quality_points" json:"quality_points"`
	Status        GradeStatus `db:"status" json:"status"`
	IsFinal       bool        `db:"is_final" json:"is_final"`
	GradedBy      *string     `db:"graded_by" json:"graded_by,omitempty"`
	Comments      *string     `db:"comments" json:"comments,omitempty"`
	SupersedesID  *string     `db:"supersedes_id" json:"supersedes_id,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// TermGPA is one GPA data point scoped to a single academic term. GPA is nil
// when the term has no countable graded work.
type TermGPA struct {
	AcademicYear string   `json:"academic_year"`
	Semester     string   `json:"semester"`
	GPA          *float64 `json:"gpa"`
	CreditHours  float64  `json:"credit_hours"`
}
