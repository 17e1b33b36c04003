package models

import "time"

// HonorType classifies a student-scoped academic honor or award.
type HonorType string

const (
	HonorDeansList      HonorType = "DEANS_LIST"
	HonorPresidentsList HonorType = "PRESIDENTS_LIST"
	HonorScholarship    HonorType = "SCHOLARSHIP"
	HonorAward          HonorType = "AWARD"
)

// Valid reports whether the value is a known honor type.
func (t HonorType) Valid() bool {
	switch t {
	case HonorDeansList, HonorPresidentsList, HonorScholarship, HonorAward:
		return true
	}
	return false
}

// AcademicHonor is an append-only record of a recognition earned by a student.
// Honors can be deactivated but are never deleted.
type AcademicHonor struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	Type          HonorType `db:"type" json:"type"`
	Title         string    `db:"title" json:"title"`
	QualifyingGPA *float64  `db:"qualifying_gpa" json:"qualifying_gpa,omitempty"`
	AcademicYear  string    `db:"academic_year" json:"academic_year"`
	Semester      string    `db:"semester" json:"semester"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
