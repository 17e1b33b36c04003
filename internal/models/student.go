package models

import "time"

// EnrollmentStatus represents a student's standing within their program.
type EnrollmentStatus string

// Possible student enrollment statuses.
const (
	EnrollmentStatusApplied   EnrollmentStatus = "APPLIED"
	EnrollmentStatusAdmitted  EnrollmentStatus = "ADMITTED"
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusGraduated EnrollmentStatus = "GRADUATED"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
	EnrollmentStatusSuspended EnrollmentStatus = "SUSPENDED"
)

// enrollmentTransitions is the allow-list of student status transitions.
// Graduated and Withdrawn are terminal.
var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentStatusApplied:   {EnrollmentStatusAdmitted, EnrollmentStatusWithdrawn},
	EnrollmentStatusAdmitted:  {EnrollmentStatusEnrolled, EnrollmentStatusWithdrawn},
	EnrollmentStatusEnrolled:  {EnrollmentStatusGraduated, EnrollmentStatusWithdrawn, EnrollmentStatusSuspended},
	EnrollmentStatusSuspended: {EnrollmentStatusEnrolled, EnrollmentStatusWithdrawn},
	EnrollmentStatusGraduated: {},
	EnrollmentStatusWithdrawn: {},
}

// CanTransitionTo reports whether target is reachable from the current status.
func (s EnrollmentStatus) CanTransitionTo(target EnrollmentStatus) bool {
	for _, allowed := range enrollmentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s EnrollmentStatus) IsTerminal() bool {
	return len(enrollmentTransitions[s]) == 0
}

// Valid reports whether the value is a known enrollment status.
func (s EnrollmentStatus) Valid() bool {
	_, ok := enrollmentTransitions[s]
	return ok
}

// AcademicStanding is a categorical assessment of a student's GPA trajectory.
type AcademicStanding string

// Possible academic standings.
const (
	StandingNewStudent     AcademicStanding = "NEW_STUDENT"
	StandingGood           AcademicStanding = "GOOD"
	StandingWarning        AcademicStanding = "WARNING"
	StandingProbation      AcademicStanding = "PROBATION"
	StandingSuspension     AcademicStanding = "ACADEMIC_SUSPENSION"
	StandingDeansList      AcademicStanding = "DEANS_LIST"
	StandingPresidentsList AcademicStanding = "PRESIDENTS_LIST"
)

// standingMinimumGPA maps each standing to the minimum cumulative GPA a student
// must hold before the standing may be assigned. Low-GPA standings carry no floor.
var standingMinimumGPA = map[AcademicStanding]float64{
	StandingNewStudent:     0,
	StandingGood:           2.0,
	StandingWarning:        0,
	StandingProbation:      0,
	StandingSuspension:     0,
	StandingDeansList:      3.5,
	StandingPresidentsList: 3.9,
}

// MinimumGPA returns the GPA floor required to hold the standing.
func (s AcademicStanding) MinimumGPA() float64 {
	return standingMinimumGPA[s]
}

// Valid reports whether the value is a known academic standing.
func (s AcademicStanding) Valid() bool {
	_, ok := standingMinimumGPA[s]
	return ok
}

// Student represents a learner registered in an academic program. Students are
// soft-deactivated, never physically deleted.
type Student struct {
	ID                     string           `db:"id" json:"id"`
	StudentNumber          string           `db:"student_number" json:"student_number"`
	FullName               string           `db:"full_name" json:"full_name"`
	Email                  string           `db:"email" json:"email"`
	ProgramCode            string           `db:"program_code" json:"program_code"`
	Department             string           `db:"department" json:"department"`
	EnrollmentStatus       EnrollmentStatus `db:"enrollment_status" json:"enrollment_status"`
	AcademicStanding       AcademicStanding `db:"academic_standing" json:"academic_standing"`
	CumulativeGPA          *float64         `db:"cumulative_gpa" json:"cumulative_gpa,omitempty"`
	StatusNotes            string           `db:"status_notes" json:"status_notes,omitempty"`
	ExpectedGraduationDate *time.Time       `db:"expected_graduation_date" json:"expected_graduation_date,omitempty"`
	ActualGraduationDate   *time.Time       `db:"actual_graduation_date" json:"actual_graduation_date,omitempty"`
	LastAcademicReview     *time.Time       `db:"last_academic_review" json:"last_academic_review,omitempty"`
	Active                 bool             `db:"active" json:"active"`
	CreatedAt              time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time        `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search      string
	ProgramCode string
	Department  string
	Status      EnrollmentStatus
	Active      *bool
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
