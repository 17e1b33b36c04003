package models

import "time"

// DegreeRequirementTemplate defines what a degree demands of a student.
type DegreeRequirementTemplate struct {
	ID                  string                `db:"id" json:"id"`
	DegreeCode          string                `db:"degree_code" json:"degree_code"`
	DegreeName          string                `db:"degree_name" json:"degree_name"`
	RequiredCreditHours float64               `db:"required_credit_hours" json:"required_credit_hours"`
	MinimumGPA          float64               `db:"minimum_gpa" json:"minimum_gpa"`
	CreatedAt           time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time             `db:"updated_at" json:"updated_at"`
	Categories          []RequirementCategory `json:"categories,omitempty"`
}

// RequirementCategory is one credit bucket within a degree template, e.g.
// General Education, Major, Electives.
type RequirementCategory struct {
	ID                  string         `db:"id" json:"id"`
	TemplateID          string         `db:"template_id" json:"template_id"`
	Category            CourseCategory `db:"category" json:"category"`
	RequiredCreditHours float64        `db:"required_credit_hours" json:"required_credit_hours"`
}

// CategoryProgress is the per-category credit breakdown inside an audit result.
type CategoryProgress struct {
	Category             CourseCategory `json:"category"`
	RequiredCreditHours  float64        `json:"required_credit_hours"`
	CompletedCreditHours float64        `json:"completed_credit_hours"`
	RemainingCreditHours float64        `json:"remaining_credit_hours"`
}

// DegreeProgress is a per (student, degree) audit snapshot, recomputed on
// demand from the student's current graded history.
type DegreeProgress struct {
	ID                     string             `db:"id" json:"id"`
	StudentID              string             `db:"student_id" json:"student_id"`
	DegreeCode             string             `db:"degree_code" json:"degree_code"`
	RequiredCreditHours    float64            `db:"required_credit_hours" json:"required_credit_hours"`
	CompletedCreditHours   float64            `db:"completed_credit_hours" json:"completed_credit_hours"`
	RemainingCreditHours   float64            `db:"remaining_credit_hours" json:"remaining_credit_hours"`
	CompletionPercentage   float64            `db:"completion_percentage" json:"completion_percentage"`
	CumulativeGPA          *float64           `db:"cumulative_gpa" json:"cumulative_gpa,omitempty"`
	MeetsGPARequirement    bool               `db:"meets_gpa_requirement" json:"meets_gpa_requirement"`
	ExpectedGraduationDate *time.Time         `db:"expected_graduation_date" json:"expected_graduation_date,omitempty"`
	CalculatedAt           time.Time          `db:"calculated_at" json:"calculated_at"`
	Categories             []CategoryProgress `json:"categories,omitempty"`
}

// GraduationEligibility is the outcome of a graduation check.
type GraduationEligibility struct {
	StudentID            string    `json:"student_id"`
	DegreeCode           string    `json:"degree_code"`
	IsEligible           bool      `json:"is_eligible"`
	RemainingCreditHours float64   `json:"remaining_credit_hours"`
	MeetsGPARequirement  bool      `json:"meets_gpa_requirement"`
	UnmetRequirements    []string  `json:"unmet_requirements,omitempty"`
	CheckedAt            time.Time `json:"checked_at"`
}
