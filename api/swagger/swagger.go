package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Registrar API",
        "description": "Academic records service: enrollment lifecycle, grade ledger, GPA, prerequisites and degree audits",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Students", "description": "Student records and program lifecycle"},
        {"name": "Courses", "description": "Course catalog and prerequisites"},
        {"name": "Enrollments", "description": "Course enrollment state machine"},
        {"name": "Grades", "description": "Append-only grade ledger"},
        {"name": "GPA", "description": "GPA calculation"},
        {"name": "Degree", "description": "Degree audits and graduation checks"},
        {"name": "Transcripts", "description": "Transcript generation and export"},
        {"name": "Honors", "description": "Academic honors and awards"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and obtain an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Return the authenticated user's claims",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a new student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate student number"}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Deactivate a student record",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deactivated"}
                }
            }
        },
        "/students/{id}/enrollment-status": {
            "patch": {
                "tags": ["Students"],
                "summary": "Transition a student's enrollment status",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateEnrollmentStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/students/{id}/academic-standing": {
            "patch": {
                "tags": ["Students"],
                "summary": "Assign a student's academic standing",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAcademicStandingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Standing inconsistent with GPA"}
                }
            }
        },
        "/students/{id}/gpa": {
            "get": {
                "tags": ["GPA"],
                "summary": "Recalculate a student's cumulative GPA",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/gpa/term": {
            "get": {
                "tags": ["GPA"],
                "summary": "Calculate a student's GPA for one term",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "year", "in": "query", "type": "string", "required": true},
                    {"name": "semester", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/gpa/history": {
            "get": {
                "tags": ["GPA"],
                "summary": "List a student's per-term GPA history",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/degree-audit": {
            "post": {
                "tags": ["Degree"],
                "summary": "Run a degree audit for a student",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/degree-progress": {
            "get": {
                "tags": ["Degree"],
                "summary": "Get the latest degree progress snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/graduation-eligibility": {
            "get": {
                "tags": ["Degree"],
                "summary": "Check a student's graduation eligibility",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/transcript": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Get a student's transcript",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "official", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/transcript/pdf": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Download a student's transcript as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "official", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/students/{id}/transcript/csv": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Download a student's transcript as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "official", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "CSV document"}
                }
            }
        },
        "/students/{id}/honors": {
            "get": {
                "tags": ["Honors"],
                "summary": "List a student's honors",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List catalog courses",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get course detail",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/prerequisites": {
            "get": {
                "tags": ["Courses"],
                "summary": "List a course's prerequisites",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/prerequisites/validate": {
            "get": {
                "tags": ["Courses"],
                "summary": "Validate a student's prerequisites for a course",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "student", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List course enrollments",
                "parameters": [
                    {"name": "student", "in": "query", "type": "string"},
                    {"name": "course", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student in a course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate active enrollment"}
                }
            }
        },
        "/enrollments/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment detail",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/drop": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Drop an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/EnrollmentActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/enrollments/{id}/withdraw": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Withdraw from an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/EnrollmentActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/enrollments/{id}/grades": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List the grade history of an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades": {
            "post": {
                "tags": ["Grades"],
                "summary": "Record a grade",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordGradeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/{id}": {
            "put": {
                "tags": ["Grades"],
                "summary": "Correct a recorded grade",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateGradeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Grade already superseded"}
                }
            }
        },
        "/honors": {
            "post": {
                "tags": ["Honors"],
                "summary": "Award an academic honor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AwardHonorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "GPA below honor floor"}
                }
            }
        },
        "/honors/{id}": {
            "delete": {
                "tags": ["Honors"],
                "summary": "Revoke an academic honor",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Revoked"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["student_number", "full_name", "email", "program_code"],
            "properties": {
                "student_number": {"type": "string"},
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "program_code": {"type": "string"},
                "department": {"type": "string"}
            }
        },
        "UpdateEnrollmentStatusRequest": {
            "type": "object",
            "required": ["new_status"],
            "properties": {
                "new_status": {"type": "string", "enum": ["APPLIED", "ADMITTED", "ENROLLED", "GRADUATED", "WITHDRAWN", "SUSPENDED"]},
                "notes": {"type": "string"}
            }
        },
        "UpdateAcademicStandingRequest": {
            "type": "object",
            "required": ["new_standing"],
            "properties": {
                "new_standing": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "EnrollCourseRequest": {
            "type": "object",
            "required": ["student_id", "course_code", "academic_year", "semester"],
            "properties": {
                "student_id": {"type": "string"},
                "course_code": {"type": "string"},
                "academic_year": {"type": "string"},
                "semester": {"type": "string"},
                "is_audit": {"type": "boolean"}
            }
        },
        "EnrollmentActionRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "RecordGradeRequest": {
            "type": "object",
            "required": ["enrollment_id", "grade_type"],
            "properties": {
                "enrollment_id": {"type": "string"},
                "grade_type": {"type": "string", "enum": ["QUIZ", "ASSIGNMENT", "PROJECT", "MIDTERM", "FINAL"]},
                "letter_grade": {"type": "string"},
                "numeric_grade": {"type": "number"},
                "graded_by": {"type": "string"}
            }
        },
        "UpdateGradeRequest": {
            "type": "object",
            "required": ["comment", "graded_by"],
            "properties": {
                "letter_grade": {"type": "string"},
                "numeric_grade": {"type": "number"},
                "comment": {"type": "string"},
                "graded_by": {"type": "string"}
            }
        },
        "AwardHonorRequest": {
            "type": "object",
            "required": ["student_id", "type", "title", "academic_year", "semester"],
            "properties": {
                "student_id": {"type": "string"},
                "type": {"type": "string", "enum": ["DEANS_LIST", "PRESIDENTS_LIST", "SCHOLARSHIP", "AWARD"]},
                "title": {"type": "string"},
                "academic_year": {"type": "string"},
                "semester": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
