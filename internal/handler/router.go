package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusworks/registrar-api/internal/middleware"
	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Students    *StudentHandler
	Courses     *CourseHandler
	Enrollments *EnrollmentHandler
	Grades      *GradeHandler
	GPA         *GPAHandler
	Degrees     *DegreeHandler
	Transcripts *TranscriptHandler
	Honors      *HonorHandler
}

// RegisterRoutes wires all endpoints under the API prefix. Read endpoints are
// open to every authenticated role; writes require registrar or admin.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))
	protected.GET("/auth/me", h.Auth.Me)

	writer := middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar)

	students := protected.Group("/students")
	{
		students.GET("", h.Students.List)
		students.POST("", writer, h.Students.Create)
		students.GET("/:id", h.Students.Get)
		students.DELETE("/:id", writer, h.Students.Deactivate)
		students.PATCH("/:id/enrollment-status", writer, h.Students.UpdateEnrollmentStatus)
		students.PATCH("/:id/academic-standing", writer, h.Students.UpdateAcademicStanding)

		students.GET("/:id/gpa", h.GPA.Cumulative)
		students.GET("/:id/gpa/term", h.GPA.Term)
		students.GET("/:id/gpa/history", h.GPA.History)

		students.POST("/:id/degree-audit", writer, h.Degrees.Audit)
		students.GET("/:id/degree-progress", h.Degrees.Progress)
		students.GET("/:id/graduation-eligibility", h.Degrees.GraduationEligibility)

		students.GET("/:id/transcript", h.Transcripts.Get)
		students.GET("/:id/transcript/pdf", h.Transcripts.ExportPDF)
		students.GET("/:id/transcript/csv", h.Transcripts.ExportCSV)

		students.GET("/:id/honors", h.Honors.ListByStudent)
	}

	courses := protected.Group("/courses")
	{
		courses.GET("", h.Courses.List)
		courses.GET("/:id", h.Courses.Get)
		courses.GET("/:id/prerequisites", h.Courses.Prerequisites)
		courses.GET("/:id/prerequisites/validate", h.Courses.ValidatePrerequisites)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.GET("", h.Enrollments.List)
		enrollments.POST("", writer, h.Enrollments.Enroll)
		enrollments.GET("/:id", h.Enrollments.Get)
		enrollments.POST("/:id/drop", writer, h.Enrollments.Drop)
		enrollments.POST("/:id/withdraw", writer, h.Enrollments.Withdraw)
		enrollments.GET("/:id/grades", h.Enrollments.GradeHistory)
	}

	grades := protected.Group("/grades")
	{
		grades.POST("", writer, h.Grades.Record)
		grades.PUT("/:id", writer, h.Grades.Update)
	}

	honors := protected.Group("/honors")
	{
		honors.POST("", writer, h.Honors.Award)
		honors.DELETE("/:id", writer, h.Honors.Revoke)
	}
}
