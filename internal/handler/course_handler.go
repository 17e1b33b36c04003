package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/internal/service"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
	"github.com/campusworks/registrar-api/pkg/response"
)

// CourseHandler exposes course catalog endpoints.
type CourseHandler struct {
	courses       *service.CourseService
	prerequisites *service.PrerequisiteService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, prerequisites *service.PrerequisiteService) *CourseHandler {
	return &CourseHandler{courses: courses, prerequisites: prerequisites}
}

// List godoc
// @Summary List catalog courses
// @Tags Courses
// @Produce json
// @Param search query string false "Search by code or title"
// @Param department query string false "Filter by department"
// @Param category query string false "Filter by category"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Department = c.Query("department")
	filter.Category = models.CourseCategory(c.Query("category"))
	if active := c.Query("active"); active != "" {
		if active == "true" {
			v := true
			filter.Active = &v
		} else if active == "false" {
			v := false
			filter.Active = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	courses, total, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, courses, &pagination)
}

// Get godoc
// @Summary Get course detail
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Prerequisites godoc
// @Summary List a course's prerequisites
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/prerequisites [get]
func (h *CourseHandler) Prerequisites(c *gin.Context) {
	prereqs, err := h.courses.Prerequisites(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prereqs, nil)
}

// ValidatePrerequisites godoc
// @Summary Validate a student's prerequisites for a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Param student query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/prerequisites/validate [get]
func (h *CourseHandler) ValidatePrerequisites(c *gin.Context) {
	studentID := c.Query("student")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student is required"))
		return
	}
	result, err := h.prerequisites.Validate(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
