package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/registrar-api/internal/service"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
	"github.com/campusworks/registrar-api/pkg/response"
)

// GPAHandler exposes GPA calculation endpoints.
type GPAHandler struct {
	gpa *service.GPAService
}

// NewGPAHandler constructs GPAHandler.
func NewGPAHandler(gpa *service.GPAService) *GPAHandler {
	return &GPAHandler{gpa: gpa}
}

// Cumulative godoc
// @Summary Recalculate a student's cumulative GPA
// @Tags GPA
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/gpa [get]
func (h *GPAHandler) Cumulative(c *gin.Context) {
	gpa, err := h.gpa.CalculateCumulativeGPA(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_id": c.Param("id"), "cumulative_gpa": gpa}, nil)
}

// Term godoc
// @Summary Calculate a student's GPA for one term
// @Tags GPA
// @Produce json
// @Param id path string true "Student ID"
// @Param year query string true "Academic year"
// @Param semester query string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/gpa/term [get]
func (h *GPAHandler) Term(c *gin.Context) {
	year := c.Query("year")
	semester := c.Query("semester")
	if year == "" || semester == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year and semester are required"))
		return
	}
	term, err := h.gpa.CalculateTermGPA(c.Request.Context(), c.Param("id"), year, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// History godoc
// @Summary List a student's per-term GPA history
// @Tags GPA
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/gpa/history [get]
func (h *GPAHandler) History(c *gin.Context) {
	history, err := h.gpa.GetGPAHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
