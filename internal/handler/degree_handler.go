package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/registrar-api/internal/service"
	"github.com/campusworks/registrar-api/pkg/response"
)

// DegreeHandler exposes degree audit endpoints.
type DegreeHandler struct {
	degrees *service.DegreeService
}

// NewDegreeHandler constructs DegreeHandler.
func NewDegreeHandler(degrees *service.DegreeService) *DegreeHandler {
	return &DegreeHandler{degrees: degrees}
}

// Audit godoc
// @Summary Run a degree audit for a student
// @Tags Degree
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/degree-audit [post]
func (h *DegreeHandler) Audit(c *gin.Context) {
	progress, err := h.degrees.Audit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Progress godoc
// @Summary Get the latest degree progress snapshot
// @Tags Degree
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/degree-progress [get]
func (h *DegreeHandler) Progress(c *gin.Context) {
	progress, err := h.degrees.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// GraduationEligibility godoc
// @Summary Check a student's graduation eligibility
// @Tags Degree
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/graduation-eligibility [get]
func (h *DegreeHandler) GraduationEligibility(c *gin.Context) {
	eligibility, err := h.degrees.CheckGraduationEligibility(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eligibility, nil)
}
