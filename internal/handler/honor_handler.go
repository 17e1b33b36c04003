package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/registrar-api/internal/service"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
	"github.com/campusworks/registrar-api/pkg/response"
)

// HonorHandler exposes academic honor endpoints.
type HonorHandler struct {
	honors *service.HonorService
}

// NewHonorHandler constructs HonorHandler.
func NewHonorHandler(honors *service.HonorService) *HonorHandler {
	return &HonorHandler{honors: honors}
}

// Award godoc
// @Summary Award an academic honor
// @Tags Honors
// @Accept json
// @Produce json
// @Param payload body service.AwardHonorRequest true "Honor payload"
// @Success 201 {object} response.Envelope
// @Router /honors [post]
func (h *HonorHandler) Award(c *gin.Context) {
	var req service.AwardHonorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	honor, err := h.honors.Award(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, honor)
}

// ListByStudent godoc
// @Summary List a student's honors
// @Tags Honors
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/honors [get]
func (h *HonorHandler) ListByStudent(c *gin.Context) {
	honors, err := h.honors.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, honors, nil)
}

// Revoke godoc
// @Summary Revoke an academic honor
// @Tags Honors
// @Produce json
// @Param id path string true "Honor ID"
// @Success 204
// @Router /honors/{id} [delete]
func (h *HonorHandler) Revoke(c *gin.Context) {
	if err := h.honors.Revoke(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
