package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/registrar-api/internal/service"
	"github.com/campusworks/registrar-api/pkg/response"
)

// TranscriptHandler exposes transcript endpoints.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
}

// NewTranscriptHandler constructs TranscriptHandler.
func NewTranscriptHandler(transcripts *service.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts}
}

// Get godoc
// @Summary Get a student's transcript
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Param official query bool false "Official transcript"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	transcript, err := h.transcripts.Generate(c.Request.Context(), c.Param("id"), c.Query("official") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// ExportPDF godoc
// @Summary Download a student's transcript as PDF
// @Tags Transcripts
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param official query bool false "Official transcript"
// @Success 200 {file} binary
// @Router /students/{id}/transcript/pdf [get]
func (h *TranscriptHandler) ExportPDF(c *gin.Context) {
	data, err := h.transcripts.RenderPDF(c.Request.Context(), c.Param("id"), c.Query("official") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transcript-%s.pdf", c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", data)
}

// ExportCSV godoc
// @Summary Download a student's transcript as CSV
// @Tags Transcripts
// @Produce text/csv
// @Param id path string true "Student ID"
// @Param official query bool false "Official transcript"
// @Success 200 {file} binary
// @Router /students/{id}/transcript/csv [get]
func (h *TranscriptHandler) ExportCSV(c *gin.Context) {
	data, err := h.transcripts.RenderCSV(c.Request.Context(), c.Param("id"), c.Query("official") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transcript-%s.csv", c.Param("id")))
	c.Data(http.StatusOK, "text/csv", data)
}
