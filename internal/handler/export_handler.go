package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-retake-api/internal/dto"
	"github.com/noah-isme/academy-retake-api/internal/models"
	"github.com/noah-isme/academy-retake-api/internal/service"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
	"github.com/noah-isme/academy-retake-api/pkg/response"
)

type exportService interface {
	Generate(ctx context.Context, query dto.RetakeQuery, format service.ExportFormat, actor *models.JWTClaims) (*service.ExportResult, error)
}

// ExportHandler streams rendered retake exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Retakes godoc
// @Summary Download the filtered retake list as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param status query string false "Lifecycle status"
// @Param courseId query string false "Course ID"
// @Success 200 {file} binary
// @Router /exports/retakes [get]
func (h *ExportHandler) Retakes(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	query := retakeQueryFromContext(c)
	result, err := h.service.Generate(c.Request.Context(), query, format, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Payload)
}
