package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-retake-api/internal/models"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
	"github.com/noah-isme/academy-retake-api/pkg/response"
)

type calendarService interface {
	Range(ctx context.Context, from, to string, actor *models.JWTClaims) ([]models.RetakeCalendarDay, error)
}

// CalendarHandler serves the date-bucketed retake view.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// Retakes godoc
// @Summary Retakes grouped by scheduled date
// @Tags Calendar
// @Produce json
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /calendar/retakes [get]
func (h *CalendarHandler) Retakes(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from and to are required"))
		return
	}
	days, err := h.service.Range(c.Request.Context(), from, to, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}
