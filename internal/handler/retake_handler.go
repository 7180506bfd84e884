package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-retake-api/internal/dto"
	"github.com/noah-isme/academy-retake-api/internal/models"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
	"github.com/noah-isme/academy-retake-api/pkg/response"
)

type retakeService interface {
	Assign(ctx context.Context, req dto.AssignRetakesRequest, actor *models.JWTClaims) ([]models.RetakeAssignment, error)
	Postpone(ctx context.Context, id string, req dto.PostponeRetakeRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error)
	MarkAbsent(ctx context.Context, id string, req dto.MarkAbsentRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error)
	Complete(ctx context.Context, id string, req dto.CompleteRetakeRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error)
	EditDate(ctx context.Context, id string, req dto.EditDateRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error)
	ChangeStatus(ctx context.Context, id string, req dto.ChangeStatusRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error)
	ChangeManagementStatus(ctx context.Context, id string, req dto.ChangeManagementStatusRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error)
	Undo(ctx context.Context, id string, req dto.UndoRetakeRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RetakeAssignmentDetail, error)
	List(ctx context.Context, query dto.RetakeQuery, actor *models.JWTClaims) ([]models.RetakeAssignmentDetail, *models.Pagination, error)
	History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.RetakeHistoryEntry, error)
	ActivityFeed(ctx context.Context, limit int, actor *models.JWTClaims) ([]models.RetakeActivityEntry, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// RetakeHandler exposes REST endpoints for the retake assignment lifecycle.
type RetakeHandler struct {
	service retakeService
}

// NewRetakeHandler constructs the handler.
func NewRetakeHandler(service retakeService) *RetakeHandler {
	return &RetakeHandler{service: service}
}

// Assign godoc
// @Summary Assign retakes to students for an exam
// @Tags Retakes
// @Accept json
// @Produce json
// @Param payload body dto.AssignRetakesRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /retakes/assign [post]
func (h *RetakeHandler) Assign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AssignRetakesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assign payload"))
		return
	}
	assignments, err := h.service.Assign(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, assignments, nil)
}

// Postpone godoc
// @Summary Postpone a retake to a new date
// @Tags Retakes
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.PostponeRetakeRequest true "Postpone payload"
// @Success 200 {object} response.Envelope
// @Router /retakes/{id}/postpone [post]
func (h *RetakeHandler) Postpone(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.PostponeRetakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid postpone payload"))
		return
	}
	assignment, err := h.service.Postpone(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// MarkAbsent godoc
// @Summary Mark a student absent for a retake
// @Tags Retakes
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.MarkAbsentRequest false "Absence note"
// @Success 200 {object} response.Envelope
// @Router /retakes/{id}/absent [post]
func (h *RetakeHandler) MarkAbsent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.MarkAbsentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid absent payload"))
			return
		}
	}
	assignment, err := h.service.MarkAbsent(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Complete godoc
// @Summary Complete a retake
// @Tags Retakes
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.CompleteRetakeRequest false "Completion note"
// @Success 200 {object} response.Envelope
// @Router /retakes/{id}/complete [post]
func (h *RetakeHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CompleteRetakeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid complete payload"))
			return
		}
	}
	assignment, err := h.service.Complete(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// EditDate godoc
// @Summary Correct the scheduled date without counting a postpone
// @Tags Retakes
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.EditDateRequest true "New date"
// @Success 200 {object} response.Envelope
// @Router /retakes/{id}/date [patch]
func (h *RetakeHandler) EditDate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.EditDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date payload"))
		return
	}
	assignment, err := h.service.EditDate(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// ChangeStatus godoc
// @Summary Set the lifecycle status directly
// @Tags Retakes
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.ChangeStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /retakes/{id}/status [patch]
func (h *RetakeHandler) ChangeStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}
	req.Status = models.RetakeStatus(strings.ToUpper(string(req.Status)))
	assignment, err := h.service.ChangeStatus(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// ChangeManagementStatus godoc
// @Summary Set the management status label
// @Tags Retakes
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.ChangeManagementStatusRequest true "Label payload"
// @Success 200 {object} response.Envelope
// @Router /retakes/{id}/management-status [patch]
func (h *RetakeHandler) ChangeManagementStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ChangeManagementStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid management status payload"))
		return
	}
	assignment, err := h.service.ChangeManagementStatus(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Undo godoc
// @Summary Undo the most recent history entry
// @Tags Retakes
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UndoRetakeRequest true "Undo payload"
// @Success 200 {object} response.Envelope
// @Router /retakes/{id}/undo [post]
func (h *RetakeHandler) Undo(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UndoRetakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid undo payload"))
		return
	}
	assignment, err := h.service.Undo(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Get godoc
// @Summary Get one retake assignment
// @Tags Retakes
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /retakes/{id} [get]
func (h *RetakeHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// List godoc
// @Summary List retake assignments
// @Tags Retakes
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param status query string false "Lifecycle status"
// @Param courseId query string false "Course ID"
// @Param examId query string false "Exam ID"
// @Param studentId query string false "Student ID"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /retakes [get]
func (h *RetakeHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := retakeQueryFromContext(c)
	items, pagination, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// History godoc
// @Summary Get the history trail for an assignment
// @Tags Retakes
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /retakes/{id}/history [get]
func (h *RetakeHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.service.History(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Activity godoc
// @Summary Recent retake activity across the academy
// @Tags Retakes
// @Produce json
// @Param limit query int false "Max entries (default 50)"
// @Success 200 {object} response.Envelope
// @Router /retakes/activity [get]
func (h *RetakeHandler) Activity(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	entries, err := h.service.ActivityFeed(c.Request.Context(), limit, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Delete godoc
// @Summary Delete a retake assignment and its history
// @Tags Retakes
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /retakes/{id} [delete]
func (h *RetakeHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

func retakeQueryFromContext(c *gin.Context) dto.RetakeQuery {
	query := dto.RetakeQuery{
		From:      strings.TrimSpace(c.Query("from")),
		To:        strings.TrimSpace(c.Query("to")),
		Status:    strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		CourseID:  strings.TrimSpace(c.Query("courseId")),
		ExamID:    strings.TrimSpace(c.Query("examId")),
		StudentID: strings.TrimSpace(c.Query("studentId")),
	}
	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			query.Page = parsed
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed <= 200 {
			query.PageSize = parsed
		}
	}
	return query
}
