package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-retake-api/internal/dto"
	"github.com/noah-isme/academy-retake-api/internal/models"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
	"github.com/noah-isme/academy-retake-api/pkg/response"
)

type statusLabelService interface {
	List(ctx context.Context, actor *models.JWTClaims) ([]models.StatusLabel, error)
	Create(ctx context.Context, req dto.CreateStatusLabelRequest, actor *models.JWTClaims) (*models.StatusLabel, error)
	Update(ctx context.Context, id string, req dto.UpdateStatusLabelRequest, actor *models.JWTClaims) (*models.StatusLabel, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// StatusLabelHandler exposes the management status catalog endpoints.
type StatusLabelHandler struct {
	service statusLabelService
}

// NewStatusLabelHandler constructs the handler.
func NewStatusLabelHandler(service statusLabelService) *StatusLabelHandler {
	return &StatusLabelHandler{service: service}
}

// List godoc
// @Summary List the academy's status labels
// @Tags StatusLabels
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status-labels [get]
func (h *StatusLabelHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	labels, err := h.service.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, labels, nil)
}

// Create godoc
// @Summary Create a status label
// @Tags StatusLabels
// @Accept json
// @Produce json
// @Param payload body dto.CreateStatusLabelRequest true "Label payload"
// @Success 201 {object} response.Envelope
// @Router /status-labels [post]
func (h *StatusLabelHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateStatusLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid label payload"))
		return
	}
	label, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, label, nil)
}

// Update godoc
// @Summary Update a status label
// @Tags StatusLabels
// @Accept json
// @Produce json
// @Param id path string true "Label ID"
// @Param payload body dto.UpdateStatusLabelRequest true "Label payload"
// @Success 200 {object} response.Envelope
// @Router /status-labels/{id} [patch]
func (h *StatusLabelHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateStatusLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid label payload"))
		return
	}
	label, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, label, nil)
}

// Delete godoc
// @Summary Delete a status label
// @Tags StatusLabels
// @Produce json
// @Param id path string true "Label ID"
// @Success 200 {object} response.Envelope
// @Router /status-labels/{id} [delete]
func (h *StatusLabelHandler) Delete(c *gin.Context) {
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
