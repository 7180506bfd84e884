package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-retake-api/internal/dto"
	"github.com/noah-isme/academy-retake-api/internal/models"
	"github.com/noah-isme/academy-retake-api/internal/repository"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
)

type statusLabelStore interface {
	List(ctx context.Context, academyID string) ([]models.StatusLabel, error)
	ListNames(ctx context.Context, academyID string) ([]string, error)
	FindByID(ctx context.Context, academyID, id string) (*models.StatusLabel, error)
	Create(ctx context.Context, label *models.StatusLabel) error
	Update(ctx context.Context, academyID, id string, params repository.UpdateStatusLabelParams) error
	Delete(ctx context.Context, academyID, id string) error
}

// StatusLabelService manages each academy's management status catalog. The
// name set is cached per academy and invalidated on every catalog write.
type StatusLabelService struct {
	repo      statusLabelStore
	cache     *CacheService
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewStatusLabelService constructs the service.
func NewStatusLabelService(repo statusLabelStore, cache *CacheService, audit auditLogger, v *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *StatusLabelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if v == nil {
		v = validator.New()
	}
	return &StatusLabelService{repo: repo, cache: cache, audit: audit, validator: v, logger: logger, cacheTTL: cacheTTL}
}

func statusLabelCacheKey(academyID string) string {
	return fmt.Sprintf("status_labels:%s:names", academyID)
}

// List returns the academy's labels ordered for display.
func (s *StatusLabelService) List(ctx context.Context, actor *models.JWTClaims) ([]models.StatusLabel, error) {
	labels, err := s.repo.List(ctx, actor.AcademyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list status labels")
	}
	return labels, nil
}

// NameSet returns the academy's label names as a lookup set.
func (s *StatusLabelService) NameSet(ctx context.Context, academyID string) (map[string]struct{}, error) {
	key := statusLabelCacheKey(academyID)
	var names []string
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &names); err == nil && hit {
			return toNameSet(names), nil
		}
	}

	names, err := s.repo.ListNames(ctx, academyID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, names, s.cacheTTL); err != nil {
			s.logger.Debug("status label cache write failed", zap.Error(err))
		}
	}
	return toNameSet(names), nil
}

// Create adds a label to the academy catalog.
func (s *StatusLabelService) Create(ctx context.Context, req dto.CreateStatusLabelRequest, actor *models.JWTClaims) (*models.StatusLabel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status label payload")
	}

	label := &models.StatusLabel{
		AcademyID:    actor.AcademyID,
		Name:         req.Name,
		DisplayOrder: req.DisplayOrder,
		Color:        req.Color,
	}
	if err := s.repo.Create(ctx, label); err != nil {
		if errors.Is(err, repository.ErrDuplicateLabel) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a status label with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create status label")
	}

	s.invalidate(ctx, actor.AcademyID)
	s.emitAudit(ctx, actor, label.ID, map[string]interface{}{"operation": "create", "name": label.Name})
	return label, nil
}

// Update modifies a label. Renaming a label does not rewrite assignments that
// already carry the old name.
func (s *StatusLabelService) Update(ctx context.Context, id string, req dto.UpdateStatusLabelRequest, actor *models.JWTClaims) (*models.StatusLabel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status label payload")
	}
	if req.Name == nil && req.DisplayOrder == nil && req.Color == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}

	err := s.repo.Update(ctx, actor.AcademyID, id, repository.UpdateStatusLabelParams{
		Name:         req.Name,
		DisplayOrder: req.DisplayOrder,
		Color:        req.Color,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status label not found")
		case errors.Is(err, repository.ErrDuplicateLabel):
			return nil, appErrors.Clone(appErrors.ErrConflict, "a status label with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status label")
	}

	label, err := s.repo.FindByID(ctx, actor.AcademyID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload status label")
	}

	s.invalidate(ctx, actor.AcademyID)
	s.emitAudit(ctx, actor, id, map[string]interface{}{"operation": "update"})
	return label, nil
}

// Delete removes a label from the catalog. Assignments keep any name they
// already carry.
func (s *StatusLabelService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := s.repo.Delete(ctx, actor.AcademyID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "status label not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete status label")
	}

	s.invalidate(ctx, actor.AcademyID)
	s.emitAudit(ctx, actor, id, map[string]interface{}{"operation": "delete"})
	return nil
}

func (s *StatusLabelService) invalidate(ctx context.Context, academyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, statusLabelCacheKey(academyID)); err != nil {
		s.logger.Debug("status label cache invalidate failed", zap.Error(err))
	}
}

func (s *StatusLabelService) emitAudit(ctx context.Context, actor *models.JWTClaims, resourceID string, payload map[string]interface{}) {
	if s.audit == nil {
		return
	}
	id := resourceID
	log := &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionLabelMutation,
		Resource:   "status_label",
		ResourceID: &id,
		NewValues:  mustJSON(payload),
		IPAddress:  "system",
		UserAgent:  "status-label-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func mustJSON(payload map[string]interface{}) []byte {
	body, _ := json.Marshal(payload)
	return body
}

func toNameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
