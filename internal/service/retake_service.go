package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-retake-api/internal/dto"
	"github.com/noah-isme/academy-retake-api/internal/models"
	"github.com/noah-isme/academy-retake-api/internal/repository"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
)

type retakeStore interface {
	CreateBatch(ctx context.Context, academyID string, assignments []*models.RetakeAssignment, entries []*models.RetakeHistoryEntry) error
	FindByID(ctx context.Context, academyID, id string) (*models.RetakeAssignment, error)
	FindDetail(ctx context.Context, academyID, id string) (*models.RetakeAssignmentDetail, error)
	List(ctx context.Context, academyID string, filter models.RetakeFilter) ([]models.RetakeAssignmentDetail, *models.Pagination, error)
	Transition(ctx context.Context, academyID, id string, fn repository.TransitionFunc) (*models.RetakeAssignment, error)
	Undo(ctx context.Context, academyID, id, entryID string, fn repository.UndoFunc) (*models.RetakeAssignment, error)
	Delete(ctx context.Context, academyID, id string) error
}

type retakeHistoryStore interface {
	ListByAssignment(ctx context.Context, academyID, assignmentID string) ([]models.RetakeHistoryEntry, error)
	ListRecent(ctx context.Context, academyID string, limit int) ([]models.RetakeActivityEntry, error)
}

// managementStatusCatalog resolves the tenant's current label names.
type managementStatusCatalog interface {
	NameSet(ctx context.Context, academyID string) (map[string]struct{}, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RetakeService owns the retake assignment state machine. Every transition is
// one atomic unit in the store: read the locked current row, validate, write
// the assignment mutation plus exactly one history entry.
type RetakeService struct {
	repo      retakeStore
	history   retakeHistoryStore
	catalog   managementStatusCatalog
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// RetakeServiceParams groups constructor dependencies.
type RetakeServiceParams struct {
	Repo      retakeStore
	History   retakeHistoryStore
	Catalog   managementStatusCatalog
	Audit     auditLogger
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewRetakeService constructs the service.
func NewRetakeService(params RetakeServiceParams) *RetakeService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &RetakeService{
		repo:      params.Repo,
		history:   params.History,
		catalog:   params.Catalog,
		audit:     params.Audit,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
		now:       params.Now,
	}
}

// Assign bulk-creates one pending assignment per student. Duplicate
// (exam, student) pairs reject the whole batch with a conflict.
func (s *RetakeService) Assign(ctx context.Context, req dto.AssignRetakesRequest, actor *models.JWTClaims) ([]models.RetakeAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assign payload")
	}
	scheduledDate, err := dto.ParseDate(req.ScheduledDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduledDate must be YYYY-MM-DD")
	}

	assignments := make([]*models.RetakeAssignment, len(req.StudentIDs))
	entries := make([]*models.RetakeHistoryEntry, len(req.StudentIDs))
	date := scheduledDate
	for i, studentID := range req.StudentIDs {
		assignments[i] = &models.RetakeAssignment{
			ExamID:        req.ExamID,
			StudentID:     studentID,
			Status:        models.RetakeStatusPending,
			ScheduledDate: &date,
		}
		entries[i] = &models.RetakeHistoryEntry{
			ActionType:  models.RetakeActionAssign,
			NewDate:     &date,
			PerformedBy: actorID(actor),
		}
	}

	if err := s.repo.CreateBatch(ctx, actor.AcademyID, assignments, entries); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam or student not found")
		case errors.Is(err, repository.ErrDuplicateAssignment):
			return nil, appErrors.Clone(appErrors.ErrConflict, "retake already assigned for this exam and student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create retake assignments")
	}

	s.observe(models.RetakeActionAssign)
	results := make([]models.RetakeAssignment, len(assignments))
	for i, a := range assignments {
		results[i] = *a
		s.emitAudit(ctx, actor, models.AuditActionRetakeMutation, a.ID, map[string]interface{}{
			"operation":     "assign",
			"examId":        a.ExamID,
			"studentId":     a.StudentID,
			"scheduledDate": req.ScheduledDate,
		})
	}
	return results, nil
}

// Postpone reschedules an assignment. The status always resets to pending,
// even from completed or absent: a postpone is a rescheduling override.
func (s *RetakeService) Postpone(ctx context.Context, id string, req dto.PostponeRetakeRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid postpone payload")
	}
	newDate, err := dto.ParseDate(req.NewDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "newDate must be YYYY-MM-DD")
	}

	updated, err := s.repo.Transition(ctx, actor.AcademyID, id, func(current *models.RetakeAssignment) (*repository.RetakePatch, *models.RetakeHistoryEntry, error) {
		pending := models.RetakeStatusPending
		previousStatus := current.Status
		patch := &repository.RetakePatch{
			Status:           &pending,
			SetScheduledDate: true,
			ScheduledDate:    &newDate,
			PostponeDelta:    1,
		}
		entry := &models.RetakeHistoryEntry{
			ActionType:     models.RetakeActionPostpone,
			PreviousDate:   current.ScheduledDate,
			NewDate:        &newDate,
			PreviousStatus: &previousStatus,
			NewStatus:      &pending,
			Note:           optionalString(req.Note),
			PerformedBy:    actorID(actor),
		}
		return patch, entry, nil
	})
	if err != nil {
		return nil, s.storeError(err, "failed to postpone retake")
	}

	s.observe(models.RetakeActionPostpone)
	s.emitAudit(ctx, actor, models.AuditActionRetakeMutation, id, map[string]interface{}{
		"operation": "postpone",
		"newDate":   req.NewDate,
	})
	return updated, nil
}

// MarkAbsent flags the student absent for the scheduled retake.
func (s *RetakeService) MarkAbsent(ctx context.Context, id string, req dto.MarkAbsentRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error) {
	updated, err := s.repo.Transition(ctx, actor.AcademyID, id, func(current *models.RetakeAssignment) (*repository.RetakePatch, *models.RetakeHistoryEntry, error) {
		absent := models.RetakeStatusAbsent
		patch := &repository.RetakePatch{
			Status:      &absent,
			AbsentDelta: 1,
		}
		entry := &models.RetakeHistoryEntry{
			ActionType:   models.RetakeActionAbsent,
			PreviousDate: current.ScheduledDate,
			Note:         optionalString(req.Note),
			PerformedBy:  actorID(actor),
		}
		return patch, entry, nil
	})
	if err != nil {
		return nil, s.storeError(err, "failed to mark retake absent")
	}

	s.observe(models.RetakeActionAbsent)
	s.emitAudit(ctx, actor, models.AuditActionRetakeMutation, id, map[string]interface{}{"operation": "absent"})
	return updated, nil
}

// Complete marks the remediation done. The scheduled date is overwritten with
// today: the row records when the retake actually happened, not when it was
// due.
func (s *RetakeService) Complete(ctx context.Context, id string, req dto.CompleteRetakeRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error) {
	today := s.today()
	updated, err := s.repo.Transition(ctx, actor.AcademyID, id, func(current *models.RetakeAssignment) (*repository.RetakePatch, *models.RetakeHistoryEntry, error) {
		completed := models.RetakeStatusCompleted
		previousStatus := current.Status
		patch := &repository.RetakePatch{
			Status:           &completed,
			SetScheduledDate: true,
			ScheduledDate:    &today,
		}
		entry := &models.RetakeHistoryEntry{
			ActionType:     models.RetakeActionComplete,
			PreviousDate:   current.ScheduledDate,
			NewDate:        &today,
			PreviousStatus: &previousStatus,
			NewStatus:      &completed,
			Note:           optionalString(req.Note),
			PerformedBy:    actorID(actor),
		}
		return patch, entry, nil
	})
	if err != nil {
		return nil, s.storeError(err, "failed to complete retake")
	}

	s.observe(models.RetakeActionComplete)
	s.emitAudit(ctx, actor, models.AuditActionRetakeMutation, id, map[string]interface{}{"operation": "complete"})
	return updated, nil
}

// EditDate corrects the scheduled date without counting a postpone and
// without touching the status. A no-op edit is rejected so an accidental
// duplicate submission never produces a bogus history entry.
func (s *RetakeService) EditDate(ctx context.Context, id string, req dto.EditDateRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date edit payload")
	}
	newDate, err := dto.ParseDate(req.NewDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "newDate must be YYYY-MM-DD")
	}

	updated, err := s.repo.Transition(ctx, actor.AcademyID, id, func(current *models.RetakeAssignment) (*repository.RetakePatch, *models.RetakeHistoryEntry, error) {
		if sameDate(current.ScheduledDate, &newDate) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "scheduled date is unchanged")
		}
		patch := &repository.RetakePatch{
			SetScheduledDate: true,
			ScheduledDate:    &newDate,
		}
		entry := &models.RetakeHistoryEntry{
			ActionType:   models.RetakeActionDateEdit,
			PreviousDate: current.ScheduledDate,
			NewDate:      &newDate,
			PerformedBy:  actorID(actor),
		}
		return patch, entry, nil
	})
	if err != nil {
		return nil, s.storeError(err, "failed to edit retake date")
	}

	s.observe(models.RetakeActionDateEdit)
	s.emitAudit(ctx, actor, models.AuditActionRetakeMutation, id, map[string]interface{}{
		"operation": "date_edit",
		"newDate":   req.NewDate,
	})
	return updated, nil
}

// ChangeStatus sets an explicit lifecycle status. Any status is reachable
// from any status through this operation; only the value itself is checked.
func (s *RetakeService) ChangeStatus(ctx context.Context, id string, req dto.ChangeStatusRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error) {
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be PENDING, COMPLETED, or ABSENT")
	}

	updated, err := s.repo.Transition(ctx, actor.AcademyID, id, func(current *models.RetakeAssignment) (*repository.RetakePatch, *models.RetakeHistoryEntry, error) {
		newStatus := req.Status
		previousStatus := current.Status
		patch := &repository.RetakePatch{Status: &newStatus}
		entry := &models.RetakeHistoryEntry{
			ActionType:     models.RetakeActionStatusChange,
			PreviousStatus: &previousStatus,
			NewStatus:      &newStatus,
			Note:           optionalString(req.Note),
			PerformedBy:    actorID(actor),
		}
		return patch, entry, nil
	})
	if err != nil {
		return nil, s.storeError(err, "failed to change retake status")
	}

	s.observe(models.RetakeActionStatusChange)
	s.emitAudit(ctx, actor, models.AuditActionRetakeMutation, id, map[string]interface{}{
		"operation": "status_change",
		"status":    string(req.Status),
	})
	return updated, nil
}

// ChangeManagementStatus sets the free-text management label after checking
// it against the tenant's current catalog. The label is stored by name, so a
// later catalog edit never rewrites assignments that already carry it.
func (s *RetakeService) ChangeManagementStatus(ctx context.Context, id string, req dto.ChangeManagementStatusRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid management status payload")
	}

	names, err := s.catalog.NameSet(ctx, actor.AcademyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status catalog")
	}
	if _, ok := names[req.ManagementStatus]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "managementStatus is not in the academy catalog")
	}

	updated, err := s.repo.Transition(ctx, actor.AcademyID, id, func(current *models.RetakeAssignment) (*repository.RetakePatch, *models.RetakeHistoryEntry, error) {
		label := req.ManagementStatus
		patch := &repository.RetakePatch{
			SetManagementStatus: true,
			ManagementStatus:    &label,
		}
		entry := &models.RetakeHistoryEntry{
			ActionType:               models.RetakeActionManagementStatusChange,
			PreviousManagementStatus: current.ManagementStatus,
			NewManagementStatus:      &label,
			PerformedBy:              actorID(actor),
		}
		return patch, entry, nil
	})
	if err != nil {
		return nil, s.storeError(err, "failed to change management status")
	}

	s.observe(models.RetakeActionManagementStatusChange)
	s.emitAudit(ctx, actor, models.AuditActionRetakeMutation, id, map[string]interface{}{
		"operation":        "management_status_change",
		"managementStatus": req.ManagementStatus,
	})
	return updated, nil
}

// Undo reverts the single most recent history entry. The store re-checks
// "still the latest" under the assignment lock, inside the transaction that
// applies the reversal and deletes the entry.
func (s *RetakeService) Undo(ctx context.Context, id string, req dto.UndoRetakeRequest, actor *models.JWTClaims) (*models.RetakeAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid undo payload")
	}

	var undoneAction models.RetakeActionType
	updated, err := s.repo.Undo(ctx, actor.AcademyID, id, req.HistoryEntryID, func(current *models.RetakeAssignment, latest *models.RetakeHistoryEntry) (*repository.RetakePatch, error) {
		patch, err := reversalPatch(latest)
		if err != nil {
			return nil, err
		}
		if patch.Empty() {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "nothing to undo")
		}
		undoneAction = latest.ActionType
		return patch, nil
	})
	if err != nil {
		return nil, s.storeError(err, "failed to undo retake action")
	}

	if s.metrics != nil {
		s.metrics.ObserveRetakeUndo(string(undoneAction))
	}
	s.emitAudit(ctx, actor, models.AuditActionRetakeUndo, id, map[string]interface{}{
		"historyEntryId": req.HistoryEntryID,
		"actionType":     string(undoneAction),
	})
	return updated, nil
}

// reversalPatch maps a history entry to the field restores that revert it.
func reversalPatch(entry *models.RetakeHistoryEntry) (*repository.RetakePatch, error) {
	pending := models.RetakeStatusPending
	switch entry.ActionType {
	case models.RetakeActionPostpone:
		patch := &repository.RetakePatch{
			SetScheduledDate: true,
			ScheduledDate:    entry.PreviousDate,
			PostponeDelta:    -1,
		}
		if entry.PreviousStatus != nil {
			status := *entry.PreviousStatus
			patch.Status = &status
		}
		return patch, nil
	case models.RetakeActionDateEdit:
		return &repository.RetakePatch{
			SetScheduledDate: true,
			ScheduledDate:    entry.PreviousDate,
		}, nil
	case models.RetakeActionAbsent:
		return &repository.RetakePatch{
			Status:      &pending,
			AbsentDelta: -1,
		}, nil
	case models.RetakeActionComplete:
		// The completion-date overwrite stays; the prior scheduled date was
		// already captured by whatever action preceded it.
		return &repository.RetakePatch{Status: &pending}, nil
	case models.RetakeActionStatusChange:
		if entry.PreviousStatus == nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "history entry has no previous status to restore")
		}
		status := *entry.PreviousStatus
		return &repository.RetakePatch{Status: &status}, nil
	case models.RetakeActionManagementStatusChange:
		if entry.PreviousManagementStatus == nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "history entry has no previous management status to restore")
		}
		label := *entry.PreviousManagementStatus
		return &repository.RetakePatch{
			SetManagementStatus: true,
			ManagementStatus:    &label,
		}, nil
	case models.RetakeActionAssign:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "assignment creation cannot be undone; delete the assignment instead")
	}
	return nil, appErrors.Clone(appErrors.ErrInvalidState, "unknown history action type")
}

// Get returns one assignment with exam/student context.
func (s *RetakeService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RetakeAssignmentDetail, error) {
	detail, err := s.repo.FindDetail(ctx, actor.AcademyID, id)
	if err != nil {
		return nil, s.storeError(err, "failed to load retake assignment")
	}
	return detail, nil
}

// List returns assignments matching the query filters.
func (s *RetakeService) List(ctx context.Context, query dto.RetakeQuery, actor *models.JWTClaims) ([]models.RetakeAssignmentDetail, *models.Pagination, error) {
	filter, err := buildRetakeFilter(query)
	if err != nil {
		return nil, nil, err
	}
	items, pagination, err := s.repo.List(ctx, actor.AcademyID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list retake assignments")
	}
	return items, pagination, nil
}

// History returns the full trail for one assignment, newest first.
func (s *RetakeService) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.RetakeHistoryEntry, error) {
	// Resolve the assignment first so a cross-tenant id reads as absent.
	if _, err := s.repo.FindByID(ctx, actor.AcademyID, id); err != nil {
		return nil, s.storeError(err, "failed to load retake assignment")
	}
	entries, err := s.history.ListByAssignment(ctx, actor.AcademyID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load retake history")
	}
	return entries, nil
}

// ActivityFeed returns the newest history entries across the academy.
func (s *RetakeService) ActivityFeed(ctx context.Context, limit int, actor *models.JWTClaims) ([]models.RetakeActivityEntry, error) {
	entries, err := s.history.ListRecent(ctx, actor.AcademyID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load retake activity")
	}
	return entries, nil
}

// Delete removes an assignment and its trail. This is the removal path for
// assignments whose creation cannot be undone.
func (s *RetakeService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := s.repo.Delete(ctx, actor.AcademyID, id); err != nil {
		return s.storeError(err, "failed to delete retake assignment")
	}
	s.emitAudit(ctx, actor, models.AuditActionRetakeMutation, id, map[string]interface{}{"operation": "delete"})
	return nil
}

func (s *RetakeService) storeError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "retake assignment not found")
	case errors.Is(err, repository.ErrDuplicateAssignment):
		return appErrors.Clone(appErrors.ErrConflict, "retake already assigned for this exam and student")
	case errors.Is(err, repository.ErrEmptyHistory):
		return appErrors.Clone(appErrors.ErrInvalidState, "assignment has no actions to undo")
	case errors.Is(err, repository.ErrStaleHistoryEntry):
		return appErrors.Clone(appErrors.ErrInvalidState, "only the most recent action can be undone")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *RetakeService) observe(action models.RetakeActionType) {
	if s.metrics != nil {
		s.metrics.ObserveRetakeTransition(string(action))
	}
}

func (s *RetakeService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, resourceID string, payload map[string]interface{}) {
	if s.audit == nil {
		return
	}
	id := resourceID
	log := &models.AuditLog{
		UserID:     actorID(actor),
		Action:     action,
		Resource:   "retake_assignment",
		ResourceID: &id,
		NewValues:  mustJSON(payload),
		IPAddress:  "system",
		UserAgent:  "retake-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *RetakeService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func buildRetakeFilter(query dto.RetakeQuery) (models.RetakeFilter, error) {
	filter := models.RetakeFilter{
		CourseID:  query.CourseID,
		ExamID:    query.ExamID,
		StudentID: query.StudentID,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.From != "" {
		from, err := dto.ParseDate(query.From)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := dto.ParseDate(query.To)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
		}
		filter.To = &to
	}
	if query.Status != "" {
		status := models.RetakeStatus(query.Status)
		if !status.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "status must be PENDING, COMPLETED, or ABSENT")
		}
		filter.Status = status
	}
	return filter, nil
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func actorID(actor *models.JWTClaims) *string {
	if actor == nil || actor.UserID == "" {
		return nil
	}
	id := actor.UserID
	return &id
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	v := value
	return &v
}
