package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-retake-api/internal/dto"
	"github.com/noah-isme/academy-retake-api/internal/middleware"
	"github.com/noah-isme/academy-retake-api/internal/models"
	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
)

type retakeServiceMock struct {
	assignment *models.RetakeAssignment
	undoErr    error
	lastQuery  dto.RetakeQuery
	lastStatus models.RetakeStatus
	absentReq  dto.MarkAbsentRequest
}

func (m *retakeServiceMock) Assign(context.Context, dto.AssignRetakesRequest, *models.JWTClaims) ([]models.RetakeAssignment, error) {
	return []models.RetakeAssignment{*m.assignment}, nil
}

func (m *retakeServiceMock) Postpone(context.Context, string, dto.PostponeRetakeRequest, *models.JWTClaims) (*models.RetakeAssignment, error) {
	return m.assignment, nil
}

func (m *retakeServiceMock) MarkAbsent(_ context.Context, _ string, req dto.MarkAbsentRequest, _ *models.JWTClaims) (*models.RetakeAssignment, error) {
	m.absentReq = req
	return m.assignment, nil
}

func (m *retakeServiceMock) Complete(context.Context, string, dto.CompleteRetakeRequest, *models.JWTClaims) (*models.RetakeAssignment, error) {
	return m.assignment, nil
}

func (m *retakeServiceMock) EditDate(context.Context, string, dto.EditDateRequest, *models.JWTClaims) (*models.RetakeAssignment, error) {
	return m.assignment, nil
}

func (m *retakeServiceMock) ChangeStatus(_ context.Context, _ string, req dto.ChangeStatusRequest, _ *models.JWTClaims) (*models.RetakeAssignment, error) {
	m.lastStatus = req.Status
	return m.assignment, nil
}

func (m *retakeServiceMock) ChangeManagementStatus(context.Context, string, dto.ChangeManagementStatusRequest, *models.JWTClaims) (*models.RetakeAssignment, error) {
	return m.assignment, nil
}

func (m *retakeServiceMock) Undo(context.Context, string, dto.UndoRetakeRequest, *models.JWTClaims) (*models.RetakeAssignment, error) {
	if m.undoErr != nil {
		return nil, m.undoErr
	}
	return m.assignment, nil
}

func (m *retakeServiceMock) Get(context.Context, string, *models.JWTClaims) (*models.RetakeAssignmentDetail, error) {
	return &models.RetakeAssignmentDetail{RetakeAssignment: *m.assignment}, nil
}

func (m *retakeServiceMock) List(_ context.Context, query dto.RetakeQuery, _ *models.JWTClaims) ([]models.RetakeAssignmentDetail, *models.Pagination, error) {
	m.lastQuery = query
	return nil, &models.Pagination{Page: 1, PageSize: 50}, nil
}

func (m *retakeServiceMock) History(context.Context, string, *models.JWTClaims) ([]models.RetakeHistoryEntry, error) {
	return []models.RetakeHistoryEntry{}, nil
}

func (m *retakeServiceMock) ActivityFeed(context.Context, int, *models.JWTClaims) ([]models.RetakeActivityEntry, error) {
	return []models.RetakeActivityEntry{}, nil
}

func (m *retakeServiceMock) Delete(context.Context, string, *models.JWTClaims) error {
	return nil
}

func newRetakeTestContext(t *testing.T, method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", AcademyID: "acad-1", Role: models.RoleStaff}
}

func TestRetakeHandlerAssignRequiresAuth(t *testing.T) {
	handler := NewRetakeHandler(&retakeServiceMock{assignment: &models.RetakeAssignment{ID: "ret-1"}})
	body, _ := json.Marshal(dto.AssignRetakesRequest{ExamID: "exam-1", StudentIDs: []string{"student-1"}, ScheduledDate: "2026-09-10"})
	c, w := newRetakeTestContext(t, http.MethodPost, "/retakes/assign", body, nil)

	handler.Assign(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRetakeHandlerAssignCreated(t *testing.T) {
	handler := NewRetakeHandler(&retakeServiceMock{assignment: &models.RetakeAssignment{ID: "ret-1"}})
	body, _ := json.Marshal(dto.AssignRetakesRequest{ExamID: "exam-1", StudentIDs: []string{"student-1"}, ScheduledDate: "2026-09-10"})
	c, w := newRetakeTestContext(t, http.MethodPost, "/retakes/assign", body, staffClaims())

	handler.Assign(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestRetakeHandlerPostponeInvalidBody(t *testing.T) {
	handler := NewRetakeHandler(&retakeServiceMock{assignment: &models.RetakeAssignment{ID: "ret-1"}})
	c, w := newRetakeTestContext(t, http.MethodPost, "/retakes/ret-1/postpone", []byte(`invalid`), staffClaims())
	c.Params = gin.Params{{Key: "id", Value: "ret-1"}}

	handler.Postpone(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetakeHandlerMarkAbsentAllowsEmptyBody(t *testing.T) {
	mock := &retakeServiceMock{assignment: &models.RetakeAssignment{ID: "ret-1", Status: models.RetakeStatusAbsent}}
	handler := NewRetakeHandler(mock)
	c, w := newRetakeTestContext(t, http.MethodPost, "/retakes/ret-1/absent", nil, staffClaims())
	c.Params = gin.Params{{Key: "id", Value: "ret-1"}}

	handler.MarkAbsent(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, mock.absentReq.Note)
}

func TestRetakeHandlerChangeStatusUppercases(t *testing.T) {
	mock := &retakeServiceMock{assignment: &models.RetakeAssignment{ID: "ret-1"}}
	handler := NewRetakeHandler(mock)
	c, w := newRetakeTestContext(t, http.MethodPatch, "/retakes/ret-1/status", []byte(`{"status":"completed"}`), staffClaims())
	c.Params = gin.Params{{Key: "id", Value: "ret-1"}}

	handler.ChangeStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.RetakeStatusCompleted, mock.lastStatus)
}

func TestRetakeHandlerUndoMapsInvalidState(t *testing.T) {
	mock := &retakeServiceMock{
		assignment: &models.RetakeAssignment{ID: "ret-1"},
		undoErr:    appErrors.Clone(appErrors.ErrInvalidState, "only the most recent action can be undone"),
	}
	handler := NewRetakeHandler(mock)
	body, _ := json.Marshal(dto.UndoRetakeRequest{HistoryEntryID: "hist-1"})
	c, w := newRetakeTestContext(t, http.MethodPost, "/retakes/ret-1/undo", body, staffClaims())
	c.Params = gin.Params{{Key: "id", Value: "ret-1"}}

	handler.Undo(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRetakeHandlerListNormalizesQuery(t *testing.T) {
	mock := &retakeServiceMock{assignment: &models.RetakeAssignment{ID: "ret-1"}}
	handler := NewRetakeHandler(mock)
	c, w := newRetakeTestContext(t, http.MethodGet,
		"/retakes?status=pending&from=2026-09-01&pageSize=500", nil, staffClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "PENDING", mock.lastQuery.Status)
	require.Equal(t, "2026-09-01", mock.lastQuery.From)
	// Oversized page sizes are discarded, not clamped.
	require.Zero(t, mock.lastQuery.PageSize)
}

func TestRetakeHandlerDelete(t *testing.T) {
	handler := NewRetakeHandler(&retakeServiceMock{assignment: &models.RetakeAssignment{ID: "ret-1"}})
	c, w := newRetakeTestContext(t, http.MethodDelete, "/retakes/ret-1", nil, staffClaims())
	c.Params = gin.Params{{Key: "id", Value: "ret-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":true`)
}
