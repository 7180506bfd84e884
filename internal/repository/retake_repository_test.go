package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-retake-api/internal/models"
)

func newRetakeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var assignmentTestColumns = []string{
	"id", "exam_id", "student_id", "status", "management_status",
	"scheduled_date", "postpone_count", "absent_count", "note", "created_at", "updated_at",
}

func assignmentRow(id string, status string, scheduled *time.Time, postponeCount, absentCount int) *sqlmock.Rows {
	return sqlmock.NewRows(assignmentTestColumns).
		AddRow(id, "exam-1", "student-1", status, nil, scheduled, postponeCount, absentCount, nil, time.Now(), time.Now())
}

var historyTestColumns = []string{
	"id", "seq", "retake_assignment_id", "action_type", "previous_date", "new_date",
	"previous_status", "new_status", "previous_management_status", "new_management_status",
	"note", "performed_by", "created_at",
}

func TestRetakeRepositoryTransition(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeRepository(db)
	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	newDate := date.AddDate(0, 0, 7)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF r")).
		WithArgs("ret-1", "acad-1").
		WillReturnRows(assignmentRow("ret-1", "PENDING", &date, 0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retake_assignments SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO retake_history")).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM retake_assignments r WHERE r.id")).
		WithArgs("ret-1").
		WillReturnRows(assignmentRow("ret-1", "PENDING", &newDate, 1, 0))
	mock.ExpectCommit()

	pending := models.RetakeStatusPending
	updated, err := repo.Transition(context.Background(), "acad-1", "ret-1", func(current *models.RetakeAssignment) (*RetakePatch, *models.RetakeHistoryEntry, error) {
		require.Equal(t, "ret-1", current.ID)
		require.NotNil(t, current.ScheduledDate)
		patch := &RetakePatch{
			Status:           &pending,
			SetScheduledDate: true,
			ScheduledDate:    &newDate,
			PostponeDelta:    1,
		}
		entry := &models.RetakeHistoryEntry{
			ActionType:   models.RetakeActionPostpone,
			PreviousDate: current.ScheduledDate,
			NewDate:      &newDate,
		}
		return patch, entry, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, updated.PostponeCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetakeRepositoryTransitionNotFound(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF r")).
		WithArgs("ret-1", "other-academy").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), "other-academy", "ret-1", func(*models.RetakeAssignment) (*RetakePatch, *models.RetakeHistoryEntry, error) {
		t.Fatal("transition func must not run for a missing row")
		return nil, nil, nil
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetakeRepositoryTransitionFnErrorRollsBack(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeRepository(db)
	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF r")).
		WithArgs("ret-1", "acad-1").
		WillReturnRows(assignmentRow("ret-1", "PENDING", &date, 0, 0))
	mock.ExpectRollback()

	wantErr := sql.ErrTxDone
	_, err := repo.Transition(context.Background(), "acad-1", "ret-1", func(*models.RetakeAssignment) (*RetakePatch, *models.RetakeHistoryEntry, error) {
		return nil, nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetakeRepositoryUndoLatest(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeRepository(db)
	date := time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC)
	prevDate := date.AddDate(0, 0, -7)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF r")).
		WithArgs("ret-1", "acad-1").
		WillReturnRows(assignmentRow("ret-1", "PENDING", &date, 1, 0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq DESC LIMIT 1")).
		WithArgs("ret-1").
		WillReturnRows(sqlmock.NewRows(historyTestColumns).
			AddRow("hist-2", int64(2), "ret-1", "POSTPONE", prevDate, date, "PENDING", "PENDING", nil, nil, nil, nil, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE retake_assignments SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM retake_history WHERE id")).
		WithArgs("hist-2", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM retake_assignments r WHERE r.id")).
		WithArgs("ret-1").
		WillReturnRows(assignmentRow("ret-1", "PENDING", &prevDate, 0, 0))
	mock.ExpectCommit()

	updated, err := repo.Undo(context.Background(), "acad-1", "ret-1", "hist-2", func(current *models.RetakeAssignment, latest *models.RetakeHistoryEntry) (*RetakePatch, error) {
		require.Equal(t, models.RetakeActionPostpone, latest.ActionType)
		return &RetakePatch{
			SetScheduledDate: true,
			ScheduledDate:    latest.PreviousDate,
			PostponeDelta:    -1,
		}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, updated.PostponeCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetakeRepositoryUndoStaleEntry(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeRepository(db)
	date := time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF r")).
		WithArgs("ret-1", "acad-1").
		WillReturnRows(assignmentRow("ret-1", "PENDING", &date, 1, 0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq DESC LIMIT 1")).
		WithArgs("ret-1").
		WillReturnRows(sqlmock.NewRows(historyTestColumns).
			AddRow("hist-3", int64(3), "ret-1", "DATE_EDIT", date, date, nil, nil, nil, nil, nil, nil, time.Now()))
	mock.ExpectRollback()

	_, err := repo.Undo(context.Background(), "acad-1", "ret-1", "hist-2", func(*models.RetakeAssignment, *models.RetakeHistoryEntry) (*RetakePatch, error) {
		t.Fatal("undo func must not run for a stale entry")
		return nil, nil
	})
	require.ErrorIs(t, err, ErrStaleHistoryEntry)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetakeRepositoryUndoEmptyHistory(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeRepository(db)
	date := time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF r")).
		WithArgs("ret-1", "acad-1").
		WillReturnRows(assignmentRow("ret-1", "PENDING", &date, 0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq DESC LIMIT 1")).
		WithArgs("ret-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Undo(context.Background(), "acad-1", "ret-1", "hist-1", func(*models.RetakeAssignment, *models.RetakeHistoryEntry) (*RetakePatch, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, ErrEmptyHistory)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetakeRepositoryCreateBatchDuplicate(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeRepository(db)
	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM exams")).
		WithArgs("exam-1", "acad-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO retake_assignments")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), "acad-1",
		[]*models.RetakeAssignment{{ExamID: "exam-1", StudentID: "student-1", Status: models.RetakeStatusPending, ScheduledDate: &date}},
		[]*models.RetakeHistoryEntry{{ActionType: models.RetakeActionAssign, NewDate: &date}})
	require.ErrorIs(t, err, ErrDuplicateAssignment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetakeRepositoryCreateBatchUnknownStudent(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeRepository(db)
	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM exams")).
		WithArgs("exam-1", "acad-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), "acad-1",
		[]*models.RetakeAssignment{
			{ExamID: "exam-1", StudentID: "student-1", Status: models.RetakeStatusPending, ScheduledDate: &date},
			{ExamID: "exam-1", StudentID: "ghost", Status: models.RetakeStatusPending, ScheduledDate: &date},
		},
		[]*models.RetakeHistoryEntry{
			{ActionType: models.RetakeActionAssign, NewDate: &date},
			{ActionType: models.RetakeActionAssign, NewDate: &date},
		})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetakeRepositoryDeleteScopesTenant(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM retake_assignments")).
		WithArgs("ret-1", "other-academy").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "other-academy", "ret-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetakeRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeRepository(db)
	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("acad-1", "PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	detailColumns := append(append([]string{}, assignmentTestColumns...),
		"exam_title", "course_id", "course_name", "student_name", "student_phone")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY r.scheduled_date DESC NULLS LAST")).
		WithArgs("acad-1", "PENDING").
		WillReturnRows(sqlmock.NewRows(detailColumns).
			AddRow("ret-1", "exam-1", "student-1", "PENDING", nil, date, 0, 0, nil, time.Now(), time.Now(),
				"Algebra Midterm", "course-1", "Algebra", "Dana Kim", nil))

	items, pagination, err := repo.List(context.Background(), "acad-1", models.RetakeFilter{Status: models.RetakeStatusPending})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Algebra Midterm", items[0].ExamTitle)
	require.Equal(t, 1, pagination.TotalCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
