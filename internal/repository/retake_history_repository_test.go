package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-retake-api/internal/models"
)

func TestHistoryRepositoryListByAssignment(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeHistoryRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY h.seq DESC")).
		WithArgs("ret-1", "acad-1").
		WillReturnRows(sqlmock.NewRows(historyTestColumns).
			AddRow("hist-2", int64(2), "ret-1", "POSTPONE", now, now, "PENDING", "PENDING", nil, nil, nil, nil, now).
			AddRow("hist-1", int64(1), "ret-1", "ASSIGN", nil, now, nil, "PENDING", nil, nil, nil, nil, now))

	entries, err := repo.ListByAssignment(context.Background(), "acad-1", "ret-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(2), entries[0].Seq)
	require.Equal(t, models.RetakeActionAssign, entries[1].ActionType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryListRecentClampsLimit(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeHistoryRepository(db)
	columns := append(append([]string{}, historyTestColumns...), "exam_title", "student_name")

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2")).
		WithArgs("acad-1", 50).
		WillReturnRows(sqlmock.NewRows(columns))

	entries, err := repo.ListRecent(context.Background(), "acad-1", 9999)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryCountByAction(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewRetakeHistoryRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM retake_history")).
		WithArgs("ret-1", "POSTPONE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByAction(context.Background(), "ret-1", models.RetakeActionPostpone)
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
