package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-retake-api/internal/models"
)

func TestStatusLabelRepositoryList(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewStatusLabelRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY display_order ASC, name ASC")).
		WithArgs("acad-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "academy_id", "name", "display_order", "color", "created_at", "updated_at"}).
			AddRow("lbl-1", "acad-1", "BILLED", 1, nil, now, now).
			AddRow("lbl-2", "acad-1", "WAIVED", 2, "#888888", now, now))

	labels, err := repo.List(context.Background(), "acad-1")
	require.NoError(t, err)
	require.Len(t, labels, 2)
	require.Equal(t, "BILLED", labels[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusLabelRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewStatusLabelRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO status_labels")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := repo.Create(context.Background(), &models.StatusLabel{AcademyID: "acad-1", Name: "BILLED"})
	require.ErrorIs(t, err, ErrDuplicateLabel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusLabelRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewStatusLabelRepository(db)
	name := "RESCHEDULED"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE status_labels SET")).
		WithArgs("lbl-1", "other-academy", name).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "other-academy", "lbl-1", UpdateStatusLabelParams{Name: &name})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusLabelRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRetakeRepoMock(t)
	defer cleanup()

	repo := NewStatusLabelRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM status_labels WHERE id = $1 AND academy_id = $2")).
		WithArgs("lbl-1", "acad-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "acad-1", "lbl-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
