package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/crescendo-labs/music-school-api/internal/models"
)

func TestSelectionRepositoryFindByClassAndEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "class_id", "user_email", "status", "created_at", "enrolled_at"}).
		AddRow("sel-1", "class-1", "student@example.com", models.SelectionStatusSelected, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE class_id = $1 AND user_email = $2 LIMIT 1`)).
		WithArgs("class-1", "student@example.com").
		WillReturnRows(rows)

	selection, err := repo.FindByClassAndEmail(context.Background(), "class-1", "student@example.com")
	require.NoError(t, err)
	require.Equal(t, "sel-1", selection.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	mock.ExpectExec(`INSERT INTO selections`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	selection := &models.Selection{ClassID: "class-1", UserEmail: "student@example.com"}
	require.NoError(t, repo.Create(context.Background(), selection))
	require.NotEmpty(t, selection.ID)
	require.Equal(t, models.SelectionStatusSelected, selection.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepositoryDeleteOwned(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM selections WHERE id = $1 AND user_email = $2 AND status = $3`)).
		WithArgs("sel-1", "student@example.com", models.SelectionStatusSelected).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteOwned(context.Background(), "sel-1", "student@example.com"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepositoryDeleteOwnedForeignSelection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	mock.ExpectExec(`DELETE FROM selections`).
		WithArgs("sel-1", "other@example.com", models.SelectionStatusSelected).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteOwned(context.Background(), "sel-1", "other@example.com")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
