package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campushare/campushare-api/internal/models"
)

func newCategoryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCategoryRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newCategoryRepoMock(t)
	defer cleanup()

	repo := NewCategoryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	category := &models.Category{Name: "Lecture Notes", Active: true}
	require.NoError(t, repo.Create(context.Background(), category))
	require.NotEmpty(t, category.ID)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "active", "created_at"}).
		AddRow(category.ID, category.Name, "", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE id = $1")).
		WithArgs(category.ID).
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), category.ID)
	require.NoError(t, err)
	require.Equal(t, category.Name, found.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepositoryListActiveOnly(t *testing.T) {
	db, mock, cleanup := newCategoryRepoMock(t)
	defer cleanup()

	repo := NewCategoryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "active", "created_at"}).
		AddRow("cat-1", "Assignments", "", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE active = true ORDER BY name ASC")).
		WillReturnRows(rows)

	categories, err := repo.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newCategoryRepoMock(t)
	defer cleanup()

	repo := NewCategoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources WHERE category_id = $1")).
		WithArgs("cat-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id = $1")).
		WithArgs("cat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.Delete(context.Background(), "cat-1")
	require.NoError(t, err)
	require.EqualValues(t, 4, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepositoryDeleteUnknownCategory(t *testing.T) {
	db, mock, cleanup := newCategoryRepoMock(t)
	defer cleanup()

	repo := NewCategoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources WHERE category_id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
