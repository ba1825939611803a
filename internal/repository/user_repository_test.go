package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/campushare/campushare-api/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserRepositoryCreateStudentTransaction(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_profiles")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{
		Username:     "jdoe",
		Email:        "jdoe@example.edu",
		PasswordHash: "hash",
		Active:       true,
	}
	profile := &models.StudentProfile{
		FullName:           "Jane Doe",
		RegistrationNumber: "REG-001",
		AcademicYear:       2,
		Faculty:            "Science",
		Department:         "Computing",
		EnrolledDate:       time.Now().UTC(),
		Active:             true,
	}

	require.NoError(t, repo.CreateStudent(context.Background(), user, profile))
	require.NotEmpty(t, user.ID)
	require.Equal(t, models.RoleStudent, user.Role)
	require.Equal(t, user.ID, profile.UserID)
	require.False(t, profile.CanUpload)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateStudentRollsBackOnProfileFailure(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_profiles")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateStudent(context.Background(), &models.User{
		Username:     "jdoe",
		Email:        "jdoe@example.edu",
		PasswordHash: "hash",
		Active:       true,
	}, &models.StudentProfile{
		FullName:           "Jane Doe",
		RegistrationNumber: "REG-001",
	})
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateLecturerTransaction(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lecturer_profiles")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{
		Username:     "prof",
		Email:        "prof@example.edu",
		PasswordHash: "hash",
		Active:       true,
	}
	profile := &models.LecturerProfile{
		FullName:   "Prof. Smith",
		EmployeeID: "EMP-9",
		Department: "Computing",
		Position:   models.PositionProfessor,
		JoinedDate: time.Now().UTC(),
		Active:     true,
	}

	require.NoError(t, repo.CreateLecturer(context.Background(), user, profile))
	require.Equal(t, models.RoleLecturer, user.Role)
	require.Equal(t, user.ID, profile.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySetUploadPermission(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_profiles SET can_upload = $2")).
		WithArgs("prof-1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetUploadPermission(context.Background(), "prof-1", true))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_profiles SET can_upload = $2")).
		WithArgs("missing", false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SetUploadPermission(context.Background(), "missing", false)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByUsernameNotFound(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAuditLogFillsDefaults(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{
		Action:   models.AuditActionLogin,
		Resource: "auth",
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
