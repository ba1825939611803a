package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushare/campushare-api/internal/models"
)

type authRepoStub struct {
	users            map[string]*models.User
	studentProfiles  map[string]*models.StudentProfile
	lecturerProfiles map[string]*models.LecturerProfile
	lastLogin        *time.Time
	audits           []models.AuditLog
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		users:            make(map[string]*models.User),
		studentProfiles:  make(map[string]*models.StudentProfile),
		lecturerProfiles: make(map[string]*models.LecturerProfile),
	}
}

func (r *authRepoStub) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (r *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	r.lastLogin = &ts
	return nil
}

func (r *authRepoStub) FindStudentProfileByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if profile, ok := r.studentProfiles[userID]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

func (r *authRepoStub) FindLecturerProfileByUserID(ctx context.Context, userID string) (*models.LecturerProfile, error) {
	if profile, ok := r.lecturerProfiles[userID]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

func (r *authRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.audits = append(r.audits, *log)
	return nil
}

func newTestAuthService(repo *authRepoStub) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "unit-test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "campushare-test",
	})
}

func seedStudent(t *testing.T, repo *authRepoStub, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "user-1",
		Username:     "jdoe",
		Email:        "jdoe@example.edu",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Active:       active,
	}
	repo.users[user.ID] = user
	repo.studentProfiles[user.ID] = &models.StudentProfile{ID: "stud-1", UserID: user.ID, Active: true}
	return user
}

func TestAuthServiceLoginIssuesValidToken(t *testing.T) {
	repo := newAuthRepoStub()
	seedStudent(t, repo, "correct horse", true)
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "jdoe",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, "stud-1", res.User.ProfileID)
	require.NotNil(t, repo.lastLogin)
	require.Len(t, repo.audits, 1)
	require.Equal(t, models.AuditActionLogin, repo.audits[0].Action)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleStudent, claims.Role)
	require.Equal(t, "stud-1", claims.ProfileID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newAuthRepoStub()
	seedStudent(t, repo, "correct horse", true)
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "jdoe",
		Password: "battery staple",
	})
	require.Equal(t, "INVALID_CREDENTIALS", errorCode(t, err))
}

func TestAuthServiceLoginUnknownUserSameError(t *testing.T) {
	svc := newTestAuthService(newAuthRepoStub())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "ghost",
		Password: "whatever1",
	})
	require.Equal(t, "INVALID_CREDENTIALS", errorCode(t, err))
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newAuthRepoStub()
	seedStudent(t, repo, "correct horse", false)
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "jdoe",
		Password: "correct horse",
	})
	require.Equal(t, "ACCOUNT_INACTIVE", errorCode(t, err))
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	repo := newAuthRepoStub()
	seedStudent(t, repo, "correct horse", true)
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Username: "jdoe",
		Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.AccessToken + "x")
	require.Error(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "different-secret",
		TokenExpiry: time.Hour,
	})
	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)
}

func TestAuthServiceCurrentUser(t *testing.T) {
	repo := newAuthRepoStub()
	seedStudent(t, repo, "correct horse", true)
	svc := newTestAuthService(repo)

	info, err := svc.CurrentUser(context.Background(), &models.JWTClaims{UserID: "user-1", ProfileID: "stud-1"})
	require.NoError(t, err)
	require.Equal(t, "jdoe", info.Username)
	require.Equal(t, "stud-1", info.ProfileID)

	_, err = svc.CurrentUser(context.Background(), &models.JWTClaims{UserID: "gone"})
	require.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}
