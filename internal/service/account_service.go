package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushare/campushare-api/internal/models"
	"github.com/campushare/campushare-api/internal/repository"
	appErrors "github.com/campushare/campushare-api/pkg/errors"
)

type accountRepository interface {
	CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error
	CreateLecturer(ctx context.Context, user *models.User, profile *models.LecturerProfile) error
	FindStudentProfileByID(ctx context.Context, id string) (*models.StudentProfile, error)
	SetUploadPermission(ctx context.Context, profileID string, canUpload bool) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AccountService provisions accounts with their role profiles.
type AccountService struct {
	repo      accountRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(repo accountRepository, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AccountService{repo: repo, validator: validate, logger: logger}
}

// RegisterStudent creates a STUDENT account and its profile atomically.
// Fresh students cannot upload until a lecturer grants the permission.
func (s *AccountService) RegisterStudent(ctx context.Context, req models.CreateStudentRequest) (*models.StudentAccount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Active:       true,
	}
	profile := &models.StudentProfile{
		FullName:           req.FullName,
		RegistrationNumber: req.RegistrationNumber,
		AcademicYear:       req.AcademicYear,
		Faculty:            req.Faculty,
		Department:         req.Department,
		ContactNumber:      req.ContactNumber,
		EnrolledDate:       req.EnrolledDate,
		CanUpload:          false,
		Active:             true,
	}

	if err := s.repo.CreateStudent(ctx, user, profile); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "username, email or registration number already taken")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision student")
	}

	return &models.StudentAccount{User: *user, Profile: *profile}, nil
}

// RegisterLecturer creates a LECTURER account and its profile atomically.
func (s *AccountService) RegisterLecturer(ctx context.Context, req models.CreateLecturerRequest) (*models.LecturerAccount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer payload")
	}
	if !req.Position.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown position %q", req.Position))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Active:       true,
	}
	profile := &models.LecturerProfile{
		FullName:       req.FullName,
		EmployeeID:     req.EmployeeID,
		Department:     req.Department,
		Position:       req.Position,
		OfficeLocation: req.OfficeLocation,
		ContactNumber:  req.ContactNumber,
		JoinedDate:     req.JoinedDate,
		Active:         true,
	}

	if err := s.repo.CreateLecturer(ctx, user, profile); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "username, email or employee id already taken")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision lecturer")
	}

	return &models.LecturerAccount{User: *user, Profile: *profile}, nil
}

// SetUploadPermission lets a lecturer grant or revoke a student's upload
// capability.
func (s *AccountService) SetUploadPermission(ctx context.Context, profileID string, canUpload bool, actor *models.JWTClaims) (*models.StudentProfile, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleLecturer {
		return nil, appErrors.ErrForbidden
	}

	if err := s.repo.SetUploadPermission(ctx, profileID, canUpload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update upload permission")
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionPermission,
		Resource:   "student_profile",
		ResourceID: &profileID,
		NewValues:  []byte(fmt.Sprintf(`{"can_upload":%t}`, canUpload)),
	}); err != nil {
		s.logger.Warn("failed to record permission audit log", zap.Error(err))
	}

	profile, err := s.repo.FindStudentProfileByID(ctx, profileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload student profile")
	}
	return profile, nil
}
