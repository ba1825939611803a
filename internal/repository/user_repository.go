package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushare/campushare-api/internal/models"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation. Services translate these into validation errors so raw driver
// errors never leak to callers.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// UserRepository provides database access for accounts and their role profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by handle.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT id, username, email, password_hash, role, active, last_login, created_at, updated_at FROM users WHERE username = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, username, email, password_hash, role, active, last_login, created_at, updated_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// CreateStudent inserts the account row and its student profile in one
// transaction: an account without its matching profile never persists.
func (r *UserRepository) CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	fillUser(user, models.RoleStudent, now)
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.UserID = user.ID
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}

	const userQuery = `INSERT INTO users (id, username, email, password_hash, role, active, created_at, updated_at)
        VALUES (:id, :username, :email, :password_hash, :role, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create user: %w", err)
	}

	const profileQuery = `INSERT INTO student_profiles
        (id, user_id, full_name, registration_number, academic_year, faculty, department, contact_number, enrolled_date, can_upload, active, created_at)
        VALUES (:id, :user_id, :full_name, :registration_number, :academic_year, :faculty, :department, :contact_number, :enrolled_date, :can_upload, :active, :created_at)`
	if _, err := tx.NamedExecContext(ctx, profileQuery, profile); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create student profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student provisioning: %w", err)
	}
	return nil
}

// CreateLecturer inserts the account row and its lecturer profile in one
// transaction.
func (r *UserRepository) CreateLecturer(ctx context.Context, user *models.User, profile *models.LecturerProfile) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	fillUser(user, models.RoleLecturer, now)
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.UserID = user.ID
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}

	const userQuery = `INSERT INTO users (id, username, email, password_hash, role, active, created_at, updated_at)
        VALUES (:id, :username, :email, :password_hash, :role, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create user: %w", err)
	}

	const profileQuery = `INSERT INTO lecturer_profiles
        (id, user_id, full_name, employee_id, department, position, office_location, contact_number, joined_date, active, created_at)
        VALUES (:id, :user_id, :full_name, :employee_id, :department, :position, :office_location, :contact_number, :joined_date, :active, :created_at)`
	if _, err := tx.NamedExecContext(ctx, profileQuery, profile); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create lecturer profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lecturer provisioning: %w", err)
	}
	return nil
}

// FindStudentProfileByUserID loads the student profile owned by an account.
func (r *UserRepository) FindStudentProfileByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	const query = `SELECT id, user_id, full_name, registration_number, academic_year, faculty, department, contact_number, enrolled_date, can_upload, active, created_at
        FROM student_profiles WHERE user_id = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student profile: %w", err)
	}
	return &profile, nil
}

// FindStudentProfileByID loads a student profile by its own identifier.
func (r *UserRepository) FindStudentProfileByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	const query = `SELECT id, user_id, full_name, registration_number, academic_year, faculty, department, contact_number, enrolled_date, can_upload, active, created_at
        FROM student_profiles WHERE id = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student profile by id: %w", err)
	}
	return &profile, nil
}

// FindLecturerProfileByUserID loads the lecturer profile owned by an account.
func (r *UserRepository) FindLecturerProfileByUserID(ctx context.Context, userID string) (*models.LecturerProfile, error) {
	const query = `SELECT id, user_id, full_name, employee_id, department, position, office_location, contact_number, joined_date, active, created_at
        FROM lecturer_profiles WHERE user_id = $1 LIMIT 1`
	var profile models.LecturerProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lecturer profile: %w", err)
	}
	return &profile, nil
}

// SetUploadPermission flips the can_upload flag on a student profile.
func (r *UserRepository) SetUploadPermission(ctx context.Context, profileID string, canUpload bool) error {
	const query = `UPDATE student_profiles SET can_upload = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, profileID, canUpload)
	if err != nil {
		return fmt.Errorf("set upload permission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check upload permission rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateAuditLog appends one audit trail row.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, new_values, ip_address, user_agent, created_at)
        VALUES (:id, :user_id, :action, :resource, :resource_id, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func fillUser(user *models.User, role models.UserRole, now time.Time) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Role = role
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
}
