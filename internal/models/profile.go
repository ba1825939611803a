package models

import "time"

// StudentProfile is the role extension owned 1:1 by a STUDENT account.
// Uploading is gated by CanUpload, which defaults to false at provisioning.
type StudentProfile struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"user_id"`
	FullName           string    `db:"full_name" json:"full_name"`
	RegistrationNumber string    `db:"registration_number" json:"registration_number"`
	AcademicYear       int       `db:"academic_year" json:"academic_year"`
	Faculty            string    `db:"faculty" json:"faculty"`
	Department         string    `db:"department" json:"department"`
	ContactNumber      string    `db:"contact_number" json:"contact_number,omitempty"`
	EnrolledDate       time.Time `db:"enrolled_date" json:"enrolled_date"`
	CanUpload          bool      `db:"can_upload" json:"can_upload"`
	Active             bool      `db:"active" json:"active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// LecturerPosition enumerates academic ranks for lecturer profiles.
type LecturerPosition string

const (
	PositionProfessor         LecturerPosition = "PROFESSOR"
	PositionSeniorLecturer    LecturerPosition = "SENIOR_LECTURER"
	PositionLecturer          LecturerPosition = "LECTURER"
	PositionAssistantLecturer LecturerPosition = "ASSISTANT_LECTURER"
	PositionVisitingLecturer  LecturerPosition = "VISITING_LECTURER"
)

// Valid returns true when the position is a supported value.
func (p LecturerPosition) Valid() bool {
	switch p {
	case PositionProfessor, PositionSeniorLecturer, PositionLecturer, PositionAssistantLecturer, PositionVisitingLecturer:
		return true
	default:
		return false
	}
}

// LecturerProfile is the role extension owned 1:1 by a LECTURER account.
type LecturerProfile struct {
	ID             string           `db:"id" json:"id"`
	UserID         string           `db:"user_id" json:"user_id"`
	FullName       string           `db:"full_name" json:"full_name"`
	EmployeeID     string           `db:"employee_id" json:"employee_id"`
	Department     string           `db:"department" json:"department"`
	Position       LecturerPosition `db:"position" json:"position"`
	OfficeLocation string           `db:"office_location" json:"office_location,omitempty"`
	ContactNumber  string           `db:"contact_number" json:"contact_number,omitempty"`
	JoinedDate     time.Time        `db:"joined_date" json:"joined_date"`
	Active         bool             `db:"active" json:"active"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// CreateStudentRequest provisions a STUDENT account and profile atomically.
type CreateStudentRequest struct {
	Username           string    `json:"username" validate:"required,min=3,max=64"`
	Email              string    `json:"email" validate:"required,email"`
	Password           string    `json:"password" validate:"required,min=8"`
	FullName           string    `json:"full_name" validate:"required,max=100"`
	RegistrationNumber string    `json:"registration_number" validate:"required,max=50"`
	AcademicYear       int       `json:"academic_year" validate:"required,gte=1"`
	Faculty            string    `json:"faculty" validate:"required,max=100"`
	Department         string    `json:"department" validate:"required,max=100"`
	ContactNumber      string    `json:"contact_number" validate:"max=20"`
	EnrolledDate       time.Time `json:"enrolled_date" validate:"required"`
}

// CreateLecturerRequest provisions a LECTURER account and profile atomically.
type CreateLecturerRequest struct {
	Username       string           `json:"username" validate:"required,min=3,max=64"`
	Email          string           `json:"email" validate:"required,email"`
	Password       string           `json:"password" validate:"required,min=8"`
	FullName       string           `json:"full_name" validate:"required,max=100"`
	EmployeeID     string           `json:"employee_id" validate:"required,max=50"`
	Department     string           `json:"department" validate:"required,max=100"`
	Position       LecturerPosition `json:"position" validate:"required"`
	OfficeLocation string           `json:"office_location" validate:"max=100"`
	ContactNumber  string           `json:"contact_number" validate:"max=20"`
	JoinedDate     time.Time        `json:"joined_date" validate:"required"`
}

// StudentAccount bundles an account with its student profile.
type StudentAccount struct {
	User    User           `json:"user"`
	Profile StudentProfile `json:"profile"`
}

// LecturerAccount bundles an account with its lecturer profile.
type LecturerAccount struct {
	User    User            `json:"user"`
	Profile LecturerProfile `json:"profile"`
}
