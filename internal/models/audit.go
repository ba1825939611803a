package models

import "time"

// Audit actions recorded by services and middleware.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionRegister       = "ACCOUNT_REGISTER"
	AuditActionExport         = "REPORT_EXPORT"
	AuditActionUpload         = "RESOURCE_UPLOAD"
	AuditActionReview         = "RESOURCE_REVIEW"
	AuditActionDownload       = "RESOURCE_DOWNLOAD"
	AuditActionCategoryDelete = "CATEGORY_DELETE"
	AuditActionPermission     = "UPLOAD_PERMISSION"
)

// AuditLog is a write-once trail row for security-relevant operations.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
