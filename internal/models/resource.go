package models

import "time"

// ResourceStatus is the moderation state of an uploaded resource. Every
// resource starts pending; approved and rejected are terminal.
type ResourceStatus string

const (
	ResourceStatusPending  ResourceStatus = "pending"
	ResourceStatusApproved ResourceStatus = "approved"
	ResourceStatusRejected ResourceStatus = "rejected"
)

// Valid returns true when the status is a supported value.
func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceStatusPending, ResourceStatusApproved, ResourceStatusRejected:
		return true
	default:
		return false
	}
}

// ReviewAction is the verb a lecturer applies to a pending resource.
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

// Valid returns true when the action is a supported value.
func (a ReviewAction) Valid() bool {
	return a == ReviewActionApprove || a == ReviewActionReject
}

// Resource is the uploaded-file metadata record and its lifecycle state.
// After upload only a review or a download-count increment may mutate it.
type Resource struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	Description     string         `db:"description" json:"description,omitempty"`
	FilePath        string         `db:"file_path" json:"-"`
	FileName        string         `db:"file_name" json:"file_name"`
	FileType        string         `db:"file_type" json:"file_type"`
	FileSize        int64          `db:"file_size" json:"file_size"`
	UploadDate      time.Time      `db:"upload_date" json:"upload_date"`
	Status          ResourceStatus `db:"status" json:"status"`
	DownloadCount   int64          `db:"download_count" json:"download_count"`
	CategoryID      string         `db:"category_id" json:"category_id"`
	UploadedBy      string         `db:"uploaded_by" json:"uploaded_by"`
	ReviewedBy      *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewDate      *time.Time     `db:"review_date" json:"review_date,omitempty"`
	ReviewComments  *string        `db:"review_comments" json:"review_comments,omitempty"`
	RejectionReason *string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
}

// ResourceFilter narrows catalog queries.
type ResourceFilter struct {
	Status     ResourceStatus
	CategoryID string
	UploaderID string
	ReviewerID string
	Search     string
	Page       int
	PageSize   int
}

// SubmitResourceRequest is the upload intake payload; the file itself arrives
// as multipart form data alongside it.
type SubmitResourceRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Description string `form:"description" json:"description" validate:"max=2000"`
	CategoryID  string `form:"category_id" json:"category_id" validate:"required,uuid"`
}

// ReviewResourceRequest applies a moderation decision to a pending resource.
type ReviewResourceRequest struct {
	Action   ReviewAction `json:"action" validate:"required"`
	Comments string       `json:"comments" validate:"max=2000"`
}
