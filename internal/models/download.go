package models

import "time"

// ResourceDownload is one append-only ledger row recording an access event.
// Rows are never updated or deleted.
type ResourceDownload struct {
	ID           string    `db:"id" json:"id"`
	ResourceID   string    `db:"resource_id" json:"resource_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	DownloadedAt time.Time `db:"downloaded_at" json:"downloaded_at"`
	IPAddress    string    `db:"ip_address" json:"ip_address,omitempty"`
}
