package models

import "time"

// DashboardStats aggregates portal-wide counters for the stats endpoint.
type DashboardStats struct {
	PendingCount   int           `db:"pending_count" json:"pending_count"`
	ApprovedCount  int           `db:"approved_count" json:"approved_count"`
	RejectedCount  int           `db:"rejected_count" json:"rejected_count"`
	TotalDownloads int64         `db:"total_downloads" json:"total_downloads"`
	TopDownloads   []TopResource `json:"top_downloads"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

// TopResource is a catalog entry ranked by download count.
type TopResource struct {
	ID            string `db:"id" json:"id"`
	Title         string `db:"title" json:"title"`
	CategoryID    string `db:"category_id" json:"category_id"`
	DownloadCount int64  `db:"download_count" json:"download_count"`
}
