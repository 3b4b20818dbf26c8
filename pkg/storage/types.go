package storage

import "time"

// RunRecord is one persisted validation run.
type RunRecord struct {
	ID              int64     `json:"id"`
	BundleID        string    `json:"bundleId"`
	BundleName      string    `json:"bundleName"`
	Primary         string    `json:"primary,omitempty"`
	AdSize          string    `json:"adSize,omitempty"`
	Summary         string    `json:"summary"`
	TotalBytes      int64     `json:"totalBytes"`
	InitialBytes    int64     `json:"initialBytes"`
	SubsequentBytes int64     `json:"subsequentBytes"`
	ZippedBytes     int64     `json:"zippedBytes"`
	InitialRequests int       `json:"initialRequests"`
	CreatedAt       time.Time `json:"createdAt"`
}

// FindingRecord is one persisted finding row.
type FindingRecord struct {
	RunID     int64  `json:"runId"`
	CheckID   string `json:"checkId"`
	Title     string `json:"title"`
	Severity  string `json:"severity"`
	Messages  string `json:"messages"`
	Offenders string `json:"offenders"`
}

// ListOptions filters run listings.
type ListOptions struct {
	BundleFilter string
	Severity     string
	Since        time.Time
	Limit        int
}

// SummaryStats aggregates the stored history per overall status.
type SummaryStats struct {
	Summary  string `json:"summary"`
	RunCount int    `json:"runCount"`
}
