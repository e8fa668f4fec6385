package api

import "time"

// QueryFilter defines criteria for querying audit records.
type QueryFilter struct {
	Since   time.Time `json:"since,omitempty"`
	Until   time.Time `json:"until,omitempty"`
	Method  string    `json:"method,omitempty"`
	Path    string    `json:"path,omitempty"`
	Status  int       `json:"status,omitempty"`
	Outcome Outcome   `json:"outcome,omitempty"`
	Limit   int       `json:"limit,omitempty"`
	Offset  int       `json:"offset,omitempty"`
}

// AuditStats provides summary statistics for the admin API.
type AuditStats struct {
	TotalRequests  int            `json:"total_requests"`
	ForwardedCount int            `json:"forwarded_count"`
	BlockedCount   int            `json:"blocked_count"`
	FailedCount    int            `json:"failed_count"`
	ByMethod       map[string]int `json:"by_method"`
	ByStatus       map[int]int    `json:"by_status"`
	ByFilter       map[string]int `json:"by_filter"`
}
