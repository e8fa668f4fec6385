package api

import "time"

// Outcome classifies how the pipeline finished a request.
type Outcome string

const (
	OutcomeForwarded Outcome = "forwarded" // the chain reached the downstream handler
	OutcomeBlocked   Outcome = "blocked"   // a filter answered without calling the chain
	OutcomeFailed    Outcome = "failed"    // a filter or the downstream returned an error
)

// AuditRecord represents a single audited request.
type AuditRecord struct {
	ID        string        `json:"id"`
	RequestID string        `json:"request_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Filter    string        `json:"filter,omitempty"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Host      string        `json:"host,omitempty"`
	Remote    string        `json:"remote,omitempty"`
	Status    int           `json:"status"`
	Bytes     int64         `json:"bytes,omitempty"`
	Outcome   Outcome       `json:"outcome"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// CheckRequest describes a synthetic request for a pipeline dry run.
type CheckRequest struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Host    string            `json:"host,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// CheckResult reports whether one pipeline entry would run.
type CheckResult struct {
	Filter  string `json:"filter"`
	Kind    string `json:"kind"`
	Applies bool   `json:"applies"`
	Reason  string `json:"reason,omitempty"`
}
