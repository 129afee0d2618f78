package dto

import "time"

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response for the current moment.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// RunListResponse wraps a page of run history.
type RunListResponse struct {
	Runs  []Run `json:"runs"`
	Count int   `json:"count"`
}

// MatchListResponse wraps a page of the match audit trail.
type MatchListResponse struct {
	Matches []MatchRecord `json:"matches"`
	Count   int           `json:"count"`
}

// JobListResponse wraps the in-memory reconcile jobs.
type JobListResponse struct {
	Jobs  []Job `json:"jobs"`
	Count int   `json:"count"`
}

// StartReconcileResponse acknowledges an accepted reconcile job.
type StartReconcileResponse struct {
	JobID    string `json:"job_id"`
	Retailer string `json:"retailer,omitempty"`
	Status   string `json:"status"`
}

// MessageResponse carries a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
