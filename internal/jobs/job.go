package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition encodes the monotonic lifecycle: pending -> running ->
// completed|error. Terminal states never regress; running may update
// itself (progress messages).
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusCompleted || to == StatusError
	case StatusRunning:
		return to == StatusRunning || to == StatusCompleted || to == StatusError
	}
	return false
}

// Job is one deferred report generation, polled by the client.
type Job struct {
	ID         string          `json:"job_id"`
	LeadID     int64           `json:"lead_id,omitempty"`
	Status     Status          `json:"status"`
	Message    string          `json:"message,omitempty"`
	ReportHTML string          `json:"report_html,omitempty"`
	ReportData json.RawMessage `json:"report_data,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func New() *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Message:   "Queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
