package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle of a profile-analysis job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the job will not change state again
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// AnalysisJob is a queued request to generate a profile analysis
type AnalysisJob struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	StudentID   uuid.UUID       `json:"student_id" db:"student_id"`
	RequestedBy *uuid.UUID      `json:"requested_by,omitempty" db:"requested_by"`
	Status      JobStatus       `json:"status" db:"status"`
	Result      json.RawMessage `json:"result,omitempty" db:"result" swaggertype:"object"`
	Error       *string         `json:"error,omitempty" db:"error"`
	Attempts    int             `json:"attempts" db:"attempts"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty" db:"started_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty" db:"finished_at"`
}
