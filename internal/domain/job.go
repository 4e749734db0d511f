package domain

import (
	"fmt"
	"time"
)

// JobStatus represents the lifecycle state of a batch execution job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusCanceled is part of the public status set; nothing produces it yet.
	JobStatusCanceled JobStatus = "canceled"
)

// IsValid returns true if the job status is a known value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCanceled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can happen.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCanceled
}

// JobItemResult is the outcome of one prompt inside a job.
type JobItemResult struct {
	PromptID string `json:"prompt_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Job is a batch execution of every active prompt of a project.
type Job struct {
	ID             string          `json:"job_id"`
	ProjectID      string          `json:"project_id"`
	Status         JobStatus       `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
	TotalItems     int             `json:"total_items"`
	ProcessedItems int             `json:"processed_items"`
	SuccessCount   int             `json:"success_count"`
	ErrorCount     int             `json:"error_count"`
	Errors         []string        `json:"errors"`
	Results        []JobItemResult `json:"results"`
}

// NewJob creates a queued job.
func NewJob(id, projectID string, createdAt time.Time) *Job {
	return &Job{
		ID:        id,
		ProjectID: projectID,
		Status:    JobStatusQueued,
		CreatedAt: createdAt,
		Errors:    []string{},
		Results:   []JobItemResult{},
	}
}

// Clone returns a deep copy safe to hand out while the job keeps running.
func (j *Job) Clone() *Job {
	c := *j
	c.Errors = append([]string{}, j.Errors...)
	c.Results = append([]JobItemResult{}, j.Results...)
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

// ValidateJob checks the counter invariants of a job snapshot.
func ValidateJob(j *Job) error {
	if j == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if !j.Status.IsValid() {
		return ErrInvalidJobStatus
	}
	if j.SuccessCount+j.ErrorCount != j.ProcessedItems {
		return fmt.Errorf("job %s: success_count + error_count != processed_items", j.ID)
	}
	if j.ProcessedItems > j.TotalItems {
		return fmt.Errorf("job %s: processed_items exceeds total_items", j.ID)
	}
	if j.Status == JobStatusCompleted && j.ProcessedItems != j.TotalItems {
		return fmt.Errorf("job %s: completed with unprocessed items", j.ID)
	}
	if j.Status == JobStatusRunning && j.ProcessedItems == j.TotalItems {
		return fmt.Errorf("job %s: running with every item processed", j.ID)
	}
	return nil
}
