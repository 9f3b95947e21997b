// Package jobs describes asynchronous reconciliation work and the queue
// abstractions that run it.
package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned by a JobStore for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying marks a failed attempt waiting for its backoff.
	JobStatusRetrying JobStatus = "retrying"
)

// ParseStatus maps a name to a JobStatus, "" for anything unknown.
func ParseStatus(name string) JobStatus {
	switch s := JobStatus(name); s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusRetrying:
		return s
	}
	return ""
}

// Done reports whether s is final.
func (s JobStatus) Done() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ReconcileJob asks for the outstanding balances of one partner and year
// to be recomputed.
type ReconcileJob struct {
	JobID   string `json:"job_id"`
	Partner string `json:"partner"`
	Year    int    `json:"year"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Clone returns a copy that shares no pointers with j.
func (j *ReconcileJob) Clone() *ReconcileJob {
	c := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Publisher enqueues jobs.
type Publisher interface {
	PublishReconcile(ctx context.Context, job *ReconcileJob) error
	Close() error
}

// Consumer runs queued jobs through a handler.
type Consumer interface {
	// Start launches the workers; it does not block.
	Start(ctx context.Context, handler JobHandler) error
	// Stop stops consuming and waits for in-flight jobs.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error fails the attempt.
type JobHandler func(ctx context.Context, job *ReconcileJob) error

// JobStore keeps job state so callers can poll it.
type JobStore interface {
	SaveJob(ctx context.Context, job *ReconcileJob) error
	// GetJob returns ErrJobNotFound for an unknown id.
	GetJob(ctx context.Context, jobID string) (*ReconcileJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ReconcileJob, error)
}

// JobFilter narrows ListJobs. Zero fields match everything.
type JobFilter struct {
	Partner string
	Year    int
	Status  JobStatus
	Limit   int
	Offset  int
}
