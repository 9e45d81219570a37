// Package service implements the procwise use cases: knowledge search with
// cache orchestration, and template generation, validation and editing.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/procwise/internal/models"
)

// JobStatus represents the state of a background job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobTypeResearch is the type of cache refresh jobs.
const JobTypeResearch = "research"

// maxRetainedJobs bounds how many finished jobs stay queryable.
const maxRetainedJobs = 200

// Job represents a background research job.
type Job struct {
	ID          string                `json:"id"`
	Type        string                `json:"type"`
	Status      JobStatus             `json:"status"`
	Domain      models.ResearchDomain `json:"domain"`
	Query       string                `json:"query"`
	Stored      int                   `json:"stored"`
	Error       string                `json:"error,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`

	mu sync.RWMutex
}

// JobManager tracks background jobs and the goroutines running them.
type JobManager struct {
	jobs   map[string]*Job
	mu     sync.RWMutex
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewJobManager creates a new job manager.
func NewJobManager(logger *slog.Logger) *JobManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobManager{
		jobs:   make(map[string]*Job),
		logger: logger,
	}
}

// CreateJob registers a new pending job.
func (m *JobManager) CreateJob(jobType string, domain models.ResearchDomain, query string) *Job {
	job := &Job{
		ID:        uuid.New().String()[:8], // Short ID for convenience
		Type:      jobType,
		Status:    JobStatusPending,
		Domain:    domain,
		Query:     query,
		StartedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.pruneLocked()
	m.mu.Unlock()

	m.logger.Debug("job created", "job_id", job.ID, "type", jobType, "domain", domain, "query", query)
	return job
}

// pruneLocked drops the oldest finished jobs beyond maxRetainedJobs.
// Caller must hold write lock.
func (m *JobManager) pruneLocked() {
	if len(m.jobs) <= maxRetainedJobs {
		return
	}
	finished := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if s := j.Snapshot().Status; s == JobStatusCompleted || s == JobStatusFailed {
			finished = append(finished, j)
		}
	}
	slices.SortFunc(finished, func(a, b *Job) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	for _, j := range finished {
		if len(m.jobs) <= maxRetainedJobs {
			return
		}
		delete(m.jobs, j.ID)
	}
}

// Go runs fn for job on a goroutine detached from any caller context.
// fn gets its own context bounded by timeout. Panics fail the job.
func (m *JobManager) Go(job *Job, timeout time.Duration, fn func(ctx context.Context) (int, error)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("job goroutine panicked", "job_id", job.ID, "panic", r)
				m.Fail(job, fmt.Errorf("internal panic: %v", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		m.SetRunning(job)
		stored, err := fn(ctx)
		if err != nil {
			m.Fail(job, err)
			return
		}
		m.Complete(job, stored)
	}()
}

// Wait blocks until every job started with Go has returned or ctx ends.
func (m *JobManager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// ListJobs returns all jobs, most recent first.
func (m *JobManager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}

	slices.SortFunc(jobs, func(a, b *Job) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	return jobs
}

// SetRunning marks job as running.
func (m *JobManager) SetRunning(job *Job) {
	job.mu.Lock()
	job.Status = JobStatusRunning
	job.mu.Unlock()
}

// Complete marks job as completed with the number of stored entries.
func (m *JobManager) Complete(job *Job, stored int) {
	job.mu.Lock()
	job.Status = JobStatusCompleted
	job.Stored = stored
	now := time.Now()
	job.CompletedAt = &now
	job.mu.Unlock()

	m.logger.Info("job completed", "job_id", job.ID, "domain", job.Domain, "stored", stored)
}

// Fail marks job as failed. Background failures end here and are never
// surfaced to the request that triggered the job.
func (m *JobManager) Fail(job *Job, err error) {
	job.mu.Lock()
	job.Status = JobStatusFailed
	job.Error = err.Error()
	now := time.Now()
	job.CompletedAt = &now
	job.mu.Unlock()

	m.logger.Warn("job failed", "job_id", job.ID, "domain", job.Domain, "error", err)
}

// Snapshot returns a thread-safe copy of job state.
func (j *Job) Snapshot() Job {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Job{
		ID:          j.ID,
		Type:        j.Type,
		Status:      j.Status,
		Domain:      j.Domain,
		Query:       j.Query,
		Stored:      j.Stored,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
