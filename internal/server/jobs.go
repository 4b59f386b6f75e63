package server

import (
	"sort"
	"sync"
	"time"

	"github.com/lamim/blogforge/pkg/models"
)

// JobStatus is the lifecycle state of a submitted generation job
type JobStatus string

const (
	// JobRunning means the pipeline invocation is in progress
	JobRunning JobStatus = "running"
	// JobSucceeded means the pipeline produced a final post
	JobSucceeded JobStatus = "succeeded"
	// JobFailed means a stage failed and the pipeline halted
	JobFailed JobStatus = "failed"
)

// StageState is the externally visible state of one stage within a job
type StageState struct {
	Role            models.Role        `json:"role"`
	Status          models.StageStatus `json:"status"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
}

// Job is the externally visible record of one pipeline invocation
type Job struct {
	ID             string       `json:"id"`
	Topic          string       `json:"topic"`
	Status         JobStatus    `json:"status"`
	Stages         []StageState `json:"stages"`
	FinalContent   string       `json:"final_content,omitempty"`
	FailedStage    models.Role  `json:"failed_stage,omitempty"`
	FailureMessage string       `json:"failure_message,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	FinishedAt     *time.Time   `json:"finished_at,omitempty"`
}

// jobStore is the mutex-guarded in-memory job registry. It is the only state
// shared between concurrent pipeline invocations.
type jobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*Job)}
}

func (s *jobStore) create(id, topic string) *Job {
	stages := make([]StageState, 0, len(models.Roles))
	for _, role := range models.Roles {
		stages = append(stages, StageState{Role: role, Status: models.StagePending})
	}

	job := &Job{
		ID:        id,
		Topic:     topic,
		Status:    JobRunning,
		Stages:    stages,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[id] = job
	s.mu.Unlock()
	return job
}

// get returns a snapshot of the job so callers never see partial updates
func (s *jobStore) get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return snapshot(job), true
}

// list returns snapshots of all jobs, newest first
func (s *jobStore) list() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, snapshot(job))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *jobStore) setStageStatus(id string, role models.Role, status models.StageStatus, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}
	for i := range job.Stages {
		if job.Stages[i].Role == role {
			job.Stages[i].Status = status
			job.Stages[i].RejectionReason = reason
			return
		}
	}
}

func (s *jobStore) finish(id string, outcome models.PipelineOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}

	now := time.Now()
	job.FinishedAt = &now
	if outcome.Success {
		job.Status = JobSucceeded
		job.FinalContent = outcome.FinalContent
	} else {
		job.Status = JobFailed
		job.FailedStage = outcome.FailedStage
		job.FailureMessage = outcome.FailureMessage
	}
}

func snapshot(job *Job) Job {
	copied := *job
	copied.Stages = make([]StageState, len(job.Stages))
	copy(copied.Stages, job.Stages)
	return copied
}
