package models

import "time"

// Role identifies which stage of the pipeline a completion belongs to
type Role string

const (
	// RoleResearcher gathers structured facts and key points for a topic
	RoleResearcher Role = "researcher"
	// RoleWriter drafts the blog post from the research findings
	RoleWriter Role = "writer"
	// RoleEditor polishes the draft into the final post
	RoleEditor Role = "editor"
)

// Roles lists the pipeline stages in execution order
var Roles = []Role{RoleResearcher, RoleWriter, RoleEditor}

// Display returns a human-readable name for the role
func (r Role) Display() string {
	switch r {
	case RoleResearcher:
		return "Researcher"
	case RoleWriter:
		return "Writer"
	case RoleEditor:
		return "Editor"
	}
	return string(r)
}

// StageStatus represents the lifecycle state of a single stage
type StageStatus string

const (
	// StagePending means the stage has not been dispatched yet
	StagePending StageStatus = "pending"
	// StageRequested means the completion request is in flight
	StageRequested StageStatus = "requested"
	// StageCompleted means the stage produced accepted content
	StageCompleted StageStatus = "completed"
	// StageFailed means the stage errored or its output was rejected
	StageFailed StageStatus = "failed"
)

// StageResult is the terminal record of one stage invocation
type StageResult struct {
	Role            Role          `json:"role"`
	Status          StageStatus   `json:"status"`
	RawText         string        `json:"-"`
	SanitizedText   string        `json:"-"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Duration        time.Duration `json:"duration"`
}

// Accepted reports whether the stage produced usable content
func (r StageResult) Accepted() bool {
	return r.Status == StageCompleted
}

// PipelineOutcome is the terminal value of one pipeline invocation
type PipelineOutcome struct {
	Success        bool          `json:"success"`
	FinalContent   string        `json:"final_content,omitempty"`
	FailedStage    Role          `json:"failed_stage,omitempty"`
	FailureMessage string        `json:"failure_message,omitempty"`
	Stages         []StageResult `json:"stages"`
	Duration       time.Duration `json:"duration"`
}

// SessionStats tracks statistics for a generation session
type SessionStats struct {
	StartTime       time.Time
	EndTime         time.Time
	StagesRun       int
	StagesCompleted int
	StagesFailed    int
	TotalDuration   time.Duration
}
