package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus mirrors the scrape_status enum of the scrape_jobs table.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ScrapeJob represents a row of the scrape_jobs table.
// Jobs are created elsewhere in the pending state.
type ScrapeJob struct {
	ID           uuid.UUID  `json:"id"`
	Query        string     `json:"query"`
	City         string     `json:"city"`
	Status       JobStatus  `json:"status"`
	ResultsCount int        `json:"results_count"`
	APIUsed      *string    `json:"api_used,omitempty"`      // serper | serpapi
	ErrorMessage *string    `json:"error_message,omitempty"` // Nullable TEXT
	CreatedBy    *uuid.UUID `json:"created_by,omitempty"`    // Nullable foreign key to profiles
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// JobUpdate is a partial update of a scrape job. Nil fields are not sent.
type JobUpdate struct {
	Status       JobStatus  `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ResultsCount *int       `json:"results_count,omitempty"`
	APIUsed      *string    `json:"api_used,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}

// RunningUpdate marks a job as picked up at now.
func RunningUpdate(now time.Time) JobUpdate {
	return JobUpdate{Status: JobStatusRunning, StartedAt: &now}
}

// CompletedUpdate records a finished job with the number of stored companies
// and the provider that produced them.
func CompletedUpdate(now time.Time, count int, api string) JobUpdate {
	return JobUpdate{
		Status:       JobStatusCompleted,
		CompletedAt:  &now,
		ResultsCount: &count,
		APIUsed:      &api,
	}
}

// FailedUpdate records a failed job. Counts and provider are left untouched.
func FailedUpdate(now time.Time, message string) JobUpdate {
	return JobUpdate{
		Status:       JobStatusFailed,
		CompletedAt:  &now,
		ErrorMessage: &message,
	}
}
