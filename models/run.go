package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SearchRun records one execution of the search workflow for a session.
type SearchRun struct {
	ID              int64      `json:"id" db:"id"`
	SessionID       string     `json:"session_id" db:"session_id"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at" db:"finished_at"`
	Status          RunStatus  `json:"status" db:"status"`
	CandidatesFound int        `json:"candidates_found" db:"candidates_found"`
	ResultsReturned int        `json:"results_returned" db:"results_returned"`
	ProvidersFailed int        `json:"providers_failed" db:"providers_failed"`
}

type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// FetchEvent records a provider outcome during a run, including the
// fallback events logged when a provider is skipped after retries.
type FetchEvent struct {
	ID         int64     `json:"id" db:"id"`
	RunID      *int64    `json:"run_id" db:"run_id"`
	ProviderID string    `json:"provider_id" db:"provider_id"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	Level      LogLevel  `json:"level" db:"level"`
	Message    string    `json:"message" db:"message"`
	Attempts   int       `json:"attempts" db:"attempts"`
}
