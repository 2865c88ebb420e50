// Package storage persists session history and run telemetry.
package storage

import (
	"context"
	"time"

	"getmyhouse/models"
)

// SessionStore persists the append-only turn log per session plus the
// run/fetch telemetry around it. Absence is not a failure: Latest
// returns (nil, nil) and History an empty slice for unknown sessions.
type SessionStore interface {
	// Append writes a new turn and returns its index, starting at 0.
	// Appends to the same session are serialized; different sessions
	// proceed independently.
	Append(ctx context.Context, sessionID string, q models.Query, results []models.ScoredListing) (int, error)
	Latest(ctx context.Context, sessionID string) (*models.Turn, error)
	History(ctx context.Context, sessionID string) ([]models.Turn, error)

	CreateRun(ctx context.Context, run *models.SearchRun) error
	FinishRun(ctx context.Context, run *models.SearchRun) error
	LogFetchEvent(ctx context.Context, event *models.FetchEvent) error

	// PruneExpired removes sessions whose last turn predates the
	// cutoff and returns how many sessions were dropped.
	PruneExpired(ctx context.Context, cutoff time.Time) (int, error)

	Close() error
}
