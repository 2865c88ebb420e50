// Package services wires refinement, fetch, ranking, and persistence
// into the search workflow.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"getmyhouse/models"
	"getmyhouse/query"
	"getmyhouse/ranking"
	"getmyhouse/search"
	"getmyhouse/storage"
)

type SearchService struct {
	store   storage.SessionStore
	fetcher *search.Fetcher
	engine  *ranking.Engine
}

func NewSearchService(store storage.SessionStore, fetcher *search.Fetcher, engine *ranking.Engine) *SearchService {
	return &SearchService{
		store:   store,
		fetcher: fetcher,
		engine:  engine,
	}
}

// SearchResult is the outcome of one executed turn.
type SearchResult struct {
	SessionID string
	TurnIndex int
	Query     models.Query
	Results   []models.ScoredListing
}

// Search refines the session's latest query with patch, executes it,
// and appends the new turn. Validation errors surface to the caller;
// provider failures degrade to fewer or zero candidates. An empty
// result set means "no matches or source unavailable", not an error.
func (s *SearchService) Search(ctx context.Context, sessionID string, patch models.Patch) (*SearchResult, error) {
	if sessionID == "" {
		return nil, errors.New("empty session id")
	}

	latest, err := s.store.Latest(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load latest turn: %w", err)
	}

	var prev *models.Query
	if latest != nil {
		prev = &latest.Query
	}

	q, err := query.Refine(prev, patch)
	if err != nil {
		return nil, err
	}

	run := &models.SearchRun{
		SessionID: sessionID,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		// Telemetry only; the search itself proceeds.
		log.Printf("Warning: create run: %v", err)
	}

	candidates, events := s.fetcher.Fetch(ctx, q)
	failed := 0
	for i := range events {
		if run.ID != 0 {
			events[i].RunID = &run.ID
		}
		if events[i].Level == models.LogLevelError {
			failed++
		}
		if err := s.store.LogFetchEvent(ctx, &events[i]); err != nil {
			log.Printf("Warning: log fetch event: %v", err)
		}
	}

	results := s.engine.Rank(q, candidates)

	turnIndex, err := s.store.Append(ctx, sessionID, q, results)
	if err != nil {
		s.finishRun(ctx, run, models.RunStatusFailed, len(candidates), len(results), failed)
		return nil, fmt.Errorf("append turn: %w", err)
	}

	s.finishRun(ctx, run, models.RunStatusCompleted, len(candidates), len(results), failed)

	return &SearchResult{
		SessionID: sessionID,
		TurnIndex: turnIndex,
		Query:     q,
		Results:   results,
	}, nil
}

// History returns the session's turns in append order.
func (s *SearchService) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	if sessionID == "" {
		return nil, errors.New("empty session id")
	}
	return s.store.History(ctx, sessionID)
}

func (s *SearchService) finishRun(ctx context.Context, run *models.SearchRun, status models.RunStatus, candidates, results, failed int) {
	if run.ID == 0 {
		return
	}
	now := time.Now()
	run.FinishedAt = &now
	run.Status = status
	run.CandidatesFound = candidates
	run.ResultsReturned = results
	run.ProvidersFailed = failed
	if err := s.store.FinishRun(ctx, run); err != nil {
		log.Printf("Warning: finish run: %v", err)
	}
}
