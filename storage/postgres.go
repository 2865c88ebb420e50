package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"getmyhouse/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		session_id TEXT NOT NULL,
		turn_index INTEGER NOT NULL,
		query JSONB NOT NULL,
		results JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (session_id, turn_index)
	);

	CREATE TABLE IF NOT EXISTS search_runs (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		candidates_found INTEGER DEFAULT 0,
		results_returned INTEGER DEFAULT 0,
		providers_failed INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS fetch_events (
		id BIGSERIAL PRIMARY KEY,
		run_id BIGINT,
		provider_id TEXT,
		timestamp TIMESTAMPTZ,
		level TEXT,
		message TEXT,
		attempts INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, turn_index);
	CREATE INDEX IF NOT EXISTS idx_runs_session ON search_runs(session_id, started_at);
	CREATE INDEX IF NOT EXISTS idx_events_run ON fetch_events(run_id, timestamp);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Append serializes writers per session with a transaction-scoped
// advisory lock, so the next turn index is race-free across processes.
func (s *PostgresStore) Append(ctx context.Context, sessionID string, q models.Query, results []models.ScoredListing) (int, error) {
	if sessionID == "" {
		return 0, errors.New("empty session id")
	}

	queryJSON, err := json.Marshal(q)
	if err != nil {
		return 0, fmt.Errorf("marshal query: %w", err)
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return 0, fmt.Errorf("marshal results: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
		return 0, err
	}

	var index int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(turn_index) + 1, 0) FROM turns WHERE session_id = $1`,
		sessionID).Scan(&index)
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO turns (session_id, turn_index, query, results, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		sessionID, index, queryJSON, resultsJSON)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return index, nil
}

func (s *PostgresStore) Latest(ctx context.Context, sessionID string) (*models.Turn, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT session_id, turn_index, query, results, created_at
		FROM turns WHERE session_id = $1
		ORDER BY turn_index DESC LIMIT 1`, sessionID)

	turn, err := scanTurn(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return turn, nil
}

func (s *PostgresStore) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, turn_index, query, results, created_at
		FROM turns WHERE session_id = $1
		ORDER BY turn_index ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, *turn)
	}
	return turns, rows.Err()
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.SearchRun) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO search_runs (session_id, started_at, status)
		VALUES ($1, $2, $3)
		RETURNING id`,
		run.SessionID, run.StartedAt, run.Status).Scan(&run.ID)
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *models.SearchRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE search_runs
		SET finished_at = $1, status = $2, candidates_found = $3, results_returned = $4, providers_failed = $5
		WHERE id = $6`,
		run.FinishedAt, run.Status, run.CandidatesFound, run.ResultsReturned, run.ProvidersFailed, run.ID)
	return err
}

func (s *PostgresStore) LogFetchEvent(ctx context.Context, event *models.FetchEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO fetch_events (run_id, provider_id, timestamp, level, message, attempts)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.RunID, event.ProviderID, event.Timestamp, event.Level, event.Message, event.Attempts)
	return err
}

func (s *PostgresStore) PruneExpired(ctx context.Context, cutoff time.Time) (int, error) {
	var sessions int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT session_id FROM turns
			GROUP BY session_id
			HAVING MAX(created_at) < $1
		) expired`, cutoff).Scan(&sessions)
	if err != nil {
		return 0, err
	}
	if sessions == 0 {
		return 0, nil
	}

	_, err = s.pool.Exec(ctx, `
		DELETE FROM turns WHERE session_id IN (
			SELECT session_id FROM turns
			GROUP BY session_id
			HAVING MAX(created_at) < $1
		)`, cutoff)
	if err != nil {
		return 0, err
	}
	return sessions, nil
}
