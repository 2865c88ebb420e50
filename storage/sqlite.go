package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"getmyhouse/models"
)

type SQLiteStore struct {
	db    *sql.DB
	locks *keyMutex
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db, locks: newKeyMutex()}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		session_id TEXT NOT NULL,
		turn_index INTEGER NOT NULL,
		query JSON NOT NULL,
		results JSON NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (session_id, turn_index)
	);

	CREATE TABLE IF NOT EXISTS search_runs (
		id INTEGER PRIMARY KEY,
		session_id TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		candidates_found INTEGER,
		results_returned INTEGER,
		providers_failed INTEGER
	);

	CREATE TABLE IF NOT EXISTS fetch_events (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		provider_id TEXT,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		attempts INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, turn_index);
	CREATE INDEX IF NOT EXISTS idx_runs_session ON search_runs(session_id, started_at);
	CREATE INDEX IF NOT EXISTS idx_events_run ON fetch_events(run_id, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, sessionID string, q models.Query, results []models.ScoredListing) (int, error) {
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

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var index int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(turn_index) + 1, 0) FROM turns WHERE session_id = ?`,
		sessionID).Scan(&index)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO turns (session_id, turn_index, query, results, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, index, queryJSON, resultsJSON, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return index, nil
}

func (s *SQLiteStore) Latest(ctx context.Context, sessionID string) (*models.Turn, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, turn_index, query, results, created_at
		FROM turns WHERE session_id = ?
		ORDER BY turn_index DESC LIMIT 1`, sessionID)

	turn, err := scanTurn(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return turn, nil
}

func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, turn_index, query, results, created_at
		FROM turns WHERE session_id = ?
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTurn(row rowScanner) (*models.Turn, error) {
	var t models.Turn
	var queryJSON, resultsJSON []byte
	if err := row.Scan(&t.SessionID, &t.Index, &queryJSON, &resultsJSON, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(queryJSON, &t.Query); err != nil {
		return nil, fmt.Errorf("unmarshal query: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &t.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return &t, nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.SearchRun) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO search_runs (session_id, started_at, status, candidates_found, results_returned, providers_failed)
		VALUES (?, ?, ?, 0, 0, 0)`,
		run.SessionID, run.StartedAt, run.Status)
	if err != nil {
		return err
	}
	run.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *models.SearchRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE search_runs
		SET finished_at = ?, status = ?, candidates_found = ?, results_returned = ?, providers_failed = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.CandidatesFound, run.ResultsReturned, run.ProvidersFailed, run.ID)
	return err
}

func (s *SQLiteStore) LogFetchEvent(ctx context.Context, event *models.FetchEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_events (run_id, provider_id, timestamp, level, message, attempts)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.RunID, event.ProviderID, event.Timestamp, event.Level, event.Message, event.Attempts)
	return err
}

func (s *SQLiteStore) PruneExpired(ctx context.Context, cutoff time.Time) (int, error) {
	var sessions int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT session_id FROM turns
			GROUP BY session_id
			HAVING MAX(created_at) < ?
		)`, cutoff.UTC()).Scan(&sessions)
	if err != nil {
		return 0, err
	}
	if sessions == 0 {
		return 0, nil
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM turns WHERE session_id IN (
			SELECT session_id FROM turns
			GROUP BY session_id
			HAVING MAX(created_at) < ?
		)`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return sessions, nil
}
