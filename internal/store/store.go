// Package store handles SQLite persistence of finished quiz runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/regquiz/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL UNIQUE,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			topics TEXT NOT NULL,
			bank_path TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			answered INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_topic_stats (
			run_id INTEGER NOT NULL,
			topic TEXT NOT NULL,
			correct INTEGER NOT NULL,
			total INTEGER NOT NULL,
			PRIMARY KEY (run_id, topic)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_run_topic_stats_topic ON run_topic_stats(topic);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a finished run and its per-topic tallies.
func (s *Store) InsertRun(ctx context.Context, run model.RunStats, topics []model.TopicStats) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, ended_at, topics, bank_path, score, total, answered)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.StartedAt.Format(time.RFC3339Nano),
		run.EndedAt.Format(time.RFC3339Nano),
		strings.Join(run.Topics, ","),
		run.BankPath,
		run.Score,
		run.Total,
		run.Answered,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(topics) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO run_topic_stats (run_id, topic, correct, total) VALUES (?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ts := range topics {
			if _, err = stmt.ExecContext(ctx, id, ts.Topic, ts.Correct, ts.Total); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetWeakTopics aggregates topic tallies over the most recent runs.
func (s *Store) GetWeakTopics(ctx context.Context, window int) ([]model.TopicAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_runs AS (
		SELECT id FROM runs
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT ts.topic, SUM(ts.correct) AS correct, SUM(ts.total) AS total, COUNT(*) AS runs
	FROM run_topic_stats ts
	JOIN recent_runs r ON r.id = ts.run_id
	GROUP BY ts.topic`

	rows, err := s.db.QueryContext(ctx, query, window)
	if err != nil {
		return nil, err
	}
	return scanTopicAggregates(rows)
}

// ListRuns returns run aggregates filtered by the history config, oldest first.
func (s *Store) ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.RunAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Topic != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM run_topic_stats ts WHERE ts.run_id = runs.id AND ts.topic = ?)")
		args = append(args, cfg.Topic)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, run_id, ended_at, score, total
		FROM runs
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunAggregate
	for rows.Next() {
		var agg model.RunAggregate
		var endedAt string
		if err := rows.Scan(&agg.ID, &agg.RunID, &endedAt, &agg.Score, &agg.Total); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		runs = append(runs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListTopicAggregatesForRuns aggregates per-topic tallies across runs.
func (s *Store) ListTopicAggregatesForRuns(ctx context.Context, runIDs []int64) ([]model.TopicAggregate, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	placeholders, args := idArgs(runIDs)
	query := fmt.Sprintf(`SELECT topic, SUM(correct) AS correct, SUM(total) AS total, COUNT(*) AS runs
		FROM run_topic_stats
		WHERE run_id IN (%s)
		GROUP BY topic`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanTopicAggregates(rows)
}

// ListTopicStatsForRuns returns per-run tallies of one topic, keyed by run.
func (s *Store) ListTopicStatsForRuns(ctx context.Context, runIDs []int64, topic string) (map[int64]model.TopicStats, error) {
	result := map[int64]model.TopicStats{}
	if len(runIDs) == 0 || topic == "" {
		return result, nil
	}
	placeholders, args := idArgs(runIDs)
	args = append(args, topic)
	query := fmt.Sprintf(`SELECT run_id, topic, correct, total
		FROM run_topic_stats
		WHERE run_id IN (%s) AND topic = ?`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var runID int64
		var ts model.TopicStats
		if err := rows.Scan(&runID, &ts.Topic, &ts.Correct, &ts.Total); err != nil {
			return nil, err
		}
		result[runID] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func idArgs(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func scanTopicAggregates(rows *sql.Rows) ([]model.TopicAggregate, error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.TopicAggregate
	for rows.Next() {
		var agg model.TopicAggregate
		if err := rows.Scan(&agg.Topic, &agg.Correct, &agg.Total, &agg.Runs); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
