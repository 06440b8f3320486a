// Package store persists evaluation runs and generator configs in DuckDB so
// that accuracy can be compared across configs and over time.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"text2cypher/internal/generate"
	"text2cypher/internal/result"
	"text2cypher/internal/runner"
	"text2cypher/internal/score"
)

// ErrNotFound reports a lookup for a run or config that was never saved.
var ErrNotFound = errors.New("store: not found")

// Store wraps a DuckDB database holding run history.
type Store struct {
	db *sql.DB
}

// RunInput describes one finished evaluation run.
type RunInput struct {
	RunID      string
	Benchmark  string
	Config     generate.Config
	Summary    runner.RunSummary
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run is a stored run without its per-item records.
type Run struct {
	RunID      string
	ConfigID   string
	Benchmark  string
	Total      int
	Correct    int
	Accuracy   float64
	Histogram  runner.Histogram
	StartedAt  time.Time
	FinishedAt time.Time
}

// Open opens the DuckDB file at path (":memory:" for a throwaway database)
// and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: path is empty")
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveConfig inserts cfg keyed by its content id. Saving the same config
// twice keeps the first row. It returns the row id.
func (s *Store) SaveConfig(ctx context.Context, cfg generate.Config) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("store: db is nil")
	}
	return saveConfig(ctx, s.db, cfg)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func saveConfig(ctx context.Context, db execer, cfg generate.Config) (string, error) {
	canonical, err := CanonicalJSON(cfg)
	if err != nil {
		return "", err
	}
	configID := cfg.ID()
	if _, err := db.ExecContext(
		ctx,
		`INSERT INTO generator_configs (config_row_id, config_id, name, version, strategy, spec, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, now())
		 ON CONFLICT (config_id) DO NOTHING`,
		uuid.NewString(),
		configID,
		cfg.Name,
		cfg.Version,
		string(cfg.Strategy),
		string(canonical),
	); err != nil {
		return "", fmt.Errorf("upsert config: %w", err)
	}
	rowID, err := lookupID(ctx, db, "generator_configs", "config_row_id", "config_id", configID)
	if err != nil {
		return "", fmt.Errorf("lookup config id: %w", err)
	}
	return rowID, nil
}

// LoadConfig returns the config saved under configID.
func (s *Store) LoadConfig(ctx context.Context, configID string) (generate.Config, error) {
	var spec string
	err := s.db.QueryRowContext(ctx, "SELECT spec FROM generator_configs WHERE config_id = ?", configID).Scan(&spec)
	if errors.Is(err, sql.ErrNoRows) {
		return generate.Config{}, fmt.Errorf("config %s: %w", configID, ErrNotFound)
	}
	if err != nil {
		return generate.Config{}, fmt.Errorf("load config %s: %w", configID, err)
	}
	var cfg generate.Config
	if err := json.Unmarshal([]byte(spec), &cfg); err != nil {
		return generate.Config{}, fmt.Errorf("decode config %s: %w", configID, err)
	}
	return cfg, nil
}

// SaveRun stores the run, its config and every per-item record in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, input RunInput) error {
	if s == nil || s.db == nil {
		return errors.New("store: db is nil")
	}
	if input.RunID == "" {
		return errors.New("store: run id is empty")
	}
	histogram, err := CanonicalJSON(input.Summary.Histogram)
	if err != nil {
		return fmt.Errorf("encode histogram: %w", err)
	}
	finished := input.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	started := input.StartedAt
	if started.IsZero() {
		started = finished
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", input.RunID, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := saveConfig(ctx, tx, input.Config); err != nil {
		return err
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO runs (run_id, config_id, benchmark, total, correct, accuracy, histogram, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.RunID,
		input.Summary.ConfigID,
		input.Benchmark,
		input.Summary.Total,
		input.Summary.Correct,
		input.Summary.Accuracy,
		string(histogram),
		started.UTC(),
		finished.UTC(),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", input.RunID, err)
	}
	for _, record := range input.Summary.PerItem {
		if err := insertRecord(ctx, tx, input.RunID, record); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", input.RunID, err)
	}
	return nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, runID string, record score.Record) error {
	var flipped any
	if len(record.Flipped) > 0 {
		data, err := CanonicalJSON(record.Flipped)
		if err != nil {
			return fmt.Errorf("encode flipped types: %w", err)
		}
		flipped = string(data)
	}
	gold, err := json.Marshal(record.Gold)
	if err != nil {
		return fmt.Errorf("encode gold result: %w", err)
	}
	var candidate, fingerprint any
	if executed(record.Outcome) {
		data, err := json.Marshal(record.Candidate)
		if err != nil {
			return fmt.Errorf("encode candidate result: %w", err)
		}
		sum, err := FingerprintJSON(record.Candidate)
		if err != nil {
			return fmt.Errorf("fingerprint candidate result: %w", err)
		}
		candidate, fingerprint = string(data), sum
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO score_records (run_id, question_id, outcome, correct, failure, message, query, attempts, execution_attempts, flipped, row_count, candidate, gold, candidate_fingerprint)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		record.QuestionID,
		string(record.Outcome),
		record.Correct,
		nullableString(record.Failure),
		nullableString(record.Message),
		record.Query,
		record.Attempts,
		record.ExecutionAttempts,
		flipped,
		record.Rows,
		candidate,
		string(gold),
		fingerprint,
	); err != nil {
		return fmt.Errorf("insert record %s/%s: %w", runID, record.QuestionID, err)
	}
	return nil
}

// executed reports whether the candidate query returned rows to compare.
func executed(outcome score.Outcome) bool {
	return outcome != score.OutcomeExecutionError && outcome != score.OutcomeTimeout
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, config_id, benchmark, total, correct, accuracy, histogram, started_at, finished_at
		FROM runs ORDER BY finished_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var histogram string
		if err := rows.Scan(&run.RunID, &run.ConfigID, &run.Benchmark, &run.Total, &run.Correct, &run.Accuracy, &histogram, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Histogram = runner.NewHistogram()
		if err := json.Unmarshal([]byte(histogram), &run.Histogram); err != nil {
			return nil, fmt.Errorf("decode histogram for %s: %w", run.RunID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// RunRecords returns the per-item records of a run in question id order.
func (s *Store) RunRecords(ctx context.Context, runID string) ([]score.Record, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM runs WHERE run_id = ?", runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup run %s: %w", runID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT r.question_id, r.outcome, r.correct, r.failure, r.message, r.query, r.attempts, r.execution_attempts, r.flipped, r.row_count, r.candidate, r.gold, runs.config_id
		 FROM score_records r JOIN runs ON runs.run_id = r.run_id
		 WHERE r.run_id = ? ORDER BY r.question_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query records %s: %w", runID, err)
	}
	defer rows.Close()

	var records []score.Record
	for rows.Next() {
		var record score.Record
		var outcome string
		var failure, message, flipped, candidate, gold sql.NullString
		if err := rows.Scan(&record.QuestionID, &outcome, &record.Correct, &failure, &message, &record.Query, &record.Attempts, &record.ExecutionAttempts, &flipped, &record.Rows, &candidate, &gold, &record.ConfigID); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		record.Outcome = score.Outcome(outcome)
		record.Failure = failure.String
		record.Message = message.String
		if flipped.Valid {
			if err := json.Unmarshal([]byte(flipped.String), &record.Flipped); err != nil {
				return nil, fmt.Errorf("decode flipped types: %w", err)
			}
		}
		if err := decodeResult(candidate, &record.Candidate); err != nil {
			return nil, fmt.Errorf("decode candidate for %s: %w", record.QuestionID, err)
		}
		if err := decodeResult(gold, &record.Gold); err != nil {
			return nil, fmt.Errorf("decode gold for %s: %w", record.QuestionID, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// OutcomeCounts returns, per config, how many items landed in each outcome
// across every stored run.
func (s *Store) OutcomeCounts(ctx context.Context) (map[string]runner.Histogram, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT config_id, outcome, CAST(sum(items) AS BIGINT) FROM v_outcomes GROUP BY config_id, outcome")
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()
	out := map[string]runner.Histogram{}
	for rows.Next() {
		var configID, outcome string
		var count int64
		if err := rows.Scan(&configID, &outcome, &count); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		histogram, ok := out[configID]
		if !ok {
			histogram = runner.NewHistogram()
			out[configID] = histogram
		}
		histogram[score.Outcome(outcome)] += int(count)
	}
	return out, rows.Err()
}

// decodeResult leaves out untouched when the column is NULL.
func decodeResult(column sql.NullString, out *result.Result) error {
	if !column.Valid {
		return nil
	}
	return json.Unmarshal([]byte(column.String), out)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// lookupID fetches a single ID column value for a row keyed by keyColumn.
func lookupID(ctx context.Context, db execer, table, idColumn, keyColumn, key string) (string, error) {
	query := fmt.Sprintf("SELECT CAST(%s AS VARCHAR) FROM %s WHERE %s = ?", idColumn, table, keyColumn)
	var id string
	if err := db.QueryRowContext(ctx, query, key).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
