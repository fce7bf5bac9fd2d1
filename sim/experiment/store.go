package experiment

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"

	"github.com/simul-sim/simul/sim"
)

//go:embed schema.sql
var schemaSQL string

// Store persists experiment trials in SQLite.
type Store struct {
	db *sql.DB
}

// TrialRecord is a stored trial. Params holds the YAML encoding of the candidate.
type TrialRecord struct {
	RunID        uuid.UUID
	ExperimentID string
	Index        int
	Params       string
	Score        float64 // -Inf for failed trials
	FinalTime    sim.DiscreteTime
	Ticks        uint64
	HaltReason   string
	Error        string
	CreatedAt    time.Time
}

// Failed reports whether the stored trial did not produce a score.
func (r TrialRecord) Failed() bool { return math.IsInf(r.Score, -1) }

// Open creates or opens a SQLite database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer; a single connection also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveTrials stores trials under experimentID in one transaction.
// Trials that never started (zero RunID) are skipped.
func SaveTrials[P any](ctx context.Context, s *Store, experimentID string, trials []Trial[P]) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trials (run_id, experiment_id, trial_index, params, score, final_time, ticks, halt_reason, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, t := range trials {
		if t.RunID == uuid.Nil {
			continue
		}
		params, err := yaml.Marshal(t.Params)
		if err != nil {
			return fmt.Errorf("trial %d: encode params: %w", t.Index, err)
		}
		var score sql.NullFloat64
		if !t.Failed() {
			score = sql.NullFloat64{Float64: t.Score, Valid: true}
		}
		var errText string
		if t.Err != nil {
			errText = t.Err.Error()
		}
		if _, err := stmt.ExecContext(ctx,
			t.RunID.String(), experimentID, t.Index, string(params), score,
			int64(t.FinalTime), int64(t.Ticks), t.HaltReason.String(), errText, now,
		); err != nil {
			return fmt.Errorf("trial %d: insert: %w", t.Index, err)
		}
	}
	return tx.Commit()
}

// Trials returns the trials stored under experimentID in index order.
func (s *Store) Trials(ctx context.Context, experimentID string) ([]TrialRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, experiment_id, trial_index, params, score, final_time, ticks, halt_reason, error, created_at
		FROM trials WHERE experiment_id = ? ORDER BY trial_index, run_id`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	var out []TrialRecord
	for rows.Next() {
		rec, err := scanTrial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Best returns the highest-scoring successful trial of experimentID.
// It returns ErrNoViableTrial when no such trial is stored.
func (s *Store) Best(ctx context.Context, experimentID string) (TrialRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, experiment_id, trial_index, params, score, final_time, ticks, halt_reason, error, created_at
		FROM trials WHERE experiment_id = ? AND score IS NOT NULL
		ORDER BY score DESC, trial_index ASC LIMIT 1`, experimentID)
	rec, err := scanTrial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TrialRecord{}, fmt.Errorf("experiment %q: %w", experimentID, ErrNoViableTrial)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrial(sc scanner) (TrialRecord, error) {
	var (
		rec       TrialRecord
		runID     string
		score     sql.NullFloat64
		finalTime int64
		ticks     int64
		createdAt string
	)
	if err := sc.Scan(&runID, &rec.ExperimentID, &rec.Index, &rec.Params, &score,
		&finalTime, &ticks, &rec.HaltReason, &rec.Error, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan trial: %w", err)
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return rec, fmt.Errorf("parse run id %q: %w", runID, err)
	}
	rec.RunID = id
	rec.Score = math.Inf(-1)
	if score.Valid {
		rec.Score = score.Float64
	}
	rec.FinalTime = sim.DiscreteTime(finalTime)
	rec.Ticks = uint64(ticks)
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return rec, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return rec, nil
}

// DecodeParams decodes a stored record's parameters into P.
func DecodeParams[P any](rec TrialRecord) (P, error) {
	var p P
	if err := yaml.Unmarshal([]byte(rec.Params), &p); err != nil {
		return p, fmt.Errorf("decode params of %s: %w", rec.RunID, err)
	}
	return p, nil
}
