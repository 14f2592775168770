package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/openclaw/talent-pipeline/internal/model"
)

// BeginRun implements Store. A run with the same non-empty idempotency key
// that is still running or completed wins and is returned as resumed; a
// failed run releases its key and a fresh run is created. The check and
// insert share one transaction on the store's single write connection, so
// concurrent same-key callers observe a single winning insert; the partial
// unique index on idempotency_key backstops the race.
func (s *SQLiteStore) BeginRun(ctx context.Context, in BeginRunInput) (*BeginRunResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "store: begin run tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if in.IdempotencyKey != "" {
		row := tx.QueryRowContext(ctx,
			`SELECT id, status, role_key, role_title, target_candidates, started_at
			 FROM pipeline_runs
			 WHERE idempotency_key = ? AND status IN ('running', 'completed')
			 LIMIT 1`,
			in.IdempotencyKey,
		)
		var existing model.PipelineRun
		err := row.Scan(&existing.ID, &existing.Status, &existing.RoleKey,
			&existing.RoleTitle, &existing.TargetCandidates, &existing.StartedAt)
		if err == nil {
			existing.IdempotencyKey = in.IdempotencyKey
			if err := tx.Commit(); err != nil {
				return nil, eris.Wrap(err, "store: commit begin run")
			}
			return &BeginRunResult{Run: existing, Resumed: true}, nil
		}
		if err != sql.ErrNoRows {
			return nil, eris.Wrap(err, "store: lookup idempotency key")
		}
	}

	run := model.PipelineRun{
		ID:               uuid.New().String(),
		IdempotencyKey:   in.IdempotencyKey,
		Status:           model.RunStatusRunning,
		RoleKey:          in.RoleKey,
		RoleTitle:        in.RoleTitle,
		TargetCandidates: in.TargetCandidates,
		ConfigJSON:       in.ConfigJSON,
		StartedAt:        model.Millis(time.Now()),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, idempotency_key, status, role_key, role_title, target_candidates, config_json, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.IdempotencyKey, string(run.Status), run.RoleKey, run.RoleTitle,
		run.TargetCandidates, nullIfEmpty(run.ConfigJSON), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert run")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO run_roles (run_id, role_key, criteria_json) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, role_key) DO UPDATE SET criteria_json = excluded.criteria_json`,
		run.ID, run.RoleKey, nullIfEmpty(run.ConfigJSON),
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert run role")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "store: commit begin run")
	}
	return &BeginRunResult{Run: run}, nil
}

func (s *SQLiteStore) finishRun(ctx context.Context, runID string, status model.RunStatus, diag *model.Diagnostics) error {
	summary, err := marshalJSON(diag)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = ?, finished_at = ?, summary_json = ? WHERE id = ?`,
		string(status), model.Millis(time.Now()), nullIfEmpty(summary), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// MarkRunCompleted implements Store.
func (s *SQLiteStore) MarkRunCompleted(ctx context.Context, runID string, diag *model.Diagnostics) error {
	return s.finishRun(ctx, runID, model.RunStatusCompleted, diag)
}

// MarkRunFailed implements Store.
func (s *SQLiteStore) MarkRunFailed(ctx context.Context, runID string, diag *model.Diagnostics) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, diag)
}

const runColumns = `id, idempotency_key, status, role_key, role_title, target_candidates, config_json, summary_json, started_at, finished_at`

func scanRun(row interface{ Scan(...any) error }) (*model.PipelineRun, error) {
	var r model.PipelineRun
	var configJSON, summaryJSON sql.NullString
	var finishedAt sql.NullInt64

	err := row.Scan(&r.ID, &r.IdempotencyKey, &r.Status, &r.RoleKey, &r.RoleTitle,
		&r.TargetCandidates, &configJSON, &summaryJSON, &r.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if configJSON.Valid {
		r.ConfigJSON = configJSON.String
	}
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.Int64
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		r.Diagnostics = &model.Diagnostics{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Diagnostics); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal run diagnostics")
		}
	}
	return &r, nil
}

// GetRun implements Store.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.PipelineRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("store: run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get run")
	}
	return run, nil
}

// ListRecentRuns implements Store.
func (s *SQLiteStore) ListRecentRuns(ctx context.Context, limit int) ([]model.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.PipelineRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "store: list runs iterate")
}

// AddRunFailure implements Store.
func (s *SQLiteStore) AddRunFailure(ctx context.Context, failure model.RunFailure) error {
	createdAt := failure.CreatedAt
	if createdAt == 0 {
		createdAt = model.Millis(time.Now())
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_failures (run_id, stage, candidate_ref, error_type, message, retryable, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		failure.RunID, failure.Stage, nullIfEmpty(failure.CandidateRef), failure.ErrorType,
		failure.Message, boolToInt(failure.Retryable), nullIfEmpty(failure.Payload), createdAt,
	)
	return eris.Wrap(err, "store: add run failure")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: %s not found: %s", entity, id)
	}
	return nil
}
