// Package postgres persists ingestion run history so operators can see
// which runs failed and re-run only the affected subset.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded ingestion run.
type Run struct {
	ID                string          `json:"id"`
	Workflow          string          `json:"workflow"`
	StartedAt         time.Time       `json:"started_at"`
	FinishedAt        time.Time       `json:"finished_at"`
	CreatedCount      int             `json:"created_count"`
	UnsuccessfulCount int             `json:"unsuccessful_count"`
	ExceptionCount    int             `json:"exception_count"`
	CaseNotesCreated  int             `json:"case_notes_created"`
	LinkedCases       int             `json:"linked_cases"`
	Summary           json.RawMessage `json:"summary,omitempty"`
}

// RunRepo stores runs in PostgreSQL.
type RunRepo struct{ db *sql.DB }

// NewRunRepo creates a Postgres-backed run repository.
func NewRunRepo(db *sql.DB) *RunRepo { return &RunRepo{db: db} }

// Migrate creates the ingestion_runs table if it does not exist.
func (r *RunRepo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ingestion_runs (
			id UUID PRIMARY KEY,
			workflow TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			created_count INT NOT NULL DEFAULT 0,
			unsuccessful_count INT NOT NULL DEFAULT 0,
			exception_count INT NOT NULL DEFAULT 0,
			case_notes_created INT NOT NULL DEFAULT 0,
			linked_cases INT NOT NULL DEFAULT 0,
			summary JSONB
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate ingestion_runs: %w", err)
	}
	return nil
}

// Insert records a finished run. The run id is assigned here when empty.
func (r *RunRepo) Insert(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingestion_runs
			(id, workflow, started_at, finished_at, created_count,
			 unsuccessful_count, exception_count, case_notes_created,
			 linked_cases, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID, run.Workflow, run.StartedAt, run.FinishedAt, run.CreatedCount,
		run.UnsuccessfulCount, run.ExceptionCount, run.CaseNotesCreated,
		run.LinkedCases, run.Summary)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns recent runs, newest first, optionally filtered by workflow.
func (r *RunRepo) List(ctx context.Context, workflow string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, workflow, started_at, finished_at, created_count,
		       unsuccessful_count, exception_count, case_notes_created,
		       linked_cases, summary
		FROM ingestion_runs`
	args := []interface{}{}
	if workflow != "" {
		query += ` WHERE workflow = $1 ORDER BY started_at DESC LIMIT $2`
		args = append(args, workflow, limit)
	} else {
		query += ` ORDER BY started_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var summary sql.NullString
		if err := rows.Scan(&run.ID, &run.Workflow, &run.StartedAt, &run.FinishedAt,
			&run.CreatedCount, &run.UnsuccessfulCount, &run.ExceptionCount,
			&run.CaseNotesCreated, &run.LinkedCases, &summary); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if summary.Valid {
			run.Summary = json.RawMessage(summary.String)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
