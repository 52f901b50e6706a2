package data

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null"

	"github.com/stellar/anchor-demo/internal/db"
)

type RunStep struct {
	ID           int64       `db:"id"`
	RunID        int64       `db:"run_id"`
	Position     int         `db:"position"`
	Name         string      `db:"name"`
	DurationMS   int64       `db:"duration_ms"`
	ErrorMessage null.String `db:"error_message"`
	CreatedAt    time.Time   `db:"created_at"`
}

type RunStepModel struct {
	DB db.ConnectionPool
}

func (m *RunStepModel) Insert(ctx context.Context, sqlExec db.SQLExecuter, runID int64, position int, name string, duration time.Duration, stepErr error) error {
	const query = `
		INSERT INTO run_steps (run_id, position, name, duration_ms, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	errMessage := null.String{}
	if stepErr != nil {
		errMessage = null.StringFrom(stepErr.Error())
	}

	_, err := sqlExec.ExecContext(ctx, query, runID, position, name, duration.Milliseconds(), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("inserting step %s for run %d: %w", name, runID, err)
	}
	return nil
}

func (m *RunStepModel) GetByRunID(ctx context.Context, runID int64) ([]*RunStep, error) {
	const query = `SELECT * FROM run_steps WHERE run_id = ? ORDER BY position ASC`
	var steps []*RunStep
	err := m.DB.SelectContext(ctx, &steps, query, runID)
	if err != nil {
		return nil, fmt.Errorf("getting steps for run %d: %w", runID, err)
	}
	return steps, nil
}
