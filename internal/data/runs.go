// RunModel persists one row per withdraw/deposit run so that the history command can show past attempts.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null"

	"github.com/stellar/anchor-demo/internal/db"
)

var ErrRunNotFound = errors.New("run not found")

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type Run struct {
	ID                     int64       `db:"id"`
	Flow                   string      `db:"flow"`
	Account                string      `db:"account"`
	HomeDomain             string      `db:"home_domain"`
	AssetCode              string      `db:"asset_code"`
	NetworkPassphrase      string      `db:"network_passphrase"`
	Status                 RunStatus   `db:"status"`
	ErrorMessage           null.String `db:"error_message"`
	AnchorTransactionID    null.String `db:"anchor_transaction_id"`
	StellarTransactionHash null.String `db:"stellar_transaction_hash"`
	StartedAt              time.Time   `db:"started_at"`
	FinishedAt             null.Time   `db:"finished_at"`
}

// RunOutcome is what a finished run leaves behind.
type RunOutcome struct {
	Status                 RunStatus
	Account                string
	AnchorTransactionID    string
	StellarTransactionHash string
	Err                    error
}

type RunModel struct {
	DB db.ConnectionPool
}

func (m *RunModel) Create(ctx context.Context, run *Run) (int64, error) {
	const query = `
		INSERT INTO runs (flow, account, home_domain, asset_code, network_passphrase, status, started_at)
		VALUES (:flow, :account, :home_domain, :asset_code, :network_passphrase, :status, :started_at)
	`
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	res, err := m.DB.NamedExecContext(ctx, query, run)
	if err != nil {
		return 0, fmt.Errorf("inserting run for flow %s: %w", run.Flow, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting inserted run id: %w", err)
	}
	run.ID = id

	return id, nil
}

// Finish records the outcome of run id through sqlExec, which may be a transaction.
func (m *RunModel) Finish(ctx context.Context, sqlExec db.SQLExecuter, id int64, outcome RunOutcome) error {
	const query = `
		UPDATE runs SET
			status = ?,
			account = CASE WHEN ? = '' THEN account ELSE ? END,
			error_message = ?,
			anchor_transaction_id = ?,
			stellar_transaction_hash = ?,
			finished_at = ?
		WHERE id = ?
	`
	errMessage := null.String{}
	if outcome.Err != nil {
		errMessage = null.StringFrom(outcome.Err.Error())
	}

	res, err := sqlExec.ExecContext(ctx, query,
		outcome.Status,
		outcome.Account, outcome.Account,
		errMessage,
		null.NewString(outcome.AnchorTransactionID, outcome.AnchorTransactionID != ""),
		null.NewString(outcome.StellarTransactionHash, outcome.StellarTransactionHash != ""),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (m *RunModel) Get(ctx context.Context, id int64) (*Run, error) {
	const query = `SELECT * FROM runs WHERE id = ?`
	var run Run
	err := m.DB.GetContext(ctx, &run, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("getting run %d: %w", id, err)
	}
	return &run, nil
}

// List returns the most recent runs first.
func (m *RunModel) List(ctx context.Context, limit int) ([]*Run, error) {
	const query = `SELECT * FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`
	if limit <= 0 {
		limit = 20
	}
	var runs []*Run
	err := m.DB.SelectContext(ctx, &runs, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}
