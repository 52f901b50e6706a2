package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/anchor-demo/internal/apptracker"
	"github.com/stellar/anchor-demo/internal/data"
	"github.com/stellar/anchor-demo/internal/db"
	"github.com/stellar/anchor-demo/internal/metrics"
	"github.com/stellar/anchor-demo/internal/ui"
)

const (
	DefaultMinStepDuration = time.Second
	FinishedText           = "Finished"
)

type RunnerOptions struct {
	Flow            string
	UI              ui.Actions
	Prompter        ui.Prompter
	AutoAdvance     bool
	MinStepDuration time.Duration
	MetricsService  metrics.MetricsService
	AppTracker      apptracker.AppTracker
	// Models is optional; without it runs are not recorded.
	Models *data.Models
}

func (o *RunnerOptions) ValidateOptions() error {
	if o.Flow == "" {
		return errors.New("flow cannot be empty")
	}
	if o.UI == nil {
		return errors.New("ui cannot be nil")
	}
	if o.Prompter == nil && !o.AutoAdvance {
		return errors.New("prompter cannot be nil unless auto advance is enabled")
	}
	if o.MetricsService == nil {
		return errors.New("metrics service cannot be nil")
	}
	if o.AppTracker == nil {
		return errors.New("app tracker cannot be nil")
	}
	if o.MinStepDuration < 0 {
		return fmt.Errorf("min step duration cannot be negative: %s", o.MinStepDuration)
	}
	return nil
}

// Runner executes steps one after another. Every successful step lasts at least MinStepDuration and the first failure
// halts the run.
type Runner struct {
	opts RunnerOptions
	pool pond.Pool
}

func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := opts.ValidateOptions(); err != nil {
		return nil, fmt.Errorf("validating runner options: %w", err)
	}

	// one worker for the step, one for the pacing timer
	pool := pond.NewPool(2)
	opts.MetricsService.RegisterPoolMetrics("steps_"+opts.Flow, pool)

	return &Runner{opts: opts, pool: pool}, nil
}

// Close stops the runner's worker pool.
func (r *Runner) Close() {
	r.pool.StopAndWait()
}

// Run executes steps in order against state. It returns the first step error, after reporting it to the UI.
func (r *Runner) Run(ctx context.Context, steps []Step, state *State) (err error) {
	ctx = log.Set(ctx, log.Ctx(ctx).WithField("flow", r.opts.Flow))
	r.opts.MetricsService.IncRunsStarted(r.opts.Flow)
	runID := r.startRun(ctx, state)
	var failed *stepRecord
	defer func() {
		r.finishRun(ctx, runID, state, failed, err)
	}()

	if len(steps) > 0 {
		r.opts.UI.SetLoading(false, steps[0].Action())
	}

	for i, step := range steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("running flow %s: %w", r.opts.Flow, ctxErr)
		}

		r.opts.UI.SetDevicePage(step.DevicePage())
		r.opts.UI.Instruction(step.Instruction())

		if !r.opts.AutoAdvance && !step.AutoStart() {
			if waitErr := r.opts.Prompter.WaitForNext(ctx, step.Action()); waitErr != nil {
				return fmt.Errorf("waiting to start step %s: %w", step.Name(), waitErr)
			}
		}

		r.opts.UI.SetLoading(true, "")
		start := time.Now()
		stepErr := r.execute(ctx, step, state)
		record := stepRecord{position: i, name: step.Name(), duration: time.Since(start), err: stepErr}
		r.observeStep(ctx, record)

		if stepErr != nil {
			failed = &record
			r.opts.UI.Error(stepErr)
			r.opts.UI.SetLoading(false, "")
			return fmt.Errorf("step %s: %w", step.Name(), stepErr)
		}
		r.insertStep(ctx, runID, record)

		nextAction := ""
		if i+1 < len(steps) {
			nextAction = steps[i+1].Action()
		}
		r.opts.UI.SetLoading(false, nextAction)
	}

	r.opts.UI.SetLoading(true, FinishedText)
	return nil
}

// execute runs the step next to the pacing timer. A successful step returns once both are done; a failing step
// returns right away.
func (r *Runner) execute(ctx context.Context, step Step, state *State) error {
	group := r.pool.NewGroupContext(ctx)
	group.SubmitErr(
		func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("step panicked: %v", p)
				}
			}()
			return step.Execute(ctx, state, r.opts.UI)
		},
		func() error {
			timer := time.NewTimer(r.opts.MinStepDuration)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-group.Context().Done():
			}
			return nil
		},
	)
	return group.Wait() //nolint:wrapcheck // the step's own error is what the caller reports
}

type stepRecord struct {
	position int
	name     string
	duration time.Duration
	err      error
}

func (r *Runner) observeStep(ctx context.Context, record stepRecord) {
	r.opts.MetricsService.ObserveStepDuration(r.opts.Flow, record.name, record.duration.Seconds())
	logger := log.Ctx(ctx).WithFields(log.F{"step": record.name, "duration": record.duration.String()})
	if record.err == nil {
		logger.Info("step completed")
		return
	}

	r.opts.MetricsService.IncStepErrors(r.opts.Flow, record.name)
	if errors.Is(record.err, context.Canceled) {
		logger.Warn("step canceled")
		return
	}
	r.opts.AppTracker.CaptureStepError(r.opts.Flow, record.name, record.err)
	logger.WithError(record.err).Error("step failed")
}

func (r *Runner) insertStep(ctx context.Context, runID int64, record stepRecord) {
	if r.opts.Models == nil || runID == 0 {
		return
	}
	err := r.opts.Models.RunSteps.Insert(ctx, r.opts.Models.DB, runID, record.position, record.name, record.duration, record.err)
	if err != nil {
		log.Ctx(ctx).Errorf("recording step %s: %v", record.name, err)
	}
}

func (r *Runner) startRun(ctx context.Context, state *State) int64 {
	if r.opts.Models == nil {
		return 0
	}
	account, _, _ := state.Snapshot()
	runID, err := r.opts.Models.Runs.Create(ctx, &data.Run{
		Flow:              r.opts.Flow,
		Account:           account,
		HomeDomain:        state.HomeDomain,
		AssetCode:         state.AssetCode,
		NetworkPassphrase: state.NetworkPassphrase,
	})
	if err != nil {
		log.Ctx(ctx).Errorf("recording run start: %v", err)
		return 0
	}
	return runID
}

// finishRun stores the run outcome together with the failed step, if any, in one transaction.
func (r *Runner) finishRun(ctx context.Context, runID int64, state *State, failed *stepRecord, runErr error) {
	status := data.RunStatusCompleted
	if runErr != nil {
		status = data.RunStatusFailed
	}
	r.opts.MetricsService.IncRunsFinished(r.opts.Flow, string(status))

	if r.opts.Models == nil || runID == 0 {
		return
	}
	account, anchorTxID, stellarTxHash := state.Snapshot()
	outcome := data.RunOutcome{
		Status:                 status,
		Account:                account,
		AnchorTransactionID:    anchorTxID,
		StellarTransactionHash: stellarTxHash,
		Err:                    runErr,
	}
	// the run may have been canceled; the outcome is still worth keeping
	dbCtx := context.WithoutCancel(ctx)
	err := db.RunInTransaction(dbCtx, r.opts.Models.DB, nil, func(dbTx db.Transaction) error {
		if failed != nil {
			if err := r.opts.Models.RunSteps.Insert(dbCtx, dbTx, runID, failed.position, failed.name, failed.duration, failed.err); err != nil {
				return err
			}
		}
		return r.opts.Models.Runs.Finish(dbCtx, dbTx, runID, outcome)
	})
	if err != nil {
		log.Ctx(ctx).Errorf("recording run %d outcome: %v", runID, err)
	}
}
