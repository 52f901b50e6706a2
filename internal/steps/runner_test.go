package steps

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stellar/anchor-demo/internal/apptracker"
	"github.com/stellar/anchor-demo/internal/apptracker/dryrun"
	"github.com/stellar/anchor-demo/internal/data"
	"github.com/stellar/anchor-demo/internal/db/dbtest"
	"github.com/stellar/anchor-demo/internal/metrics"
	"github.com/stellar/anchor-demo/internal/ui"
)

func newTestRunner(t *testing.T, opts RunnerOptions) *Runner {
	t.Helper()
	if opts.Flow == "" {
		opts.Flow = "withdraw"
	}
	if opts.MetricsService == nil {
		opts.MetricsService = metrics.NewMetricsService(nil)
	}
	if opts.AppTracker == nil {
		opts.AppTracker = &dryrun.DryRunTracker{}
	}
	runner, err := NewRunner(opts)
	require.NoError(t, err)
	t.Cleanup(runner.Close)
	return runner
}

func namedStep(name, action string, auto bool, fn func(ctx context.Context, state *State, actions ui.Actions) error) Step {
	return FuncStep{
		BaseStep: BaseStep{StepName: name, StepInstruction: name + " instruction", StepAction: action, Auto: auto},
		Fn:       fn,
	}
}

func TestRunnerOptions_ValidateOptions(t *testing.T) {
	valid := func() RunnerOptions {
		return RunnerOptions{
			Flow:           "withdraw",
			UI:             &ui.Recorder{},
			Prompter:       &ui.MockPrompter{},
			MetricsService: metrics.NewMockMetricsService(),
			AppTracker:     &apptracker.MockAppTracker{},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(o *RunnerOptions)
		wantErr string
	}{
		{name: "valid", mutate: func(o *RunnerOptions) {}},
		{name: "empty_flow", mutate: func(o *RunnerOptions) { o.Flow = "" }, wantErr: "flow cannot be empty"},
		{name: "nil_ui", mutate: func(o *RunnerOptions) { o.UI = nil }, wantErr: "ui cannot be nil"},
		{name: "nil_prompter", mutate: func(o *RunnerOptions) { o.Prompter = nil }, wantErr: "prompter cannot be nil unless auto advance is enabled"},
		{name: "nil_prompter_auto_advance", mutate: func(o *RunnerOptions) { o.Prompter = nil; o.AutoAdvance = true }},
		{name: "nil_metrics", mutate: func(o *RunnerOptions) { o.MetricsService = nil }, wantErr: "metrics service cannot be nil"},
		{name: "nil_tracker", mutate: func(o *RunnerOptions) { o.AppTracker = nil }, wantErr: "app tracker cannot be nil"},
		{name: "negative_duration", mutate: func(o *RunnerOptions) { o.MinStepDuration = -time.Second }, wantErr: "min step duration cannot be negative: -1s"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := valid()
			tc.mutate(&opts)
			err := opts.ValidateOptions()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tc.wantErr)
			}
		})
	}
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("runs_all_steps_in_order", func(t *testing.T) {
		recorder := &ui.Recorder{}
		runner := newTestRunner(t, RunnerOptions{UI: recorder, AutoAdvance: true})

		var order []string
		s := []Step{
			namedStep("first", "Start", false, func(_ context.Context, state *State, _ ui.Actions) error {
				order = append(order, "first")
				state.Account = "GA"
				return nil
			}),
			namedStep("second", "Continue", false, func(_ context.Context, state *State, _ ui.Actions) error {
				order = append(order, "second")
				assert.Equal(t, "GA", state.Account)
				return nil
			}),
		}

		err := runner.Run(ctx, s, &State{})
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, order)
		assert.Equal(t, []string{
			"loading:false:Start",
			"device:" + ui.DefaultDevicePage,
			"instruction:first instruction",
			"loading:true:",
			"loading:false:Continue",
			"device:" + ui.DefaultDevicePage,
			"instruction:second instruction",
			"loading:true:",
			"loading:false:",
			"loading:true:Finished",
		}, recorder.Snapshot())
	})

	t.Run("empty_step_list_finishes_immediately", func(t *testing.T) {
		recorder := &ui.Recorder{}
		runner := newTestRunner(t, RunnerOptions{UI: recorder, Prompter: &ui.MockPrompter{}})

		require.NoError(t, runner.Run(ctx, nil, &State{}))
		assert.Equal(t, []string{"loading:true:Finished"}, recorder.Snapshot())
	})

	t.Run("waits_for_user_unless_auto_start", func(t *testing.T) {
		recorder := &ui.Recorder{}
		prompter := &ui.MockPrompter{}
		defer prompter.AssertExpectations(t)
		prompter.On("WaitForNext", mock.Anything, "Sign").Return(nil).Once()

		runner := newTestRunner(t, RunnerOptions{UI: recorder, Prompter: prompter})
		s := []Step{
			namedStep("auto", "Start", true, nil),
			namedStep("manual", "Sign", false, nil),
		}
		require.NoError(t, runner.Run(ctx, s, &State{}))
	})

	t.Run("prompter_error_halts", func(t *testing.T) {
		recorder := &ui.Recorder{}
		prompter := &ui.MockPrompter{}
		defer prompter.AssertExpectations(t)
		prompter.On("WaitForNext", mock.Anything, "Start").Return(ui.ErrInputClosed).Once()

		var executed atomic.Bool
		runner := newTestRunner(t, RunnerOptions{UI: recorder, Prompter: prompter})
		s := []Step{namedStep("first", "Start", false, func(context.Context, *State, ui.Actions) error {
			executed.Store(true)
			return nil
		})}

		err := runner.Run(ctx, s, &State{})
		require.ErrorIs(t, err, ui.ErrInputClosed)
		assert.False(t, executed.Load())
	})

	t.Run("step_error_halts_and_is_reported", func(t *testing.T) {
		recorder := &ui.Recorder{}
		stepErr := errors.New("anchor unreachable")
		tracker := &apptracker.MockAppTracker{}
		defer tracker.AssertExpectations(t)
		tracker.On("CaptureStepError", "withdraw", "broken", stepErr).Once()

		runner := newTestRunner(t, RunnerOptions{UI: recorder, AutoAdvance: true, AppTracker: tracker})

		var thirdRan atomic.Bool
		s := []Step{
			namedStep("ok", "Start", false, nil),
			namedStep("broken", "Next", false, func(context.Context, *State, ui.Actions) error { return stepErr }),
			namedStep("never", "Last", false, func(context.Context, *State, ui.Actions) error {
				thirdRan.Store(true)
				return nil
			}),
		}

		err := runner.Run(ctx, s, &State{})
		require.ErrorIs(t, err, stepErr)
		assert.EqualError(t, err, "step broken: anchor unreachable")
		assert.False(t, thirdRan.Load())

		events := recorder.Snapshot()
		require.GreaterOrEqual(t, len(events), 2)
		assert.Equal(t, []string{"error:anchor unreachable", "loading:false:"}, events[len(events)-2:])
		assert.NotContains(t, events, "loading:true:Finished")
	})

	t.Run("panicking_step_is_an_error", func(t *testing.T) {
		runner := newTestRunner(t, RunnerOptions{UI: &ui.Recorder{}, AutoAdvance: true})
		s := []Step{namedStep("boom", "Start", false, func(context.Context, *State, ui.Actions) error { panic("nil map") })}

		err := runner.Run(ctx, s, &State{})
		assert.EqualError(t, err, "step boom: step panicked: nil map")
	})

	t.Run("canceled_context_halts", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		runner := newTestRunner(t, RunnerOptions{UI: &ui.Recorder{}, AutoAdvance: true})

		err := runner.Run(cancelCtx, []Step{namedStep("first", "Start", false, nil)}, &State{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunner_MinStepDuration(t *testing.T) {
	ctx := context.Background()

	t.Run("instant_step_takes_the_minimum", func(t *testing.T) {
		runner := newTestRunner(t, RunnerOptions{UI: &ui.Recorder{}, AutoAdvance: true, MinStepDuration: 50 * time.Millisecond})
		s := []Step{namedStep("a", "A", false, nil), namedStep("b", "B", false, nil)}

		start := time.Now()
		require.NoError(t, runner.Run(ctx, s, &State{}))
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("slow_step_is_not_extended", func(t *testing.T) {
		runner := newTestRunner(t, RunnerOptions{UI: &ui.Recorder{}, AutoAdvance: true, MinStepDuration: 10 * time.Millisecond})
		s := []Step{namedStep("slow", "A", false, func(context.Context, *State, ui.Actions) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		})}

		start := time.Now()
		require.NoError(t, runner.Run(ctx, s, &State{}))
		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
		assert.Less(t, elapsed, time.Second)
	})
}

func TestRunner_FailingStepSkipsMinStepDuration(t *testing.T) {
	runner := newTestRunner(t, RunnerOptions{UI: &ui.Recorder{}, AutoAdvance: true, MinStepDuration: 2 * time.Second})
	s := []Step{namedStep("broken", "A", false, func(context.Context, *State, ui.Actions) error {
		return errors.New("anchor unreachable")
	})}

	start := time.Now()
	err := runner.Run(context.Background(), s, &State{})
	assert.EqualError(t, err, "step broken: anchor unreachable")
	assert.Less(t, time.Since(start), time.Second)
}

func TestRunner_Cancellation(t *testing.T) {
	t.Run("during_step", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// a canceled step is not an app error
		tracker := &apptracker.MockAppTracker{}
		defer tracker.AssertExpectations(t)

		recorder := &ui.Recorder{}
		runner := newTestRunner(t, RunnerOptions{UI: recorder, AutoAdvance: true, AppTracker: tracker, MinStepDuration: 2 * time.Second})

		var secondRan atomic.Bool
		started := make(chan struct{})
		s := []Step{
			namedStep("poll", "Poll", false, func(ctx context.Context, _ *State, _ ui.Actions) error {
				close(started)
				<-ctx.Done()
				return ctx.Err()
			}),
			namedStep("never", "Next", false, func(context.Context, *State, ui.Actions) error {
				secondRan.Store(true)
				return nil
			}),
		}

		go func() {
			<-started
			cancel()
		}()

		start := time.Now()
		err := runner.Run(ctx, s, &State{})
		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
		assert.False(t, secondRan.Load())
		assert.NotContains(t, recorder.Snapshot(), "loading:true:Finished")
	})

	t.Run("during_wait_for_next", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		prompter := &ui.MockPrompter{}
		defer prompter.AssertExpectations(t)
		prompter.On("WaitForNext", mock.Anything, "Start").
			Run(func(args mock.Arguments) {
				cancel()
				<-args.Get(0).(context.Context).Done()
			}).
			Return(context.Canceled).Once()

		var executed atomic.Bool
		runner := newTestRunner(t, RunnerOptions{UI: &ui.Recorder{}, Prompter: prompter})
		s := []Step{namedStep("first", "Start", false, func(context.Context, *State, ui.Actions) error {
			executed.Store(true)
			return nil
		})}

		err := runner.Run(ctx, s, &State{})
		require.ErrorIs(t, err, context.Canceled)
		assert.EqualError(t, err, "waiting to start step first: context canceled")
		assert.False(t, executed.Load())
	})

	t.Run("recorded_as_failed", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		models, err := data.NewModels(dbtest.Open(t))
		require.NoError(t, err)
		runner := newTestRunner(t, RunnerOptions{UI: &ui.Recorder{}, AutoAdvance: true, Models: models})

		s := []Step{namedStep("poll", "Poll", false, func(ctx context.Context, _ *State, _ ui.Actions) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		})}
		require.ErrorIs(t, runner.Run(ctx, s, &State{}), context.Canceled)

		runs, err := models.Runs.List(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, data.RunStatusFailed, runs[0].Status)
		assert.True(t, runs[0].FinishedAt.Valid)

		recorded, err := models.RunSteps.GetByRunID(context.Background(), runs[0].ID)
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, "poll", recorded[0].Name)
		assert.Equal(t, "context canceled", recorded[0].ErrorMessage.String)
	})
}

func TestRunner_RecordsRun(t *testing.T) {
	ctx := context.Background()
	dbConnectionPool := dbtest.Open(t)
	models, err := data.NewModels(dbConnectionPool)
	require.NoError(t, err)

	metricsService := metrics.NewMockMetricsService()
	defer metricsService.AssertExpectations(t)
	metricsService.On("RegisterPoolMetrics", "steps_deposit", mock.Anything).Once()
	metricsService.On("IncRunsStarted", "deposit").Once()
	metricsService.On("ObserveStepDuration", "deposit", "initial", mock.AnythingOfType("float64")).Once()
	metricsService.On("ObserveStepDuration", "deposit", "get_deposit", mock.AnythingOfType("float64")).Once()
	metricsService.On("IncStepErrors", "deposit", "get_deposit").Once()
	metricsService.On("IncRunsFinished", "deposit", "failed").Once()

	runner := newTestRunner(t, RunnerOptions{
		Flow:           "deposit",
		UI:             &ui.Recorder{},
		AutoAdvance:    true,
		MetricsService: metricsService,
		Models:         models,
	})

	state := &State{HomeDomain: "testanchor.stellar.org", AssetCode: "SRT", NetworkPassphrase: "Test SDF Network ; September 2015"}
	s := []Step{
		namedStep("initial", "Start", false, func(_ context.Context, state *State, _ ui.Actions) error {
			state.Account = "GABC"
			return nil
		}),
		namedStep("get_deposit", "Deposit", false, func(_ context.Context, state *State, _ ui.Actions) error {
			state.TransactionID = "tx-1"
			return errors.New("customer info needed")
		}),
	}

	err = runner.Run(ctx, s, state)
	require.Error(t, err)

	runs, err := models.Runs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "deposit", run.Flow)
	assert.Equal(t, "testanchor.stellar.org", run.HomeDomain)
	assert.Equal(t, data.RunStatusFailed, run.Status)
	assert.Equal(t, "GABC", run.Account)
	assert.Equal(t, "tx-1", run.AnchorTransactionID.String)
	assert.Equal(t, "step get_deposit: customer info needed", run.ErrorMessage.String)
	assert.True(t, run.FinishedAt.Valid)

	recorded, err := models.RunSteps.GetByRunID(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	assert.Equal(t, "initial", recorded[0].Name)
	assert.False(t, recorded[0].ErrorMessage.Valid)
	assert.Equal(t, "get_deposit", recorded[1].Name)
	assert.Equal(t, "customer info needed", recorded[1].ErrorMessage.String)
}

func TestState_ApplyTransaction(t *testing.T) {
	state := &State{StellarMemo: "keep", Amount: "5"}
	state.ApplyTransaction(anchorTransaction())

	assert.Equal(t, "tx-9", state.TransactionID)
	assert.Equal(t, "GANCHOR", state.AnchorsStellarAddress)
	assert.Equal(t, "text", state.StellarMemoType)
	assert.Equal(t, "keep", state.StellarMemo)
	assert.Equal(t, "12.5", state.Amount)
	assert.Equal(t, "pending_user_transfer_start", string(state.TransactionStatus))
}
