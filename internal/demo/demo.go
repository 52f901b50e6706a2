// Package demo wires configuration, the wallet key, Horizon, the anchor client and the step runner into one run of
// the withdraw or deposit flow.
package demo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/anchor-demo/internal/apptracker"
	"github.com/stellar/anchor-demo/internal/apptracker/dryrun"
	"github.com/stellar/anchor-demo/internal/apptracker/sentry"
	"github.com/stellar/anchor-demo/internal/data"
	"github.com/stellar/anchor-demo/internal/db"
	"github.com/stellar/anchor-demo/internal/flows"
	"github.com/stellar/anchor-demo/internal/horizon"
	"github.com/stellar/anchor-demo/internal/metrics"
	"github.com/stellar/anchor-demo/internal/serve"
	"github.com/stellar/anchor-demo/internal/signing"
	"github.com/stellar/anchor-demo/internal/steps"
	"github.com/stellar/anchor-demo/internal/ui"
	"github.com/stellar/anchor-demo/internal/utils"
	"github.com/stellar/anchor-demo/pkg/anchorclient"
)

const sentryFlushSeconds = 5

var ErrInvalidConfig = errors.New("invalid configuration")

// Console is the UI a run talks to.
type Console interface {
	ui.Actions
	ui.Prompter
}

// CheckConfig validates cfg and, when something is wrong, shows the configuration panel before failing.
func CheckConfig(cfg Configs, console ui.Actions) error {
	problems, err := cfg.Validate()
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		return nil
	}
	console.ShowConfig(cfg.ConfigEntries(problems))
	return fmt.Errorf("%w: %d problem(s)", ErrInvalidConfig, len(problems))
}

// NewAppTracker returns a Sentry tracker when a DSN is configured and a logging tracker otherwise.
func NewAppTracker(dsn, environment string) (apptracker.AppTracker, error) {
	if dsn == "" {
		return &dryrun.DryRunTracker{}, nil
	}
	tracker, err := sentry.NewSentryTracker(dsn, environment, sentryFlushSeconds)
	if err != nil {
		return nil, fmt.Errorf("creating sentry tracker: %w", err)
	}
	return tracker, nil
}

// OpenModels opens and migrates the run history database. An empty URL disables history.
func OpenModels(ctx context.Context, databaseURL string) (*data.Models, db.ConnectionPool, error) {
	if databaseURL == "" {
		return nil, nil, nil
	}
	dbConnectionPool, err := db.OpenDBConnectionPool(databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("opening run history database: %w", err)
	}
	if _, err = db.Migrate(ctx, dbConnectionPool, migrate.Up, 0); err != nil {
		dbConnectionPool.Close() //nolint:errcheck // already failing
		return nil, nil, fmt.Errorf("migrating run history database: %w", err)
	}
	models, err := data.NewModels(dbConnectionPool)
	if err != nil {
		dbConnectionPool.Close() //nolint:errcheck // already failing
		return nil, nil, fmt.Errorf("creating models: %w", err)
	}
	return models, dbConnectionPool, nil
}

// Run executes flow against the configured anchor, signing with the wallet key held by signer.
func Run(ctx context.Context, cfg Configs, flow string, signer signing.SignatureClient, console Console) error {
	if err := CheckConfig(cfg, console); err != nil {
		return err
	}
	log.DefaultLogger.SetLevel(cfg.LogLevel)
	ctx = log.Set(ctx, log.Ctx(ctx).WithField("home_domain", cfg.HomeDomain))

	appTracker, err := NewAppTracker(cfg.TrackerDSN, cfg.StellarEnvironment)
	if err != nil {
		return err
	}
	defer appTracker.Flush()

	models, dbConnectionPool, err := OpenModels(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	var sqlxDB *sqlx.DB
	if dbConnectionPool != nil {
		defer utils.DeferredClose(ctx, dbConnectionPool, "closing run history database")
		if sqlxDB, err = dbConnectionPool.SqlxDB(ctx); err != nil {
			return fmt.Errorf("getting sqlx db: %w", err)
		}
	}

	metricsService := metrics.NewMetricsService(sqlxDB)
	if cfg.MetricsPort > 0 {
		serveCtx, stopServing := context.WithCancel(ctx)
		defer stopServing()
		go func() {
			if serveErr := serve.Serve(serveCtx, cfg.MetricsPort, serve.NewHandler(metricsService, appTracker)); serveErr != nil {
				log.Ctx(ctx).Errorf("metrics server: %v", serveErr)
			}
		}()
	}

	mode := cfg.Network()
	if signer.NetworkPassphrase() != mode.Passphrase() {
		return fmt.Errorf("wallet signer is set up for %q, but the run uses %q", signer.NetworkPassphrase(), mode.Passphrase())
	}
	ledger, err := horizon.NewLedger(horizon.NewClient(mode.Horizon()))
	if err != nil {
		return fmt.Errorf("creating ledger: %w", err)
	}

	anchorClient := anchorclient.NewClient()
	anchorClient.Tracer = console
	anchorClient.Observer = metricsService
	anchorClient.AllowHTTP = cfg.AllowHTTP

	deps := &flows.Deps{
		Anchor:         anchorClient,
		Ledger:         ledger,
		Signer:         signer,
		Prompter:       console,
		MetricsService: metricsService,
		AutoAdvance:    cfg.AutoAdvance,
		PollInterval:   cfg.PollInterval,
		PollTimeout:    cfg.PollTimeout,
		Withdraw: flows.WithdrawDestination{
			Type:      cfg.WithdrawType,
			Dest:      cfg.WithdrawDest,
			DestExtra: cfg.WithdrawDestExtra,
		},
	}
	flowSteps, err := flows.Steps(flow, deps)
	if err != nil {
		return fmt.Errorf("building %s steps: %w", flow, err)
	}

	runner, err := steps.NewRunner(steps.RunnerOptions{
		Flow:            flow,
		UI:              console,
		Prompter:        console,
		AutoAdvance:     cfg.AutoAdvance,
		MinStepDuration: cfg.MinStepDuration,
		MetricsService:  metricsService,
		AppTracker:      appTracker,
		Models:          models,
	})
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}
	defer runner.Close()

	mode.Apply(console)
	log.Ctx(ctx).Infof("starting %s on %s", flow, mode.Name())

	state := &steps.State{
		HomeDomain:        cfg.HomeDomain,
		NetworkPassphrase: mode.Passphrase(),
		AssetCode:         cfg.AssetCode,
		AssetIssuer:       cfg.AssetIssuer,
		Amount:            cfg.Amount,
	}
	if err = runner.Run(ctx, flowSteps, state); err != nil {
		return fmt.Errorf("running %s: %w", flow, err)
	}
	return nil
}

// ChooseFlow asks the user which flow to start, the way the wallet page offers withdraw and deposit.
func ChooseFlow(ctx context.Context, console Console) (string, error) {
	console.SetDevicePage(flows.WalletPage)
	console.Instruction("Withdraw and deposit are available for trusted assets in the wallet")
	console.SetLoading(true, "Waiting for user...")

	message, err := console.Choose(ctx, "What would you like to do?", []string{flows.StartWithdrawMessage, flows.StartDepositMessage})
	if err != nil {
		return "", fmt.Errorf("choosing a flow: %w", err)
	}
	console.SetLoading(false, "")

	flow, err := flows.FlowForMessage(message)
	if err != nil {
		return "", err
	}
	return flow, nil
}
