package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/anchor-demo/cmd/utils"
	"github.com/stellar/anchor-demo/internal/demo"
	"github.com/stellar/anchor-demo/internal/flows"
	"github.com/stellar/anchor-demo/internal/signing"
	"github.com/stellar/anchor-demo/internal/ui"
)

// runCmd runs one flow. When flow is empty the user picks it, the way the wallet page offered both buttons.
type runCmd struct {
	flow string
}

func (c *runCmd) use() (string, string) {
	switch c.flow {
	case flows.WithdrawFlow:
		return "withdraw", "Withdraw an asset through the anchor (SEP-10 + SEP-6)"
	case flows.DepositFlow:
		return "deposit", "Deposit an asset through the anchor (SEP-10 + SEP-6)"
	default:
		return "start", "Show the wallet and choose between withdraw and deposit"
	}
}

func (c *runCmd) Command() *cobra.Command {
	cfg := demo.Configs{}
	var signatureProvider signing.SignatureClientType
	cfgOpts := config.ConfigOptions{
		utils.HomeDomainOption(&cfg.HomeDomain),
		utils.AssetCodeOption(&cfg.AssetCode),
		utils.AssetIssuerOption(&cfg.AssetIssuer),
		utils.WalletSecretKeyOption(&cfg.WalletSecretKey),
		utils.WalletSignatureProviderOption(&signatureProvider),
		utils.AmountOption(&cfg.Amount),
		utils.PubnetOption(&cfg.Pubnet),
		utils.HorizonURLOption(&cfg.HorizonURL),
		utils.AllowHTTPOption(&cfg.AllowHTTP),
		utils.AutoAdvanceOption(&cfg.AutoAdvance),
		utils.TraceBodiesOption(&cfg.TraceBodies),
		utils.MinStepDurationOption(&cfg.MinStepDuration),
		utils.PollIntervalOption(&cfg.PollInterval),
		utils.PollTimeoutOption(&cfg.PollTimeout),
		utils.LogLevelOption(&cfg.LogLevel),
		utils.SentryDSNOption(&cfg.TrackerDSN),
		utils.StellarEnvironmentOption(&cfg.StellarEnvironment),
		utils.DatabaseURLOption(&cfg.DatabaseURL),
		utils.MetricsPortOption(&cfg.MetricsPort),
	}
	cfgOpts = append(cfgOpts, utils.WithdrawDestinationOptions(&cfg.WithdrawType, &cfg.WithdrawDest, &cfg.WithdrawDestExtra)...)

	use, short := c.use()
	cmd := &cobra.Command{
		Use:               use,
		Short:             short,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: utils.DefaultPersistentPreRunE(cfgOpts),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			prompter, err := utils.NewDefaultPasswordPrompter("Wallet secret key:", os.Stdin, os.Stdout)
			if err != nil {
				return fmt.Errorf("creating secret prompter: %w", err)
			}
			cfg.WalletSecretKey, err = utils.ResolveSecret(cfg.WalletSecretKey, prompter)
			if err != nil && !errors.Is(err, utils.ErrNotATerminal) {
				return err
			}

			return c.run(ctx, cfg, signatureProvider, ui.NewConsole(cmd.OutOrStdout(), cmd.InOrStdin(), cfg.TraceBodies))
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func (c *runCmd) run(ctx context.Context, cfg demo.Configs, signatureProvider signing.SignatureClientType, console demo.Console) error {
	if err := demo.CheckConfig(cfg, console); err != nil {
		return err
	}
	signer, err := utils.SignatureClientResolver(&utils.SignatureClientOptions{
		Type:              signatureProvider,
		NetworkPassphrase: cfg.Network().Passphrase(),
		WalletSecretKey:   cfg.WalletSecretKey,
	})
	if err != nil {
		return err
	}

	flow := c.flow
	if flow == "" {
		// the pubnet warning has to be on screen before the user picks a flow
		cfg.Network().Apply(console)
		if flow, err = demo.ChooseFlow(ctx, console); err != nil {
			return err
		}
	}

	if err = demo.Run(ctx, cfg, flow, signer, console); err != nil {
		return fmt.Errorf("running %s: %w", flow, err)
	}
	return nil
}
