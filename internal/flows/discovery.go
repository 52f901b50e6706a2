package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/anchor-demo/internal/steps"
	"github.com/stellar/anchor-demo/internal/ui"
	"github.com/stellar/anchor-demo/pkg/anchorclient"
)

var ErrAssetNotEnabled = errors.New("asset is not enabled at the anchor")

type initialStep struct {
	steps.BaseStep
	deps *Deps
}

func newInitialStep(deps *Deps) *initialStep {
	return &initialStep{
		BaseStep: steps.BaseStep{
			StepName:        "initial",
			StepInstruction: "We start by loading the wallet account from Horizon so we know it exists on the network.",
			StepAction:      "Load wallet account",
			Page:            WalletPage,
			Auto:            true,
		},
		deps: deps,
	}
}

func (s *initialStep) Execute(ctx context.Context, state *steps.State, actions ui.Actions) error {
	address, err := s.deps.Signer.GetAccountPublicKey(ctx)
	if err != nil {
		return fmt.Errorf("getting wallet public key: %w", err)
	}

	account, err := s.deps.Ledger.LoadAccount(ctx, address)
	if err != nil {
		return err
	}
	state.Account = account.AccountID

	log.Ctx(ctx).Infof("wallet account %s has %d balances", account.AccountID, len(account.Balances))
	return nil
}

type checkTomlStep struct {
	steps.BaseStep
	deps *Deps
}

func newCheckTomlStep(deps *Deps) *checkTomlStep {
	return &checkTomlStep{
		BaseStep: steps.BaseStep{
			StepName:        "check_toml",
			StepInstruction: "The wallet reads the anchor's stellar.toml to discover its SEP-6 transfer server and SEP-10 auth server.",
			StepAction:      "Fetch stellar.toml",
		},
		deps: deps,
	}
}

func (s *checkTomlStep) Execute(ctx context.Context, state *steps.State, _ ui.Actions) error {
	toml, err := s.deps.Anchor.FetchStellarToml(ctx, state.HomeDomain)
	if err != nil {
		return err
	}

	if toml.NetworkPassphrase != "" && state.NetworkPassphrase != "" && toml.NetworkPassphrase != state.NetworkPassphrase {
		return fmt.Errorf("the anchor runs on %q but the wallet is configured for %q", toml.NetworkPassphrase, state.NetworkPassphrase)
	}
	if toml.TransferServer == "" {
		return anchorclient.ErrMissingTransferServer
	}
	state.TransferServer = toml.TransferServer
	state.AuthServer = toml.WebAuthEndpoint
	state.SigningKey = toml.SigningKey

	if state.AssetIssuer == "" {
		currency, ok := toml.FindCurrency(state.AssetCode)
		if !ok || currency.Issuer == "" {
			return fmt.Errorf("asset %s is not listed with an issuer in the anchor's stellar.toml", state.AssetCode)
		}
		state.AssetIssuer = currency.Issuer
	}

	log.Ctx(ctx).WithFields(log.F{
		"transfer_server": state.TransferServer,
		"auth_server":     state.AuthServer,
		"asset":           state.AssetCode + ":" + state.AssetIssuer,
	}).Info("discovered anchor endpoints")
	return nil
}

type checkInfoStep struct {
	steps.BaseStep
	deps *Deps
	flow string
}

func newCheckInfoStep(deps *Deps, flow string) *checkInfoStep {
	return &checkInfoStep{
		BaseStep: steps.BaseStep{
			StepName:        "check_info",
			StepInstruction: fmt.Sprintf("The wallet asks the transfer server's /info endpoint whether %s is supported for the asset.", flow),
			StepAction:      "Check /info",
		},
		deps: deps,
		flow: flow,
	}
}

func (s *checkInfoStep) Execute(ctx context.Context, state *steps.State, _ ui.Actions) error {
	info, err := s.deps.Anchor.Info(ctx, state.TransferServer)
	if err != nil {
		return err
	}
	state.Info = info

	switch s.flow {
	case DepositFlow:
		asset, ok := info.Deposit[state.AssetCode]
		if !ok || !asset.Enabled {
			return fmt.Errorf("deposit of %s: %w", state.AssetCode, ErrAssetNotEnabled)
		}
		state.AuthRequired = asset.AuthenticationRequired
	default:
		asset, ok := info.Withdraw[state.AssetCode]
		if !ok || !asset.Enabled {
			return fmt.Errorf("withdraw of %s: %w", state.AssetCode, ErrAssetNotEnabled)
		}
		state.AuthRequired = asset.AuthenticationRequired
	}
	return nil
}
