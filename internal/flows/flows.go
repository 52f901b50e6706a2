// Package flows assembles the withdraw and deposit step lists a wallet walks through against a SEP-6 anchor.
package flows

import (
	"errors"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"

	"github.com/stellar/anchor-demo/internal/horizon"
	"github.com/stellar/anchor-demo/internal/metrics"
	"github.com/stellar/anchor-demo/internal/signing"
	"github.com/stellar/anchor-demo/internal/steps"
	"github.com/stellar/anchor-demo/internal/ui"
	"github.com/stellar/anchor-demo/pkg/anchorclient"
)

const (
	WithdrawFlow = "withdraw"
	DepositFlow  = "deposit"

	// Messages the wallet page posts to pick a flow.
	StartWithdrawMessage = "start-withdraw"
	StartDepositMessage  = "start-deposit"

	WalletPage = "pages/wallet.html"

	DefaultPollInterval = 2 * time.Second
	DefaultPollTimeout  = 10 * time.Minute
	paymentTimeout      = 300
)

// WithdrawDestination is what the wallet sends to a non-interactive SEP-6 withdraw.
type WithdrawDestination struct {
	Type      string
	Dest      string
	DestExtra string
}

// Deps are the collaborators the steps call into.
type Deps struct {
	Anchor         *anchorclient.Client
	Ledger         horizon.Ledger
	Signer         signing.SignatureClient
	Prompter       ui.Prompter
	MetricsService metrics.MetricsService
	AutoAdvance    bool
	PollInterval   time.Duration
	PollTimeout    time.Duration
	Withdraw       WithdrawDestination
	// Now is the clock used to check token expiry. Defaults to time.Now.
	Now func() time.Time
}

func (d *Deps) ValidateOptions() error {
	if d.Anchor == nil {
		return errors.New("anchor client cannot be nil")
	}
	if d.Ledger == nil {
		return errors.New("ledger cannot be nil")
	}
	if d.Signer == nil {
		return errors.New("signature client cannot be nil")
	}
	if d.MetricsService == nil {
		return errors.New("metrics service cannot be nil")
	}
	if d.Prompter == nil && !d.AutoAdvance {
		return errors.New("prompter cannot be nil unless auto advance is enabled")
	}
	return nil
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// pollOptions turns the poll interval and timeout into a fixed-delay retry budget.
func (d *Deps) pollOptions() []retry.Option {
	interval := d.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timeout := d.PollTimeout
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	attempts := uint(timeout / interval)
	if attempts == 0 {
		attempts = 1
	}
	return []retry.Option{
		retry.Delay(interval),
		retry.DelayType(retry.FixedDelay),
		retry.Attempts(attempts),
	}
}

// WithdrawSteps returns the ordered withdraw flow.
func WithdrawSteps(deps *Deps) ([]steps.Step, error) {
	if err := deps.ValidateOptions(); err != nil {
		return nil, fmt.Errorf("validating flow dependencies: %w", err)
	}
	return []steps.Step{
		newInitialStep(deps),
		newCheckTomlStep(deps),
		newCheckInfoStep(deps, WithdrawFlow),
		newSep10StartStep(deps, false),
		newSep10SignStep(deps, false),
		newSep10SendStep(deps, false),
		newGetWithdrawStep(deps),
		newShowInteractiveWebappStep(deps, WithdrawFlow),
		newConfirmPaymentStep(deps),
		newSendStellarTransactionStep(deps),
		newPollForSuccessStep(deps, WithdrawFlow),
	}, nil
}

// DepositSteps returns the ordered deposit flow. Its SEP-10 steps do nothing when the anchor does not require
// authentication for deposits.
func DepositSteps(deps *Deps) ([]steps.Step, error) {
	if err := deps.ValidateOptions(); err != nil {
		return nil, fmt.Errorf("validating flow dependencies: %w", err)
	}
	return []steps.Step{
		newInitialStep(deps),
		newCheckTomlStep(deps),
		newCheckInfoStep(deps, DepositFlow),
		newSep10StartStep(deps, true),
		newSep10SignStep(deps, true),
		newSep10SendStep(deps, true),
		newGetDepositStep(deps),
		newShowInteractiveWebappStep(deps, DepositFlow),
		newPollForSuccessStep(deps, DepositFlow),
	}, nil
}

// Steps returns the step list for a flow name.
func Steps(flow string, deps *Deps) ([]steps.Step, error) {
	switch flow {
	case WithdrawFlow:
		return WithdrawSteps(deps)
	case DepositFlow:
		return DepositSteps(deps)
	default:
		return nil, fmt.Errorf("unknown flow %q", flow)
	}
}

// FlowForMessage maps the wallet page's start message to a flow name.
func FlowForMessage(message string) (string, error) {
	switch message {
	case StartWithdrawMessage:
		return WithdrawFlow, nil
	case StartDepositMessage:
		return DepositFlow, nil
	default:
		return "", fmt.Errorf("unknown wallet message %q", message)
	}
}
