package flows

import (
	"context"
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/anchor-demo/internal/steps"
	"github.com/stellar/anchor-demo/internal/ui"
	"github.com/stellar/anchor-demo/pkg/anchorclient"
)

type getWithdrawStep struct {
	steps.BaseStep
	deps *Deps
}

func newGetWithdrawStep(deps *Deps) *getWithdrawStep {
	return &getWithdrawStep{
		BaseStep: steps.BaseStep{
			StepName:        "get_withdraw",
			StepInstruction: "With the token, the wallet calls GET /withdraw. The anchor either answers with payment details or sends the user to an interactive page.",
			StepAction:      "GET /withdraw",
		},
		deps: deps,
	}
}

func (s *getWithdrawStep) Execute(ctx context.Context, state *steps.State, _ ui.Actions) error {
	resp, err := s.deps.Anchor.Withdraw(ctx, state.TransferServer, state.Token, anchorclient.WithdrawRequest{
		AssetCode: state.AssetCode,
		Type:      s.deps.Withdraw.Type,
		Dest:      s.deps.Withdraw.Dest,
		DestExtra: s.deps.Withdraw.DestExtra,
		Account:   state.Account,
		Amount:    state.Amount,
	})
	if err != nil {
		return err
	}

	state.TransactionID = resp.ID
	if resp.Interactive != nil {
		state.InteractiveURL = resp.Interactive.URL
		return nil
	}
	state.AnchorsStellarAddress = resp.AccountID
	state.StellarMemoType = resp.MemoType
	state.StellarMemo = resp.Memo
	return nil
}

type getDepositStep struct {
	steps.BaseStep
	deps *Deps
}

func newGetDepositStep(deps *Deps) *getDepositStep {
	return &getDepositStep{
		BaseStep: steps.BaseStep{
			StepName:        "get_deposit",
			StepInstruction: "The wallet calls GET /deposit. The anchor either answers with instructions for sending it off-chain funds or sends the user to an interactive page.",
			StepAction:      "GET /deposit",
		},
		deps: deps,
	}
}

func (s *getDepositStep) Execute(ctx context.Context, state *steps.State, actions ui.Actions) error {
	claimableBalances := state.Info != nil && state.Info.Features.ClaimableBalances
	resp, err := s.deps.Anchor.Deposit(ctx, state.TransferServer, state.Token, anchorclient.DepositRequest{
		AssetCode:                 state.AssetCode,
		Account:                   state.Account,
		Amount:                    state.Amount,
		ClaimableBalanceSupported: claimableBalances,
	})
	if err != nil {
		return err
	}

	state.TransactionID = resp.ID
	if resp.Interactive != nil {
		state.InteractiveURL = resp.Interactive.URL
		return nil
	}
	state.DepositInstructions = depositInstructions(resp)
	if state.DepositInstructions != "" {
		actions.Instruction(state.DepositInstructions)
	}
	return nil
}

// depositInstructions renders the how text and the structured instructions, sorted by key.
func depositInstructions(resp *anchorclient.DepositResponse) string {
	var lines []string
	if resp.How != "" {
		lines = append(lines, resp.How)
	}
	keys := make([]string, 0, len(resp.Instructions))
	for k := range resp.Instructions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		instruction := resp.Instructions[k]
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", k, instruction.Value, instruction.Description))
	}
	if resp.ExtraInfo != nil && resp.ExtraInfo.Message != "" {
		lines = append(lines, resp.ExtraInfo.Message)
	}
	return strings.Join(lines, "\n")
}

// withdrawReadyStatuses is what the interactive withdraw page leads to once the anchor waits for the payment.
var withdrawReadyStatuses = mapset.NewSet(anchorclient.StatusPendingUserTransferStart)

// depositReadyStatuses are all non-failure statuses past "incomplete".
var depositReadyStatuses = mapset.NewSet(
	anchorclient.StatusPendingUserTransferStart,
	anchorclient.StatusPendingUserTransferComplete,
	anchorclient.StatusPendingExternal,
	anchorclient.StatusPendingAnchor,
	anchorclient.StatusPendingStellar,
	anchorclient.StatusPendingTrust,
	anchorclient.StatusPendingUser,
	anchorclient.StatusPendingCustomerInfoUpdate,
	anchorclient.StatusPendingTransactionInfoUpdate,
	anchorclient.StatusCompleted,
)

type showInteractiveWebappStep struct {
	steps.BaseStep
	deps *Deps
	flow string
}

func newShowInteractiveWebappStep(deps *Deps, flow string) *showInteractiveWebappStep {
	return &showInteractiveWebappStep{
		BaseStep: steps.BaseStep{
			StepName:        "show_interactive_webapp",
			StepInstruction: "If the anchor needs more information, the user completes its interactive page while the wallet polls the transaction.",
			StepAction:      "Open interactive page",
		},
		deps: deps,
		flow: flow,
	}
}

func (s *showInteractiveWebappStep) Execute(ctx context.Context, state *steps.State, actions ui.Actions) error {
	if state.InteractiveURL == "" {
		log.Ctx(ctx).Info("the anchor answered directly, no interactive page to show")
		return nil
	}

	want := withdrawReadyStatuses
	if s.flow == DepositFlow {
		want = depositReadyStatuses
	}

	actions.ShowWebapp(state.InteractiveURL)
	defer actions.CloseWebapp()

	tx, err := s.deps.Anchor.WaitForTransactionStatus(ctx, state.TransferServer, state.Token, state.TransactionID, want, s.onPoll(state), s.deps.pollOptions()...)
	if err != nil {
		return err
	}
	state.ApplyTransaction(*tx)
	return nil
}

func (s *showInteractiveWebappStep) onPoll(state *steps.State) func(anchorclient.Transaction) {
	return func(tx anchorclient.Transaction) {
		s.deps.MetricsService.IncTransactionStatusPolls(s.flow)
		state.ApplyTransaction(tx)
	}
}
