package flows

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/txnbuild"

	"github.com/stellar/anchor-demo/internal/steps"
	"github.com/stellar/anchor-demo/internal/ui"
	"github.com/stellar/anchor-demo/pkg/anchorclient"
)

var ErrPaymentDeclined = errors.New("the user declined the payment")

type confirmPaymentStep struct {
	steps.BaseStep
	deps *Deps
}

func newConfirmPaymentStep(deps *Deps) *confirmPaymentStep {
	return &confirmPaymentStep{
		BaseStep: steps.BaseStep{
			StepName:        "confirm_payment",
			StepInstruction: "The anchor is waiting for the user to send the asset. The wallet shows the payment it is about to make.",
			StepAction:      "Review payment",
			Page:            "pages/confirm_payment.html",
		},
		deps: deps,
	}
}

func (s *confirmPaymentStep) Execute(ctx context.Context, state *steps.State, actions ui.Actions) error {
	if !strkey.IsValidEd25519PublicKey(state.AnchorsStellarAddress) {
		return fmt.Errorf("the anchor's payment address %q is not a valid Stellar account", state.AnchorsStellarAddress)
	}
	amount, err := anchorclient.ParseAmount(state.Amount)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("the payment amount must be positive, got %q", state.Amount)
	}
	if _, err = buildMemo(state.StellarMemoType, state.StellarMemo); err != nil {
		return err
	}

	summary := fmt.Sprintf("Send %s %s to %s", state.Amount, state.AssetCode, state.AnchorsStellarAddress)
	if state.StellarMemo != "" {
		summary += fmt.Sprintf(" with %s memo %s", state.StellarMemoType, state.StellarMemo)
	}
	actions.Instruction(summary)

	if s.deps.AutoAdvance {
		return nil
	}
	ok, err := s.deps.Prompter.Confirm(ctx, summary+"?")
	if err != nil {
		return fmt.Errorf("confirming payment: %w", err)
	}
	if !ok {
		return ErrPaymentDeclined
	}
	return nil
}

// buildMemo maps a SEP-6 memo type and value to a transaction memo. Hash memos are base64 encoded by the anchor.
func buildMemo(memoType, memo string) (txnbuild.Memo, error) {
	if memo == "" {
		return nil, nil
	}
	switch memoType {
	case "text", "":
		if len(memo) > 28 {
			return nil, fmt.Errorf("text memo %q is longer than 28 bytes", memo)
		}
		return txnbuild.MemoText(memo), nil
	case "id":
		id, err := strconv.ParseUint(memo, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing id memo %q: %w", memo, err)
		}
		return txnbuild.MemoID(id), nil
	case "hash":
		raw, err := base64.StdEncoding.DecodeString(memo)
		if err != nil {
			return nil, fmt.Errorf("decoding hash memo: %w", err)
		}
		if len(raw) != 32 {
			return nil, fmt.Errorf("hash memo must be 32 bytes, got %d", len(raw))
		}
		var hash txnbuild.MemoHash
		copy(hash[:], raw)
		return hash, nil
	default:
		return nil, fmt.Errorf("unsupported memo type %q", memoType)
	}
}

type sendStellarTransactionStep struct {
	steps.BaseStep
	deps *Deps
}

func newSendStellarTransactionStep(deps *Deps) *sendStellarTransactionStep {
	return &sendStellarTransactionStep{
		BaseStep: steps.BaseStep{
			StepName:        "send_stellar_transaction",
			StepInstruction: "The wallet builds the payment to the anchor, signs it and submits it to the network.",
			StepAction:      "Send payment",
		},
		deps: deps,
	}
}

func (s *sendStellarTransactionStep) Execute(ctx context.Context, state *steps.State, actions ui.Actions) error {
	memo, err := buildMemo(state.StellarMemoType, state.StellarMemo)
	if err != nil {
		return err
	}

	source, err := s.deps.Ledger.LoadAccount(ctx, state.Account)
	if err != nil {
		return err
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        source,
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{&txnbuild.Payment{
			Destination: state.AnchorsStellarAddress,
			Amount:      state.Amount,
			Asset:       txnbuild.CreditAsset{Code: state.AssetCode, Issuer: state.AssetIssuer},
		}},
		BaseFee:       txnbuild.MinBaseFee,
		Memo:          memo,
		Preconditions: txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(paymentTimeout)},
	})
	if err != nil {
		return fmt.Errorf("building payment transaction: %w", err)
	}

	signedTx, err := s.deps.Signer.SignStellarTransaction(ctx, tx, state.Account)
	if err != nil {
		return fmt.Errorf("signing payment transaction: %w", err)
	}

	hash, err := s.deps.Ledger.SubmitTransaction(ctx, signedTx)
	if err != nil {
		return err
	}
	state.StellarTransactionHash = hash
	actions.Instruction(fmt.Sprintf("Payment submitted in transaction %s", hash))
	log.Ctx(ctx).Infof("sent %s %s to %s in %s", state.Amount, state.AssetCode, state.AnchorsStellarAddress, hash)
	return nil
}

type pollForSuccessStep struct {
	steps.BaseStep
	deps *Deps
	flow string
}

func newPollForSuccessStep(deps *Deps, flow string) *pollForSuccessStep {
	name := "poll_for_success"
	instruction := "The wallet polls the anchor until it reports the withdrawal as completed."
	if flow == DepositFlow {
		name = "poll_transaction_status"
		instruction = "The wallet polls the anchor until the deposited funds have arrived in the account."
	}
	return &pollForSuccessStep{
		BaseStep: steps.BaseStep{
			StepName:        name,
			StepInstruction: instruction,
			StepAction:      "Poll transaction",
		},
		deps: deps,
		flow: flow,
	}
}

func (s *pollForSuccessStep) Execute(ctx context.Context, state *steps.State, actions ui.Actions) error {
	if state.TransactionID == "" {
		return errors.New("the anchor did not return a transaction id to poll")
	}

	onPoll := func(tx anchorclient.Transaction) {
		s.deps.MetricsService.IncTransactionStatusPolls(s.flow)
		state.ApplyTransaction(tx)
	}
	tx, err := s.deps.Anchor.WaitForTransactionStatus(ctx, state.TransferServer, state.Token, state.TransactionID,
		mapset.NewSet(anchorclient.StatusCompleted), onPoll, s.deps.pollOptions()...)
	if err != nil {
		return err
	}

	state.ApplyTransaction(*tx)
	msg := fmt.Sprintf("Transaction %s completed", tx.ID)
	if tx.ExternalTransactionID != "" {
		msg += fmt.Sprintf(", external reference %s", tx.ExternalTransactionID)
	}
	actions.Instruction(msg)
	return nil
}
