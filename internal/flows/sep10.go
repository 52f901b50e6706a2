package flows

import (
	"context"
	"fmt"
	"net/url"

	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/txnbuild"

	"github.com/stellar/anchor-demo/internal/steps"
	"github.com/stellar/anchor-demo/internal/ui"
	"github.com/stellar/anchor-demo/pkg/anchorclient"
)

// sep10Step holds what the three SEP-10 steps share. When optional is set the step does nothing for anchors whose
// /info says authentication is not required.
type sep10Step struct {
	steps.BaseStep
	deps     *Deps
	optional bool
}

func (s *sep10Step) skip(ctx context.Context, state *steps.State) bool {
	if s.optional && !state.AuthRequired {
		log.Ctx(ctx).Infof("skipping %s: the anchor does not require authentication", s.Name())
		return true
	}
	return false
}

type sep10StartStep struct{ sep10Step }

func newSep10StartStep(deps *Deps, optional bool) *sep10StartStep {
	return &sep10StartStep{sep10Step{
		BaseStep: steps.BaseStep{
			StepName:        "sep10_start",
			StepInstruction: "To authenticate, the wallet requests a challenge transaction from the SEP-10 auth server.",
			StepAction:      "Start SEP-10",
		},
		deps:     deps,
		optional: optional,
	}}
}

func (s *sep10StartStep) Execute(ctx context.Context, state *steps.State, _ ui.Actions) error {
	if s.skip(ctx, state) {
		return nil
	}
	if state.AuthServer == "" || state.SigningKey == "" {
		return anchorclient.ErrMissingWebAuth
	}

	challenge, err := s.deps.Anchor.GetChallenge(ctx, state.AuthServer, state.Account, state.HomeDomain)
	if err != nil {
		return err
	}
	if challenge.NetworkPassphrase != "" && challenge.NetworkPassphrase != state.NetworkPassphrase {
		return fmt.Errorf("the challenge is for network %q, expected %q", challenge.NetworkPassphrase, state.NetworkPassphrase)
	}
	state.ChallengeTransaction = challenge.Transaction
	return nil
}

type sep10SignStep struct{ sep10Step }

func newSep10SignStep(deps *Deps, optional bool) *sep10SignStep {
	return &sep10SignStep{sep10Step{
		BaseStep: steps.BaseStep{
			StepName:        "sep10_sign",
			StepInstruction: "The wallet verifies the challenge was signed by the anchor's SIGNING_KEY and then signs it with the wallet key.",
			StepAction:      "Sign challenge",
		},
		deps:     deps,
		optional: optional,
	}}
}

func (s *sep10SignStep) Execute(ctx context.Context, state *steps.State, _ ui.Actions) error {
	if s.skip(ctx, state) {
		return nil
	}

	webAuthDomain, err := webAuthDomain(state.AuthServer)
	if err != nil {
		return err
	}

	tx, clientAccountID, _, _, err := txnbuild.ReadChallengeTx(
		state.ChallengeTransaction,
		state.SigningKey,
		state.NetworkPassphrase,
		webAuthDomain,
		[]string{state.HomeDomain},
	)
	if err != nil {
		return fmt.Errorf("reading challenge transaction: %w", err)
	}
	if clientAccountID != state.Account {
		return fmt.Errorf("the challenge was issued for %s instead of %s", clientAccountID, state.Account)
	}

	signedTx, err := s.deps.Signer.SignStellarTransaction(ctx, tx, state.Account)
	if err != nil {
		return fmt.Errorf("signing challenge transaction: %w", err)
	}
	signedXDR, err := signedTx.Base64()
	if err != nil {
		return fmt.Errorf("encoding signed challenge: %w", err)
	}
	state.SignedChallengeTx = signedXDR
	return nil
}

// webAuthDomain is the host (and port, if any) of the auth endpoint, as placed in the challenge's web_auth_domain
// operation.
func webAuthDomain(authServer string) (string, error) {
	u, err := url.Parse(authServer)
	if err != nil {
		return "", fmt.Errorf("parsing auth server URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("auth server URL %q has no host", authServer)
	}
	return u.Host, nil
}

type sep10SendStep struct{ sep10Step }

func newSep10SendStep(deps *Deps, optional bool) *sep10SendStep {
	return &sep10SendStep{sep10Step{
		BaseStep: steps.BaseStep{
			StepName:        "sep10_send",
			StepInstruction: "The signed challenge is posted back to the auth server, which answers with a session token.",
			StepAction:      "Send signed challenge",
		},
		deps:     deps,
		optional: optional,
	}}
}

func (s *sep10SendStep) Execute(ctx context.Context, state *steps.State, _ ui.Actions) error {
	if s.skip(ctx, state) {
		return nil
	}

	token, err := s.deps.Anchor.SendChallenge(ctx, state.AuthServer, state.SignedChallengeTx)
	if err != nil {
		return err
	}
	claims, err := anchorclient.DecodeToken(token)
	if err != nil {
		return fmt.Errorf("decoding token: %w", err)
	}
	if err = claims.Validate(state.Account, s.deps.now()); err != nil {
		return fmt.Errorf("validating token: %w", err)
	}

	state.Token = token
	log.Ctx(ctx).Infof("authenticated %s until %s", state.Account, claims.ExpiresAt)
	return nil
}
