package steps

import (
	"sync"

	"github.com/stellar/anchor-demo/pkg/anchorclient"
)

// State is everything one flow accumulates across its steps. Steps run one at a time; the mutex only guards the
// fields a step may update from a polling callback while the runner reads them.
type State struct {
	mu sync.Mutex

	// Run inputs.
	HomeDomain        string
	NetworkPassphrase string
	AssetCode         string
	AssetIssuer       string
	Amount            string

	// SEP-1 discovery.
	AuthServer     string
	TransferServer string
	SigningKey     string

	// Wallet.
	Account string

	// SEP-10.
	AuthRequired         bool
	ChallengeTransaction string
	SignedChallengeTx    string
	Token                string

	// SEP-6.
	Info                   *anchorclient.InfoResponse
	InteractiveURL         string
	TransactionID          string
	AnchorsStellarAddress  string
	StellarMemoType        string
	StellarMemo            string
	StellarTransactionHash string
	ExternalTransactionID  string
	DepositMemo            string
	DepositMemoType        string
	DepositURL             string
	DepositInstructions    string
	TransactionStatus      anchorclient.TransactionStatus
}

// ApplyTransaction copies the payment details an anchor transaction record carries into the state. Empty fields
// never overwrite known values.
func (s *State) ApplyTransaction(tx anchorclient.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	setIfNotEmpty(&s.TransactionID, tx.ID)
	setIfNotEmpty(&s.AnchorsStellarAddress, tx.WithdrawAnchorAccount)
	setIfNotEmpty(&s.StellarMemoType, tx.WithdrawMemoType)
	setIfNotEmpty(&s.StellarMemo, tx.WithdrawMemo)
	setIfNotEmpty(&s.DepositMemo, tx.DepositMemo)
	setIfNotEmpty(&s.DepositMemoType, tx.DepositMemoType)
	setIfNotEmpty(&s.ExternalTransactionID, tx.ExternalTransactionID)
	if tx.Kind == "withdrawal" || tx.Kind == "withdraw" {
		setIfNotEmpty(&s.Amount, tx.AmountIn)
	}
	if tx.Status != "" {
		s.TransactionStatus = tx.Status
	}
}

// Snapshot returns the identifiers recorded in the run history.
func (s *State) Snapshot() (account, anchorTransactionID, stellarTransactionHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Account, s.TransactionID, s.StellarTransactionHash
}

func setIfNotEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
