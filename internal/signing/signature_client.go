package signing

import (
	"context"
	"errors"

	"github.com/stellar/go-stellar-sdk/txnbuild"
)

var (
	ErrInvalidTransaction         = errors.New("invalid transaction provided")
	ErrInvalidSignatureClientType = errors.New("invalid signature client type")
)

// SignatureClient signs on behalf of the wallet account driving the demo.
type SignatureClient interface {
	NetworkPassphrase() string
	GetAccountPublicKey(ctx context.Context) (string, error)
	SignStellarTransaction(ctx context.Context, tx *txnbuild.Transaction, stellarAccounts ...string) (*txnbuild.Transaction, error)
}

type SignatureClientType string

const (
	EnvSignatureClientType SignatureClientType = "ENV"
)

func (t SignatureClientType) IsValid() bool {
	switch t {
	case EnvSignatureClientType:
		return true
	default:
		return false
	}
}
