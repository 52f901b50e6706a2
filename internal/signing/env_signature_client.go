package signing

import (
	"context"
	"fmt"

	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/txnbuild"
)

type envSignatureClient struct {
	networkPassphrase string
	walletAccountFull *keypair.Full
}

var _ SignatureClient = (*envSignatureClient)(nil)

func NewEnvSignatureClient(privateKey string, networkPassphrase string) (*envSignatureClient, error) {
	walletAccountFull, err := keypair.ParseFull(privateKey)
	if err != nil {
		return nil, fmt.Errorf("parsing wallet account private key: %w", err)
	}

	return &envSignatureClient{
		networkPassphrase: networkPassphrase,
		walletAccountFull: walletAccountFull,
	}, nil
}

func (sc *envSignatureClient) NetworkPassphrase() string {
	return sc.networkPassphrase
}

func (sc *envSignatureClient) GetAccountPublicKey(ctx context.Context) (string, error) {
	return sc.walletAccountFull.Address(), nil
}

func (sc *envSignatureClient) SignStellarTransaction(ctx context.Context, tx *txnbuild.Transaction, stellarAccounts ...string) (*txnbuild.Transaction, error) {
	if tx == nil {
		return nil, ErrInvalidTransaction
	}

	if len(stellarAccounts) == 0 {
		return nil, fmt.Errorf("stellar accounts cannot be empty in %T", sc)
	}

	// The wallet key can only sign for itself.
	for _, stellarAccount := range stellarAccounts {
		if stellarAccount != sc.walletAccountFull.Address() {
			return nil, fmt.Errorf("stellar account %s is not allowed to sign in %T", stellarAccount, sc)
		}
	}

	signedTx, err := tx.Sign(sc.NetworkPassphrase(), sc.walletAccountFull)
	if err != nil {
		return nil, fmt.Errorf("signing transaction in %T: %w", sc, err)
	}

	return signedTx, nil
}

func (sc envSignatureClient) String() string {
	return fmt.Sprintf("%T{networkPassphrase: %s, publicKey: %v}", sc, sc.networkPassphrase, sc.walletAccountFull.Address())
}
