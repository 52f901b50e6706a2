package horizon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stellar/go-stellar-sdk/clients/horizonclient"
	hProtocol "github.com/stellar/go-stellar-sdk/protocols/horizon"
	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/txnbuild"
)

var ErrAccountNotFound = errors.New("account does not exist on the network")

type Ledger interface {
	LoadAccount(ctx context.Context, address string) (*hProtocol.Account, error)
	SubmitTransaction(ctx context.Context, tx *txnbuild.Transaction) (string, error)
}

type ledger struct {
	client horizonclient.ClientInterface
}

var _ Ledger = (*ledger)(nil)

func NewLedger(client horizonclient.ClientInterface) (*ledger, error) {
	if client == nil {
		return nil, errors.New("horizon client cannot be nil")
	}
	return &ledger{client: client}, nil
}

const clientTimeout = 60 * time.Second

// NewClient returns a Horizon client for horizonURL.
func NewClient(horizonURL string) *horizonclient.Client {
	return &horizonclient.Client{
		HorizonURL: horizonURL,
		HTTP:       &http.Client{Timeout: clientTimeout},
	}
}

func (l *ledger) LoadAccount(ctx context.Context, address string) (*hProtocol.Account, error) {
	account, err := l.client.AccountDetail(horizonclient.AccountRequest{AccountID: address})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return nil, fmt.Errorf("loading account %s: %w", address, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("loading account %s: %w", address, err)
	}
	log.Ctx(ctx).Debugf("loaded account %s with sequence %d", address, account.Sequence)
	return &account, nil
}

func (l *ledger) SubmitTransaction(ctx context.Context, tx *txnbuild.Transaction) (string, error) {
	resp, err := l.client.SubmitTransaction(tx)
	if err != nil {
		if codes := resultCodes(err); codes != "" {
			return "", fmt.Errorf("submitting transaction: %w (%s)", err, codes)
		}
		return "", fmt.Errorf("submitting transaction: %w", err)
	}
	if !resp.Successful {
		return resp.Hash, fmt.Errorf("transaction %s was not successful", resp.Hash)
	}
	log.Ctx(ctx).Infof("submitted transaction %s in ledger %d", resp.Hash, resp.Ledger)
	return resp.Hash, nil
}

// resultCodes flattens Horizon's transaction and operation result codes, if the error carries them.
func resultCodes(err error) string {
	hErr := horizonclient.GetError(err)
	if hErr == nil {
		return ""
	}
	codes, codesErr := hErr.ResultCodes()
	if codesErr != nil || codes == nil {
		return ""
	}
	parts := []string{"tx: " + codes.TransactionCode}
	if len(codes.OperationCodes) > 0 {
		parts = append(parts, "ops: "+strings.Join(codes.OperationCodes, ","))
	}
	return strings.Join(parts, ", ")
}
