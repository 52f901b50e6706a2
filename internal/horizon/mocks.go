package horizon

import (
	"context"

	hProtocol "github.com/stellar/go-stellar-sdk/protocols/horizon"
	"github.com/stellar/go-stellar-sdk/txnbuild"
	"github.com/stretchr/testify/mock"
)

type LedgerMock struct {
	mock.Mock
}

var _ Ledger = (*LedgerMock)(nil)

func (m *LedgerMock) LoadAccount(ctx context.Context, address string) (*hProtocol.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hProtocol.Account), args.Error(1)
}

func (m *LedgerMock) SubmitTransaction(ctx context.Context, tx *txnbuild.Transaction) (string, error) {
	args := m.Called(ctx, tx)
	return args.String(0), args.Error(1)
}
