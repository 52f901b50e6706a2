package horizon

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stellar/go-stellar-sdk/clients/horizonclient"
	"github.com/stellar/go-stellar-sdk/keypair"
	hProtocol "github.com/stellar/go-stellar-sdk/protocols/horizon"
	"github.com/stellar/go-stellar-sdk/support/render/problem"
	"github.com/stellar/go-stellar-sdk/txnbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func buildTestTransaction(t *testing.T, source *hProtocol.Account) *txnbuild.Transaction {
	t.Helper()
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        source,
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{&txnbuild.Payment{
			Destination: keypair.MustRandom().Address(),
			Amount:      "1",
			Asset:       txnbuild.NativeAsset{},
		}},
		BaseFee:       txnbuild.MinBaseFee,
		Preconditions: txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(30)},
	})
	require.NoError(t, err)
	return tx
}

func TestNewLedger(t *testing.T) {
	_, err := NewLedger(nil)
	assert.EqualError(t, err, "horizon client cannot be nil")

	l, err := NewLedger(&horizonclient.MockClient{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestLoadAccount(t *testing.T) {
	ctx := context.Background()
	address := keypair.MustRandom().Address()

	t.Run("found", func(t *testing.T) {
		client := &horizonclient.MockClient{}
		defer client.AssertExpectations(t)
		client.
			On("AccountDetail", horizonclient.AccountRequest{AccountID: address}).
			Return(hProtocol.Account{AccountID: address, Sequence: 123}, nil).
			Once()

		l, err := NewLedger(client)
		require.NoError(t, err)
		account, err := l.LoadAccount(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, address, account.GetAccountID())
		seq, err := account.GetSequenceNumber()
		require.NoError(t, err)
		assert.Equal(t, int64(123), seq)
	})

	t.Run("not_found", func(t *testing.T) {
		client := &horizonclient.MockClient{}
		defer client.AssertExpectations(t)
		client.
			On("AccountDetail", horizonclient.AccountRequest{AccountID: address}).
			Return(hProtocol.Account{}, &horizonclient.Error{Problem: problem.P{Status: http.StatusNotFound, Type: "https://stellar.org/horizon-errors/not_found"}}).
			Once()

		l, err := NewLedger(client)
		require.NoError(t, err)
		_, err = l.LoadAccount(ctx, address)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("other_error", func(t *testing.T) {
		client := &horizonclient.MockClient{}
		defer client.AssertExpectations(t)
		client.
			On("AccountDetail", horizonclient.AccountRequest{AccountID: address}).
			Return(hProtocol.Account{}, errors.New("connection refused")).
			Once()

		l, err := NewLedger(client)
		require.NoError(t, err)
		_, err = l.LoadAccount(ctx, address)
		assert.EqualError(t, err, "loading account "+address+": connection refused")
	})
}

func TestSubmitTransaction(t *testing.T) {
	ctx := context.Background()
	source := &hProtocol.Account{AccountID: keypair.MustRandom().Address(), Sequence: 1}
	tx := buildTestTransaction(t, source)

	t.Run("success", func(t *testing.T) {
		client := &horizonclient.MockClient{}
		defer client.AssertExpectations(t)
		client.
			On("SubmitTransaction", tx).
			Return(hProtocol.Transaction{Hash: "abc", Successful: true, Ledger: 10}, nil).
			Once()

		l, err := NewLedger(client)
		require.NoError(t, err)
		hash, err := l.SubmitTransaction(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, "abc", hash)
	})

	t.Run("horizon_error_with_result_codes", func(t *testing.T) {
		client := &horizonclient.MockClient{}
		defer client.AssertExpectations(t)
		hErr := &horizonclient.Error{Problem: problem.P{
			Status: http.StatusBadRequest,
			Title:  "Transaction Failed",
			Extras: map[string]interface{}{
				"result_codes": map[string]interface{}{
					"transaction": "tx_failed",
					"operations":  []interface{}{"op_underfunded"},
				},
			},
		}}
		client.On("SubmitTransaction", tx).Return(hProtocol.Transaction{}, hErr).Once()

		l, err := NewLedger(client)
		require.NoError(t, err)
		_, err = l.SubmitTransaction(ctx, tx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tx: tx_failed, ops: op_underfunded")
	})

	t.Run("unsuccessful", func(t *testing.T) {
		client := &horizonclient.MockClient{}
		defer client.AssertExpectations(t)
		client.On("SubmitTransaction", tx).Return(hProtocol.Transaction{Hash: "abc"}, nil).Once()

		l, err := NewLedger(client)
		require.NoError(t, err)
		hash, err := l.SubmitTransaction(ctx, tx)
		assert.EqualError(t, err, "transaction abc was not successful")
		assert.Equal(t, "abc", hash)
	})
}

func TestLedgerMock(t *testing.T) {
	m := &LedgerMock{}
	defer m.AssertExpectations(t)
	m.On("LoadAccount", mock.Anything, "GA").Return(nil, ErrAccountNotFound).Once()

	_, err := m.LoadAccount(context.Background(), "GA")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
