package steps

import (
	"github.com/stellar/anchor-demo/pkg/anchorclient"
)

func anchorTransaction() anchorclient.Transaction {
	return anchorclient.Transaction{
		ID:                    "tx-9",
		Kind:                  "withdrawal",
		Status:                anchorclient.StatusPendingUserTransferStart,
		AmountIn:              "12.5",
		WithdrawAnchorAccount: "GANCHOR",
		WithdrawMemoType:      "text",
	}
}
