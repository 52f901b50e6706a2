package anchorclient

import (
	"encoding/json"

	mapset "github.com/deckarep/golang-set/v2"
)

type TransactionStatus string

const (
	StatusIncomplete                   TransactionStatus = "incomplete"
	StatusPendingUserTransferStart     TransactionStatus = "pending_user_transfer_start"
	StatusPendingUserTransferComplete  TransactionStatus = "pending_user_transfer_complete"
	StatusPendingExternal              TransactionStatus = "pending_external"
	StatusPendingAnchor                TransactionStatus = "pending_anchor"
	StatusPendingStellar               TransactionStatus = "pending_stellar"
	StatusPendingTrust                 TransactionStatus = "pending_trust"
	StatusPendingUser                  TransactionStatus = "pending_user"
	StatusPendingCustomerInfoUpdate    TransactionStatus = "pending_customer_info_update"
	StatusPendingTransactionInfoUpdate TransactionStatus = "pending_transaction_info_update"
	StatusCompleted                    TransactionStatus = "completed"
	StatusRefunded                     TransactionStatus = "refunded"
	StatusExpired                      TransactionStatus = "expired"
	StatusNoMarket                     TransactionStatus = "no_market"
	StatusTooSmall                     TransactionStatus = "too_small"
	StatusTooLarge                     TransactionStatus = "too_large"
	StatusError                        TransactionStatus = "error"
)

// FailureStatuses end a transaction without the funds arriving where the user wanted them.
var FailureStatuses = mapset.NewSet(
	StatusRefunded,
	StatusExpired,
	StatusNoMarket,
	StatusTooSmall,
	StatusTooLarge,
	StatusError,
)

// TerminalStatuses are the statuses after which the anchor never changes a transaction again.
var TerminalStatuses = FailureStatuses.Union(mapset.NewSet(StatusCompleted))

func (s TransactionStatus) IsTerminal() bool {
	return TerminalStatuses.Contains(s)
}

func (s TransactionStatus) IsFailure() bool {
	return FailureStatuses.Contains(s)
}

// StellarToml holds the SEP-1 fields a wallet needs to reach the anchor's SEP-6 and SEP-10 servers.
type StellarToml struct {
	NetworkPassphrase   string     `toml:"NETWORK_PASSPHRASE"`
	SigningKey          string     `toml:"SIGNING_KEY"`
	WebAuthEndpoint     string     `toml:"WEB_AUTH_ENDPOINT" validate:"omitempty,url"`
	TransferServer      string     `toml:"TRANSFER_SERVER" validate:"omitempty,url"`
	TransferServerSep24 string     `toml:"TRANSFER_SERVER_SEP0024" validate:"omitempty,url"`
	KYCServer           string     `toml:"KYC_SERVER"`
	Currencies          []Currency `toml:"CURRENCIES" validate:"dive"`
}

type Currency struct {
	Code            string `toml:"code" validate:"required"`
	Issuer          string `toml:"issuer"`
	Status          string `toml:"status"`
	DisplayDecimals int    `toml:"display_decimals"`
	AnchorAssetType string `toml:"anchor_asset_type"`
	IsAssetAnchored bool   `toml:"is_asset_anchored"`
	Desc            string `toml:"desc"`
}

// FindCurrency returns the first currency with the given code.
func (t *StellarToml) FindCurrency(code string) (Currency, bool) {
	for _, c := range t.Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// ChallengeResponse is the SEP-10 GET answer.
type ChallengeResponse struct {
	Transaction       string `json:"transaction" validate:"required"`
	NetworkPassphrase string `json:"network_passphrase"`
}

// TokenResponse is the SEP-10 POST answer.
type TokenResponse struct {
	Token string `json:"token"`
}

type Field struct {
	Description string   `json:"description"`
	Optional    bool     `json:"optional"`
	Choices     []string `json:"choices,omitempty"`
}

type DepositAssetInfo struct {
	Enabled                bool             `json:"enabled"`
	AuthenticationRequired bool             `json:"authentication_required"`
	FeeFixed               *float64         `json:"fee_fixed,omitempty"`
	FeePercent             *float64         `json:"fee_percent,omitempty"`
	MinAmount              *float64         `json:"min_amount,omitempty"`
	MaxAmount              *float64         `json:"max_amount,omitempty"`
	Fields                 map[string]Field `json:"fields,omitempty"`
}

type WithdrawType struct {
	Fields map[string]Field `json:"fields,omitempty"`
}

type WithdrawAssetInfo struct {
	Enabled                bool                    `json:"enabled"`
	AuthenticationRequired bool                    `json:"authentication_required"`
	FeeFixed               *float64                `json:"fee_fixed,omitempty"`
	FeePercent             *float64                `json:"fee_percent,omitempty"`
	MinAmount              *float64                `json:"min_amount,omitempty"`
	MaxAmount              *float64                `json:"max_amount,omitempty"`
	Types                  map[string]WithdrawType `json:"types,omitempty"`
}

type EndpointInfo struct {
	Enabled                bool `json:"enabled"`
	AuthenticationRequired bool `json:"authentication_required"`
}

type Features struct {
	AccountCreation   bool `json:"account_creation"`
	ClaimableBalances bool `json:"claimable_balances"`
}

// InfoResponse is the SEP-6 /info answer.
type InfoResponse struct {
	Deposit      map[string]DepositAssetInfo  `json:"deposit"`
	Withdraw     map[string]WithdrawAssetInfo `json:"withdraw"`
	Fee          EndpointInfo                 `json:"fee"`
	Transactions EndpointInfo                 `json:"transactions"`
	Transaction  EndpointInfo                 `json:"transaction"`
	Features     Features                     `json:"features"`
}

type DepositRequest struct {
	AssetCode                 string
	Account                   string
	MemoType                  string
	Memo                      string
	EmailAddress              string
	Type                      string
	Amount                    string
	Lang                      string
	ClaimableBalanceSupported bool
}

type WithdrawRequest struct {
	AssetCode string
	Type      string
	Dest      string
	DestExtra string
	Account   string
	Memo      string
	MemoType  string
	Amount    string
	Lang      string
}

type ExtraInfo struct {
	Message string `json:"message,omitempty"`
}

// DepositInstruction is one entry of the SEP-6 "instructions" object.
type DepositInstruction struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

// DepositResponse is either a direct SEP-6 deposit answer or, when Interactive is set, the URL of the anchor's
// interactive flow.
type DepositResponse struct {
	How          string                        `json:"how,omitempty"`
	Instructions map[string]DepositInstruction `json:"instructions,omitempty"`
	ID           string                        `json:"id,omitempty"`
	ETA          int64                         `json:"eta,omitempty"`
	MinAmount    *float64                      `json:"min_amount,omitempty"`
	MaxAmount    *float64                      `json:"max_amount,omitempty"`
	FeeFixed     *float64                      `json:"fee_fixed,omitempty"`
	FeePercent   *float64                      `json:"fee_percent,omitempty"`
	ExtraInfo    *ExtraInfo                    `json:"extra_info,omitempty"`
	Interactive  *InteractiveResponse          `json:"-"`
}

// WithdrawResponse is either a direct SEP-6 withdraw answer or, when Interactive is set, the URL of the anchor's
// interactive flow.
type WithdrawResponse struct {
	AccountID   string               `json:"account_id,omitempty"`
	MemoType    string               `json:"memo_type,omitempty"`
	Memo        string               `json:"memo,omitempty"`
	ID          string               `json:"id,omitempty"`
	ETA         int64                `json:"eta,omitempty"`
	MinAmount   *float64             `json:"min_amount,omitempty"`
	MaxAmount   *float64             `json:"max_amount,omitempty"`
	FeeFixed    *float64             `json:"fee_fixed,omitempty"`
	FeePercent  *float64             `json:"fee_percent,omitempty"`
	ExtraInfo   *ExtraInfo           `json:"extra_info,omitempty"`
	Interactive *InteractiveResponse `json:"-"`
}

// InteractiveResponse is the SEP-6 "interactive_customer_info_needed" answer.
type InteractiveResponse struct {
	Type string `json:"type"`
	URL  string `json:"url" validate:"required,url"`
	ID   string `json:"id"`
}

// Transaction is the SEP-6 transaction record.
type Transaction struct {
	ID                    string            `json:"id"`
	Kind                  string            `json:"kind"`
	Status                TransactionStatus `json:"status"`
	StatusETA             int64             `json:"status_eta,omitempty"`
	MoreInfoURL           string            `json:"more_info_url,omitempty"`
	AmountIn              string            `json:"amount_in,omitempty"`
	AmountOut             string            `json:"amount_out,omitempty"`
	AmountFee             string            `json:"amount_fee,omitempty"`
	StartedAt             string            `json:"started_at,omitempty"`
	CompletedAt           string            `json:"completed_at,omitempty"`
	StellarTransactionID  string            `json:"stellar_transaction_id,omitempty"`
	ExternalTransactionID string            `json:"external_transaction_id,omitempty"`
	Message               string            `json:"message,omitempty"`
	From                  string            `json:"from,omitempty"`
	To                    string            `json:"to,omitempty"`
	WithdrawAnchorAccount string            `json:"withdraw_anchor_account,omitempty"`
	WithdrawMemo          string            `json:"withdraw_memo,omitempty"`
	WithdrawMemoType      string            `json:"withdraw_memo_type,omitempty"`
	DepositMemo           string            `json:"deposit_memo,omitempty"`
	DepositMemoType       string            `json:"deposit_memo_type,omitempty"`
	Refunded              bool              `json:"refunded,omitempty"`
	Instructions          json.RawMessage   `json:"instructions,omitempty"`
}

type TransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}
