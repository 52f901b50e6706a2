package anchorclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	retry "github.com/avast/retry-go/v4"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stellar/go-stellar-sdk/amount"
	"github.com/stellar/go-stellar-sdk/support/log"
)

const (
	interactiveCustomerInfoNeeded    = "interactive_customer_info_needed"
	nonInteractiveCustomerInfoNeeded = "non_interactive_customer_info_needed"
	customerInfoStatus               = "customer_info_status"
)

func endpointURL(transferServer, path string) (string, error) {
	u, err := url.JoinPath(transferServer, path)
	if err != nil {
		return "", fmt.Errorf("joining path %s: %w", path, err)
	}
	return u, nil
}

// Info fetches the SEP-6 /info document.
func (c *Client) Info(ctx context.Context, transferServer string) (*InfoResponse, error) {
	u, err := endpointURL(transferServer, "/info")
	if err != nil {
		return nil, err
	}

	info, err := getJSON[InfoResponse](ctx, c, "sep6_info", http.MethodGet, u, nil, "", nil)
	if err != nil {
		return nil, fmt.Errorf("getting SEP-6 info: %w", err)
	}
	return info, nil
}

func (r DepositRequest) values() url.Values {
	v := url.Values{}
	setIfNotEmpty(v, "asset_code", r.AssetCode)
	setIfNotEmpty(v, "account", r.Account)
	setIfNotEmpty(v, "memo_type", r.MemoType)
	setIfNotEmpty(v, "memo", r.Memo)
	setIfNotEmpty(v, "email_address", r.EmailAddress)
	setIfNotEmpty(v, "type", r.Type)
	setIfNotEmpty(v, "amount", r.Amount)
	setIfNotEmpty(v, "lang", r.Lang)
	if r.ClaimableBalanceSupported {
		v.Set("claimable_balance_supported", "true")
	}
	return v
}

func (r WithdrawRequest) values() url.Values {
	v := url.Values{}
	setIfNotEmpty(v, "asset_code", r.AssetCode)
	setIfNotEmpty(v, "type", r.Type)
	setIfNotEmpty(v, "dest", r.Dest)
	setIfNotEmpty(v, "dest_extra", r.DestExtra)
	setIfNotEmpty(v, "account", r.Account)
	setIfNotEmpty(v, "memo", r.Memo)
	setIfNotEmpty(v, "memo_type", r.MemoType)
	setIfNotEmpty(v, "amount", r.Amount)
	setIfNotEmpty(v, "lang", r.Lang)
	return v
}

func setIfNotEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// customerInfoAnswer is the shape shared by every 403 body SEP-6 defines.
type customerInfoAnswer struct {
	Type        string   `json:"type"`
	URL         string   `json:"url"`
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	MoreInfoURL string   `json:"more_info_url"`
	ETA         int64    `json:"eta"`
	Fields      []string `json:"fields"`
}

// parseForbidden turns a 403 body into an interactive redirect, or into a typed error for the other SEP-6 customer
// info answers. ok is false when the body is none of those.
func parseForbidden(body []byte) (interactive *InteractiveResponse, ok bool, err error) {
	var answer customerInfoAnswer
	if json.Unmarshal(body, &answer) != nil {
		return nil, false, nil
	}

	switch answer.Type {
	case interactiveCustomerInfoNeeded:
		interactive = &InteractiveResponse{Type: answer.Type, URL: answer.URL, ID: answer.ID}
		if err = validate.Struct(interactive); err != nil {
			return nil, true, fmt.Errorf("validating interactive response: %w", err)
		}
		return interactive, true, nil
	case nonInteractiveCustomerInfoNeeded:
		return nil, true, &FieldsNeededError{Fields: answer.Fields}
	case customerInfoStatus:
		return nil, true, &CustomerInfoStatusError{Status: answer.Status, MoreInfoURL: answer.MoreInfoURL, ETA: answer.ETA}
	default:
		return nil, false, nil
	}
}

// transfer sends a deposit or withdraw request, decoding 200 into T and interactive 403 answers into the returned
// InteractiveResponse.
func transfer[T any](ctx context.Context, c *Client, endpoint, transferServer, path, token string, query url.Values) (*T, *InteractiveResponse, error) {
	u, err := endpointURL(transferServer, path)
	if err != nil {
		return nil, nil, err
	}

	statusCode, body, err := c.do(ctx, endpoint, http.MethodGet, u, query, token, nil)
	if err != nil {
		return nil, nil, err
	}

	if statusCode == http.StatusForbidden {
		interactive, ok, parseErr := parseForbidden(body)
		if parseErr != nil {
			return nil, nil, parseErr
		}
		if ok {
			c.traceResponse(u, interactive)
			return nil, interactive, nil
		}
	}
	if isHTTPError(statusCode) {
		return nil, nil, newHTTPError(statusCode, body)
	}

	response, err := parseResponseBody[T](body)
	if err != nil {
		return nil, nil, err
	}
	c.traceResponse(u, response)

	return response, nil, nil
}

// Deposit starts a SEP-6 deposit.
func (c *Client) Deposit(ctx context.Context, transferServer, token string, req DepositRequest) (*DepositResponse, error) {
	resp, interactive, err := transfer[DepositResponse](ctx, c, "sep6_deposit", transferServer, "/deposit", token, req.values())
	if err != nil {
		return nil, fmt.Errorf("requesting deposit: %w", err)
	}
	if interactive != nil {
		return &DepositResponse{ID: interactive.ID, Interactive: interactive}, nil
	}
	return resp, nil
}

// Withdraw starts a SEP-6 withdrawal.
func (c *Client) Withdraw(ctx context.Context, transferServer, token string, req WithdrawRequest) (*WithdrawResponse, error) {
	resp, interactive, err := transfer[WithdrawResponse](ctx, c, "sep6_withdraw", transferServer, "/withdraw", token, req.values())
	if err != nil {
		return nil, fmt.Errorf("requesting withdraw: %w", err)
	}
	if interactive != nil {
		return &WithdrawResponse{ID: interactive.ID, Interactive: interactive}, nil
	}
	if resp.AccountID == "" {
		return nil, errors.New("requesting withdraw: the anchor did not return account_id")
	}
	return resp, nil
}

// Transaction fetches one anchor transaction by id.
func (c *Client) Transaction(ctx context.Context, transferServer, token, id string) (*Transaction, error) {
	u, err := endpointURL(transferServer, "/transaction")
	if err != nil {
		return nil, err
	}

	resp, err := getJSON[TransactionResponse](ctx, c, "sep6_transaction", http.MethodGet, u, url.Values{"id": []string{id}}, token, nil)
	if err != nil {
		return nil, fmt.Errorf("getting transaction %s: %w", id, err)
	}
	return &resp.Transaction, nil
}

// WaitForTransactionStatus polls the transaction until its status is one of wantStatuses. A failure status that was
// not asked for stops the polling with a *TransactionStatusError. onPoll, when not nil, sees every fetched record.
func (c *Client) WaitForTransactionStatus(ctx context.Context, transferServer, token, id string, wantStatuses mapset.Set[TransactionStatus], onPoll func(Transaction), retryOptions ...retry.Option) (*Transaction, error) {
	var tx *Transaction
	attemptsCount := 0
	outerErr := retry.Do(
		func() error {
			attemptsCount++
			got, err := c.Transaction(ctx, transferServer, token, id)
			if err != nil {
				var httpErr *HTTPError
				if errors.As(err, &httpErr) && httpErr.StatusCode != http.StatusNotFound && httpErr.StatusCode < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}
			tx = got
			if onPoll != nil {
				onPoll(*got)
			}

			switch {
			case wantStatuses.Contains(got.Status):
				return nil
			case got.Status.IsFailure():
				return retry.Unrecoverable(&TransactionStatusError{Transaction: *got})
			default:
				log.Ctx(ctx).Debugf("transaction %s is %s, waiting for %s", id, got.Status, statusList(wantStatuses))
				return fmt.Errorf("transaction %s has status %s", id, got.Status)
			}
		},
		append(
			retryOptions,
			retry.Context(ctx),
			retry.LastErrorOnly(true),
		)...,
	)
	if outerErr != nil {
		return tx, fmt.Errorf("waiting for transaction %s after %d attempts: %w", id, attemptsCount, outerErr)
	}

	return tx, nil
}

func statusList(statuses mapset.Set[TransactionStatus]) string {
	names := make([]string, 0, statuses.Cardinality())
	for _, s := range statuses.ToSlice() {
		names = append(names, string(s))
	}
	return strings.Join(names, "|")
}

// ParseAmount reads a decimal amount string as the anchor sends it and returns it in stroops.
// Amounts follow Stellar's format: plain decimal with at most 7 fractional digits. An empty string is zero.
func ParseAmount(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	stroops, err := amount.ParseInt64(v)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", v, err)
	}
	return stroops, nil
}
