package anchorclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingTransferServer = errors.New("stellar.toml does not declare a TRANSFER_SERVER")
	ErrMissingWebAuth        = errors.New("stellar.toml does not declare WEB_AUTH_ENDPOINT and SIGNING_KEY")
	ErrEmptyToken            = errors.New("the auth server did not return a token")
	ErrTransactionFailed     = errors.New("anchor transaction ended in a failure status")
	ErrResponseTooLarge      = errors.New("response body too large")
)

// HTTPError is returned when the anchor answers with an unexpected 4xx/5xx status.
type HTTPError struct {
	StatusCode int
	Body       string
	// Message is the "error" field of the anchor's JSON body, when present.
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected statusCode=%d, error=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("unexpected statusCode=%d, body=%v", e.StatusCode, strings.TrimSpace(e.Body))
}

func newHTTPError(statusCode int, body []byte) *HTTPError {
	httpErr := &HTTPError{StatusCode: statusCode, Body: string(body)}
	var errBody struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errBody) == nil {
		httpErr.Message = errBody.Error
	}
	return httpErr
}

// CustomerInfoStatusError is the SEP-6 "customer_info_status" answer: KYC is pending or was denied.
type CustomerInfoStatusError struct {
	Status      string
	MoreInfoURL string
	ETA         int64
}

func (e *CustomerInfoStatusError) Error() string {
	msg := fmt.Sprintf("customer information status is %q", e.Status)
	if e.MoreInfoURL != "" {
		msg += fmt.Sprintf(", see %s", e.MoreInfoURL)
	}
	return msg
}

// FieldsNeededError is the SEP-6 "non_interactive_customer_info_needed" answer.
type FieldsNeededError struct {
	Fields []string
}

func (e *FieldsNeededError) Error() string {
	return fmt.Sprintf("the anchor needs these customer fields first: %s", strings.Join(e.Fields, ", "))
}

// TransactionStatusError carries the anchor transaction that ended in a failure status.
type TransactionStatusError struct {
	Transaction Transaction
}

func (e *TransactionStatusError) Error() string {
	msg := fmt.Sprintf("anchor transaction %s ended with status %q", e.Transaction.ID, e.Transaction.Status)
	if e.Transaction.Message != "" {
		msg += ": " + e.Transaction.Message
	}
	return msg
}

func (e *TransactionStatusError) Unwrap() error {
	return ErrTransactionFailed
}
