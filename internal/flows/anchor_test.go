package flows

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/network"
	"github.com/stellar/go-stellar-sdk/txnbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/anchor-demo/pkg/anchorclient"
)

// testAnchor is an in-process SEP-1/6/10 anchor.
type testAnchor struct {
	t          *testing.T
	server     *httptest.Server
	signingKP  *keypair.Full
	issuer     string
	homeDomain string

	mu               sync.Mutex
	depositAuth      bool
	transferAnswer   func(w http.ResponseWriter, r *http.Request)
	statuses         []anchorclient.Transaction
	transactionCalls int
	tokensIssued     int
}

func newTestAnchor(t *testing.T) *testAnchor {
	t.Helper()
	a := &testAnchor{
		t:           t,
		signingKP:   keypair.MustRandom(),
		issuer:      keypair.MustRandom().Address(),
		depositAuth: true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/stellar.toml", a.stellarToml)
	mux.HandleFunc("/auth", a.auth)
	mux.HandleFunc("/sep6/info", a.info)
	mux.HandleFunc("/sep6/withdraw", a.transfer)
	mux.HandleFunc("/sep6/deposit", a.transfer)
	mux.HandleFunc("/sep6/transaction", a.transaction)
	a.server = httptest.NewServer(mux)
	t.Cleanup(a.server.Close)
	a.homeDomain = a.server.Listener.Addr().String()
	return a
}

func (a *testAnchor) stellarToml(w http.ResponseWriter, _ *http.Request) {
	_, _ = fmt.Fprintf(w, `NETWORK_PASSPHRASE = %q
SIGNING_KEY = %q
WEB_AUTH_ENDPOINT = "%s/auth"
TRANSFER_SERVER = "%s/sep6"

[[CURRENCIES]]
code = "SRT"
issuer = %q
`, network.TestNetworkPassphrase, a.signingKP.Address(), a.server.URL, a.server.URL, a.issuer) //nolint:errcheck // test code
}

func (a *testAnchor) auth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		account := r.URL.Query().Get("account")
		assert.Equal(a.t, a.homeDomain, r.URL.Query().Get("home_domain"))
		tx, err := txnbuild.BuildChallengeTx(a.signingKP.Seed(), account, a.homeDomain, a.homeDomain, network.TestNetworkPassphrase, 5*time.Minute, nil)
		require.NoError(a.t, err)
		xdr, err := tx.Base64()
		require.NoError(a.t, err)
		writeJSON(a.t, w, http.StatusOK, anchorclient.ChallengeResponse{Transaction: xdr, NetworkPassphrase: network.TestNetworkPassphrase})
	case http.MethodPost:
		var body struct {
			Transaction string `json:"transaction"`
		}
		require.NoError(a.t, json.NewDecoder(r.Body).Decode(&body))
		_, clientAccountID, _, _, err := txnbuild.ReadChallengeTx(body.Transaction, a.signingKP.Address(), network.TestNetworkPassphrase, a.homeDomain, []string{a.homeDomain})
		require.NoError(a.t, err)
		_, err = txnbuild.VerifyChallengeTxSigners(body.Transaction, a.signingKP.Address(), network.TestNetworkPassphrase, a.homeDomain, []string{a.homeDomain}, clientAccountID)
		if err != nil {
			writeJSON(a.t, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		token := jwtgo.NewWithClaims(jwtgo.SigningMethodHS256, jwtgo.RegisteredClaims{
			Issuer:    a.server.URL + "/auth",
			Subject:   clientAccountID,
			IssuedAt:  jwtgo.NewNumericDate(time.Now()),
			ExpiresAt: jwtgo.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte("anchor-secret"))
		require.NoError(a.t, err)
		a.mu.Lock()
		a.tokensIssued++
		a.mu.Unlock()
		writeJSON(a.t, w, http.StatusOK, anchorclient.TokenResponse{Token: signed})
	}
}

func (a *testAnchor) info(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	depositAuth := a.depositAuth
	a.mu.Unlock()
	writeJSON(a.t, w, http.StatusOK, anchorclient.InfoResponse{
		Deposit:  map[string]anchorclient.DepositAssetInfo{"SRT": {Enabled: true, AuthenticationRequired: depositAuth}},
		Withdraw: map[string]anchorclient.WithdrawAssetInfo{"SRT": {Enabled: true, AuthenticationRequired: true}},
		Features: anchorclient.Features{ClaimableBalances: true},
	})
}

func (a *testAnchor) transfer(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	answer := a.transferAnswer
	a.mu.Unlock()
	require.NotNil(a.t, answer, "no transfer answer configured")
	answer(w, r)
}

func (a *testAnchor) transaction(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(a.t, a.statuses, "no transaction records configured")
	i := a.transactionCalls
	if i >= len(a.statuses) {
		i = len(a.statuses) - 1
	}
	a.transactionCalls++
	tx := a.statuses[i]
	assert.Equal(a.t, tx.ID, r.URL.Query().Get("id"))
	writeJSON(a.t, w, http.StatusOK, anchorclient.TransactionResponse{Transaction: tx})
}

func (a *testAnchor) setTransferAnswer(fn func(w http.ResponseWriter, r *http.Request)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transferAnswer = fn
}

func (a *testAnchor) setTransactions(txs ...anchorclient.Transaction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.statuses = txs
	a.transactionCalls = 0
}

func (a *testAnchor) issuedTokens() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tokensIssued
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}
