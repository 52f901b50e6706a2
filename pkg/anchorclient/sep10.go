package anchorclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/stellar/go-stellar-sdk/strkey"
)

// GetChallenge asks the SEP-10 server for a challenge transaction for account.
func (c *Client) GetChallenge(ctx context.Context, authServer, account, homeDomain string) (*ChallengeResponse, error) {
	query := url.Values{"account": []string{account}}
	if homeDomain != "" {
		query.Set("home_domain", homeDomain)
	}

	challenge, err := getJSON[ChallengeResponse](ctx, c, "sep10_challenge", http.MethodGet, authServer, query, "", nil)
	if err != nil {
		return nil, fmt.Errorf("getting SEP-10 challenge: %w", err)
	}
	if err = validate.Struct(challenge); err != nil {
		return nil, fmt.Errorf("validating SEP-10 challenge: %w", err)
	}

	return challenge, nil
}

// SendChallenge posts the client-signed challenge and returns the JWT.
func (c *Client) SendChallenge(ctx context.Context, authServer, signedChallengeXDR string) (string, error) {
	body := map[string]string{"transaction": signedChallengeXDR}

	tokenResp, err := getJSON[TokenResponse](ctx, c, "sep10_token", http.MethodPost, authServer, nil, "", body)
	if err != nil {
		return "", fmt.Errorf("sending signed SEP-10 challenge: %w", err)
	}
	if tokenResp.Token == "" {
		return "", ErrEmptyToken
	}

	return tokenResp.Token, nil
}

// TokenClaims are the SEP-10 JWT claims a wallet cares about.
type TokenClaims struct {
	Issuer    string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// DecodeToken reads the claims of a SEP-10 JWT without verifying its signature: only the anchor holds the key.
func DecodeToken(token string) (*TokenClaims, error) {
	claims := &jwtgo.RegisteredClaims{}
	if _, _, err := new(jwtgo.Parser).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return nil, errors.New("the JWT expiration is not set")
	}

	tc := &TokenClaims{
		Issuer:    claims.Issuer,
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		tc.IssuedAt = claims.IssuedAt.Time
	}
	return tc, nil
}

// Account returns the G... address from the subject, dropping a memo or muxed suffix ("G...:memo").
func (tc *TokenClaims) Account() string {
	account, _, _ := strings.Cut(tc.Subject, ":")
	return account
}

// Validate checks the token was issued to account and has not expired at now.
func (tc *TokenClaims) Validate(account string, now time.Time) error {
	if !strkey.IsValidEd25519PublicKey(tc.Account()) {
		return fmt.Errorf("the JWT subject %q is not a valid Stellar public key", tc.Subject)
	}
	if tc.Account() != account {
		return fmt.Errorf("the JWT subject %s does not match the authenticated account %s", tc.Account(), account)
	}
	if !now.Before(tc.ExpiresAt) {
		return fmt.Errorf("the JWT expired at %s", tc.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
