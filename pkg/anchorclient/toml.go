package anchorclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pelletier/go-toml"
)

const (
	wellKnownPath = "/.well-known/stellar.toml"
	// stellar.toml files larger than this are rejected, as SEP-1 asks of clients.
	maxTomlSize = 100 * 1024
)

func (c *Client) tomlURL(homeDomain string) string {
	homeDomain = strings.TrimSuffix(strings.TrimSpace(homeDomain), "/")
	if strings.Contains(homeDomain, "://") {
		return homeDomain + wellKnownPath
	}
	scheme := "https"
	if c.AllowHTTP {
		scheme = "http"
	}
	return scheme + "://" + homeDomain + wellKnownPath
}

// FetchStellarToml downloads and decodes the home domain's stellar.toml.
func (c *Client) FetchStellarToml(ctx context.Context, homeDomain string) (*StellarToml, error) {
	if strings.TrimSpace(homeDomain) == "" {
		return nil, fmt.Errorf("home domain cannot be empty")
	}
	tomlURL := c.tomlURL(homeDomain)

	statusCode, body, err := c.doLimited(ctx, "stellar.toml", http.MethodGet, tomlURL, nil, "", nil, maxTomlSize)
	if err != nil {
		return nil, fmt.Errorf("fetching stellar.toml: %w", err)
	}
	if isHTTPError(statusCode) {
		return nil, fmt.Errorf("fetching stellar.toml: %w", newHTTPError(statusCode, body))
	}
	stellarToml, err := DecodeStellarToml(body)
	if err != nil {
		return nil, err
	}
	c.traceResponse(tomlURL, string(body))

	return stellarToml, nil
}

// DecodeStellarToml parses stellar.toml content.
func DecodeStellarToml(content []byte) (*StellarToml, error) {
	var stellarToml StellarToml
	if err := toml.Unmarshal(content, &stellarToml); err != nil {
		return nil, fmt.Errorf("decoding stellar.toml: %w", err)
	}
	if err := validate.Struct(stellarToml); err != nil {
		return nil, fmt.Errorf("validating stellar.toml: %w", err)
	}
	return &stellarToml, nil
}
