// Package anchorclient is the wallet side of SEP-1 (stellar.toml discovery), SEP-10 (web authentication) and SEP-6
// (deposit and withdrawal) as spoken by a Stellar anchor.
package anchorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stellar/anchor-demo/internal/utils"
)

const (
	defaultTimeout = 30 * time.Second
	// maxResponseSize caps SEP-6 and SEP-10 JSON bodies.
	maxResponseSize = 1 << 20
)

var validate = validator.New()

// Tracer receives every request and response the client exchanges with the anchor.
type Tracer interface {
	Request(method, url string, body any)
	Response(url string, body any)
}

// Observer receives per-endpoint request counters and latencies.
type Observer interface {
	IncAnchorRequests(endpoint string, statusCode int)
	ObserveAnchorRequestDuration(endpoint string, duration float64)
}

type Client struct {
	HTTPClient utils.HTTPClient
	Tracer     Tracer
	Observer   Observer
	// AllowHTTP fetches stellar.toml over plain http. Only meant for local anchors.
	AllowHTTP bool
}

func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) traceRequest(method, u string, body any) {
	if c.Tracer != nil {
		c.Tracer.Request(method, u, body)
	}
}

func (c *Client) traceResponse(u string, body any) {
	if c.Tracer != nil {
		c.Tracer.Response(u, body)
	}
}

func (c *Client) observe(endpoint string, statusCode int, started time.Time) {
	if c.Observer != nil {
		c.Observer.IncAnchorRequests(endpoint, statusCode)
		c.Observer.ObserveAnchorRequestDuration(endpoint, time.Since(started).Seconds())
	}
}

// do sends the request and returns the status code and raw body. Non-2xx responses are not treated as errors here
// because several SEP-6 answers carry meaning in 4xx bodies.
func (c *Client) do(ctx context.Context, endpoint, method, rawURL string, query url.Values, token string, bodyObj any) (int, []byte, error) {
	return c.doLimited(ctx, endpoint, method, rawURL, query, token, bodyObj, maxResponseSize)
}

// doLimited is do with a cap on the response body. Bodies over limit bytes fail with ErrResponseTooLarge.
func (c *Client) doLimited(ctx context.Context, endpoint, method, rawURL string, query url.Values, token string, bodyObj any, limit int64) (int, []byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var reqBody io.Reader
	if bodyObj != nil {
		b, marshalErr := json.Marshal(bodyObj)
		if marshalErr != nil {
			return 0, nil, fmt.Errorf("marshalling request body: %w", marshalErr)
		}
		reqBody = bytes.NewBuffer(b)
	}

	request, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if bodyObj != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	c.traceRequest(method, u.String(), bodyObj)
	started := time.Now()
	resp, err := c.HTTPClient.Do(request)
	if err != nil {
		return 0, nil, fmt.Errorf("sending request to %s: %w", u.Redacted(), err)
	}
	defer utils.DeferredClose(ctx, resp.Body, "closing response body")

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}
	c.observe(endpoint, resp.StatusCode, started)
	if int64(len(respBody)) > limit {
		return resp.StatusCode, nil, fmt.Errorf("%w: %s sent more than %d bytes", ErrResponseTooLarge, u.Redacted(), limit)
	}

	return resp.StatusCode, respBody, nil
}

func isHTTPError(statusCode int) bool {
	return statusCode >= 400
}

func parseResponseBody[T any](respBody []byte) (*T, error) {
	var response T
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("unmarshalling response body: %w", err)
	}
	return &response, nil
}

// getJSON performs a request and decodes a successful response into T.
func getJSON[T any](ctx context.Context, c *Client, endpoint, method, rawURL string, query url.Values, token string, bodyObj any) (*T, error) {
	statusCode, respBody, err := c.do(ctx, endpoint, method, rawURL, query, token, bodyObj)
	if err != nil {
		return nil, err
	}
	if isHTTPError(statusCode) {
		return nil, newHTTPError(statusCode, respBody)
	}

	response, err := parseResponseBody[T](respBody)
	if err != nil {
		return nil, err
	}
	c.traceResponse(rawURL, response)

	return response, nil
}
