// Package client is a small HTTP client for exercising the sandbox API from tests.
//
// A Client joins request paths onto a base URL, applies a timeout to every request and
// decodes JSON response bodies. By default any non-2xx status is returned as a
// *StatusError. After ExpectError is called the client tolerates error statuses and
// instead checks that the response body contains the expected fields.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/launchdarkly/sandbox-contract-tests/logging"
	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// DefaultTimeout is used when New is given a timeout of zero or less.
const DefaultTimeout = 5 * time.Second

// Client sends requests to one service. It is safe for concurrent use; each call makes
// exactly one request attempt.
type Client struct {
	baseURL        string
	timeout        time.Duration
	httpClient     *http.Client
	headers        http.Header
	logger         logging.Logger
	expectingError bool
	expectedFields map[string]ldvalue.Value
	lock           sync.Mutex
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithHTTPClient makes the Client use the transport, redirect policy and cookie jar of hc.
// The Client's own timeout still applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHeader adds a header that is sent with every request.
func WithHeader(name, value string) Option {
	return func(c *Client) {
		c.headers.Add(name, value)
	}
}

// WithLogger sets a logger for request/response debug output.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for the service at baseURL. A trailing slash on baseURL is ignored.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
		logger:     logging.NullLogger(),
	}
	c.headers.Set("Accept", "application/json")
	for _, o := range opts {
		o(c)
	}
	base := c.httpClient
	c.httpClient = &http.Client{
		Transport:     base.Transport,
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       c.timeout,
	}
	return c
}

// BaseURL returns the base URL with any trailing slash removed.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// ExpectError switches the client into expect-error mode for all later requests: error
// statuses no longer cause a *StatusError, and every response body must contain each of
// fields with an equal value. A field name that is not a top-level key may address a
// nested value with dots, as in "request_info.url".
//
// There is no way back to the normal mode; create a new Client for that. Calling
// ExpectError again replaces the expected fields. It returns c for chaining.
func (c *Client) ExpectError(fields map[string]ldvalue.Value) *Client {
	copied := make(map[string]ldvalue.Value, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	c.lock.Lock()
	c.expectingError = true
	c.expectedFields = copied
	c.lock.Unlock()
	return c
}

// ExpectingError reports whether ExpectError has been called.
func (c *Client) ExpectingError() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.expectingError
}

func (c *Client) expectation() (bool, map[string]ldvalue.Value) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.expectingError, c.expectedFields
}

// RequestOption customizes a single request.
type RequestOption func(*http.Request)

// Header sets a header on one request, replacing any client-wide value.
func Header(name, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(name, value)
	}
}

// Query adds a query parameter to one request.
func Query(name, value string) RequestOption {
	return func(r *http.Request) {
		q := r.URL.Query()
		q.Add(name, value)
		r.URL.RawQuery = q.Encode()
	}
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

// Do sends one request. A non-nil body is sent as JSON: []byte and string values are sent
// as-is, anything else is marshalled with encoding/json.
//
// Transport failures, including timeouts, are returned exactly as net/http reports them
// and the Response is nil. Otherwise the Response is always returned, together with a
// *StatusError or *FieldMismatchError if the response was not acceptable.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	url := c.URL(path)
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	for name, values := range c.headers {
		req.Header[name] = append([]string(nil), values...)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(servicedef.HeaderRequestID, uuid.NewString())
	for _, o := range opts {
		o(req)
	}

	c.logger.Printf("%s %s (request id %s)", method, url, req.Header.Get(servicedef.HeaderRequestID))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	result := newResponse(resp, data)
	c.logger.Printf("Received HTTP %d from %s %s: %s", result.StatusCode, method, url, string(data))

	if expectingError, fields := c.expectation(); expectingError {
		if err := checkFields(result.JSON, fields); err != nil {
			return result, err
		}
		return result, nil
	}
	if !result.IsSuccess() {
		return result, &StatusError{Method: method, URL: url, StatusCode: result.StatusCode, Body: data}
	}
	return result, nil
}

// URL returns the absolute URL for a request path.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		return data, nil
	}
}
