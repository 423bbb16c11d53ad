package sandboxtests

import (
	"context"
	"strconv"

	"github.com/launchdarkly/sandbox-contract-tests/client"
	"github.com/launchdarkly/sandbox-contract-tests/framework"
	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// T represents a test or subtest in the sandbox contract test suite.
//
// It implements the same basic functionality as Go's testing.T, but in an environment that
// is outside of the Go test runner. Its Errorf and FailNow methods make it usable with the
// assert and require packages.
//
// Every T has its own test client, created on first use, whose debug output goes to the
// test's captured log.
type T struct {
	context *framework.Context
	harness *framework.TestHarness
	client  *client.Client
}

func newTestScope(context *framework.Context, harness *framework.TestHarness) *T {
	return &T{context: context, harness: harness}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c, t.harness))
	})
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Defer schedules a function to run when this test finishes.
func (t *T) Defer(cleanup func()) {
	t.context.Defer(cleanup)
}

// Harness returns the test harness.
func (t *T) Harness() *framework.TestHarness {
	return t.harness
}

// Client returns this test's client, creating it on first use.
func (t *T) Client() *client.Client {
	if t.client == nil {
		t.client = t.NewClient()
	}
	return t.client
}

// NewClient returns a fresh client, for tests that need more than one.
func (t *T) NewClient() *client.Client {
	return t.harness.NewClient(t.context.DebugLogger())
}

// RequireGet sends a GET request with this test's client, and fails the test immediately
// if the request fails or the status is not 2xx.
func (t *T) RequireGet(path string) *client.Response {
	resp, err := t.Client().Get(context.Background(), path)
	require.NoError(t, err, "GET %s", path)
	return resp
}

// RequireRequest sends a request of any method with a client in expect-error mode, so that
// an error status does not fail the test by itself. It fails the test immediately only on
// a transport error.
func (t *T) RequireRequest(method, path string) *client.Response {
	c := t.NewClient().ExpectError(nil)
	resp, err := c.Do(context.Background(), method, path, nil)
	require.NoError(t, err, "%s %s", method, path)
	return resp
}

// RequireJSONObject fails the test immediately if the response body is not a JSON object.
func (t *T) RequireJSONObject(resp *client.Response) ldvalue.Value {
	require.Equal(t, ldvalue.ObjectType, resp.JSON.Type(), "response body was not a JSON object: %s", string(resp.Body))
	return resp.JSON
}

// RequireField fails the test immediately if the response has no such field.
func (t *T) RequireField(resp *client.Response, name string) ldvalue.Value {
	value, ok := resp.Field(name)
	require.True(t, ok, "response is missing field %q: %s", name, string(resp.Body))
	return value
}

// AssertErrorEnvelope checks that resp has the standard error shape for a request made
// with the given method and path, and that its message names the response status.
func (t *T) AssertErrorEnvelope(resp *client.Response, method, path string) {
	body := t.RequireJSONObject(resp)

	message := t.RequireField(resp, "message")
	if assert.Equal(t, ldvalue.StringType, message.Type(), "message should be a string") {
		assert.Contains(t, message.StringValue(), strconv.Itoa(resp.StatusCode))
	}

	info := body.GetByKey("request_info")
	require.Equal(t, ldvalue.ObjectType, info.Type(), "request_info should be an object")
	assert.Equal(t, method, info.GetByKey("method").StringValue(), "request_info.method")
	assert.Equal(t, path, info.GetByKey("url").StringValue(), "request_info.url")
	assert.Equal(t, ldvalue.ObjectType, info.GetByKey("headers").Type(), "request_info.headers should be an object")
}

// RequireServiceInfo decodes GET /service-info.
func (t *T) RequireServiceInfo() servicedef.ServiceInfo {
	resp := t.RequireGet(servicedef.PathServiceInfo)
	var info servicedef.ServiceInfo
	require.NoError(t, resp.DecodeJSON(&info), "malformed service info: %s", string(resp.Body))
	return info
}
