package sandboxtests

import (
	"context"
	"net/http"

	"github.com/launchdarkly/sandbox-contract-tests/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func DoErrorEnvelopeTests(t *T) {
	for _, path := range []string{"/does-not-exist", "/non-existent-endpoint", "/healthz/extra", "/api/healthz"} {
		path := path
		t.Run("GET "+path+" returns 404", func(t *T) {
			resp := t.RequireRequest(http.MethodGet, path)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			t.AssertErrorEnvelope(resp, http.MethodGet, path)
		})
	}

	t.Run("unknown method on unknown path returns 404", func(t *T) {
		resp := t.RequireRequest("PROPFIND", "/does-not-exist")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		t.AssertErrorEnvelope(resp, "PROPFIND", "/does-not-exist")
	})

	t.Run("404 message names the status", func(t *T) {
		c := t.NewClient().ExpectError(map[string]ldvalue.Value{
			"request_info.url":    ldvalue.String("/does-not-exist"),
			"request_info.method": ldvalue.String("GET"),
		})
		resp, err := c.Get(context.Background(), "/does-not-exist")
		require.NoError(t, err)
		message := t.RequireField(resp, "message")
		assert.Contains(t, message.StringValue(), "404")
	})

	t.Run("request_info echoes request headers", func(t *T) {
		resp, err := t.NewClient().ExpectError(nil).Get(context.Background(), "/does-not-exist",
			client.Header("X-Sandbox-Probe", "probe-value"))
		require.NoError(t, err)
		headers := t.RequireField(resp, "request_info.headers")
		assert.Equal(t, "probe-value", headers.GetByKey("x-sandbox-probe").StringValue())
		assert.Equal(t, "application/json", headers.GetByKey("accept").StringValue())
	})

	t.Run("request_info.url excludes query string", func(t *T) {
		resp, err := t.NewClient().ExpectError(nil).Get(context.Background(), "/does-not-exist",
			client.Query("q", "1"))
		require.NoError(t, err)
		t.AssertErrorEnvelope(resp, http.MethodGet, "/does-not-exist")
	})
}
