package sandboxtests

import (
	"context"
	"errors"
	"net/http"

	"github.com/launchdarkly/sandbox-contract-tests/client"
	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// DoClientBehaviorTests checks the test client's own contract against the live service, so
// that the rest of the suite can rely on it.
func DoClientBehaviorTests(t *T) {
	t.Run("error status fails in normal mode", func(t *T) {
		resp, err := t.NewClient().Get(context.Background(), "/does-not-exist")
		require.Error(t, err)

		var statusErr *client.StatusError
		require.True(t, errors.As(err, &statusErr), "expected *client.StatusError, got %T: %s", err, err)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.NotEmpty(t, statusErr.Body)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("expect-error mode accepts matching fields", func(t *T) {
		c := t.NewClient().ExpectError(map[string]ldvalue.Value{
			"message": ldvalue.String("Unexpected 404 error: Not Found"),
		})
		resp, err := c.Get(context.Background(), "/does-not-exist")
		if err != nil {
			// Implementations may word the detail differently; only the status is fixed.
			var mismatch *client.FieldMismatchError
			require.True(t, errors.As(err, &mismatch), "unexpected error: %s", err)
			t.Debug("service used a different 404 message: %s", err)
		}
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("expect-error mode reports mismatched field", func(t *T) {
		c := t.NewClient().ExpectError(map[string]ldvalue.Value{
			"request_info.method": ldvalue.String("POST"),
		})
		_, err := c.Get(context.Background(), "/does-not-exist")
		var mismatch *client.FieldMismatchError
		require.True(t, errors.As(err, &mismatch), "expected *client.FieldMismatchError, got %v", err)
		require.Len(t, mismatch.Mismatches, 1)
		assert.Equal(t, "request_info.method", mismatch.Mismatches[0].Field)
		assert.Equal(t, "GET", mismatch.Mismatches[0].Actual.StringValue())
		assert.Contains(t, err.Error(), "request_info.method")
	})

	t.Run("expect-error mode is one-way", func(t *T) {
		c := t.NewClient().ExpectError(map[string]ldvalue.Value{
			"status": ldvalue.String(servicedef.StatusHealthy),
		})
		_, err := c.Get(context.Background(), servicedef.PathHealth)
		require.NoError(t, err)
		assert.True(t, c.ExpectingError())

		// a later error response is still tolerated, and still checked
		_, err = c.Get(context.Background(), "/does-not-exist")
		var mismatch *client.FieldMismatchError
		require.True(t, errors.As(err, &mismatch), "expected *client.FieldMismatchError, got %v", err)
		assert.True(t, mismatch.Mismatches[0].Missing)
		assert.True(t, c.ExpectingError())
	})

	t.Run("requests carry a request id", func(t *T) {
		resp, err := t.NewClient().ExpectError(nil).Get(context.Background(), "/does-not-exist")
		require.NoError(t, err)
		headers := t.RequireField(resp, "request_info.headers")
		assert.NotEmpty(t, headers.GetByKey("x-request-id").StringValue())
	})
}
