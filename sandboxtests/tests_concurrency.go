package sandboxtests

import (
	"context"

	"github.com/launchdarkly/sandbox-contract-tests/client"
	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const concurrentRequests = 10

func DoConcurrencyTests(t *T) {
	t.Run("concurrent health checks all succeed", func(t *T) {
		c := t.Client()
		responses := make([]*client.Response, concurrentRequests)

		g, ctx := errgroup.WithContext(context.Background())
		for i := range responses {
			i := i
			g.Go(func() error {
				resp, err := c.Get(ctx, servicedef.PathHealth)
				responses[i] = resp
				return err
			})
		}
		require.NoError(t, g.Wait())

		for i, resp := range responses {
			assert.Equal(t, 200, resp.StatusCode, "request %d", i)
			assert.True(t, responses[0].JSON.Equal(resp.JSON), "request %d returned %s", i, string(resp.Body))
			assert.Equal(t, servicedef.StatusHealthy, resp.JSON.GetByKey("status").StringValue())
		}
	})
}
