package sandboxtests

import (
	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func DoConsistencyTests(t *T) {
	t.Run("health check is idempotent", func(t *T) {
		first := t.RequireGet(servicedef.PathHealth)
		for i := 0; i < 5; i++ {
			resp := t.RequireGet(servicedef.PathHealth)
			require.Equal(t, 200, resp.StatusCode)
			assert.True(t, first.JSON.Equal(resp.JSON), "call %d returned %s, first call returned %s",
				i+1, string(resp.Body), string(first.Body))
			assert.Equal(t, servicedef.StatusHealthy, resp.JSON.GetByKey("status").StringValue())
		}
	})

	t.Run("welcome message is constant", func(t *T) {
		first := t.RequireGet(servicedef.PathRoot)
		second := t.RequireGet(servicedef.PathRoot)
		assert.True(t, first.JSON.Equal(second.JSON))
	})
}
