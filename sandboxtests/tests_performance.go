package sandboxtests

import (
	"time"

	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
)

const maxResponseTime = time.Second

func DoPerformanceTests(t *T) {
	t.Run("health check responds within one second", func(t *T) {
		start := time.Now()
		resp := t.RequireGet(servicedef.PathHealth)
		elapsed := time.Since(start)

		t.Debug("GET %s took %s", servicedef.PathHealth, elapsed)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Less(t, int64(elapsed), int64(maxResponseTime), "response took %s", elapsed)
	})
}
