package sandboxtests

import (
	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func DoDataValidationTests(t *T) {
	t.Run("service info data types", func(t *T) {
		resp := t.RequireGet(servicedef.PathServiceInfo)
		assert.Equal(t, ldvalue.StringType, t.RequireField(resp, "name").Type())
		assert.Equal(t, ldvalue.StringType, t.RequireField(resp, "description").Type())
		assert.Equal(t, ldvalue.NumberType, t.RequireField(resp, "uptime_seconds").Type())
	})

	t.Run("service info value ranges", func(t *T) {
		info := t.RequireServiceInfo()
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Description)
		assert.GreaterOrEqual(t, info.UptimeSeconds, 0.0)
	})

	t.Run("service info matches what the harness saw at startup", func(t *T) {
		info := t.RequireServiceInfo()
		startup := t.Harness().TestServiceInfo()
		assert.Equal(t, startup.Name, info.Name)
		assert.Equal(t, startup.Description, info.Description)
		assert.GreaterOrEqual(t, info.UptimeSeconds, startup.UptimeSeconds)
	})

	t.Run("uptime never decreases", func(t *T) {
		previous := -1.0
		for i := 0; i < 5; i++ {
			info := t.RequireServiceInfo()
			t.Debug("uptime_seconds = %f", info.UptimeSeconds)
			assert.GreaterOrEqual(t, info.UptimeSeconds, previous, "uptime went backwards on call %d", i+1)
			previous = info.UptimeSeconds
		}
	})
}
