package sandboxtests

import (
	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func DoBasicEndpointTests(t *T) {
	t.Run("root returns welcome message", func(t *T) {
		resp := t.RequireGet(servicedef.PathRoot)
		assert.Equal(t, 200, resp.StatusCode)
		assert.JSONEq(t, `{"message": "Welcome to the Sandbox API!"}`, string(resp.Body))
	})

	t.Run("health check returns healthy", func(t *T) {
		resp := t.RequireGet(servicedef.PathHealth)
		assert.Equal(t, 200, resp.StatusCode)
		assert.JSONEq(t, `{"status": "healthy"}`, string(resp.Body))
	})

	t.Run("service info has name, description and uptime", func(t *T) {
		resp := t.RequireGet(servicedef.PathServiceInfo)
		assert.Equal(t, 200, resp.StatusCode)
		t.RequireJSONObject(resp)
		for _, key := range []string{"name", "description", "uptime_seconds"} {
			t.RequireField(resp, key)
		}
	})

	expectedKeys := []struct {
		path string
		key  string
	}{
		{servicedef.PathRoot, "message"},
		{servicedef.PathHealth, "status"},
		{servicedef.PathServiceInfo, "name"},
	}
	for _, p := range expectedKeys {
		p := p
		t.Run("GET "+p.path+" has key "+p.key, func(t *T) {
			resp := t.RequireGet(p.path)
			value := t.RequireField(resp, p.key)
			assert.Equal(t, ldvalue.StringType, value.Type())
		})
	}

	t.Run("responses are JSON", func(t *T) {
		for _, path := range []string{servicedef.PathRoot, servicedef.PathHealth, servicedef.PathServiceInfo} {
			resp := t.RequireGet(path)
			assert.Contains(t, resp.Header.Get("Content-Type"), "application/json", "Content-Type of GET %s", path)
			t.RequireJSONObject(resp)
		}
	})
}
