package sandboxtests

import (
	"net/http"

	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
)

// A known path requested with the wrong method may be answered with 405 or 422 depending
// on the implementation; both must use the error envelope.
var methodErrorStatuses = []int{http.StatusMethodNotAllowed, http.StatusUnprocessableEntity}

func DoMethodErrorTests(t *T) {
	t.Run("POST / is rejected", func(t *T) {
		resp := t.RequireRequest(http.MethodPost, servicedef.PathRoot)
		assert.Contains(t, methodErrorStatuses, resp.StatusCode)
		t.AssertErrorEnvelope(resp, http.MethodPost, servicedef.PathRoot)
	})

	for _, path := range []string{servicedef.PathRoot, servicedef.PathHealth, servicedef.PathServiceInfo} {
		for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
			path, method := path, method
			t.Run(method+" "+path+" is rejected", func(t *T) {
				resp := t.RequireRequest(method, path)
				assert.Contains(t, methodErrorStatuses, resp.StatusCode)
				t.AssertErrorEnvelope(resp, method, path)
			})
		}
	}
}
