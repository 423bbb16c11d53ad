package sandboxtests

import (
	"github.com/launchdarkly/sandbox-contract-tests/framework"
)

// RunTestSuite runs every contract test against the harness's service.
func RunTestSuite(
	harness *framework.TestHarness,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, harness)

		t.Run("basic endpoints", DoBasicEndpointTests)
		t.Run("error envelope", DoErrorEnvelopeTests)
		t.Run("method errors", DoMethodErrorTests)
		t.Run("data validation", DoDataValidationTests)
		t.Run("consistency", DoConsistencyTests)
		t.Run("concurrency", DoConcurrencyTests)
		t.Run("performance", DoPerformanceTests)
		t.Run("client behavior", DoClientBehaviorTests)
	})
}
