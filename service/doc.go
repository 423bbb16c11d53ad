// Package service implements the sandbox API: a small read-only JSON service used as a
// target for HTTP contract tests.
//
// All error responses, whether they come from routing (404, 405), from a handler
// returning an *HTTPError, or from a recovered panic, share the servicedef.ErrorEnvelope
// shape and are logged before they are written.
package service
