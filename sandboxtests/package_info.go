// Package sandboxtests contains the sandbox API contract tests and their supporting API.
//
// Test harness infrastructure that does not know what the service returns, such as the
// test context and the connection to the service, is in the lower-level framework package.
package sandboxtests
