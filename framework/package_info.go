// Package framework contains the low-level test harness infrastructure that does not
// depend on what the sandbox service actually returns.
//
// The general model is:
//
// 1. The test harness talks to a running service over HTTP. On startup it waits until the
// service's health resource answers, then reads the service's self-description.
//
// 2. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// The sandboxtests package builds the actual contract tests on top of this.
package framework
