package framework

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/launchdarkly/sandbox-contract-tests/client"
	"github.com/launchdarkly/sandbox-contract-tests/logging"
	"github.com/launchdarkly/sandbox-contract-tests/servicedef"
)

const statusPollInterval = time.Millisecond * 100

// TestServiceInfo is what the service reported about itself when the harness connected.
type TestServiceInfo struct {
	servicedef.ServiceInfo
	// ConnectedAt is when the harness first got a healthy response.
	ConnectedAt time.Time
}

// TestHarness holds what every test needs to talk to the service under test.
type TestHarness struct {
	serviceBaseURL  string
	clientTimeout   time.Duration
	testServiceInfo TestServiceInfo
	logger          logging.Logger
}

// NewTestHarness creates a TestHarness, and verifies that the service is responding by
// polling its health resource until it answers 200 or statusQueryTimeout elapses. It then
// reads the service info resource. Progress is written to startupOutput.
func NewTestHarness(
	serviceBaseURL string,
	statusQueryTimeout time.Duration,
	clientTimeout time.Duration,
	debugLogger logging.Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = logging.NullLogger()
	}
	if startupOutput == nil {
		startupOutput = io.Discard
	}

	h := &TestHarness{
		serviceBaseURL: serviceBaseURL,
		clientTimeout:  clientTimeout,
		logger:         debugLogger,
	}

	info, err := h.queryTestServiceInfo(statusQueryTimeout, startupOutput)
	if err != nil {
		return nil, err
	}
	h.testServiceInfo = info
	return h, nil
}

// ServiceBaseURL returns the URL the harness was pointed at.
func (h *TestHarness) ServiceBaseURL() string {
	return h.serviceBaseURL
}

func (h *TestHarness) TestServiceInfo() TestServiceInfo {
	return h.testServiceInfo
}

// NewClient returns a new test client for the service. Each test should use its own
// client, since putting a client into expect-error mode cannot be undone.
func (h *TestHarness) NewClient(logger logging.Logger) *client.Client {
	if logger == nil {
		logger = h.logger
	}
	return client.New(h.serviceBaseURL, h.clientTimeout, client.WithLogger(logger))
}

func (h *TestHarness) queryTestServiceInfo(timeout time.Duration, output io.Writer) (TestServiceInfo, error) {
	fmt.Fprintf(output, "Connecting to test service at %s", h.serviceBaseURL)

	probe := client.New(h.serviceBaseURL, statusPollInterval*10, client.WithLogger(h.logger))
	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		_, err := probe.Get(context.Background(), servicedef.PathHealth)
		if err == nil {
			fmt.Fprintln(output)
			break
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return TestServiceInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(statusPollInterval)
	}
	connectedAt := time.Now()

	resp, err := probe.Get(context.Background(), servicedef.PathServiceInfo)
	if err != nil {
		return TestServiceInfo{}, fmt.Errorf("service info query failed: %w", err)
	}
	var info servicedef.ServiceInfo
	if err := resp.DecodeJSON(&info); err != nil {
		return TestServiceInfo{}, fmt.Errorf("malformed service info response from test service: %s", string(resp.Body))
	}
	fmt.Fprintf(output, "Service info query returned metadata: %s\n", string(resp.Body))

	return TestServiceInfo{ServiceInfo: info, ConnectedAt: connectedAt}, nil
}
