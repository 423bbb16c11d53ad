// Package servicedef contains the JSON shapes exchanged between the sandbox service and
// the test harness. Both sides import it, so a change here is a change to the contract.
package servicedef

const (
	PathRoot        = "/"
	PathHealth      = "/healthz"
	PathServiceInfo = "/service-info"
)

const (
	ServiceName        = "Sandbox API"
	ServiceDescription = "Provide a simple backend service to run tests against"
	WelcomeText        = "Welcome to the Sandbox API!"
	StatusHealthy      = "healthy"
)

// HeaderRequestID is echoed back by the service in its logs and is set by the test client
// on every request.
const HeaderRequestID = "X-Request-Id"

// WelcomeMessage is the body of GET /.
type WelcomeMessage struct {
	Message string `json:"message"`
}

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status string `json:"status"`
}

// ServiceInfo is the body of GET /service-info.
type ServiceInfo struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Message     string      `json:"message"`
	RequestInfo RequestInfo `json:"request_info"`
}

// RequestInfo describes the request that produced an ErrorEnvelope. URL is the request
// path only, and header names are lower-case.
type RequestInfo struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}
