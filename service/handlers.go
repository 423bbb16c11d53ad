package service

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/launchdarkly/sandbox-contract-tests/servicedef"
)

// Clock measures uptime from an instant captured once at startup.
type Clock struct {
	startedAt time.Time
	now       func() time.Time
}

// NewClock starts a Clock at the current time.
func NewClock() Clock {
	return NewClockAt(time.Now(), time.Now)
}

// NewClockAt returns a Clock that started at startedAt and reads the current time from now.
func NewClockAt(startedAt time.Time, now func() time.Time) Clock {
	if now == nil {
		now = time.Now
	}
	return Clock{startedAt: startedAt, now: now}
}

// StartedAt returns the instant the clock was started.
func (c Clock) StartedAt() time.Time {
	return c.startedAt
}

// Uptime never returns a negative duration.
func (c Clock) Uptime() time.Duration {
	d := c.now().Sub(c.startedAt)
	if d < 0 {
		return 0
	}
	return d
}

type handlers struct {
	clock Clock
}

// root handles GET /.
func (h handlers) root(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, servicedef.WelcomeMessage{Message: servicedef.WelcomeText})
	return nil
}

// health handles GET /healthz.
func (h handlers) health(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, servicedef.HealthStatus{Status: servicedef.StatusHealthy})
	return nil
}

// serviceInfo handles GET /service-info.
func (h handlers) serviceInfo(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, servicedef.ServiceInfo{
		Name:          servicedef.ServiceName,
		Description:   servicedef.ServiceDescription,
		UptimeSeconds: h.clock.Uptime().Seconds(),
	})
	return nil
}

func notFound(w http.ResponseWriter, r *http.Request) error {
	return NewHTTPError(http.StatusNotFound)
}

// routeMethods are the methods tried when deciding whether a path exists at all.
var routeMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace,
}

// methodNotAllowed answers 405 only for a path that some route matches. chi sends methods
// it does not know to this handler before looking at the path, and those get 404 when the
// path is unknown.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) error {
	if !pathHasRoute(r) {
		return NewHTTPError(http.StatusNotFound)
	}
	return NewHTTPError(http.StatusMethodNotAllowed)
}

func pathHasRoute(r *http.Request) bool {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return true
	}
	for _, method := range routeMethods {
		if rctx.Routes.Match(chi.NewRouteContext(), method, r.URL.Path) {
			return true
		}
	}
	return false
}
