package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(t *testing.T) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewRouter(NewClock(), zap.New(core)), logs
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) servicedef.ErrorEnvelope {
	t.Helper()
	var env servicedef.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

func TestRootReturnsWelcomeMessage(t *testing.T) {
	h, _ := newTestRouter(t)
	w := serve(h, "GET", "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Welcome to the Sandbox API!"}`, w.Body.String())
}

func TestHealthReturnsHealthy(t *testing.T) {
	h, _ := newTestRouter(t)
	first := serve(h, "GET", "/healthz")
	second := serve(h, "GET", "/healthz")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, first.Body.String())
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestServiceInfoReportsUptimeFromInjectedClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(1500 * time.Millisecond)
	h := NewRouter(NewClockAt(start, func() time.Time { return now }), zap.NewNop())

	w := serve(h, "GET", "/service-info")
	require.Equal(t, http.StatusOK, w.Code)

	var info servicedef.ServiceInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "Sandbox API", info.Name)
	assert.Equal(t, "Provide a simple backend service to run tests against", info.Description)
	assert.InDelta(t, 1.5, info.UptimeSeconds, 1e-9)
}

func TestServiceInfoUptimeIsNonDecreasing(t *testing.T) {
	h, _ := newTestRouter(t)
	previous := 0.0
	for i := 0; i < 5; i++ {
		var info servicedef.ServiceInfo
		w := serve(h, "GET", "/service-info")
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
		assert.GreaterOrEqual(t, info.UptimeSeconds, previous)
		previous = info.UptimeSeconds
	}
}

func TestClockUptimeIsNeverNegative(t *testing.T) {
	start := time.Now()
	c := NewClockAt(start, func() time.Time { return start.Add(-time.Second) })
	assert.Equal(t, time.Duration(0), c.Uptime())
	assert.Equal(t, start, c.StartedAt())
}

func TestUnknownPathReturns404Envelope(t *testing.T) {
	h, logs := newTestRouter(t)
	req := httptest.NewRequest("GET", "/does-not-exist?x=1", nil)
	req.Header.Set("X-Custom", "a")
	req.Header.Add("X-Custom", "b")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Unexpected 404 error: Not Found", env.Message)
	assert.Equal(t, "GET", env.RequestInfo.Method)
	assert.Equal(t, "/does-not-exist", env.RequestInfo.URL)
	assert.Equal(t, "a, b", env.RequestInfo.Headers["x-custom"])
	assert.Equal(t, "example.com", env.RequestInfo.Headers["host"])

	failed := logs.FilterMessage("Request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, int64(404), failed[0].ContextMap()["status"])
	assert.Equal(t, "/does-not-exist", failed[0].ContextMap()["path"])
}

func TestWrongMethodReturns405Envelope(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, path := range []string{"/", "/healthz", "/service-info"} {
		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH", "HEAD"} {
			w := serve(h, method, path)
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", method, path)
			if method == "HEAD" {
				continue
			}
			env := decodeEnvelope(t, w)
			assert.Equal(t, "Unexpected 405 error: Method Not Allowed", env.Message)
			assert.Equal(t, method, env.RequestInfo.Method)
			assert.Equal(t, path, env.RequestInfo.URL)
		}
	}
}

func TestRequestIDIsAssignedOrPropagated(t *testing.T) {
	h, logs := newTestRouter(t)

	w := serve(h, "GET", "/healthz")
	assert.NotEmpty(t, w.Header().Get(servicedef.HeaderRequestID))

	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set(servicedef.HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(servicedef.HeaderRequestID))

	failed := logs.FilterMessage("Request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "abc-123", failed[0].ContextMap()["request_id"])
}

func TestRequestsAreLogged(t *testing.T) {
	h, logs := newTestRouter(t)
	serve(h, "GET", "/healthz")

	completed := logs.FilterMessage("Request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(200), completed[0].ContextMap()["status"])
	assert.Equal(t, 1, logs.FilterMessage("Request started").Len())
}

// loggedBeforeWrite records whether an error had been logged when the status was written.
type loggedBeforeWrite struct {
	*httptest.ResponseRecorder
	logs   *observer.ObservedLogs
	logged bool
}

func (w *loggedBeforeWrite) WriteHeader(code int) {
	w.logged = w.logs.FilterMessage("Request failed").Len() > 0
	w.ResponseRecorder.WriteHeader(code)
}

func TestErrorIsLoggedBeforeResponse(t *testing.T) {
	h, logs := newTestRouter(t)
	w := &loggedBeforeWrite{ResponseRecorder: httptest.NewRecorder(), logs: logs}
	h.ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, w.logged)
}

func TestHandlerErrorsUseEnvelope(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	b := errorBoundary{logger: zap.New(core)}

	t.Run("HTTPError keeps status and detail", func(t *testing.T) {
		h := b.wrap(func(w http.ResponseWriter, r *http.Request) error {
			return &HTTPError{Status: http.StatusTeapot, Detail: "short and stout"}
		})
		w := serve(h, "GET", "/brew")
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, "Unexpected 418 error: short and stout", decodeEnvelope(t, w).Message)
	})

	t.Run("wrapped HTTPError is found", func(t *testing.T) {
		h := b.wrap(func(w http.ResponseWriter, r *http.Request) error {
			return errors.Join(errors.New("context"), NewHTTPError(http.StatusConflict))
		})
		w := serve(h, "GET", "/x")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Unexpected 409 error: Conflict", decodeEnvelope(t, w).Message)
	})

	t.Run("other errors become 500", func(t *testing.T) {
		h := b.wrap(func(w http.ResponseWriter, r *http.Request) error {
			return errors.New("disk on fire")
		})
		w := serve(h, "DELETE", "/x")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "Unexpected 500 error: Internal Server Error", env.Message)
		assert.Equal(t, "DELETE", env.RequestInfo.Method)
	})

	assert.Equal(t, 3, logs.FilterMessage("Request failed").Len())
}

func TestPanicsBecome500Envelope(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	b := errorBoundary{logger: zap.New(core)}
	h := b.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("malformed request")
	}))

	w := serve(h, "GET", "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "/boom", decodeEnvelope(t, w).RequestInfo.URL)
	assert.Equal(t, 1, logs.FilterMessage("Recovered from handler panic").Len())

	// the handler keeps working afterwards
	w = serve(h, "GET", "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestConcurrentRequestsGetIdenticalHealthBodies(t *testing.T) {
	h, _ := newTestRouter(t)
	bodies := make([]string, 10)
	var wg sync.WaitGroup
	for i := range bodies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bodies[i] = serve(h, "GET", "/healthz").Body.String()
		}(i)
	}
	wg.Wait()
	for _, b := range bodies {
		assert.JSONEq(t, `{"status":"healthy"}`, b)
	}
}

func TestUnknownMethodStatusDependsOnPath(t *testing.T) {
	h, _ := newTestRouter(t)

	w := serve(h, "PROPFIND", "/does-not-exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Unexpected 404 error: Not Found", env.Message)
	assert.Equal(t, "PROPFIND", env.RequestInfo.Method)
	assert.Equal(t, "/does-not-exist", env.RequestInfo.URL)

	w = serve(h, "PROPFIND", "/healthz")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Unexpected 405 error: Method Not Allowed", decodeEnvelope(t, w).Message)
}

func TestPanicAfterResponseStartedIsOnlyLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	b := errorBoundary{logger: zap.New(core)}
	h := b.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"partial":`))
		panic("halfway")
	}))

	w := serve(h, "GET", "/halfway")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"partial":`, w.Body.String())

	recovered := logs.FilterMessage("Recovered from handler panic").All()
	require.Len(t, recovered, 1)
	assert.Equal(t, true, recovered[0].ContextMap()["response_started"])
	assert.Equal(t, 0, logs.FilterMessage("Request failed").Len())
}
