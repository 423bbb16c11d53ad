package service

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchdarkly/sandbox-contract-tests/servicedef"
)

type contextKey struct{ name string }

var requestIDKey = &contextKey{"request-id"}

// RouterOption customizes NewRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	metrics *Metrics
}

// WithMetrics records request metrics in m.
func WithMetrics(m *Metrics) RouterOption {
	return func(o *routerOptions) {
		o.metrics = m
	}
}

// NewRouter creates the service's HTTP handler.
//
// Middleware, outermost first:
//   - request id: reuses X-Request-Id when the caller sent one, otherwise a new uuid
//   - request metrics, if WithMetrics is given
//   - request logging
//   - panic recovery into the error envelope
//
// Routes:
//   - GET /
//   - GET /healthz
//   - GET /service-info
//
// Anything else is answered with the error envelope: 404 for an unknown path and 405 for
// a known path with the wrong method.
func NewRouter(clock Clock, logger *zap.Logger, opts ...RouterOption) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	var options routerOptions
	for _, o := range opts {
		o(&options)
	}
	boundary := errorBoundary{logger: logger}
	h := handlers{clock: clock}

	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(options.metrics.middleware)
	r.Use(requestLogger(logger))
	r.Use(boundary.recoverer)

	r.NotFound(boundary.wrap(notFound))
	r.MethodNotAllowed(boundary.wrap(methodNotAllowed))

	r.Get(servicedef.PathRoot, boundary.wrap(h.root))
	r.Get(servicedef.PathHealth, boundary.wrap(h.health))
	r.Get(servicedef.PathServiceInfo, boundary.wrap(h.serviceInfo))

	return r
}

// RequestIDFromContext returns the request id assigned by the router, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(servicedef.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(servicedef.HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs the start of each request at debug level and its completion at info.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := RequestIDFromContext(r.Context())

			logger.Debug("Request started",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("Request completed",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
