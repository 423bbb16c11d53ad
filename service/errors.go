package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/launchdarkly/sandbox-contract-tests/servicedef"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HTTPError is an error with an HTTP status. Handlers return it to make the service
// answer with that status and the standard error envelope.
type HTTPError struct {
	Status int
	Detail string
}

// NewHTTPError returns an HTTPError whose detail is the standard status text.
func NewHTTPError(status int) *HTTPError {
	return &HTTPError{Status: status, Detail: http.StatusText(status)}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Detail)
}

// Message is the text placed in the envelope's "message" field.
func (e *HTTPError) Message() string {
	return fmt.Sprintf("Unexpected %d error: %s", e.Status, e.Detail)
}

// apiFunc is a handler that can fail. Every route is registered through errorBoundary.wrap
// so that failures are rendered in one place.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

type errorBoundary struct {
	logger *zap.Logger
}

func (b errorBoundary) wrap(fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			b.writeError(w, r, err)
		}
	}
}

// recoverer turns a panicking handler into a 500 envelope. If the handler had already
// started its response, the panic is only logged.
func (b errorBoundary) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				started := ww.Status() != 0
				b.logger.Error("Recovered from handler panic",
					zap.Any("panic", rvr),
					zap.Bool("response_started", started),
					zap.Stack("stack"),
				)
				if started {
					return
				}
				b.writeError(ww, r, NewHTTPError(http.StatusInternalServerError))
			}
		}()
		next.ServeHTTP(ww, r)
	})
}

// writeError logs err and then writes the error envelope. Errors that are not an
// *HTTPError are reported as 500.
func (b errorBoundary) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = NewHTTPError(http.StatusInternalServerError)
	}

	b.logger.Error("Request failed",
		zap.Int("status", httpErr.Status),
		zap.String("detail", httpErr.Detail),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err),
	)

	writeJSON(w, httpErr.Status, NewErrorEnvelope(httpErr, r))
}

// NewErrorEnvelope describes a failed request.
func NewErrorEnvelope(err *HTTPError, r *http.Request) servicedef.ErrorEnvelope {
	return servicedef.ErrorEnvelope{
		Message: err.Message(),
		RequestInfo: servicedef.RequestInfo{
			Method:  r.Method,
			URL:     r.URL.Path,
			Headers: flattenHeaders(r),
		},
	}
}

// flattenHeaders lower-cases header names and joins repeated values. Go strips Host from
// Request.Header, so it is added back from Request.Host.
func flattenHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, len(r.Header)+1)
	if r.Host != "" {
		headers["host"] = r.Host
	}
	for name, values := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return headers
}
