package core

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"weatherwager/internal/types"
)

// responseCapture wraps an http.ResponseWriter to capture the status code
// written by downstream handlers, for logging middleware that observes the
// response after the handler chain completes.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader captures the status code and delegates to the wrapped writer.
func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

// Write ensures the status code is captured even when WriteHeader is not
// called explicitly (the default is 200 per the net/http spec).
func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (rc *responseCapture) Unwrap() http.ResponseWriter {
	return rc.ResponseWriter
}

// RequestID assigns each request a UUID and stores it in the context, so log
// lines and error envelopes can be correlated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := types.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recoverer catches panics in the handler chain, logs the stack trace
// internally, and writes a standardized 500 response. This middleware must
// be outermost so all panics are caught.
func (s *Server) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				s.Logger.Error("panic recovered",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprintf("%v", rvr)),
					slog.String("stack", string(debug.Stack())),
				)
				Error(w, r, types.NewAppError(
					types.ErrCodeInternalUnexpected,
					"an unexpected error occurred",
					nil,
				))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs request metadata (method, path, status, duration),
// warning on client errors and erroring on server errors.
func (s *Server) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rc := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rc, r)

		args := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rc.statusCode),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", r.RemoteAddr),
		}
		if reqID := types.GetRequestID(r.Context()); reqID != "" {
			args = append(args, slog.String("request_id", reqID))
		}

		switch {
		case rc.statusCode >= 500:
			s.Logger.Error("request completed", args...)
		case rc.statusCode >= 400:
			s.Logger.Warn("request completed", args...)
		default:
			s.Logger.Info("request completed", args...)
		}
	})
}

// RateLimit gates the wrapped routes behind the named limiter operation.
// Denied requests get a 429 with the computed wait time in both the error
// details and the Retry-After header; allowed requests get the remaining
// quota in X-RateLimit-Remaining.
func (s *Server) RateLimit(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := s.Limiter.Check(r.Context(), operation)
			if decision.Allowed {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.RemainingRequests))
				next.ServeHTTP(w, r)
				return
			}

			s.Logger.Warn("rate limit exceeded",
				slog.String("operation", operation),
				slog.String("path", r.URL.Path),
				slog.Int("wait_seconds", decision.WaitTimeSeconds),
			)

			w.Header().Set("Retry-After", strconv.Itoa(decision.WaitTimeSeconds))
			Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodeRateLimit,
				decision.Message,
				nil,
				map[string]any{
					"wait_time_seconds": decision.WaitTimeSeconds,
					"limit_name":        decision.LimitName,
				},
			))
		})
	}
}
