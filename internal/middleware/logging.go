package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// NewLoggingMiddleware logs one line per request and feeds the request
// counters. Server errors log at ERROR, client errors at WARNING.
func NewLoggingMiddleware(log *logger.Logger, rec metrics.Recorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			route := routePattern(r)
			rec.RecordHTTPRequest(route, r.Method, sr.statusCode, duration)

			fields := []logger.Field{
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.HTTPStatus(sr.statusCode),
				logger.Duration(duration),
			}
			if id := RequestIDFromContext(r.Context()); id != "" {
				fields = append(fields, logger.RequestID(id))
			}

			switch {
			case sr.statusCode >= 500:
				log.Error("http_request", fields...)
			case sr.statusCode >= 400:
				log.Warn("http_request", fields...)
			default:
				log.Info("http_request", fields...)
			}
		})
	}
}

// routePattern returns the matched chi pattern so metrics labels stay bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
