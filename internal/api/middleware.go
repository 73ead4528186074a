package api

import (
	"net/http"
	"strconv"
	"time"

	"stock-valuator/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	responseSize int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default status code
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.responseSize += size
	return size, err
}

// MetricsMiddleware records HTTP metrics for each request
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		// Route pattern keeps label cardinality bounded
		routePattern := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			routePattern = rctx.RoutePattern()
		}
		if routePattern == "" {
			routePattern = r.URL.Path
		}

		observability.GetMetrics().RecordHTTPRequest(
			r.Method,
			routePattern,
			strconv.Itoa(wrapped.statusCode),
			time.Since(start),
			wrapped.responseSize,
		)
	})
}

// RequestContext copies chi's request id into the logging context
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(observability.ContextWithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// NoStore disables caching of API responses
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
