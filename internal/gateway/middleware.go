package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/haasonsaas/chaingate/internal/observability"
)

// requestID stamps each request with a correlation id carried through the
// context into every log record.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := observability.AddRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// logged records request outcome and feeds the route metrics. The route
// pattern, not the raw path, labels the metrics so cardinality stays
// bounded.
func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		s.metrics.RequestCounter.WithLabelValues(route, fmt.Sprintf("%d", rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// recovered turns handler panics into 500s instead of dropped connections.
func (s *Server) recovered(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error(r.Context(), "handler panic", "panic", v, "path", r.URL.Path)
				writeJSON(w, http.StatusInternalServerError, errorBody("Internal", "internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
