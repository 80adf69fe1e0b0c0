package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Endpoint labels. Anything outside the known routes is "other" to keep cardinality fixed.
const (
	EndpointAnalyze  = "analyze"
	EndpointSanitize = "sanitize"
	EndpointHealth   = "health"
	EndpointMetrics  = "metrics"
	EndpointOther    = "other"
)

var endpoints = map[string]string{
	"/v1/analyze":  EndpointAnalyze,
	"/v1/sanitize": EndpointSanitize,
	"/healthz":     EndpointHealth,
	"/readyz":      EndpointHealth,
	"/metrics":     EndpointMetrics,
}

// Endpoint maps a chi route pattern to its metric label.
func Endpoint(pattern string) string {
	if e, ok := endpoints[pattern]; ok {
		return e
	}
	return EndpointOther
}

// Middleware records per-endpoint request counts, latency and response size.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			pattern = rctx.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		ObserveAPIRequest(Endpoint(pattern), r.Method, code, ww.BytesWritten(), time.Since(start))
	})
}
