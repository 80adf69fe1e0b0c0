// Package metrics exposes Prometheus collectors for the site-audit service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	analysesTotal               *prometheus.CounterVec
	fetchEscalationsTotal       *prometheus.CounterVec
	stageDurationSeconds        *prometheus.HistogramVec
	imputationsTotal            *prometheus.CounterVec
	apiRequestsTotal            *prometheus.CounterVec
	apiRequestDurationSeconds   *prometheus.HistogramVec
	apiResponseBytes            *prometheus.HistogramVec
	renderRateLimitDelaySeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		analysesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteaudit_analyses_total",
				Help: "Total number of analyses, labeled by outcome.",
			},
			[]string{"status"},
		)

		fetchEscalationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteaudit_fetch_escalations_total",
				Help: "Probe fetches promoted to a browser render, labeled by reason.",
			},
			[]string{"reason"},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "siteaudit_stage_duration_seconds",
				Help:    "Histogram of pipeline stage latencies.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage"},
		)

		imputationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteaudit_imputations_total",
				Help: "Fields filled or rewritten by the sanitizer, labeled by field path.",
			},
			[]string{"field"},
		)

		apiRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteaudit_api_requests_total",
				Help: "API requests, labeled by endpoint, method and status code.",
			},
			[]string{"endpoint", "method", "code"},
		)

		apiRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "siteaudit_api_request_duration_seconds",
				Help:    "API request latency by endpoint. Analyze requests include the full pipeline.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30, 60, 120},
			},
			[]string{"endpoint"},
		)

		apiResponseBytes = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "siteaudit_api_response_bytes",
				Help:    "Size of rendered reports and other API responses.",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"endpoint"},
		)

		renderRateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "siteaudit_render_rate_limit_delay_seconds",
				Help:    "Histogram of per-domain render rate limit waits.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAnalysis counts a finished analysis.
func ObserveAnalysis(status string) {
	Init()
	analysesTotal.WithLabelValues(status).Inc()
}

// ObserveEscalation counts a probe result promoted to a browser render.
func ObserveEscalation(reason string) {
	Init()
	fetchEscalationsTotal.WithLabelValues(reason).Inc()
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, duration time.Duration) {
	Init()
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveImputation counts a sanitizer-filled field.
func ObserveImputation(field string) {
	Init()
	imputationsTotal.WithLabelValues(field).Inc()
}

// ObserveAPIRequest records one API request against its endpoint.
func ObserveAPIRequest(endpoint, method string, code, bytes int, duration time.Duration) {
	Init()
	apiRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(code)).Inc()
	apiRequestDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
	apiResponseBytes.WithLabelValues(endpoint).Observe(float64(bytes))
}

// ObserveRateLimitDelay records the duration of a render rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	renderRateLimitDelaySeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
