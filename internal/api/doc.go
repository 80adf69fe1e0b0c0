// Package api hosts the HTTP server, middleware, and REST handlers for the audit service.
// Routes:
//   - GET /healthz and /readyz for liveness and readiness probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/analyze to run one analysis; ?format=json|yaml|markdown picks the encoding.
//   - POST /v1/sanitize to repair an audit document produced elsewhere.
package api
