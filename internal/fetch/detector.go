package fetch

import (
	"bytes"
	"net/http"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Escalation reasons, also used as metric labels.
const (
	ReasonProbeFailed    = "probe_failed"
	ReasonEmptyBody      = "empty_body"
	ReasonSmallBody      = "small_body"
	ReasonResources      = "resources_requested"
	ReasonDeepAudit      = "deep_audit_requested"
	ReasonSPAMarkers     = "spa_markers"
	ReasonNonSuccessCode = "non_2xx"
)

// DetectorConfig tunes escalation.
type DetectorConfig struct {
	MinHTMLBytes        int
	PromoteOnSPAMarkers bool
}

// Detector decides when a probe result must be promoted to a browser render.
type Detector struct {
	minHTMLBytes int
	spaMarkers   bool
}

// NewDetector creates a Detector. A zero MinHTMLBytes defaults to 1000.
func NewDetector(cfg DetectorConfig) *Detector {
	if cfg.MinHTMLBytes == 0 {
		cfg.MinHTMLBytes = 1000
	}
	return &Detector{minHTMLBytes: cfg.MinHTMLBytes, spaMarkers: cfg.PromoteOnSPAMarkers}
}

var spaMarkers = [][]byte{
	[]byte("__next_data__"),
	[]byte(`id="__next"`),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
	[]byte("ng-version"),
	[]byte(`id="___gatsby"`),
	[]byte("window.__nuxt__"),
}

// Decide returns the escalation reason, or "" when the probe result is usable as-is.
func (d *Detector) Decide(page Page, probeErr error, opts audit.Options) string {
	switch {
	case probeErr != nil:
		return ReasonProbeFailed
	case page.StatusCode != 0 && (page.StatusCode < http.StatusOK || page.StatusCode >= http.StatusMultipleChoices):
		return ReasonNonSuccessCode
	case len(bytes.TrimSpace(page.Body)) == 0:
		return ReasonEmptyBody
	case len(page.Body) < d.minHTMLBytes:
		return ReasonSmallBody
	case opts.CollectResources:
		return ReasonResources
	case opts.RunDeepAudit:
		return ReasonDeepAudit
	case d.spaMarkers && hasSPAMarker(page.Body):
		return ReasonSPAMarkers
	default:
		return ""
	}
}

func hasSPAMarker(body []byte) bool {
	lower := bytes.ToLower(body)
	for _, marker := range spaMarkers {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return false
}
