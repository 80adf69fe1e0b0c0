package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	if analysesTotal == nil || fetchEscalationsTotal == nil || stageDurationSeconds == nil ||
		imputationsTotal == nil || apiRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveHelpers(t *testing.T) {
	Init()
	before := testutil.ToFloat64(fetchEscalationsTotal.WithLabelValues("spa_markers"))
	ObserveEscalation("spa_markers")
	if got := testutil.ToFloat64(fetchEscalationsTotal.WithLabelValues("spa_markers")); got != before+1 {
		t.Errorf("escalation counter = %f, want %f", got, before+1)
	}

	beforeImp := testutil.ToFloat64(imputationsTotal.WithLabelValues("summarySignals.seoScore"))
	ObserveImputation("summarySignals.seoScore")
	if got := testutil.ToFloat64(imputationsTotal.WithLabelValues("summarySignals.seoScore")); got != beforeImp+1 {
		t.Errorf("imputation counter = %f, want %f", got, beforeImp+1)
	}

	ObserveStage("extract", 25*time.Millisecond)
	ObserveAnalysis("ok")
	ObserveRateLimitDelay("example.com", time.Second)
}

func FuzzSanitizeSite(f *testing.F) {
	for _, tc := range []string{"http://example.com", "https://google.com", "ftp://example.com"} {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeSite(orig) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
