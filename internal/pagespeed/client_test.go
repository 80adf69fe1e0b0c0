package pagespeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixture = `{
  "lighthouseResult": {
    "categories": {
      "performance": {"score": 0.87},
      "accessibility": {"score": 0.92},
      "seo": {"score": 1},
      "best-practices": {"score": null}
    },
    "audits": {
      "largest-contentful-paint": {"numericValue": 2450.5},
      "cumulative-layout-shift": {"numericValue": 0.04},
      "total-blocking-time": {"numericValue": 180}
    }
  }
}`

func TestAuditParsesScores(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "https://example.com", r.URL.Query().Get("url"))
		require.Equal(t, "desktop", r.URL.Query().Get("strategy"))
		require.Equal(t, "k", r.URL.Query().Get("key"))
		require.Len(t, r.URL.Query()["category"], 4)
		fmt.Fprint(w, fixture)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{Enabled: true, Endpoint: srv.URL, APIKey: "k", Strategy: "desktop"}, nil)
	perf, err := c.Audit(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.InDelta(t, 87, *perf.PerformanceScore, 0.001)
	require.InDelta(t, 92, *perf.AccessibilityScore, 0.001)
	require.InDelta(t, 100, *perf.SEOScore, 0.001)
	require.Nil(t, perf.BestPracticesScore)
	require.InDelta(t, 2450.5, *perf.LCPMs, 0.001)
	require.InDelta(t, 0.04, *perf.CLS, 0.0001)
	require.InDelta(t, 180, *perf.TBTMs, 0.001)
	require.Equal(t, Source, perf.Source)
}

func TestAuditErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"Quota exceeded"}}`)
	}))
	t.Cleanup(srv.Close)

	_, err := New(Config{Enabled: true, Endpoint: srv.URL}, nil).Audit(context.Background(), "https://example.com")
	require.ErrorContains(t, err, "Quota exceeded")
}

func TestAuditDisabled(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil).Audit(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrDisabled)

	var nilClient *Client
	_, err = nilClient.Audit(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrDisabled)
}
