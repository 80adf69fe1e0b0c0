package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/fetch"
	collyfetch "github.com/JakeFAU/site-audit/internal/fetch/colly"
	"github.com/JakeFAU/site-audit/internal/sanitize"
	"github.com/JakeFAU/site-audit/internal/sitemap"
)

const fernPage = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Fern Notes</title>
  <meta name="description" content="Field notes on growing ferns in shady gardens.">
</head>
<body>
  <header><a href="/">Fern Notes</a></header>
  <main>
    <h1>Growing ferns in shade</h1>
    <p>Ferns are among the oldest plants on earth. They prefer moist soil, dappled light and
    shelter from the wind. These notes collect what we learned while planting ferns under old
    oak trees along the north side of the garden.</p>
    <p>Maidenhair ferns need steady moisture and do poorly when the soil dries out. Ostrich
    ferns spread quickly and fill a damp corner within two seasons. Lady ferns tolerate more
    sun than most, while holly ferns keep their fronds through a mild winter.</p>
    <p>Mulch the crowns with leaf litter in autumn, water deeply during dry spells, and divide
    crowded clumps in early spring before the fiddleheads unroll. Ferns rarely need feeding;
    a thin layer of compost each year is plenty for healthy fronds.</p>
    <p>Slugs sometimes chew young fronds. Hand picking at dusk keeps the damage low without
    resorting to pellets that harm the frogs living near the pond.</p>
  </main>
  <footer><p>Written by a fern enthusiast.</p></footer>
</body>
</html>`

const fernSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>/</loc></url>
  <url><loc>/maidenhair</loc></url>
  <url><loc>/ostrich</loc></url>
</urlset>`

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type staticIDs struct{ id string }

func (s staticIDs) NewID() (string, error) { return s.id, nil }

type fetcherFunc func(ctx context.Context, url string, opts audit.Options) (fetch.Result, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string, opts audit.Options) (fetch.Result, error) {
	return f(ctx, url, opts)
}

type performanceFunc func(ctx context.Context, url string) (audit.Performance, error)

func (f performanceFunc) Audit(ctx context.Context, url string) (audit.Performance, error) {
	return f(ctx, url)
}

var analyzedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newFernSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, fernPage)
		case "/sitemap.xml":
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprint(w, fernSitemap)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newLiveAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	logger := zap.NewNop()
	fetcher := fetch.New(
		collyfetch.New(collyfetch.Config{Timeout: 5 * time.Second}),
		fetch.Noop{},
		fetch.NewDetector(fetch.DetectorConfig{}),
		nil,
		logger,
	)
	a, err := New(Deps{
		Fetcher: fetcher,
		Sitemap: sitemap.New(sitemap.Config{Timeout: 5 * time.Second}, logger),
		Clock:   fixedClock{t: analyzedAt},
		IDs:     staticIDs{id: "analysis-1"},
		Logger:  logger,
	})
	require.NoError(t, err)
	return a
}

func TestAnalyzeEndToEnd(t *testing.T) {
	t.Parallel()

	srv := newFernSite(t)
	res, err := newLiveAnalyzer(t).Analyze(context.Background(), srv.URL, audit.Options{})
	require.NoError(t, err)

	require.Equal(t, "analysis-1", res.ID)
	require.Equal(t, audit.SchemaVersion, res.Version)
	require.Equal(t, analyzedAt, res.AnalyzedAt)
	require.Equal(t, srv.URL+"/", res.URL)
	require.Equal(t, "127.0.0.1", res.Domain)

	require.False(t, res.Fetch.UsedBrowser)
	require.Equal(t, http.StatusOK, res.Fetch.StatusCode)
	require.Len(t, res.Fetch.HTMLSHA256, 64)
	require.Equal(t, len(fernPage), res.Fetch.HTMLBytes)

	require.Equal(t, "Fern Notes", res.Metadata.Title)
	require.Equal(t, "en", res.SiteSignals.Language)
	require.True(t, res.SiteSignals.SitemapInfo.Found)
	require.Equal(t, 3, res.SiteSignals.SitemapInfo.Pages)
	require.True(t, res.SEO.HasSitemap)
	require.NotEmpty(t, res.SiteSignals.Keywords)
	require.Contains(t, res.SiteSignals.Keywords, "ferns")

	require.NotNil(t, res.SummarySignals.SEOScore)
	require.InDelta(t, 100, *res.SummarySignals.SEOScore, 0.001)
	require.NotNil(t, res.SummarySignals.SecurityScore)
	require.InDelta(t, 0, *res.SummarySignals.SecurityScore, 0.001)
	require.NotNil(t, res.SummarySignals.AccessibilityScore)
	require.NotNil(t, res.SummarySignals.PerformanceEstimate)

	bm := res.BusinessInsights.BusinessModel
	require.Equal(t, audit.ModelUnknown, bm.InferredModel)
	require.Contains(t, res.ImputationLog,
		"businessInsights.businessModel.inferredModel could not be guessed: no decisive secondary signal")
	require.Contains(t, res.ImputationLog, "Missing: canonical URL not found")
	require.Equal(t, audit.TrafficSmall, res.BusinessInsights.TrafficEstimate.EstimatedTrafficClass)

	require.Contains(t, res.Imputed, sanitize.FieldSEOScore)
	require.NotNil(t, res.Resources)
	require.NotNil(t, res.Warnings)
}

func TestAnalyzeResultIsAlreadySanitized(t *testing.T) {
	t.Parallel()

	srv := newFernSite(t)
	res, err := newLiveAnalyzer(t).Analyze(context.Background(), srv.URL, audit.Options{})
	require.NoError(t, err)
	require.Equal(t, res, sanitize.Run(res))
}

func TestAnalyzeSitemapFailureIsAWarning(t *testing.T) {
	t.Parallel()

	a, err := New(Deps{
		Fetcher: fetcherFunc(func(_ context.Context, url string, _ audit.Options) (fetch.Result, error) {
			return fetch.Result{Page: fetch.Page{URL: url, FinalURL: url, StatusCode: 200, Body: []byte(fernPage)}}, nil
		}),
		Sitemap: sitemap.New(sitemap.Config{Timeout: time.Second}, nil),
	})
	require.NoError(t, err)

	// Nothing listens on this port, so only the sitemap probe fails.
	res, err := a.Analyze(context.Background(), "http://127.0.0.1:1/", audit.Options{})
	require.NoError(t, err)
	require.False(t, res.SiteSignals.SitemapInfo.Found)

	var found bool
	for _, w := range res.Warnings {
		if strings.HasPrefix(w, "sitemap: ") {
			found = true
		}
	}
	require.True(t, found, "warnings: %v", res.Warnings)
}

func TestAnalyzeDeepAudit(t *testing.T) {
	t.Parallel()

	var audits atomic.Int32
	a, err := New(Deps{
		Fetcher: fetcherFunc(func(_ context.Context, url string, opts audit.Options) (fetch.Result, error) {
			require.True(t, opts.RunDeepAudit)
			return fetch.Result{
				Page: fetch.Page{
					URL:         url,
					FinalURL:    url,
					StatusCode:  200,
					Headers:     http.Header{"Strict-Transport-Security": {"max-age=60"}},
					Body:        []byte(fernPage),
					UsedBrowser: true,
				},
				A11yAudit: &fetch.A11yAudit{Violations: []audit.AuditViolation{
					{ID: "color-contrast", Impact: "serious", Help: "Elements must meet contrast ratio", Nodes: 4},
				}},
				EscalationReason: fetch.ReasonDeepAudit,
			}, nil
		}),
		Performance: performanceFunc(func(context.Context, string) (audit.Performance, error) {
			audits.Add(1)
			return audit.Performance{PerformanceScore: audit.FloatPtr(88), Source: "test"}, nil
		}),
		Clock: fixedClock{t: analyzedAt},
	})
	require.NoError(t, err)

	res, err := a.Analyze(context.Background(), "https://example.com", audit.Options{RunDeepAudit: true})
	require.NoError(t, err)
	require.EqualValues(t, 1, audits.Load())

	require.True(t, res.Fetch.UsedBrowser)
	require.Equal(t, fetch.ReasonDeepAudit, res.Fetch.EscalationReason)
	require.NotNil(t, res.Accessibility.AuditViolations)
	require.Equal(t, 1, *res.Accessibility.AuditViolations)
	require.Equal(t, "color-contrast", res.Accessibility.Violations[0].ID)
	require.InDelta(t, 88, *res.SummarySignals.PerformanceEstimate, 0.001)
	require.InDelta(t, 33, *res.SummarySignals.SecurityScore, 0.001)
	require.Equal(t, "example.com", res.Domain)
	require.NotEmpty(t, res.ID)
}

func TestAnalyzeSkipsPerformanceWithoutDeepAudit(t *testing.T) {
	t.Parallel()

	a, err := New(Deps{
		Fetcher: fetcherFunc(func(_ context.Context, url string, _ audit.Options) (fetch.Result, error) {
			return fetch.Result{Page: fetch.Page{URL: url, FinalURL: url, StatusCode: 200, Body: []byte(fernPage)}}, nil
		}),
		Performance: performanceFunc(func(context.Context, string) (audit.Performance, error) {
			t.Fatal("performance audit must not run")
			return audit.Performance{}, nil
		}),
	})
	require.NoError(t, err)

	res, err := a.Analyze(context.Background(), "https://example.com/", audit.Options{})
	require.NoError(t, err)
	require.Nil(t, res.Performance.PerformanceScore)
}

func TestAnalyzeFetchFailure(t *testing.T) {
	t.Parallel()

	a, err := New(Deps{
		Fetcher: fetcherFunc(func(_ context.Context, url string, _ audit.Options) (fetch.Result, error) {
			return fetch.Result{}, &audit.FetchError{URL: url, ProbeErr: errors.New("status 503"), RenderErr: fetch.ErrRendererDisabled}
		}),
	})
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), "https://example.com", audit.Options{})
	require.ErrorIs(t, err, audit.ErrCouldNotFetch)
	require.ErrorIs(t, err, fetch.ErrRendererDisabled)
	require.NotErrorIs(t, err, audit.ErrTimeout)
}

func TestAnalyzeDeadlineIsTimeout(t *testing.T) {
	t.Parallel()

	a, err := New(Deps{
		Fetcher: fetcherFunc(func(ctx context.Context, url string, _ audit.Options) (fetch.Result, error) {
			<-ctx.Done()
			return fetch.Result{}, &audit.FetchError{URL: url, ProbeErr: ctx.Err()}
		}),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = a.Analyze(ctx, "https://example.com", audit.Options{})
	require.ErrorIs(t, err, audit.ErrTimeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalyzeInvalidURL(t *testing.T) {
	t.Parallel()

	called := false
	a, err := New(Deps{
		Fetcher: fetcherFunc(func(context.Context, string, audit.Options) (fetch.Result, error) {
			called = true
			return fetch.Result{}, nil
		}),
	})
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), "ftp://example.com/file", audit.Options{})
	require.ErrorIs(t, err, audit.ErrInvalidURL)
	require.False(t, called)
}

func TestNewRequiresFetcher(t *testing.T) {
	t.Parallel()

	_, err := New(Deps{})
	require.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "example.com", want: "https://example.com/"},
		{in: "  HTTP://Example.COM/Path#top ", want: "http://example.com/Path"},
		{in: "https://www.example.com/a?b=c", want: "https://www.example.com/a?b=c"},
		{in: "", wantErr: true},
		{in: "ftp://example.com", wantErr: true},
		{in: "https://", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizeURL(tt.in)
		if tt.wantErr {
			require.ErrorIs(t, err, audit.ErrInvalidURL, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestDomain(t *testing.T) {
	t.Parallel()

	require.Equal(t, "example.com", Domain("https://WWW.Example.com/a"))
	require.Equal(t, "shop.example.co.uk", Domain("https://shop.example.co.uk"))
	require.Empty(t, Domain("://bad"))
}

func TestDefaultStampers(t *testing.T) {
	t.Parallel()

	id, err := UUIDGenerator{}.NewID()
	require.NoError(t, err)
	require.Len(t, id, 36)

	require.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SHA256Hasher{}.Hash(nil))
	require.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
