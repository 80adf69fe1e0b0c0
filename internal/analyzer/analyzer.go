// Package analyzer assembles a digital-audit document for one URL: fetch, parse, concurrent
// extraction, inference, and sanitization.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/extract"
	"github.com/JakeFAU/site-audit/internal/fetch"
	"github.com/JakeFAU/site-audit/internal/infer"
	"github.com/JakeFAU/site-audit/internal/logging"
	"github.com/JakeFAU/site-audit/internal/metrics"
	"github.com/JakeFAU/site-audit/internal/pagespeed"
	"github.com/JakeFAU/site-audit/internal/sanitize"
)

// Analysis outcome labels.
const (
	StatusOK          = "ok"
	StatusInvalidURL  = "invalid_url"
	StatusFetchFailed = "fetch_failed"
	StatusTimeout     = "timeout"
	StatusError       = "error"
)

// Deps wires an Analyzer. Fetcher is required; Sitemap and Performance are optional.
type Deps struct {
	Fetcher     PageFetcher
	Sitemap     SitemapProber
	Performance PerformanceAuditor
	Extractor   *extract.Extractor
	Inferrer    *infer.Inferrer
	Sanitizer   *sanitize.Sanitizer
	Clock       Clock
	IDs         IDGenerator
	Hasher      Hasher
	Logger      *zap.Logger
}

// Analyzer runs the full pipeline. It holds no per-analysis state and is safe for
// concurrent use.
type Analyzer struct {
	deps Deps
}

// New validates deps and fills defaults for everything but the fetcher.
func New(deps Deps) (*Analyzer, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("analyzer requires a page fetcher")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.New(extract.Config{}, deps.Logger)
	}
	if deps.Inferrer == nil {
		deps.Inferrer = infer.New(infer.DefaultConfig())
	}
	if deps.Sanitizer == nil {
		deps.Sanitizer = sanitize.New(infer.DefaultTrafficThresholds(), deps.Logger)
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = UUIDGenerator{}
	}
	if deps.Hasher == nil {
		deps.Hasher = SHA256Hasher{}
	}
	return &Analyzer{deps: deps}, nil
}

// Analyze produces the sanitized audit document for rawURL. It fails only when the URL is
// invalid, no usable HTML could be obtained, or ctx ends first; every other problem is
// recorded in the result's warnings.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string, opts audit.Options) (result audit.Result, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveAnalysis(status(err))
		metrics.ObserveStage("analyze", time.Since(start))
	}()

	target, err := NormalizeURL(rawURL)
	if err != nil {
		return audit.Result{}, err
	}
	id, err := a.deps.IDs.NewID()
	if err != nil {
		return audit.Result{}, err
	}
	logger := logging.ForAnalysis(a.deps.Logger, id, target)
	logger.Info("analysis started",
		zap.Bool("deep_audit", opts.RunDeepAudit),
		zap.Bool("collect_resources", opts.CollectResources))

	fetchStart := time.Now()
	fetched, err := a.deps.Fetcher.Fetch(ctx, target, opts)
	fetchTook := time.Since(fetchStart)
	metrics.ObserveStage("fetch", fetchTook)
	if err != nil {
		logger.Warn("fetch failed", zap.Error(err))
		return audit.Result{}, a.wrap(ctx, "fetch page", err)
	}
	page := fetched.Page
	finalURL := page.FinalURL
	if finalURL == "" {
		finalURL = target
	}

	doc, err := extract.Parse(page.Body, finalURL, page.Headers)
	if err != nil {
		return audit.Result{}, fmt.Errorf("parse page: %w", err)
	}

	var (
		out      extract.Output
		sitemap  audit.SitemapInfo
		perf     audit.Performance
		mu       sync.Mutex
		warnings = append([]string(nil), fetched.Warnings...)
	)
	warn := func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, msg)
	}

	extractStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out, err = a.deps.Extractor.Run(gctx, doc, finalURL)
		return err
	})
	if a.deps.Sitemap != nil {
		g.Go(func() error {
			info, err := a.deps.Sitemap.Probe(gctx, finalURL)
			sitemap = info
			if err != nil {
				logger.Info("sitemap probe failed", zap.Error(err))
				warn(fmt.Sprintf("sitemap: %v", err))
			}
			return nil
		})
	}
	if opts.RunDeepAudit && a.deps.Performance != nil {
		g.Go(func() error {
			p, err := a.deps.Performance.Audit(gctx, finalURL)
			switch {
			case errors.Is(err, pagespeed.ErrDisabled):
			case err != nil:
				logger.Warn("performance audit failed", zap.Error(err))
				warn(fmt.Sprintf("performance: %v", err))
			default:
				perf = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return audit.Result{}, a.wrap(ctx, "extract signals", err)
	}
	if err := ctx.Err(); err != nil {
		return audit.Result{}, a.wrap(ctx, "extract signals", err)
	}
	metrics.ObserveStage("extract", time.Since(extractStart))
	for _, w := range out.Warnings {
		logger.Warn("extraction degraded", zap.String("warning", w))
	}
	warnings = append(warnings, out.Warnings...)

	draft := assemble(target, finalURL, page, fetched, out, sitemap, perf)
	draft.ID = id
	draft.Version = audit.SchemaVersion
	draft.Domain = Domain(target)
	draft.AnalyzedAt = a.deps.Clock.Now()
	draft.Fetch.HTMLSHA256 = a.deps.Hasher.Hash(page.Body)
	draft.Fetch.DurationMs = fetchTook.Milliseconds()

	inferStart := time.Now()
	draft.BusinessInsights = a.deps.Inferrer.Infer(infer.Input{
		URL:             finalURL,
		Domain:          draft.Domain,
		Text:            doc.Text(),
		Raw:             doc.Raw,
		Metadata:        out.Metadata,
		Keywords:        out.Keywords,
		TechStack:       out.TechStack,
		StructuredTypes: out.StructuredTypes,
		Conversion:      out.Conversion,
		HasPricingPage:  out.HasPricingPage,
		BlogLinks:       out.BlogLinks,
		SitemapPages:    sitemap.Pages,
		Social:          out.Social,
		SupportWidgets:  out.SupportWidgets,
		CRMIndicators:   out.CRMIndicators,
		Hosting:         out.Hosting,
		Resources:       fetched.Resources,
		Hreflangs:       extract.Hreflangs(doc),
		Hrefs:           extract.Hrefs(doc),
	})
	metrics.ObserveStage("infer", time.Since(inferStart))

	draft.Warnings = warnings
	if draft.Warnings == nil {
		draft.Warnings = []string{}
	}

	sanitizeStart := time.Now()
	result = a.deps.Sanitizer.Run(draft)
	metrics.ObserveStage("sanitize", time.Since(sanitizeStart))

	logger.Info("analysis finished",
		zap.String("model", result.BusinessInsights.BusinessModel.InferredModel),
		zap.Int("imputations", len(result.Imputed)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// wrap maps a cancelled or expired caller ctx onto audit.ErrTimeout. Internal stage
// timeouts keep their own error.
func (a *Analyzer) wrap(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w: %w", op, audit.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, audit.ErrTimeout):
		return StatusTimeout
	case errors.Is(err, audit.ErrInvalidURL):
		return StatusInvalidURL
	case errors.Is(err, audit.ErrCouldNotFetch):
		return StatusFetchFailed
	default:
		return StatusError
	}
}

func assemble(
	target, finalURL string,
	page fetch.Page,
	fetched fetch.Result,
	out extract.Output,
	sitemap audit.SitemapInfo,
	perf audit.Performance,
) audit.Result {
	seo := out.SEO
	seo.HasSitemap = sitemap.Found

	accessibility := out.Accessibility
	if fetched.A11yAudit != nil {
		accessibility.AuditViolations = audit.IntPtr(len(fetched.A11yAudit.Violations))
		accessibility.Violations = fetched.A11yAudit.Violations
	}

	return audit.Result{
		URL: target,
		Fetch: audit.FetchInfo{
			FinalURL:         finalURL,
			StatusCode:       page.StatusCode,
			UsedBrowser:      page.UsedBrowser,
			EscalationReason: fetched.EscalationReason,
			HTMLBytes:        len(page.Body),
		},
		SiteSignals: audit.SiteSignals{
			PageType:            out.Conversion.PageType,
			TechStack:           out.TechStack,
			Keywords:            out.Keywords,
			StructuredData:      out.StructuredData,
			StructuredDataTypes: out.StructuredTypes,
			SitemapInfo:         sitemap,
			BlogLinks:           out.BlogLinks,
			HasPricingPage:      out.HasPricingPage,
			Language:            out.Metadata.Language,
		},
		Security:          out.Security,
		Hosting:           out.Hosting,
		HTMLMetrics:       out.HTMLMetrics,
		Metadata:          out.Metadata,
		SEO:               seo,
		Content:           out.Content,
		Resources:         fetched.Resources,
		Performance:       perf,
		Social:            out.Social,
		ConversionSignals: out.Conversion,
		SupportWidgets:    out.SupportWidgets,
		CRMIndicators:     out.CRMIndicators,
		Accessibility:     accessibility,
		Imputed:           map[string]audit.ImputationRecord{},
		ImputationLog:     []string{},
	}
}
