package cmd

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-audit/internal/analyzer"
	"github.com/JakeFAU/site-audit/internal/config"
	"github.com/JakeFAU/site-audit/internal/extract"
	"github.com/JakeFAU/site-audit/internal/fetch"
	collyfetch "github.com/JakeFAU/site-audit/internal/fetch/colly"
	"github.com/JakeFAU/site-audit/internal/fetch/headless"
	"github.com/JakeFAU/site-audit/internal/fetch/playwright"
	"github.com/JakeFAU/site-audit/internal/infer"
	"github.com/JakeFAU/site-audit/internal/metrics"
	"github.com/JakeFAU/site-audit/internal/pagespeed"
	"github.com/JakeFAU/site-audit/internal/sanitize"
	"github.com/JakeFAU/site-audit/internal/sitemap"
)

// buildRenderer picks the browser engine; a disabled renderer degrades to probe-only fetches.
func buildRenderer(cfg config.Config, logger *zap.Logger) (fetch.Renderer, error) {
	if !cfg.Render.Enabled {
		return fetch.Noop{}, nil
	}
	switch cfg.Render.Engine {
	case "chromedp":
		return headless.NewChromedp(headless.Config{
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: cfg.RenderTimeout(),
			SettleQuiet:       time.Duration(cfg.Render.SettleMillis) * time.Millisecond,
			LaunchTimeout:     cfg.LaunchTimeout(),
			AxeScriptURL:      cfg.Audit.AxeScriptURL,
			ExecPath:          cfg.Render.ExecPath,
		}, logger.Named("chromedp")), nil
	case "playwright":
		return playwright.New(playwright.Config{
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: cfg.RenderTimeout(),
			LaunchTimeout:     cfg.LaunchTimeout(),
			AxeScriptURL:      cfg.Audit.AxeScriptURL,
			ExecPath:          cfg.Render.ExecPath,
		}, logger.Named("playwright")), nil
	default:
		return nil, fmt.Errorf("unknown render engine %q", cfg.Render.Engine)
	}
}

func buildAnalyzer(cfg config.Config, logger *zap.Logger) (*analyzer.Analyzer, error) {
	metrics.Init()

	renderer, err := buildRenderer(cfg, logger)
	if err != nil {
		return nil, err
	}
	fetcher := fetch.New(
		collyfetch.New(collyfetch.Config{
			UserAgent:    cfg.Fetch.UserAgent,
			Timeout:      cfg.FetchTimeout(),
			MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		}),
		renderer,
		fetch.NewDetector(fetch.DetectorConfig{
			MinHTMLBytes:        cfg.Fetch.MinHTMLBytes,
			PromoteOnSPAMarkers: cfg.Fetch.PromoteOnSPAMarkers,
		}),
		fetch.NewDomainLimiter(cfg.Render.DomainQPS),
		logger.Named("fetch"),
	)

	traffic := infer.TrafficThresholds{
		HighPages:     cfg.Infer.Traffic.HighPages,
		HighBlogLinks: cfg.Infer.Traffic.HighBlogLinks,
		MidPages:      cfg.Infer.Traffic.MidPages,
		MidBlogLinks:  cfg.Infer.Traffic.MidBlogLinks,
	}

	a, err := analyzer.New(analyzer.Deps{
		Fetcher: fetcher,
		Sitemap: sitemap.New(sitemap.Config{
			UserAgent:   cfg.Fetch.UserAgent,
			Timeout:     time.Duration(cfg.Sitemap.TimeoutSeconds) * time.Second,
			MaxChildren: cfg.Sitemap.MaxChildren,
			MaxBytes:    int64(cfg.Sitemap.MaxBytes),
		}, logger.Named("sitemap")),
		Performance: pagespeed.New(pagespeed.Config{
			Enabled:  cfg.Audit.PageSpeedEnabled,
			Endpoint: cfg.Audit.PageSpeedEndpoint,
			APIKey:   cfg.Audit.PageSpeedAPIKey,
			Strategy: cfg.Audit.PageSpeedStrategy,
			Timeout:  time.Duration(cfg.Audit.PageSpeedTimeoutSeconds) * time.Second,
		}, logger.Named("pagespeed")),
		Extractor: extract.New(extract.Config{
			ExcerptChars: cfg.Content.ExcerptChars,
			Keywords:     extract.NewFrequencyKeywords(cfg.Keywords.MinLength, cfg.Keywords.TopN),
		}, logger.Named("extract")),
		Inferrer:  infer.New(infer.Config{ModelThreshold: cfg.Infer.ModelThreshold, Traffic: traffic}),
		Sanitizer: sanitize.New(traffic, logger.Named("sanitize")),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build analyzer: %w", err)
	}
	return a, nil
}
