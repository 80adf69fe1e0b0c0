// Package fetch retrieves page HTML with a lightweight probe and escalates to a
// headless browser render when the probe result is unusable or the caller needs
// in-page measurements.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/metrics"
)

// ErrRendererDisabled indicates no browser engine is configured.
var ErrRendererDisabled = errors.New("headless renderer disabled")

// Page is a fetched HTML document. Body is always UTF-8.
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	Headers     http.Header
	Body        []byte
	UsedBrowser bool
	Duration    time.Duration
}

// A11yAudit is the automated accessibility audit captured inside a rendered page.
type A11yAudit struct {
	Violations []audit.AuditViolation
}

// RenderRequest describes a single browser render.
type RenderRequest struct {
	URL              string
	CollectResources bool
	AccessibilityRun bool
}

// Rendered is the output of a browser render.
type Rendered struct {
	Page     Page
	Entries  []audit.ResourceEntry
	DOMNodes *int
	A11y     *A11yAudit
	// Partial is set when navigation hit its bound and the DOM was captured as-is.
	Partial bool
	// Warnings carries non-fatal in-page failures (axe injection, DOM evaluation).
	Warnings []string
}

// Prober performs the lightweight HTTP fetch.
type Prober interface {
	Probe(ctx context.Context, url string) (Page, error)
}

// Renderer performs a full browser render. Implementations acquire and release
// their own browser session on every call.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (Rendered, error)
}

// Result is what the fetch layer hands to extraction.
type Result struct {
	Page             Page
	Resources        *audit.ResourceSummary
	A11yAudit        *A11yAudit
	EscalationReason string
	Warnings         []string
}

// Fetcher runs the probe, decides on escalation, and renders when needed.
type Fetcher struct {
	prober   Prober
	renderer Renderer
	detector *Detector
	limiter  *DomainLimiter
	logger   *zap.Logger
}

// New builds a Fetcher. A nil renderer behaves like Noop.
func New(prober Prober, renderer Renderer, detector *Detector, limiter *DomainLimiter, logger *zap.Logger) *Fetcher {
	if renderer == nil {
		renderer = Noop{}
	}
	if detector == nil {
		detector = NewDetector(DetectorConfig{})
	}
	if limiter == nil {
		limiter = NewDomainLimiter(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{prober: prober, renderer: renderer, detector: detector, limiter: limiter, logger: logger}
}

// Fetch returns usable HTML for url or an *audit.FetchError when neither stage produced any.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts audit.Options) (Result, error) {
	start := time.Now()
	probe, probeErr := f.prober.Probe(ctx, url)
	metrics.ObserveStage("probe", time.Since(start))
	if probeErr != nil {
		f.logger.Info("probe fetch failed", zap.String("url", url), zap.Error(probeErr))
	}

	reason := f.detector.Decide(probe, probeErr, opts)
	if reason == "" {
		return Result{Page: probe}, nil
	}
	metrics.ObserveEscalation(reason)
	f.logger.Debug("escalating to browser render", zap.String("url", url), zap.String("reason", reason))

	rendered, renderErr := f.render(ctx, url, opts)
	if renderErr != nil {
		if probeErr == nil && len(probe.Body) > 0 {
			f.logger.Warn("render failed; using probe body", zap.String("url", url), zap.Error(renderErr))
			return Result{
				Page:             probe,
				EscalationReason: reason,
				Warnings:         []string{fmt.Sprintf("fetch: browser render failed, using probe HTML: %v", renderErr)},
			}, nil
		}
		return Result{}, &audit.FetchError{URL: url, ProbeErr: probeErr, RenderErr: renderErr}
	}

	res := Result{
		Page:             rendered.Page,
		A11yAudit:        rendered.A11y,
		EscalationReason: reason,
		Warnings:         append([]string(nil), rendered.Warnings...),
	}
	if rendered.Partial {
		res.Warnings = append(res.Warnings, "fetch: render timed out; using partially loaded DOM")
	}
	if opts.CollectResources {
		res.Resources = SummarizeResources(rendered.Page.FinalURL, rendered.Entries, rendered.DOMNodes)
	}
	// The probe may carry security headers the rendered document response lost.
	if len(res.Page.Headers) == 0 && probeErr == nil {
		res.Page.Headers = probe.Headers.Clone()
	}
	return res, nil
}

func (f *Fetcher) render(ctx context.Context, url string, opts audit.Options) (Rendered, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return Rendered{}, err
	}
	start := time.Now()
	defer func() { metrics.ObserveStage("render", time.Since(start)) }()

	rendered, err := f.renderer.Render(ctx, RenderRequest{
		URL:              url,
		CollectResources: opts.CollectResources,
		AccessibilityRun: opts.RunDeepAudit,
	})
	if err != nil {
		return Rendered{}, fmt.Errorf("render page: %w", err)
	}
	if len(rendered.Page.Body) == 0 {
		return Rendered{}, errors.New("render page: empty document")
	}
	return rendered, nil
}

// Noop is a Renderer that always reports ErrRendererDisabled.
type Noop struct{}

// Render implements Renderer.
func (Noop) Render(context.Context, RenderRequest) (Rendered, error) {
	return Rendered{}, ErrRendererDisabled
}
