// Package headless renders pages in headless Chrome via chromedp.
package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-audit/internal/fetch"
)

// Config controls the behavior of the chromedp renderer.
type Config struct {
	UserAgent         string
	NavigationTimeout time.Duration
	// SettleQuiet is how long the network must be idle before the DOM is captured.
	SettleQuiet time.Duration
	// LaunchTimeout bounds browser startup, before navigation begins.
	LaunchTimeout time.Duration
	AxeScriptURL  string
	ExecPath      string
}

// Renderer implements fetch.Renderer. Every Render launches its own browser
// process and tears it down before returning.
type Renderer struct {
	cfg    Config
	logger *zap.Logger
}

const captureTimeout = 5 * time.Second

// ErrLaunchTimeout is returned when the browser does not come up within LaunchTimeout.
var ErrLaunchTimeout = errors.New("browser launch timed out")

// NewChromedp creates a chromedp-backed renderer.
func NewChromedp(cfg Config, logger *zap.Logger) *Renderer {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.SettleQuiet <= 0 {
		cfg.SettleQuiet = 500 * time.Millisecond
	}
	if cfg.LaunchTimeout <= 0 {
		cfg.LaunchTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{cfg: cfg, logger: logger}
}

func (r *Renderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if r.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ExecPath))
	}
	return opts
}

// Render navigates with a headless browser and returns the rendered DOM plus any
// requested in-page measurements.
func (r *Renderer) Render(ctx context.Context, req fetch.RenderRequest) (fetch.Rendered, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	tracker := newNetworkTracker()
	chromedp.ListenTarget(tabCtx, tracker.captureEvent)

	// The first Run starts the browser and must use the tab context itself, so the
	// launch bound cancels the allocator instead of wrapping tabCtx in a timeout.
	launched := make(chan struct{})
	timedOut := make(chan struct{})
	go func() {
		timer := time.NewTimer(r.cfg.LaunchTimeout)
		defer timer.Stop()
		select {
		case <-launched:
		case <-timer.C:
			close(timedOut)
			allocCancel()
		}
	}()
	err := chromedp.Run(tabCtx, r.networkSetupAction())
	close(launched)
	if err != nil {
		select {
		case <-timedOut:
			return fetch.Rendered{}, fmt.Errorf("start browser: %w after %s: %w", ErrLaunchTimeout, r.cfg.LaunchTimeout, err)
		default:
		}
		return fetch.Rendered{}, fmt.Errorf("start browser: %w", err)
	}

	start := time.Now()
	navCtx, navCancel := context.WithTimeout(tabCtx, r.cfg.NavigationTimeout)
	navErr := chromedp.Run(navCtx,
		chromedp.Navigate(req.URL),
		tracker.waitSettled(r.cfg.SettleQuiet),
	)
	navCancel()

	partial := false
	if navErr != nil {
		if ctx.Err() != nil || !errors.Is(navErr, context.DeadlineExceeded) {
			return fetch.Rendered{}, fmt.Errorf("navigate: %w", navErr)
		}
		partial = true
		r.logger.Warn("render navigation timed out; capturing partial DOM", zap.String("url", req.URL))
	}

	out, err := r.capture(tabCtx, req, tracker)
	if err != nil {
		if partial {
			return fetch.Rendered{}, fmt.Errorf("capture partial DOM: %w", errors.Join(navErr, err))
		}
		return fetch.Rendered{}, err
	}
	out.Partial = partial
	out.Page.Duration = time.Since(start)
	return out, nil
}

func (r *Renderer) capture(tabCtx context.Context, req fetch.RenderRequest, tracker *networkTracker) (fetch.Rendered, error) {
	captureCtx, cancel := context.WithTimeout(tabCtx, captureTimeout)
	defer cancel()

	var html, finalURL string
	if err := chromedp.Run(captureCtx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return fetch.Rendered{}, fmt.Errorf("capture DOM: %w", err)
	}

	status, headers, docURL := tracker.document(req.URL, finalURL)
	out := fetch.Rendered{
		Page: fetch.Page{
			URL:         req.URL,
			FinalURL:    docURL,
			StatusCode:  status,
			Headers:     headers,
			Body:        []byte(html),
			UsedBrowser: true,
		},
	}

	if req.CollectResources {
		var nodes int
		if err := chromedp.Run(captureCtx, chromedp.Evaluate(fetch.DOMNodeCountScript, &nodes)); err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("fetch: dom node count failed: %v", err))
		} else {
			out.DOMNodes = &nodes
		}
		out.Entries = tracker.snapshot()
	}

	if req.AccessibilityRun && r.cfg.AxeScriptURL != "" {
		a11y, err := r.runAxe(tabCtx)
		if err != nil {
			r.logger.Warn("accessibility audit failed", zap.String("url", req.URL), zap.Error(err))
			out.Warnings = append(out.Warnings, fmt.Sprintf("accessibility audit: %v", err))
		} else {
			out.A11y = a11y
		}
	}
	return out, nil
}

func (r *Renderer) runAxe(tabCtx context.Context) (*fetch.A11yAudit, error) {
	ctx, cancel := context.WithTimeout(tabCtx, r.cfg.NavigationTimeout)
	defer cancel()

	var raw string
	err := chromedp.Run(ctx, chromedp.Evaluate(fetch.AxeScript(r.cfg.AxeScriptURL), &raw,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams { return p.WithAwaitPromise(true) },
	))
	if err != nil {
		return nil, fmt.Errorf("run axe: %w", err)
	}
	violations, err := fetch.ParseAxeViolations(raw)
	if err != nil {
		return nil, err
	}
	return &fetch.A11yAudit{Violations: violations}, nil
}

func (r *Renderer) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if r.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(r.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}
