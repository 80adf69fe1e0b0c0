// Package playwright renders pages with playwright-go as an alternative to chromedp.
package playwright

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/fetch"
)

// Config controls the playwright renderer.
type Config struct {
	UserAgent         string
	NavigationTimeout time.Duration
	LaunchTimeout     time.Duration
	AxeScriptURL      string
	ExecPath          string
}

// Renderer implements fetch.Renderer. Each Render starts a driver and browser
// and stops both before returning.
type Renderer struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a playwright renderer.
func New(cfg Config, logger *zap.Logger) *Renderer {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.LaunchTimeout <= 0 {
		cfg.LaunchTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{cfg: cfg, logger: logger}
}

type session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

func (s *session) close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.pw != nil {
		_ = s.pw.Stop()
	}
}

func (r *Renderer) open() (*session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	s := &session{pw: pw}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Timeout:  playwright.Float(float64(r.cfg.LaunchTimeout.Milliseconds())),
	}
	if r.cfg.ExecPath != "" {
		launch.ExecutablePath = playwright.String(r.cfg.ExecPath)
	}
	s.browser, err = pw.Chromium.Launch(launch)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if r.cfg.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(r.cfg.UserAgent)
	}
	browserCtx, err := s.browser.NewContext(ctxOpts)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	s.page, err = browserCtx.NewPage()
	if err != nil {
		s.close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	return s, nil
}

// responseLog collects responses from the page's event goroutine.
type responseLog struct {
	mu        sync.Mutex
	responses []playwright.Response
}

func (l *responseLog) add(resp playwright.Response) {
	l.mu.Lock()
	l.responses = append(l.responses, resp)
	l.mu.Unlock()
}

func (l *responseLog) all() []playwright.Response {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]playwright.Response(nil), l.responses...)
}

// Render navigates until the network is idle and captures the DOM.
func (r *Renderer) Render(ctx context.Context, req fetch.RenderRequest) (fetch.Rendered, error) {
	type outcome struct {
		rendered fetch.Rendered
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := r.render(req)
		done <- outcome{out, err}
	}()

	select {
	case <-ctx.Done():
		return fetch.Rendered{}, fmt.Errorf("playwright render canceled: %w", ctx.Err())
	case o := <-done:
		return o.rendered, o.err
	}
}

func (r *Renderer) render(req fetch.RenderRequest) (fetch.Rendered, error) {
	s, err := r.open()
	if err != nil {
		return fetch.Rendered{}, err
	}
	defer s.close()

	log := &responseLog{}
	if req.CollectResources {
		s.page.OnResponse(log.add)
	}

	start := time.Now()
	resp, navErr := s.page.Goto(req.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(r.cfg.NavigationTimeout.Milliseconds())),
	})
	partial := false
	if navErr != nil {
		if !errors.Is(navErr, playwright.ErrTimeout) {
			return fetch.Rendered{}, fmt.Errorf("navigate: %w", navErr)
		}
		partial = true
		r.logger.Warn("render navigation timed out; capturing partial DOM", zap.String("url", req.URL))
	}

	html, err := s.page.Content()
	if err != nil {
		return fetch.Rendered{}, fmt.Errorf("capture DOM: %w", err)
	}

	page := fetch.Page{
		URL:         req.URL,
		FinalURL:    s.page.URL(),
		StatusCode:  http.StatusOK,
		Headers:     http.Header{},
		Body:        []byte(html),
		UsedBrowser: true,
		Duration:    time.Since(start),
	}
	if resp != nil {
		page.StatusCode = resp.Status()
		page.Headers = toHTTPHeader(resp.Headers())
	}
	out := fetch.Rendered{Page: page, Partial: partial}

	if req.CollectResources {
		out.Entries = entriesFrom(log.all())
		if nodes, err := s.page.Evaluate(fetch.DOMNodeCountScript); err == nil {
			if n, ok := toInt(nodes); ok {
				out.DOMNodes = &n
			}
		} else {
			out.Warnings = append(out.Warnings, fmt.Sprintf("fetch: dom node count failed: %v", err))
		}
	}

	if req.AccessibilityRun && r.cfg.AxeScriptURL != "" {
		raw, err := s.page.Evaluate("() => " + fetch.AxeScript(r.cfg.AxeScriptURL))
		if err == nil {
			var violations []audit.AuditViolation
			if str, ok := raw.(string); ok {
				violations, err = fetch.ParseAxeViolations(str)
			} else {
				err = fmt.Errorf("unexpected axe result %T", raw)
			}
			if err == nil {
				out.A11y = &fetch.A11yAudit{Violations: violations}
			}
		}
		if err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("accessibility audit: %v", err))
		}
	}
	return out, nil
}

func entriesFrom(responses []playwright.Response) []audit.ResourceEntry {
	entries := make([]audit.ResourceEntry, 0, len(responses))
	for _, resp := range responses {
		headers := toHTTPHeader(resp.Headers())
		entry := audit.ResourceEntry{
			URL:      resp.URL(),
			Category: fetch.Categorize(resp.Request().ResourceType(), headers.Get("Content-Type")),
			Status:   resp.Status(),
			Headers:  headers,
		}
		// Redirects and some cross-origin bodies are unreadable; size stays nil.
		if body, err := resp.Body(); err == nil {
			size := int64(len(body))
			entry.Bytes = &size
		}
		entries = append(entries, entry)
	}
	return entries
}

func toHTTPHeader(h map[string]string) http.Header {
	headers := make(http.Header, len(h))
	for k, v := range h {
		headers.Set(k, v)
	}
	return headers
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
