// Package collyfetch implements the lightweight probe fetch using gocolly.
package collyfetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/site-audit/internal/fetch"
)

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Prober implements fetch.Prober using the Colly collector.
type Prober struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Prober.
func New(cfg Config) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &Prober{cfg: cfg, baseCollector: c}
}

// Probe executes a single HTTP GET. Network errors and non-2xx statuses are returned as errors.
func (p *Prober) Probe(ctx context.Context, url string) (fetch.Page, error) {
	var (
		page     fetch.Page
		fetchErr error
	)
	start := time.Now()
	collector := p.buildCollector(ctx)
	p.configureCollectorHooks(collector, url, start, &page, &fetchErr)

	if err := runCollector(ctx, collector, url, &fetchErr); err != nil {
		return fetch.Page{}, err
	}
	return page, nil
}

func (p *Prober) buildCollector(ctx context.Context) *colly.Collector {
	collector := p.baseCollector.Clone()
	collector.Context = ctx
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	if p.cfg.UserAgent != "" {
		collector.UserAgent = p.cfg.UserAgent
	}
	if p.cfg.MaxBodyBytes > 0 {
		collector.MaxBodySize = p.cfg.MaxBodyBytes
	}
	collector.SetRequestTimeout(p.cfg.Timeout)
	return collector
}

func (p *Prober) configureCollectorHooks(
	hooks collectorHooks,
	requested string,
	start time.Time,
	page *fetch.Page,
	fetchErr *error,
) {
	hooks.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		body := append([]byte(nil), r.Body...)
		// Colly already transcodes when the header names a charset; otherwise sniff <meta charset>.
		if ct := headers.Get("Content-Type"); !strings.Contains(strings.ToLower(ct), "charset=") {
			body = fetch.ToUTF8(body, ct)
		}
		*page = fetch.Page{
			URL:        requested,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       body,
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		*fetchErr = err
	})
}

func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("probe fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("probe response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("probe visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
