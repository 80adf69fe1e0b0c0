// Package pagespeed is a minimal client for the Google PageSpeed Insights v5 API.
package pagespeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// DefaultEndpoint is the public PSI v5 endpoint.
const DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// Source is recorded in audit.Performance.Source.
const Source = "pagespeed-insights"

// ErrDisabled is returned when the client has been configured off.
var ErrDisabled = errors.New("pagespeed auditor disabled")

// Config configures the client.
type Config struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Strategy string
	Timeout  time.Duration
}

// Client calls PageSpeed Insights.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Strategy == "" {
		cfg.Strategy = "mobile"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

type response struct {
	LighthouseResult struct {
		Categories map[string]struct {
			Score *float64 `json:"score"`
		} `json:"categories"`
		Audits map[string]struct {
			NumericValue *float64 `json:"numericValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Audit runs PSI against pageURL. Category scores are scaled to [0,100].
func (c *Client) Audit(ctx context.Context, pageURL string) (audit.Performance, error) {
	if c == nil || !c.cfg.Enabled {
		return audit.Performance{}, ErrDisabled
	}

	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", c.cfg.Strategy)
	for _, cat := range []string{"performance", "accessibility", "seo", "best-practices"} {
		q.Add("category", cat)
	}
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return audit.Performance{}, fmt.Errorf("new pagespeed request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return audit.Performance{}, fmt.Errorf("call pagespeed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("failed to close pagespeed body", zap.Error(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return audit.Performance{}, fmt.Errorf("read pagespeed body: %w", err)
	}
	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return audit.Performance{}, fmt.Errorf("decode pagespeed body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return audit.Performance{}, fmt.Errorf("pagespeed status %d: %s", resp.StatusCode, msg)
	}

	lr := decoded.LighthouseResult
	category := func(name string) *float64 {
		if c, ok := lr.Categories[name]; ok && c.Score != nil {
			return audit.FloatPtr(*c.Score * 100)
		}
		return nil
	}
	numeric := func(name string) *float64 {
		if a, ok := lr.Audits[name]; ok && a.NumericValue != nil {
			return audit.FloatPtr(*a.NumericValue)
		}
		return nil
	}

	return audit.Performance{
		PerformanceScore:   category("performance"),
		AccessibilityScore: category("accessibility"),
		SEOScore:           category("seo"),
		BestPracticesScore: category("best-practices"),
		LCPMs:              numeric("largest-contentful-paint"),
		CLS:                numeric("cumulative-layout-shift"),
		TBTMs:              numeric("total-blocking-time"),
		Source:             Source,
	}, nil
}
