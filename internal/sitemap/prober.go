// Package sitemap probes robots.txt and well-known sitemap locations for a site.
package sitemap

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Candidates are the sitemap paths tried after any listed in robots.txt.
var Candidates = []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemap-index.xml", "/wp-sitemap.xml"}

// Config bounds the probe.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxChildren int
	MaxBytes    int64
}

// Prober fetches robots.txt and sitemaps.
type Prober struct {
	client *http.Client
	cfg    Config
	logger *zap.Logger
}

// New builds a Prober.
func New(cfg Config, logger *zap.Logger) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxChildren <= 0 {
		cfg.MaxChildren = 3
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

// Probe reports robots and sitemap status for the site hosting pageURL. The
// returned info is always usable; err is set only when the site could not be
// reached at all.
func (p *Prober) Probe(ctx context.Context, pageURL string) (audit.SitemapInfo, error) {
	info := audit.SitemapInfo{CrawlAllowed: true}
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return info, fmt.Errorf("parse page url: %w", audit.ErrInvalidURL)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	var reached bool
	var lastErr error
	var listed []string

	status, body, err := p.get(ctx, base.ResolveReference(&url.URL{Path: "/robots.txt"}).String())
	switch {
	case err != nil:
		lastErr = err
	default:
		reached = true
		if status == http.StatusOK {
			info.RobotsFound = true
			info.CrawlAllowed = !DisallowsRoot(body)
			if data, perr := robotstxt.FromStatusAndBytes(status, body); perr == nil {
				listed = data.Sitemaps
			}
		}
	}

	for _, candidate := range p.candidates(base, listed) {
		status, body, err := p.get(ctx, candidate)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		reached = true
		if status != http.StatusOK {
			continue
		}
		doc, err := parseXML(body)
		if err != nil {
			p.logger.Debug("sitemap candidate is not xml", zap.String("url", candidate), zap.Error(err))
			continue
		}
		pages, lastmod, children, ok := p.count(ctx, base, doc)
		if !ok {
			continue
		}
		info.Found = true
		info.URL = candidate
		info.Pages = pages
		info.LastMod = lastmod
		info.Sitemaps = children
		break
	}

	if !reached && lastErr != nil {
		return info, fmt.Errorf("probe sitemap: %w", lastErr)
	}
	return info, nil
}

func (p *Prober) candidates(base *url.URL, listed []string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(u string) {
		if _, ok := seen[u]; ok || u == "" {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	for _, s := range listed {
		s = strings.TrimSpace(s)
		if !sameSite(base, s) {
			p.logger.Info("skipping off-site sitemap listed in robots.txt",
				zap.String("site", base.Host), zap.String("sitemap", s))
			continue
		}
		add(s)
	}
	for _, c := range Candidates {
		add(base.ResolveReference(&url.URL{Path: c}).String())
	}
	return out
}

// count returns the number of <url> entries, the most recent lastmod, and, for
// sitemap indexes, the child sitemap URLs.
func (p *Prober) count(ctx context.Context, base *url.URL, doc *xmlquery.Node) (int, string, []string, bool) {
	if urls := xmlquery.Find(doc, "//urlset/url"); xmlquery.FindOne(doc, "//urlset") != nil {
		return len(urls), latest(lastmods(doc)), nil, true
	}
	if xmlquery.FindOne(doc, "//sitemapindex") == nil {
		return 0, "", nil, false
	}

	var children []string
	for _, loc := range xmlquery.Find(doc, "//sitemapindex/sitemap/loc") {
		if u := strings.TrimSpace(loc.InnerText()); u != "" {
			children = append(children, u)
		}
	}
	mods := lastmods(doc)
	pages := 0
	expanded := 0
	for _, child := range children {
		if expanded >= p.cfg.MaxChildren {
			break
		}
		if !sameSite(base, child) {
			p.logger.Info("skipping off-site child sitemap", zap.String("sitemap", child))
			continue
		}
		expanded++
		status, body, err := p.get(ctx, child)
		if err != nil || status != http.StatusOK {
			continue
		}
		childDoc, err := parseXML(body)
		if err != nil {
			continue
		}
		pages += len(xmlquery.Find(childDoc, "//urlset/url"))
		mods = append(mods, lastmods(childDoc)...)
	}
	return pages, latest(mods), children, true
}

// sameSite reports whether target is an http(s) URL on the audited host. A leading "www."
// is ignored on both sides; other subdomains and ports must match.
func sameSite(base *url.URL, target string) bool {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	strip := func(h string) string { return strings.TrimPrefix(strings.ToLower(h), "www.") }
	return strip(u.Host) == strip(base.Host)
}

func (p *Prober) get(ctx context.Context, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("get %s: %w", target, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			p.logger.Debug("failed to close sitemap response body", zap.Error(cerr))
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s: %w", target, err)
	}
	return resp.StatusCode, maybeGunzip(body, p.cfg.MaxBytes), nil
}

func maybeGunzip(body []byte, limit int64) []byte {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return body
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, limit))
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return body
	}
	return out
}

func parseXML(body []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	return doc, nil
}

func lastmods(doc *xmlquery.Node) []string {
	var out []string
	for _, n := range xmlquery.Find(doc, "//lastmod") {
		if v := strings.TrimSpace(n.InnerText()); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var lastmodLayouts = []string{time.RFC3339, "2006-01-02T15:04Z07:00", "2006-01-02T15:04:05", "2006-01-02"}

func parseLastmod(v string) (time.Time, bool) {
	for _, layout := range lastmodLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// latest returns the most recent parseable lastmod value as written in the sitemap.
func latest(values []string) string {
	var (
		best   time.Time
		bestOK string
	)
	for _, v := range values {
		t, ok := parseLastmod(v)
		if !ok {
			continue
		}
		if bestOK == "" || t.After(best) {
			best, bestOK = t, v
		}
	}
	return bestOK
}

// DisallowsRoot reports whether robots.txt contains a root-blocking "Disallow: /" rule.
func DisallowsRoot(robots []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(robots))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "disallow") {
			continue
		}
		if strings.TrimSpace(value) == "/" {
			return true
		}
	}
	return false
}
