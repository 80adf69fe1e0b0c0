package extract

import (
	"net/http"
	"strings"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// SecurityHeaders reports header presence only; values are never validated.
func SecurityHeaders(finalURL string, h http.Header) audit.Security {
	return audit.Security{
		HTTPS:                   strings.HasPrefix(strings.ToLower(finalURL), "https://"),
		ContentSecurityPolicy:   h.Get("Content-Security-Policy") != "",
		StrictTransportSecurity: h.Get("Strict-Transport-Security") != "",
		XFrameOptions:           h.Get("X-Frame-Options") != "",
		XXSSProtection:          h.Get("X-XSS-Protection") != "",
	}
}

type hostingSignature struct {
	provider string
	cdn      bool
	header   string
	contains string // matched case-insensitively against the header value; empty means presence
}

var hostingSignatures = []hostingSignature{
	{provider: "Cloudflare", cdn: true, header: "CF-Ray"},
	{provider: "Cloudflare", cdn: true, header: "Server", contains: "cloudflare"},
	{provider: "Vercel", cdn: true, header: "X-Vercel-Id"},
	{provider: "Vercel", cdn: true, header: "Server", contains: "vercel"},
	{provider: "Netlify", cdn: true, header: "X-NF-Request-Id"},
	{provider: "Netlify", cdn: true, header: "Server", contains: "netlify"},
	{provider: "Shopify", cdn: true, header: "X-Shopify-Stage"},
	{provider: "AWS CloudFront", cdn: true, header: "X-Amz-Cf-Id"},
	{provider: "AWS CloudFront", cdn: true, header: "Via", contains: "cloudfront"},
	{provider: "Fastly", cdn: true, header: "X-Fastly-Request-ID"},
	{provider: "Fastly", cdn: true, header: "X-Served-By", contains: "cache-"},
	{provider: "Akamai", cdn: true, header: "X-Akamai-Transformed"},
	{provider: "Akamai", cdn: true, header: "Server", contains: "akamai"},
	{provider: "GitHub Pages", cdn: true, header: "X-GitHub-Request-Id"},
	{provider: "Google Cloud", header: "Server", contains: "gws"},
	{provider: "Google Cloud", header: "Via", contains: "google"},
	{provider: "WP Engine", header: "X-Powered-By", contains: "wp engine"},
	{provider: "Heroku", header: "Via", contains: "vegur"},
	{provider: "Azure", header: "X-Azure-Ref"},
	{provider: "Amazon S3", header: "Server", contains: "amazons3"},
}

// Hosting guesses the provider from response headers. The first matching signature names
// the provider; every match is listed in Signals.
func Hosting(h http.Header) audit.Hosting {
	out := audit.Hosting{Provider: "unknown", Server: h.Get("Server"), Signals: []string{}}
	seen := map[string]bool{}
	for _, s := range hostingSignatures {
		v := h.Get(s.header)
		if v == "" {
			continue
		}
		if s.contains != "" && !strings.Contains(strings.ToLower(v), s.contains) {
			continue
		}
		if out.Provider == "unknown" {
			out.Provider = s.provider
		}
		if s.cdn {
			out.CDN = true
		}
		if !seen[s.header] {
			seen[s.header] = true
			out.Signals = append(out.Signals, s.header)
		}
	}
	return out
}
