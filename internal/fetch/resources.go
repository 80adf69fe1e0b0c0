package fetch

import (
	"net/url"
	"strings"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Resource categories.
const (
	CategoryDocument   = "document"
	CategoryScript     = "script"
	CategoryStylesheet = "stylesheet"
	CategoryImage      = "image"
	CategoryFont       = "font"
	CategoryMedia      = "media"
	CategoryXHR        = "xhr"
	CategoryOther      = "other"
)

var knownResourceTypes = map[string]string{
	"document":   CategoryDocument,
	"script":     CategoryScript,
	"stylesheet": CategoryStylesheet,
	"image":      CategoryImage,
	"font":       CategoryFont,
	"media":      CategoryMedia,
	"xhr":        CategoryXHR,
	"fetch":      CategoryXHR,
}

// Categorize maps a browser resource type, falling back to the MIME type.
func Categorize(resourceType, mimeType string) string {
	if c, ok := knownResourceTypes[strings.ToLower(resourceType)]; ok {
		return c
	}
	mime := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mime, "image/"):
		return CategoryImage
	case strings.Contains(mime, "javascript"), strings.Contains(mime, "ecmascript"):
		return CategoryScript
	case strings.HasPrefix(mime, "text/css"):
		return CategoryStylesheet
	case strings.HasPrefix(mime, "font/"), strings.Contains(mime, "font-woff"):
		return CategoryFont
	case strings.HasPrefix(mime, "text/html"), strings.HasPrefix(mime, "application/xhtml"):
		return CategoryDocument
	case strings.HasPrefix(mime, "video/"), strings.HasPrefix(mime, "audio/"):
		return CategoryMedia
	case strings.Contains(mime, "json"):
		return CategoryXHR
	default:
		return CategoryOther
	}
}

// IsFirstParty reports whether host belongs to the site of pageHost. A leading
// "www." is ignored and subdomains count as first-party.
func IsFirstParty(pageHost, host string) bool {
	base := strings.TrimPrefix(strings.ToLower(pageHost), "www.")
	h := strings.TrimPrefix(strings.ToLower(host), "www.")
	if base == "" || h == "" {
		return false
	}
	return h == base || strings.HasSuffix(h, "."+base)
}

// SummarizeResources aggregates intercepted responses into a ResourceSummary.
// Byte totals are nil when every entry of that category had an unknown size.
func SummarizeResources(pageURL string, entries []audit.ResourceEntry, domNodes *int) *audit.ResourceSummary {
	if len(entries) == 0 {
		// Nothing intercepted: totals are unknown, not zero.
		return &audit.ResourceSummary{DOMNodes: domNodes}
	}
	pageHost := ""
	if u, err := url.Parse(pageURL); err == nil {
		pageHost = u.Hostname()
	}

	var (
		imgBytes, jsBytes     int64
		imgCount, jsCount     int
		imgKnown, jsKnown     bool
		thirdParty, tpScripts int
		hosts                 = map[string]struct{}{}
	)
	for _, e := range entries {
		switch e.Category {
		case CategoryImage:
			imgCount++
			if e.Bytes != nil {
				imgKnown = true
				imgBytes += *e.Bytes
			}
		case CategoryScript:
			jsCount++
			if e.Bytes != nil {
				jsKnown = true
				jsBytes += *e.Bytes
			}
		}
		u, err := url.Parse(e.URL)
		if err != nil || u.Hostname() == "" || strings.HasPrefix(u.Scheme, "data") {
			continue
		}
		if IsFirstParty(pageHost, u.Hostname()) {
			continue
		}
		thirdParty++
		hosts[strings.ToLower(u.Hostname())] = struct{}{}
		if e.Category == CategoryScript {
			tpScripts++
		}
	}

	summary := &audit.ResourceSummary{
		DOMNodes:           domNodes,
		ResourcesCount:     audit.IntPtr(len(entries)),
		ThirdPartyRequests: audit.IntPtr(thirdParty),
		ThirdPartyHosts:    audit.IntPtr(len(hosts)),
		ThirdPartyScripts:  audit.IntPtr(tpScripts),
		Entries:            entries,
	}
	if imgCount == 0 || imgKnown {
		summary.TotalImageKB = audit.FloatPtr(kb(imgBytes))
	}
	if jsCount == 0 || jsKnown {
		summary.TotalJSKB = audit.FloatPtr(kb(jsBytes))
	}
	return summary
}

func kb(n int64) float64 {
	return float64(n) / 1024
}
