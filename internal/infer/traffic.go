package infer

import (
	"fmt"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// TrafficThresholds are strict lower bounds: a count must exceed them.
type TrafficThresholds struct {
	HighPages     int
	HighBlogLinks int
	MidPages      int
	MidBlogLinks  int
}

// DefaultTrafficThresholds returns 1000/100 for High and 200/20 for Mid.
func DefaultTrafficThresholds() TrafficThresholds {
	return TrafficThresholds{HighPages: 1000, HighBlogLinks: 100, MidPages: 200, MidBlogLinks: 20}
}

// TrafficClass bands pages and blog links. With neither signal the class is Unknown.
func TrafficClass(pages, blogLinks int, t TrafficThresholds) string {
	switch {
	case pages > t.HighPages || blogLinks > t.HighBlogLinks:
		return audit.TrafficHigh
	case pages > t.MidPages || blogLinks > t.MidBlogLinks:
		return audit.TrafficMid
	case pages > 0 || blogLinks > 0:
		return audit.TrafficSmall
	default:
		return audit.TrafficUnknown
	}
}

// Traffic wraps TrafficClass with its supporting signals.
func Traffic(pages, blogLinks int, t TrafficThresholds) audit.TrafficEstimate {
	out := audit.TrafficEstimate{
		EstimatedTrafficClass: TrafficClass(pages, blogLinks, t),
		SitemapPages:          pages,
		BlogLinks:             blogLinks,
		Signals:               []string{},
	}
	if pages > 0 {
		out.Signals = append(out.Signals, fmt.Sprintf("sitemap pages: %d", pages))
	}
	if blogLinks > 0 {
		out.Signals = append(out.Signals, fmt.Sprintf("blog links: %d", blogLinks))
	}
	switch out.EstimatedTrafficClass {
	case audit.TrafficHigh:
		out.Score = 3
	case audit.TrafficMid:
		out.Score = 2
	case audit.TrafficSmall:
		out.Score = 1
	}
	return out
}
