package sanitize

import (
	"fmt"
	"math"
	"slices"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/infer"
)

// clampScores nulls non-finite scores and clamps the rest to [0,100]. The summary SEO score is
// left to resolveSEO, which recomputes rather than clamps it.
func clampScores(b *builder) {
	for _, f := range floatFields(&b.res) {
		if !f.score || f.name == "summarySignals.seoScore" || *f.ptr == nil {
			continue
		}
		v := **f.ptr
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			*f.ptr = nil
			b.logf("Coerce: %s was %v; set to null", f.name, v)
		case v < 0 || v > 100:
			c := math.Max(0, math.Min(100, v))
			*f.ptr = audit.FloatPtr(c)
			b.logf("Clamp: %s was %s, outside [0,100]; clamped to %s", f.name, num(v), num(c))
		}
	}
}

func backfillResources(b *builder) {
	if b.res.Resources == nil {
		b.res.Resources = &audit.ResourceSummary{}
	}
	r := b.res.Resources
	m := b.res.HTMLMetrics

	if r.DOMNodes == nil && m.DOMNodes > 0 {
		r.DOMNodes = audit.IntPtr(m.DOMNodes)
		b.impute(FieldDOMNodes,
			audit.ImputationRecord{Estimated: true, Method: "htmlMetrics.domNodes"},
			"resources.domNodes missing; imputed %d from htmlMetrics.domNodes", m.DOMNodes)
	}
	if r.ResourcesCount == nil {
		n := m.Scripts + m.Stylesheets + m.Images
		r.ResourcesCount = audit.IntPtr(n)
		b.impute(FieldResourcesCount,
			audit.ImputationRecord{Estimated: true, Method: "htmlMetrics.scripts + htmlMetrics.stylesheets + htmlMetrics.images"},
			"resources.resourcesCount missing; imputed %d = scripts (%d) + stylesheets (%d) + images (%d)",
			n, m.Scripts, m.Stylesheets, m.Images)
	}
	if !finite(r.TotalImageKB) {
		v := float64(m.Images * imageKBPerImage)
		r.TotalImageKB = audit.FloatPtr(v)
		b.impute(FieldImageKB,
			audit.ImputationRecord{Estimated: true, Method: fmt.Sprintf("htmlMetrics.images × %dKB", imageKBPerImage)},
			"resources.totalImageKB missing; imputed %s = htmlMetrics.images (%d) × %dKB", num(v), m.Images, imageKBPerImage)
	}
	if !finite(r.TotalJSKB) {
		count := *r.ResourcesCount
		v := float64(count * jsKBPerResource)
		r.TotalJSKB = audit.FloatPtr(v)
		b.impute(FieldJSKB,
			audit.ImputationRecord{Estimated: true, Method: fmt.Sprintf("resources.resourcesCount × %dKB", jsKBPerResource)},
			"resources.totalJsKB missing; imputed %s = resources.resourcesCount (%d) × %dKB", num(v), count, jsKBPerResource)
	}
}

// keep reports whether a summary value was supplied independently and must not be recomputed.
func (b *builder) keep(p *float64, field string) bool {
	return p != nil && !b.derived(field)
}

func resolvePerformance(b *builder) {
	if b.keep(b.res.SummarySignals.PerformanceEstimate, FieldPerformanceEstimate) {
		return
	}
	if p := b.res.Performance.PerformanceScore; inRange(p) {
		b.res.SummarySignals.PerformanceEstimate = audit.FloatPtr(round2(*p))
		b.impute(FieldPerformanceEstimate,
			audit.ImputationRecord{Reason: "taken from the performance audit score"},
			"summarySignals.performanceEstimate set to %s from the performance audit score", num(*p))
		return
	}

	var js, img float64
	dom := 0
	if r := b.res.Resources; r != nil {
		js, img = value(r.TotalJSKB), value(r.TotalImageKB)
		if r.DOMNodes != nil {
			dom = *r.DOMNodes
		}
	}
	est := 100 - math.Min(60, js/10) - math.Min(30, img/100) - math.Min(20, float64(dom)/200)
	est = round2(math.Max(0, est))
	b.res.SummarySignals.PerformanceEstimate = audit.FloatPtr(est)
	b.impute(FieldPerformanceEstimate,
		audit.ImputationRecord{
			Estimated: true,
			Method:    "100 - min(60, jsKB/10) - min(30, imageKB/100) - min(20, domNodes/200)",
		},
		"summarySignals.performanceEstimate estimated as %s from resource totals (jsKB %s, imageKB %s, domNodes %d)",
		num(est), num(js), num(img), dom)
}

func resolveAccessibility(b *builder) {
	if b.keep(b.res.SummarySignals.AccessibilityScore, FieldAccessibilityScore) {
		return
	}
	auditScore, static := b.res.Performance.AccessibilityScore, b.res.Accessibility.StaticScore
	switch {
	case inRange(auditScore) && inRange(static):
		a, s := *auditScore, *static
		avg, diff := round2((a+s)/2), math.Abs(a-s)
		b.res.SummarySignals.AccessibilityScore = audit.FloatPtr(avg)
		if diff > accessibilityBlendDiff {
			b.impute(FieldAccessibilityScore,
				audit.ImputationRecord{
					Estimated: true,
					Method:    fmt.Sprintf("blend: average of audit score %s and static score %s (diff %s)", num(a), num(s), num(diff)),
				},
				"summarySignals.accessibilityScore blended to %s: audit score %s and static score %s differ by %s (more than %d)",
				num(avg), num(a), num(s), num(diff), accessibilityBlendDiff)
			return
		}
		b.impute(FieldAccessibilityScore,
			audit.ImputationRecord{
				Reason: fmt.Sprintf("average of audit score %s and static score %s (diff %s, within %d)", num(a), num(s), num(diff), accessibilityBlendDiff),
			},
			"summarySignals.accessibilityScore set to %s, the average of audit score %s and static score %s",
			num(avg), num(a), num(s))
	case inRange(auditScore):
		b.res.SummarySignals.AccessibilityScore = audit.FloatPtr(round2(*auditScore))
		b.impute(FieldAccessibilityScore,
			audit.ImputationRecord{Reason: "only the audit score was available"},
			"summarySignals.accessibilityScore set to %s from the audit score; no static score", num(*auditScore))
	case inRange(static):
		b.res.SummarySignals.AccessibilityScore = audit.FloatPtr(round2(*static))
		b.impute(FieldAccessibilityScore,
			audit.ImputationRecord{Reason: "only the static score was available"},
			"summarySignals.accessibilityScore set to %s from the static scan; no audit score", num(*static))
	default:
		b.res.SummarySignals.AccessibilityScore = audit.FloatPtr(neutralAccessibility)
		b.impute(FieldAccessibilityScore,
			audit.ImputationRecord{Estimated: true, Method: "neutral default"},
			"summarySignals.accessibilityScore missing; defaulted to %d with no audit or static score", neutralAccessibility)
	}
}

func resolveSecurity(b *builder) {
	if b.keep(b.res.SummarySignals.SecurityScore, FieldSecurityScore) {
		return
	}
	sec := b.res.Security
	score := 0
	if sec.ContentSecurityPolicy {
		score += 33
	}
	if sec.StrictTransportSecurity {
		score += 33
	}
	if sec.XFrameOptions {
		score += 34
	}
	b.res.SummarySignals.SecurityScore = audit.FloatPtr(float64(score))
	b.impute(FieldSecurityScore,
		audit.ImputationRecord{Estimated: true, Method: "header flags: CSP 33 + HSTS 33 + X-Frame-Options 34"},
		"summarySignals.securityScore derived as %d from header flags (CSP %t, HSTS %t, X-Frame-Options %t)",
		score, sec.ContentSecurityPolicy, sec.StrictTransportSecurity, sec.XFrameOptions)
}

// SEOChecklist scores five on-page facts at 20 points each.
func SEOChecklist(r audit.Result) (score float64, items map[string]bool) {
	items = map[string]bool{
		"title":       r.SEO.Title != "" || r.Metadata.Title != "",
		"description": r.SEO.MetaDescription != "" || r.Metadata.Description != "",
		"keywords":    len(r.SEO.Keywords) > 0 || len(r.SiteSignals.Keywords) > 0,
		"sitemap":     r.SEO.HasSitemap || r.SiteSignals.SitemapInfo.Found,
		"h1":          len(r.SEO.H1) > 0 || r.HTMLMetrics.H1 > 0,
	}
	for _, ok := range items {
		if ok {
			score += 20
		}
	}
	return score, items
}

func resolveSEO(b *builder) {
	cur := b.res.SummarySignals.SEOScore
	if inRange(cur) && !b.derived(FieldSEOScore) {
		return
	}
	if cur != nil && !inRange(cur) {
		b.logf("Invalid: summarySignals.seoScore was %v; recomputing from checklist", *cur)
	}
	score, items := SEOChecklist(b.res)
	b.res.SummarySignals.SEOScore = audit.FloatPtr(score)
	b.impute(FieldSEOScore,
		audit.ImputationRecord{Estimated: true, Method: "checklist: title, description, keywords, sitemap, h1 at 20 points each"},
		"summarySignals.seoScore computed as %s from checklist (title %t, description %t, keywords %t, sitemap %t, h1 %t)",
		num(score), items["title"], items["description"], items["keywords"], items["sitemap"], items["h1"])
}

func (s *Sanitizer) resolveTraffic(b *builder) {
	te := &b.res.BusinessInsights.TrafficEstimate
	known := te.EstimatedTrafficClass != "" && te.EstimatedTrafficClass != audit.TrafficUnknown
	if known && !b.derived(FieldTraffic) {
		return
	}
	pages := b.res.SiteSignals.SitemapInfo.Pages
	blog := b.res.SiteSignals.BlogLinks

	class := infer.TrafficClass(pages, blog, s.traffic)
	te.EstimatedTrafficClass = class
	if class == audit.TrafficUnknown {
		b.impute(FieldTraffic,
			audit.ImputationRecord{Reason: "insufficient signal"},
			"businessInsights.trafficEstimate could not be guessed: no sitemap pages or blog links")
		return
	}
	b.impute(FieldTraffic,
		audit.ImputationRecord{
			Estimated: true,
			Method:    fmt.Sprintf("guessed from sitemap pages %d, blog links %d", pages, blog),
		},
		"businessInsights.trafficEstimate guessed as %s from sitemap pages (%d), blog links (%d)",
		class, pages, blog)
}

// secondaryModel returns a model only for decisive signals.
func secondaryModel(r audit.Result) (model, signal string) {
	switch {
	case r.ConversionSignals.HasCheckout:
		return audit.ModelEcommerce, "checkout present"
	case r.Hosting.Provider == "Shopify":
		return audit.ModelEcommerce, "hosted on Shopify"
	case r.BusinessInsights.Pricing.SubscriptionPricing:
		return audit.ModelSaaS, "subscription pricing"
	default:
		return "", ""
	}
}

func resolveBusinessModel(b *builder) {
	bm := &b.res.BusinessInsights.BusinessModel
	known := bm.InferredModel != "" && bm.InferredModel != audit.ModelUnknown
	if known && !b.derived(FieldBusinessModel) {
		return
	}
	model, signal := secondaryModel(b.res)
	if model == "" {
		bm.InferredModel = audit.ModelUnknown
		b.impute(FieldBusinessModel,
			audit.ImputationRecord{Reason: "no decisive secondary signal"},
			"businessInsights.businessModel.inferredModel could not be guessed: no decisive secondary signal")
		return
	}
	bm.InferredModel = model
	if entry := "secondary: " + signal; !slices.Contains(bm.Signals, entry) {
		bm.Signals = append(bm.Signals, entry)
	}
	b.impute(FieldBusinessModel,
		audit.ImputationRecord{Estimated: true, Method: "secondary signal: " + signal},
		"businessInsights.businessModel.inferredModel guessed as %s from secondary signal: %s", model, signal)
}

func logMissing(b *builder) {
	md, seo := b.res.Metadata, b.res.SEO
	if md.Canonical == "" && seo.Canonical == "" {
		b.logf("Missing: canonical URL not found")
	}
	if md.Title == "" {
		b.logf("Missing: scraped title not found")
	}
	if md.OGTitle == "" {
		b.logf("Missing: Open Graph title not found")
	}
	if md.HTMLTitle == "" && seo.Title == "" {
		b.logf("Missing: HTML title not found")
	}
}

// normalizeNumbers nulls any remaining non-finite value and rounds to two decimals.
func normalizeNumbers(b *builder) {
	for _, f := range floatFields(&b.res) {
		if *f.ptr == nil {
			continue
		}
		v := **f.ptr
		if math.IsNaN(v) || math.IsInf(v, 0) {
			*f.ptr = nil
			b.logf("Coerce: %s was %v; set to null", f.name, v)
			continue
		}
		if r := round2(v); r != v {
			*f.ptr = audit.FloatPtr(r)
		}
	}
	plain := []struct {
		name string
		ptr  *float64
	}{
		{"content.readingMinutes", &b.res.Content.ReadingMinutes},
		{"businessInsights.marginEstimate.low", &b.res.BusinessInsights.MarginEstimate.Low},
		{"businessInsights.marginEstimate.high", &b.res.BusinessInsights.MarginEstimate.High},
		{"businessInsights.marginEstimate.estimate", &b.res.BusinessInsights.MarginEstimate.Estimate},
	}
	for _, f := range plain {
		if math.IsNaN(*f.ptr) || math.IsInf(*f.ptr, 0) {
			b.logf("Coerce: %s was %v; set to 0", f.name, *f.ptr)
			*f.ptr = 0
			continue
		}
		*f.ptr = round2(*f.ptr)
	}
}
