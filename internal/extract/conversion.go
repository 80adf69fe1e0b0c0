package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Page types.
const (
	PageProduct  = "product"
	PageArticle  = "article"
	PageHomepage = "homepage"
	PageLanding  = "landing"
)

const (
	maxCTASamples = 10
	maxCTALength  = 60
)

var (
	ctaVocabulary = regexp.MustCompile(`(?i)\b(buy|order|shop now|add to (cart|bag|basket)|subscribe|sign ?up|get started|start (your )?(free )?trial|try (it )?(for )?free|checkout|check out|pricing|see plans|book (a )?(demo|call)|request (a )?(demo|quote)|contact (us|sales)|get a quote|download|join|register|learn more)\b`)

	productPath = regexp.MustCompile(`(?i)/(products?|p|item|items|shop|store|dp)/[^/]+`)
	articlePath = regexp.MustCompile(`(?i)/(blog|news|articles?|posts?|stories|insights)/[^/]+|/\d{4}/\d{2}/`)

	checkoutPattern   = regexp.MustCompile(`(?i)/checkout|proceed to checkout|data-checkout|checkout-button`)
	cartPattern       = regexp.MustCompile(`(?i)/cart\b|add[-_ ]to[-_ ]cart|shopping[-_ ]cart|mini-?cart|cart-count`)
	newsletterPattern = regexp.MustCompile(`(?i)newsletter|subscribe to our|join our (mailing )?list|mailing list`)
	pricingHref       = regexp.MustCompile(`(?i)/(pricing|plans|price)(/|$|\?|#)`)
	blogHref          = regexp.MustCompile(`(?i)/(blog|news|articles|posts)(/|$|\?|#)`)
)

// Conversion scans call-to-action elements and funnel markers.
func Conversion(doc *Document) audit.ConversionSignals {
	out := audit.ConversionSignals{
		CTASamples: []string{},
		PageType:   PageType(doc.URL.Path),
		Forms:      doc.Sel.Find("form").Length(),
	}
	seen := map[string]bool{}
	doc.Sel.Find(`a, button, input[type="submit"], input[type="button"]`).Each(func(_ int, s *goquery.Selection) {
		label := ctaLabel(s)
		if label == "" || len([]rune(label)) > maxCTALength || !ctaVocabulary.MatchString(label) {
			return
		}
		out.CTACount++
		key := strings.ToLower(label)
		if !seen[key] && len(out.CTASamples) < maxCTASamples {
			seen[key] = true
			out.CTASamples = append(out.CTASamples, label)
		}
	})
	out.HasCheckout = checkoutPattern.MatchString(doc.Raw)
	out.HasCart = cartPattern.MatchString(doc.Raw)
	out.NewsletterSignup = newsletterPattern.MatchString(doc.Text()) ||
		(doc.Sel.Find(`form input[type="email"]`).Length() > 0 && newsletterPattern.MatchString(doc.Raw))
	return out
}

func ctaLabel(s *goquery.Selection) string {
	if t := text(s); t != "" {
		return t
	}
	if v := strings.TrimSpace(s.AttrOr("aria-label", "")); v != "" {
		return v
	}
	return strings.TrimSpace(s.AttrOr("value", ""))
}

// PageType classifies a URL path. Precedence: product > article > homepage > landing.
func PageType(path string) string {
	switch {
	case productPath.MatchString(path):
		return PageProduct
	case articlePath.MatchString(path):
		return PageArticle
	case path == "" || path == "/" || strings.EqualFold(strings.TrimSuffix(path, "/"), "/index.html"):
		return PageHomepage
	default:
		return PageLanding
	}
}

// LinkSignals counts unique blog links and reports whether a pricing page is linked.
func LinkSignals(doc *Document) (blogLinks int, hasPricingPage bool) {
	seen := map[string]bool{}
	doc.Sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := doc.Resolve(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		if pricingHref.MatchString(href) {
			hasPricingPage = true
		}
		if blogHref.MatchString(href) && !seen[href] {
			seen[href] = true
			blogLinks++
		}
	})
	if pricingHref.MatchString(doc.URL.Path + "/") {
		hasPricingPage = true
	}
	return blogLinks, hasPricingPage
}
