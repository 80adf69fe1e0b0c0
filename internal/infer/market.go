package infer

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Target market scopes.
const (
	ScopeInternational = "international"
	ScopeNational      = "national"
	ScopeUnknown       = "unknown"
)

var tldRegions = map[string]string{
	"uk": "United Kingdom", "de": "Germany", "fr": "France", "ca": "Canada", "au": "Australia",
	"in": "India", "jp": "Japan", "br": "Brazil", "es": "Spain", "it": "Italy", "nl": "Netherlands",
	"se": "Sweden", "mx": "Mexico", "nz": "New Zealand", "ie": "Ireland", "ch": "Switzerland",
	"sg": "Singapore", "za": "South Africa", "us": "United States",
}

var regionPath = regexp.MustCompile(`^/(en-[a-z]{2}|[a-z]{2}-[a-z]{2}|uk|us|de|fr|ca|au|eu)(?:/|$)`)

var currencySymbols = []struct {
	code    string
	pattern *regexp.Regexp
}{
	{"USD", regexp.MustCompile(`(?i)(?:us)?\$\s?\d|\busd\b`)},
	{"EUR", regexp.MustCompile(`(?i)€\s?\d|\d\s?€|\beur\b`)},
	{"GBP", regexp.MustCompile(`(?i)£\s?\d|\bgbp\b`)},
	{"JPY", regexp.MustCompile(`(?i)¥\s?\d|\bjpy\b`)},
	{"INR", regexp.MustCompile(`(?i)₹\s?\d|\binr\b`)},
	{"CAD", regexp.MustCompile(`(?i)\bcad\b|c\$\s?\d`)},
	{"AUD", regexp.MustCompile(`(?i)\baud\b|a\$\s?\d`)},
}

// TargetMarket derives language, regions, and currencies and from them a scope.
func TargetMarket(s scope) audit.TargetMarket {
	out := audit.TargetMarket{
		Scope:      ScopeUnknown,
		Language:   s.Metadata.Language,
		Regions:    []string{},
		Currencies: []string{},
		Signals:    []string{},
	}
	regions := map[string]bool{}
	addRegion := func(r, signal string) {
		if r == "" || regions[r] {
			return
		}
		regions[r] = true
		out.Regions = append(out.Regions, r)
		out.Signals = append(out.Signals, signal)
	}

	if u, err := url.Parse(s.URL); err == nil {
		host := strings.ToLower(u.Hostname())
		if i := strings.LastIndex(host, "."); i >= 0 {
			tld := host[i+1:]
			addRegion(tldRegions[tld], "country tld ."+tld)
		}
		if m := regionPath.FindStringSubmatch(strings.ToLower(u.Path)); m != nil {
			addRegion(m[1], "regional path /"+m[1])
		}
	}
	for _, h := range s.Hreflangs {
		addRegion(h, "hreflang "+h)
	}

	for _, c := range currencySymbols {
		if c.pattern.MatchString(s.Text) {
			out.Currencies = append(out.Currencies, c.code)
			out.Signals = append(out.Signals, "currency "+c.code)
		}
	}
	if out.Language != "" {
		out.Signals = append(out.Signals, "language "+out.Language)
	}

	switch {
	case len(s.Hreflangs) >= 2 || len(out.Currencies) >= 2 || len(out.Regions) >= 3:
		out.Scope = ScopeInternational
	case len(out.Regions) > 0 || len(out.Currencies) > 0 || out.Language != "":
		out.Scope = ScopeNational
	}
	out.Score = len(out.Signals)
	return out
}

var complexityRules = []rule{
	{"developer docs", 1, text(`documentation|developer docs|developers|docs`)},
	{"api", 2, text(`api|rest api|graphql|webhooks`)},
	{"sdk", 2, text(`sdk|sdks|client libraries`)},
	{"integrations", 1, text(`integrations|integrates with|connectors`)},
	{"sso", 1, text(`sso|saml|single sign-on|scim`)},
	{"compliance", 1, text(`soc ?2|hipaa|gdpr|iso ?27001|pci(?:-dss)?`)},
	{"deployment options", 1, text(`self-hosted|on-premise|on-prem|kubernetes`)},
}

// ProductComplexity bands technical depth: Low (0-1), Medium (2-4), High (5+).
func ProductComplexity(s scope) audit.ProductComplexity {
	out := audit.ProductComplexity{Signals: []string{}}
	for _, r := range complexityRules {
		if r.match(s) {
			out.Score += r.weight
			out.Signals = append(out.Signals, r.signal)
		}
	}
	switch {
	case out.Score >= 5:
		out.Level = audit.LevelHigh
	case out.Score >= 2:
		out.Level = audit.LevelMedium
	default:
		out.Level = audit.LevelLow
	}
	return out
}

var moatRules = []rule{
	{"patents", 1, text(`patent|patented|patent-pending`)},
	{"proprietary technology", 1, text(`proprietary`)},
	{"ai capability", 1, text(`ai|ai-powered|machine learning|artificial intelligence|llm|generative`)},
	{"certifications", 1, text(`soc ?2|iso ?27001|hipaa|pci|certified`)},
	{"network effects", 1, text(`community of|network of|million users|millions of users|marketplace`)},
	{"ecosystem", 1, text(`\d+\+? integrations|app marketplace|partner ecosystem`)},
	{"data advantage", 1, text(`exclusive data|largest database|data network`)},
}

// Moat lists defensibility markers; the score is the number found.
func Moat(s scope) audit.MoatSignals {
	out := audit.MoatSignals{Signals: []string{}}
	for _, r := range moatRules {
		if r.match(s) {
			out.Score += r.weight
			out.Signals = append(out.Signals, r.signal)
		}
	}
	return out
}
