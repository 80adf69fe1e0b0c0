// Package infer turns extraction outputs into business judgments using fixed rule tables.
// Every function is deterministic for a given Input.
package infer

import (
	"regexp"
	"strings"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Input is the read-only view of one analysis that the rules score.
type Input struct {
	URL    string
	Domain string
	// Text is the visible page text; Raw is the full markup.
	Text string
	Raw  string

	Metadata        audit.Metadata
	Keywords        []string
	TechStack       map[string]string
	StructuredTypes []string
	Conversion      audit.ConversionSignals
	HasPricingPage  bool
	BlogLinks       int
	SitemapPages    int
	Social          audit.Social
	SupportWidgets  audit.SupportWidgets
	CRMIndicators   audit.CRMIndicators
	Hosting         audit.Hosting
	Resources       *audit.ResourceSummary
	Hreflangs       []string
	Hrefs           []string
}

// Config carries the hand-tuned thresholds.
type Config struct {
	ModelThreshold int
	Traffic        TrafficThresholds
}

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() Config {
	return Config{ModelThreshold: 2, Traffic: DefaultTrafficThresholds()}
}

// Inferrer runs every scorer.
type Inferrer struct {
	cfg Config
}

// New builds an Inferrer; zero-valued thresholds fall back to the defaults.
func New(cfg Config) *Inferrer {
	def := DefaultConfig()
	if cfg.ModelThreshold <= 0 {
		cfg.ModelThreshold = def.ModelThreshold
	}
	if cfg.Traffic == (TrafficThresholds{}) {
		cfg.Traffic = def.Traffic
	}
	return &Inferrer{cfg: cfg}
}

// Infer computes the BusinessInsights bundle. The business model is resolved first since the
// margin estimate depends on it.
func (i *Inferrer) Infer(in Input) audit.BusinessInsights {
	sc := newScope(in)
	model := BusinessModel(sc, i.cfg.ModelThreshold)
	pricing := Pricing(sc)
	return audit.BusinessInsights{
		BusinessModel:     model,
		Pricing:           pricing,
		MarginEstimate:    Margin(model.InferredModel, in),
		Competitors:       Competitors(sc),
		TrafficEstimate:   Traffic(in.SitemapPages, in.BlogLinks, i.cfg.Traffic),
		SalesMaturity:     SalesMaturity(sc),
		MarketingMaturity: MarketingMaturity(sc),
		TargetMarket:      TargetMarket(sc),
		ProductComplexity: ProductComplexity(sc),
		MoatSignals:       Moat(sc),
	}
}

// scope is an Input with the lowercased haystacks precomputed.
type scope struct {
	Input
	hay string
	raw string
}

func newScope(in Input) scope {
	parts := []string{in.Text, in.Metadata.Title, in.Metadata.Description, in.Metadata.HTMLTitle}
	parts = append(parts, in.Keywords...)
	parts = append(parts, in.Conversion.CTASamples...)
	return scope{
		Input: in,
		hay:   strings.ToLower(strings.Join(parts, " ")),
		raw:   strings.ToLower(in.Raw),
	}
}

func (s scope) says(re *regexp.Regexp) bool { return re.MatchString(s.hay) }

// mentions also searches the raw markup, so attribute values and embedded JSON count.
func (s scope) mentions(re *regexp.Regexp) bool { return s.says(re) || re.MatchString(s.raw) }

func (s scope) hasType(types ...string) bool {
	for _, have := range s.StructuredTypes {
		for _, want := range types {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

func (s scope) tech(category string) bool {
	_, ok := s.TechStack[category]
	return ok
}

func words(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + pattern + `)\b`)
}

// band maps an additive point score to Low (<3), Medium (3-5), or High (>=6).
func band(score int) string {
	switch {
	case score >= 6:
		return audit.LevelHigh
	case score >= 3:
		return audit.LevelMedium
	default:
		return audit.LevelLow
	}
}
