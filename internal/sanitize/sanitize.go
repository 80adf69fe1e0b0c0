// Package sanitize repairs a draft audit document: it clamps scores, fills missing values from
// correlated signals, and records every correction in the imputation log.
package sanitize

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/infer"
	"github.com/JakeFAU/site-audit/internal/metrics"
)

// Keys of Result.Imputed.
const (
	FieldSEOScore            = "seoScore"
	FieldAccessibilityScore  = "accessibilityScore"
	FieldSecurityScore       = "securityScore"
	FieldPerformanceEstimate = "performanceEstimate"
	FieldImageKB             = "resources.totalImageKB"
	FieldJSKB                = "resources.totalJsKB"
	FieldResourcesCount      = "resources.resourcesCount"
	FieldDOMNodes            = "resources.domNodes"
	FieldTraffic             = "trafficEstimate"
	FieldBusinessModel       = "businessModel.inferredModel"
)

const (
	imageKBPerImage        = 120
	jsKBPerResource        = 15
	neutralAccessibility   = 50
	accessibilityBlendDiff = 20
)

// Sanitizer runs the repair rules.
type Sanitizer struct {
	traffic infer.TrafficThresholds
	logger  *zap.Logger
}

// New builds a Sanitizer. Zero traffic thresholds fall back to the defaults.
func New(traffic infer.TrafficThresholds, logger *zap.Logger) *Sanitizer {
	if traffic == (infer.TrafficThresholds{}) {
		traffic = infer.DefaultTrafficThresholds()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sanitizer{traffic: traffic, logger: logger}
}

// Run sanitizes draft with the default thresholds.
func Run(draft audit.Result) audit.Result {
	return New(infer.TrafficThresholds{}, nil).Run(draft)
}

// Run returns a repaired copy of draft; draft itself is not modified. Running it again on its
// own output changes nothing.
func (s *Sanitizer) Run(draft audit.Result) audit.Result {
	b := newBuilder(draft, s.logger)
	rules := []struct {
		name string
		fn   func(*builder)
	}{
		{"clamp", clampScores},
		{"resources", backfillResources},
		{"performance", resolvePerformance},
		{"accessibility", resolveAccessibility},
		{"security", resolveSecurity},
		{"seo", resolveSEO},
		{"traffic", s.resolveTraffic},
		{"business_model", resolveBusinessModel},
		{"missing", logMissing},
		{"numeric", normalizeNumbers},
	}
	for _, r := range rules {
		b.apply(r.name, r.fn)
	}
	return b.res
}

type builder struct {
	res    audit.Result
	seen   map[string]bool
	logger *zap.Logger
}

func newBuilder(draft audit.Result, logger *zap.Logger) *builder {
	res := draft
	if draft.Resources != nil {
		r := *draft.Resources
		res.Resources = &r
	}
	res.Imputed = maps.Clone(draft.Imputed)
	if res.Imputed == nil {
		res.Imputed = map[string]audit.ImputationRecord{}
	}
	res.ImputationLog = append([]string{}, draft.ImputationLog...)
	res.Warnings = append([]string{}, draft.Warnings...)
	res.BusinessInsights.BusinessModel.Signals = slices.Clone(draft.BusinessInsights.BusinessModel.Signals)

	seen := make(map[string]bool, len(res.ImputationLog))
	for _, line := range res.ImputationLog {
		seen[line] = true
	}
	return &builder{res: res, seen: seen, logger: logger}
}

// logf appends a log line unless an identical line is already present.
func (b *builder) logf(format string, args ...any) bool {
	line := fmt.Sprintf(format, args...)
	if b.seen[line] {
		return false
	}
	b.seen[line] = true
	b.res.ImputationLog = append(b.res.ImputationLog, line)
	b.logger.Debug("imputation", zap.String("entry", line))
	return true
}

func (b *builder) impute(field string, rec audit.ImputationRecord, format string, args ...any) {
	b.res.Imputed[field] = rec
	if b.logf(format, args...) {
		metrics.ObserveImputation(field)
	}
}

// derived reports whether field was produced by an earlier pass rather than measured.
func (b *builder) derived(field string) bool {
	_, ok := b.res.Imputed[field]
	return ok
}

func (b *builder) apply(name string, fn func(*builder)) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("sanitize rule panicked", zap.String("rule", name), zap.Any("panic", r))
			b.logf("sanitize: %s rule failed: %v", name, r)
		}
	}()
	fn(b)
}

type floatField struct {
	name  string
	ptr   **float64
	score bool
}

func floatFields(r *audit.Result) []floatField {
	fields := []floatField{
		{"performance.performanceScore", &r.Performance.PerformanceScore, true},
		{"performance.accessibilityScore", &r.Performance.AccessibilityScore, true},
		{"performance.seoScore", &r.Performance.SEOScore, true},
		{"performance.bestPracticesScore", &r.Performance.BestPracticesScore, true},
		{"performance.lcpMs", &r.Performance.LCPMs, false},
		{"performance.cls", &r.Performance.CLS, false},
		{"performance.tbtMs", &r.Performance.TBTMs, false},
		{"accessibility.staticScore", &r.Accessibility.StaticScore, true},
		{"summarySignals.seoScore", &r.SummarySignals.SEOScore, true},
		{"summarySignals.accessibilityScore", &r.SummarySignals.AccessibilityScore, true},
		{"summarySignals.securityScore", &r.SummarySignals.SecurityScore, true},
		{"summarySignals.performanceEstimate", &r.SummarySignals.PerformanceEstimate, true},
	}
	if r.Resources != nil {
		fields = append(fields,
			floatField{"resources.totalImageKB", &r.Resources.TotalImageKB, false},
			floatField{"resources.totalJsKB", &r.Resources.TotalJSKB, false},
		)
	}
	return fields
}

func finite(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}

func inRange(p *float64) bool {
	return finite(p) && *p >= 0 && *p <= 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func num(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64)
}

func value(p *float64) float64 {
	if !finite(p) {
		return 0
	}
	return *p
}
