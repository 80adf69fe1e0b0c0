package sanitize

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/infer"
)

func draft() audit.Result {
	return audit.Result{
		URL:      "https://acme.test/",
		Metadata: audit.Metadata{Title: "Acme", HTMLTitle: "Acme", OGTitle: "Acme", Canonical: "https://acme.test/"},
		SEO: audit.SEO{
			Title:           "Acme",
			MetaDescription: "Widgets for teams.",
			H1:              []string{"Widgets"},
			Keywords:        []string{"widgets"},
			Canonical:       "https://acme.test/",
		},
		SiteSignals: audit.SiteSignals{SitemapInfo: audit.SitemapInfo{Found: true, Pages: 3}},
		HTMLMetrics: audit.HTMLMetrics{Images: 10, Scripts: 4, Stylesheets: 2, DOMNodes: 400, H1: 1},
		BusinessInsights: audit.BusinessInsights{
			BusinessModel:   audit.BusinessModel{InferredModel: audit.ModelSaaS},
			TrafficEstimate: audit.TrafficEstimate{EstimatedTrafficClass: audit.TrafficSmall},
		},
	}
}

func hasLine(log []string, substr string) int {
	n := 0
	for _, l := range log {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

func TestBackfillResources(t *testing.T) {
	t.Parallel()

	out := Run(draft())
	require.NotNil(t, out.Resources)
	require.InDelta(t, 1200, *out.Resources.TotalImageKB, 0.001)
	require.Equal(t, 16, *out.Resources.ResourcesCount)
	require.InDelta(t, 240, *out.Resources.TotalJSKB, 0.001)
	require.Equal(t, 400, *out.Resources.DOMNodes)

	require.Equal(t, audit.ImputationRecord{Estimated: true, Method: "htmlMetrics.images × 120KB"}, out.Imputed[FieldImageKB])
	require.Contains(t, out.ImputationLog, "resources.totalImageKB missing; imputed 1200 = htmlMetrics.images (10) × 120KB")
	require.True(t, out.Imputed[FieldJSKB].Estimated)
}

func TestBackfillKeepsMeasuredTotals(t *testing.T) {
	t.Parallel()

	d := draft()
	d.Resources = &audit.ResourceSummary{
		DOMNodes:       audit.IntPtr(900),
		ResourcesCount: audit.IntPtr(40),
		TotalImageKB:   audit.FloatPtr(512),
		TotalJSKB:      audit.FloatPtr(300),
	}
	out := Run(d)
	require.InDelta(t, 512, *out.Resources.TotalImageKB, 0.001)
	require.InDelta(t, 300, *out.Resources.TotalJSKB, 0.001)
	require.NotContains(t, out.Imputed, FieldImageKB)
	require.NotContains(t, out.Imputed, FieldJSKB)
}

func TestPerformanceEstimate(t *testing.T) {
	t.Parallel()

	out := Run(draft())
	// 100 - 240/10 - 1200/100 - 400/200
	require.InDelta(t, 62, *out.SummarySignals.PerformanceEstimate, 0.001)
	require.True(t, out.Imputed[FieldPerformanceEstimate].Estimated)

	d := draft()
	d.Performance.PerformanceScore = audit.FloatPtr(88)
	out = Run(d)
	require.InDelta(t, 88, *out.SummarySignals.PerformanceEstimate, 0.001)
	require.False(t, out.Imputed[FieldPerformanceEstimate].Estimated)

	heavy := draft()
	heavy.Resources = &audit.ResourceSummary{
		DOMNodes:       audit.IntPtr(10000),
		ResourcesCount: audit.IntPtr(1),
		TotalImageKB:   audit.FloatPtr(50000),
		TotalJSKB:      audit.FloatPtr(50000),
	}
	out = Run(heavy)
	require.InDelta(t, 0, *out.SummarySignals.PerformanceEstimate, 0.001)
}

func TestAccessibilityReconciliation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		auditVal  *float64
		static    *float64
		want      float64
		estimated bool
		contains  string
	}{
		{"close scores average", audit.FloatPtr(90), audit.FloatPtr(80), 85, false, "diff 10"},
		{"distant scores blend", audit.FloatPtr(95), audit.FloatPtr(60), 77.5, true, "blend: average of audit score 95 and static score 60 (diff 35)"},
		{"static only", nil, audit.FloatPtr(70), 70, false, "only the static score"},
		{"audit only", audit.FloatPtr(64), nil, 64, false, "only the audit score"},
		{"neither", nil, nil, 50, true, "neutral default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := draft()
			d.Performance.AccessibilityScore = tt.auditVal
			d.Accessibility.StaticScore = tt.static
			out := Run(d)
			require.InDelta(t, tt.want, *out.SummarySignals.AccessibilityScore, 0.001)
			rec := out.Imputed[FieldAccessibilityScore]
			require.Equal(t, tt.estimated, rec.Estimated)
			require.Contains(t, rec.Method+rec.Reason, tt.contains)
		})
	}
}

func TestSecurityScore(t *testing.T) {
	t.Parallel()

	d := draft()
	d.Security = audit.Security{ContentSecurityPolicy: true, XFrameOptions: true}
	out := Run(d)
	require.InDelta(t, 67, *out.SummarySignals.SecurityScore, 0.001)

	d.Security = audit.Security{ContentSecurityPolicy: true, StrictTransportSecurity: true, XFrameOptions: true}
	require.InDelta(t, 100, *Run(d).SummarySignals.SecurityScore, 0.001)

	d.SummarySignals.SecurityScore = audit.FloatPtr(12)
	kept := Run(d)
	require.InDelta(t, 12, *kept.SummarySignals.SecurityScore, 0.001)
	require.NotContains(t, kept.Imputed, FieldSecurityScore)
}

func TestSEOChecklist(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 100, *Run(draft()).SummarySignals.SEOScore, 0.001)

	d := draft()
	d.SEO.MetaDescription = ""
	d.SEO.Keywords = nil
	require.InDelta(t, 60, *Run(d).SummarySignals.SEOScore, 0.001)

	invalid := draft()
	invalid.SummarySignals.SEOScore = audit.FloatPtr(150)
	out := Run(invalid)
	require.InDelta(t, 100, *out.SummarySignals.SEOScore, 0.001)
	require.Equal(t, 1, hasLine(out.ImputationLog, "Invalid: summarySignals.seoScore was 150"))

	nan := draft()
	nan.SummarySignals.SEOScore = audit.FloatPtr(math.NaN())
	require.InDelta(t, 100, *Run(nan).SummarySignals.SEOScore, 0.001)

	kept := draft()
	kept.SummarySignals.SEOScore = audit.FloatPtr(40)
	require.InDelta(t, 40, *Run(kept).SummarySignals.SEOScore, 0.001)
}

func TestClampAndCoerce(t *testing.T) {
	t.Parallel()

	d := draft()
	d.Performance.PerformanceScore = audit.FloatPtr(130)
	d.Performance.SEOScore = audit.FloatPtr(-4)
	d.Accessibility.StaticScore = audit.FloatPtr(math.NaN())
	d.Performance.CLS = audit.FloatPtr(math.Inf(1))
	out := Run(d)

	require.InDelta(t, 100, *out.Performance.PerformanceScore, 0.001)
	require.InDelta(t, 0, *out.Performance.SEOScore, 0.001)
	require.Nil(t, out.Accessibility.StaticScore)
	require.Nil(t, out.Performance.CLS)
	require.Equal(t, 1, hasLine(out.ImputationLog, "Clamp: performance.performanceScore was 130"))
	require.Equal(t, 1, hasLine(out.ImputationLog, "Coerce: accessibility.staticScore was NaN"))
	require.Equal(t, 1, hasLine(out.ImputationLog, "Coerce: performance.cls was +Inf"))
}

func TestSummarySignalsAlwaysInRange(t *testing.T) {
	t.Parallel()

	d := draft()
	d.Performance = audit.Performance{
		PerformanceScore:   audit.FloatPtr(math.Inf(-1)),
		AccessibilityScore: audit.FloatPtr(1e9),
	}
	d.Accessibility.StaticScore = audit.FloatPtr(-50)
	d.SummarySignals.SEOScore = audit.FloatPtr(math.NaN())
	d.Resources = &audit.ResourceSummary{TotalJSKB: audit.FloatPtr(math.NaN())}
	out := Run(d)

	for name, v := range map[string]*float64{
		"seo":           out.SummarySignals.SEOScore,
		"accessibility": out.SummarySignals.AccessibilityScore,
		"security":      out.SummarySignals.SecurityScore,
		"performance":   out.SummarySignals.PerformanceEstimate,
	} {
		if v == nil {
			continue
		}
		require.False(t, math.IsNaN(*v), name)
		require.GreaterOrEqual(t, *v, 0.0, name)
		require.LessOrEqual(t, *v, 100.0, name)
	}
}

func TestTrafficImputation(t *testing.T) {
	t.Parallel()

	d := draft()
	d.SiteSignals.SitemapInfo = audit.SitemapInfo{}
	d.BusinessInsights.TrafficEstimate.EstimatedTrafficClass = audit.TrafficUnknown
	out := Run(d)
	require.Equal(t, audit.TrafficUnknown, out.BusinessInsights.TrafficEstimate.EstimatedTrafficClass)
	require.Equal(t, 1, hasLine(out.ImputationLog, "could not be guessed"))
	require.False(t, out.Imputed[FieldTraffic].Estimated)

	d.HTMLMetrics.InternalLinks = 1500
	out = Run(d)
	require.Equal(t, audit.TrafficUnknown, out.BusinessInsights.TrafficEstimate.EstimatedTrafficClass)
	require.Equal(t, 1, hasLine(out.ImputationLog, "could not be guessed"))
	require.Zero(t, hasLine(out.ImputationLog, "internal links"))

	d.SiteSignals.BlogLinks = 25
	d.SiteSignals.SitemapInfo.Pages = 50
	out = Run(d)
	require.Equal(t, audit.TrafficMid, out.BusinessInsights.TrafficEstimate.EstimatedTrafficClass)
	require.True(t, out.Imputed[FieldTraffic].Estimated)
	require.Equal(t, "guessed from sitemap pages 50, blog links 25", out.Imputed[FieldTraffic].Method)
}

func TestBusinessModelSecondary(t *testing.T) {
	t.Parallel()

	d := draft()
	d.BusinessInsights.BusinessModel.InferredModel = audit.ModelUnknown
	d.ConversionSignals.HasCheckout = true
	out := Run(d)
	require.Equal(t, audit.ModelEcommerce, out.BusinessInsights.BusinessModel.InferredModel)
	require.Equal(t, "secondary signal: checkout present", out.Imputed[FieldBusinessModel].Method)
	require.Contains(t, out.BusinessInsights.BusinessModel.Signals, "secondary: checkout present")

	d.ConversionSignals.HasCheckout = false
	d.BusinessInsights.Pricing.SubscriptionPricing = true
	require.Equal(t, audit.ModelSaaS, Run(d).BusinessInsights.BusinessModel.InferredModel)

	d.BusinessInsights.Pricing.SubscriptionPricing = false
	d.Hosting.Provider = "Shopify"
	require.Equal(t, audit.ModelEcommerce, Run(d).BusinessInsights.BusinessModel.InferredModel)

	d.Hosting.Provider = "Vercel"
	out = Run(d)
	require.Equal(t, audit.ModelUnknown, out.BusinessInsights.BusinessModel.InferredModel)
	require.Equal(t, 1, hasLine(out.ImputationLog, "inferredModel could not be guessed"))

	known := Run(draft())
	require.Equal(t, audit.ModelSaaS, known.BusinessInsights.BusinessModel.InferredModel)
	require.NotContains(t, known.Imputed, FieldBusinessModel)
}

func TestBusinessModelSecondaryAfterStricterThreshold(t *testing.T) {
	t.Parallel()

	conv := audit.ConversionSignals{HasCheckout: true}
	in := infer.Input{URL: "https://acme.test/", Domain: "acme.test", Conversion: conv}
	require.Equal(t, audit.ModelEcommerce, infer.New(infer.DefaultConfig()).Infer(in).BusinessModel.InferredModel)

	strict := infer.New(infer.Config{ModelThreshold: 3}).Infer(in)
	require.Equal(t, audit.ModelUnknown, strict.BusinessModel.InferredModel)

	d := draft()
	d.ConversionSignals = conv
	d.BusinessInsights = strict
	out := Run(d)
	require.Equal(t, audit.ModelEcommerce, out.BusinessInsights.BusinessModel.InferredModel)
	require.Equal(t, "secondary signal: checkout present", out.Imputed[FieldBusinessModel].Method)
	require.Equal(t, 1, hasLine(out.ImputationLog, "guessed as ecommerce from secondary signal: checkout present"))
}

func TestMissingFieldsLogged(t *testing.T) {
	t.Parallel()

	d := draft()
	d.Metadata = audit.Metadata{}
	d.SEO.Canonical = ""
	d.SEO.Title = ""
	out := Run(d)
	for _, line := range []string{
		"Missing: canonical URL not found",
		"Missing: scraped title not found",
		"Missing: Open Graph title not found",
		"Missing: HTML title not found",
	} {
		require.Equal(t, 1, hasLine(out.ImputationLog, line), line)
	}

	d = draft()
	d.Metadata.OGTitle = ""
	out = Run(d)
	require.Equal(t, 1, hasLine(out.ImputationLog, "Missing:"))
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	d := draft()
	d.Metadata = audit.Metadata{}
	d.Performance.PerformanceScore = audit.FloatPtr(130)
	d.Performance.AccessibilityScore = audit.FloatPtr(95)
	d.Accessibility.StaticScore = audit.FloatPtr(60)
	d.ConversionSignals.HasCheckout = true
	d.BusinessInsights.BusinessModel.InferredModel = audit.ModelUnknown
	d.BusinessInsights.TrafficEstimate.EstimatedTrafficClass = audit.TrafficUnknown
	d.SiteSignals.SitemapInfo = audit.SitemapInfo{}
	d.BusinessInsights.MarginEstimate = audit.MarginEstimate{Low: 20, High: 60, Estimate: 40.123}

	once := Run(d)
	twice := Run(once)
	require.Equal(t, once, twice)
	require.InDelta(t, 40.12, once.BusinessInsights.MarginEstimate.Estimate, 0.0001)
}

func TestRunDoesNotMutateDraft(t *testing.T) {
	t.Parallel()

	d := draft()
	d.Resources = &audit.ResourceSummary{DOMNodes: audit.IntPtr(5)}
	d.ImputationLog = []string{"earlier"}
	d.BusinessInsights.BusinessModel.InferredModel = audit.ModelUnknown
	d.BusinessInsights.BusinessModel.Signals = make([]string, 0, 8)
	d.ConversionSignals.HasCheckout = true

	out := Run(d)
	require.Nil(t, d.Resources.TotalImageKB)
	require.Equal(t, []string{"earlier"}, d.ImputationLog)
	require.Nil(t, d.Imputed)
	require.Empty(t, d.BusinessInsights.BusinessModel.Signals)
	require.Equal(t, []string{"secondary: checkout present"}, out.BusinessInsights.BusinessModel.Signals)
	require.Equal(t, "earlier", out.ImputationLog[0])
	require.NotNil(t, out.Warnings)
}

func TestApplyRecoversPanics(t *testing.T) {
	t.Parallel()

	b := newBuilder(audit.Result{}, zap.NewNop())
	b.apply("boom", func(*builder) { panic("bad state") })
	require.Equal(t, []string{"sanitize: boom rule failed: bad state"}, b.res.ImputationLog)
}

func TestDecodeCoercesStrings(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"url": "https://acme.test/",
		"performance": {"performanceScore": "87.5", "cls": "n/a", "lcpMs": 1200},
		"htmlMetrics": {"images": "10", "scripts": 3.6},
		"summarySignals": {"seoScore": null},
		"imputationLog": ["from upstream"]
	}`)
	res, err := Decode(raw)
	require.NoError(t, err)
	require.InDelta(t, 87.5, *res.Performance.PerformanceScore, 0.001)
	require.Nil(t, res.Performance.CLS)
	require.InDelta(t, 1200, *res.Performance.LCPMs, 0.001)
	require.Equal(t, 10, res.HTMLMetrics.Images)
	require.Equal(t, 4, res.HTMLMetrics.Scripts)
	require.Equal(t, []string{
		"from upstream",
		`Coerce: htmlMetrics.images converted from string "10" to 10`,
		`Coerce: performance.cls value "n/a" is not numeric; set to null`,
		`Coerce: performance.performanceScore converted from string "87.5" to 87.5`,
	}, res.ImputationLog)

	out := Run(res)
	require.InDelta(t, 87.5, *out.SummarySignals.PerformanceEstimate, 0.001)

	_, err = Decode([]byte(`{not json`))
	require.Error(t, err)
}

func TestDecodeNullsMismatchedShapes(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"url": "https://acme.test/",
		"summarySignals": {"seoScore": {"x": 1}},
		"seo": {"keywords": "crm, sales"},
		"metadata": {"title": 42, "description": "Kept"},
		"warnings": "one warning"
	}`)
	res, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "https://acme.test/", res.URL)
	require.Nil(t, res.SummarySignals.SEOScore)
	require.Empty(t, res.SEO.Keywords)
	require.Empty(t, res.Metadata.Title)
	require.Equal(t, "Kept", res.Metadata.Description)
	require.Empty(t, res.Warnings)
	require.Equal(t, 1, hasLine(res.ImputationLog, "summarySignals.seoScore has non-numeric type"))
	require.Equal(t, 1, hasLine(res.ImputationLog, "Coerce: seo.keywords could not be coerced from string"))
	require.Equal(t, 1, hasLine(res.ImputationLog, "Coerce: metadata.title could not be coerced from number"))
	require.Equal(t, 1, hasLine(res.ImputationLog, "Coerce: warnings could not be coerced"))

	out := Run(res)
	require.NotNil(t, out.SummarySignals.SEOScore)
}
