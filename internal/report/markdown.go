package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/JakeFAU/site-audit/internal/audit"
)

const notAvailable = "n/a"

// MarkdownWriter emits a short human digest: headline scores, business insights, tech stack,
// warnings and the imputation log.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter builds a MarkdownWriter.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(res audit.Result) error {
	md := markdown.NewMarkdown(w.output)

	writeHeader(md, res)
	writeScores(md, res)
	writeInsights(md, res)
	writeModelChart(md, res.BusinessInsights.BusinessModel)
	writeTech(md, res)
	writeWarnings(md, res.Warnings)
	writeImputations(md, res.ImputationLog)

	md.HorizontalRule()
	md.PlainTextf("*Schema version %s, analysis %s*", res.Version, res.ID)

	if err := md.Build(); err != nil {
		return fmt.Errorf("build markdown report: %w", err)
	}
	return nil
}

func writeHeader(md *markdown.Markdown, res audit.Result) {
	md.H1("Site audit: " + res.Domain)
	md.PlainText("")
	fetchedWith := "HTTP probe"
	if res.Fetch.UsedBrowser {
		fetchedWith = "headless browser (" + res.Fetch.EscalationReason + ")"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", res.URL},
			{"Final URL", res.Fetch.FinalURL},
			{"Analyzed", res.AnalyzedAt.Format("2006-01-02 15:04:05 MST")},
			{"Fetched with", fetchedWith},
			{"Title", orDash(res.Metadata.Title)},
			{"Page type", orDash(res.SiteSignals.PageType)},
		},
	})
	md.PlainText("")
}

func writeScores(md *markdown.Markdown, res audit.Result) {
	md.H2("Scores")
	md.PlainText("")
	s := res.SummarySignals
	md.Table(markdown.TableSet{
		Header: []string{"Signal", "Score", "Source"},
		Rows: [][]string{
			{"SEO", score(s.SEOScore), source(res, "seoScore")},
			{"Accessibility", score(s.AccessibilityScore), source(res, "accessibilityScore")},
			{"Security", score(s.SecurityScore), source(res, "securityScore")},
			{"Performance", score(s.PerformanceEstimate), source(res, "performanceEstimate")},
		},
	})
	md.PlainText("")
}

func writeInsights(md *markdown.Markdown, res audit.Result) {
	bi := res.BusinessInsights
	md.H2("Business insights")
	md.PlainText("")

	competitors := make([]string, 0, len(bi.Competitors.List))
	for _, c := range bi.Competitors.List {
		competitors = append(competitors, c.Name)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Insight", "Value"},
		Rows: [][]string{
			{"Business model", bi.BusinessModel.InferredModel},
			{"Audience", bi.BusinessModel.Audience},
			{"Pricing strategy", orDash(bi.Pricing.Strategy)},
			{"Gross margin", fmt.Sprintf("%s%% (%s–%s%%)",
				decimal(bi.MarginEstimate.Estimate), decimal(bi.MarginEstimate.Low), decimal(bi.MarginEstimate.High))},
			{"Traffic", orDash(bi.TrafficEstimate.EstimatedTrafficClass)},
			{"Sales maturity", orDash(bi.SalesMaturity.Level)},
			{"Marketing maturity", orDash(bi.MarketingMaturity.Level)},
			{"Target market", orDash(bi.TargetMarket.Scope)},
			{"Product complexity", orDash(bi.ProductComplexity.Level)},
			{"Competitors", orDash(strings.Join(competitors, ", "))},
			{"Moat signals", orDash(strings.Join(bi.MoatSignals.Signals, ", "))},
		},
	})
	md.PlainText("")
}

func writeModelChart(md *markdown.Markdown, bm audit.BusinessModel) {
	models := make([]string, 0, len(bm.Scores))
	for model, points := range bm.Scores {
		if points > 0 {
			models = append(models, model)
		}
	}
	if len(models) == 0 {
		return
	}
	slices.Sort(models)
	chart := piechart.NewPieChart(io.Discard,
		piechart.WithTitle("Business model scores"),
		piechart.WithShowData(true))
	for _, model := range models {
		chart.LabelAndIntValue(model, uint64(bm.Scores[model]))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func writeTech(md *markdown.Markdown, res audit.Result) {
	md.H2("Tech stack")
	md.PlainText("")
	stack := res.SiteSignals.TechStack
	if len(stack) == 0 {
		md.PlainText("No known technologies detected.")
		md.PlainText("")
		return
	}
	categories := make([]string, 0, len(stack))
	for c := range stack {
		categories = append(categories, c)
	}
	slices.Sort(categories)
	items := make([]string, 0, len(categories))
	for _, c := range categories {
		items = append(items, c+": "+stack[c])
	}
	md.BulletList(items...)
	md.PlainText("")
}

func writeWarnings(md *markdown.Markdown, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	md.H2("Warnings")
	md.PlainText("")
	md.Warningf("%d part(s) of this analysis degraded; affected fields hold neutral defaults.", len(warnings))
	md.PlainText("")
	md.BulletList(warnings...)
	md.PlainText("")
}

func writeImputations(md *markdown.Markdown, log []string) {
	md.H2("Imputation log")
	md.PlainText("")
	if len(log) == 0 {
		md.PlainText("No values were imputed.")
		md.PlainText("")
		return
	}
	md.BulletList(log...)
	md.PlainText("")
}

func score(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return decimal(*v)
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func source(res audit.Result, field string) string {
	rec, ok := res.Imputed[field]
	switch {
	case !ok:
		return "measured"
	case rec.Estimated:
		return "estimated"
	case rec.Reason != "":
		return rec.Reason
	default:
		return "derived"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
