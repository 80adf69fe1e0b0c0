package infer

import (
	"fmt"
	"math"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// MarginBands are the base gross-margin ranges in percent.
var MarginBands = map[string][2]float64{
	audit.ModelSaaS:        {70, 90},
	audit.ModelEcommerce:   {20, 60},
	audit.ModelMarketplace: {10, 40},
	audit.ModelAgency:      {30, 60},
	audit.ModelConsulting:  {30, 60},
	audit.ModelMedia:       {10, 40},
	audit.ModelUnknown:     {20, 60},
}

var defaultBand = [2]float64{20, 60}

const heavyScriptKB = 1000

var modernFrameworks = map[string]bool{
	"Next.js": true, "Nuxt": true, "Gatsby": true, "React": true, "Vue.js": true, "Angular": true, "Svelte": true,
}

// Margin looks up the model's band and shifts it by tech and resource signals.
func Margin(model string, in Input) audit.MarginEstimate {
	base, ok := MarginBands[model]
	if !ok {
		base = defaultBand
	}
	out := audit.MarginEstimate{
		Signals: []string{fmt.Sprintf("base band %s: %.0f-%.0f%%", model, base[0], base[1])},
	}
	adj := 0.0
	if platform, ok := in.TechStack["ecommerce"]; ok {
		adj -= 5
		out.Signals = append(out.Signals, "commerce platform "+platform+": -5")
	}
	if fw, ok := in.TechStack["frontend"]; ok && modernFrameworks[fw] {
		adj += 5
		out.Signals = append(out.Signals, "modern framework "+fw+": +5")
	}
	if in.Resources != nil && in.Resources.TotalJSKB != nil && *in.Resources.TotalJSKB > heavyScriptKB {
		adj -= 5
		out.Signals = append(out.Signals, fmt.Sprintf("script payload %.0fKB: -5", *in.Resources.TotalJSKB))
	}
	if in.Hosting.CDN || in.TechStack["cdn"] != "" {
		adj += 2
		out.Signals = append(out.Signals, "cdn: +2")
	}
	out.Low = clamp(base[0]+adj, 0, 100)
	out.High = clamp(base[1]+adj, 0, 100)
	out.Estimate = (out.Low + out.High) / 2
	out.Score = int(math.Round(out.Estimate))
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
