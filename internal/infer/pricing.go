package infer

import (
	"regexp"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Pricing strategies.
const (
	StrategyFreemium     = "freemium"
	StrategySubscription = "subscription"
	StrategyContactSales = "contact-sales"
	StrategyTransparent  = "transparent"
	StrategyUndisclosed  = "undisclosed"
)

var (
	numericPrice      = regexp.MustCompile(`(?i)[$€£¥₹]\s?\d+(?:[.,]\d{2})?|\b\d+(?:[.,]\d{2})?\s?(?:usd|eur|gbp|cad|aud)\b`)
	enterprisePricing = words(`contact sales|talk to sales|custom pricing|custom quote|request a quote|get a quote|enterprise plan`)
	subscriptionTerms = regexp.MustCompile(`(?i)per month|per year|per user|/\s?mo(?:nth)?\b|/\s?yr\b|/\s?year\b|billed (?:monthly|annually|yearly)|monthly plan|annual plan|subscription`)
	freeTrialTerms    = words(`free trial|try (?:it )?(?:for )?free|\d+-day trial|start (?:your )?trial`)
	freemiumTerms     = words(`free plan|free forever|free tier|freemium|free for ever|always free`)
)

// Pricing detects pricing-strategy markers over the page text.
func Pricing(s scope) audit.Pricing {
	p := audit.Pricing{
		HasPricingPage:      s.HasPricingPage,
		TransparentPricing:  numericPrice.MatchString(s.hay),
		EnterprisePricing:   s.says(enterprisePricing),
		SubscriptionPricing: subscriptionTerms.MatchString(s.hay),
		FreeTrial:           s.says(freeTrialTerms),
		Freemium:            s.says(freemiumTerms),
		Signals:             []string{},
	}
	flags := []struct {
		on   bool
		name string
	}{
		{p.HasPricingPage, "pricing page linked"},
		{p.TransparentPricing, "numeric prices shown"},
		{p.EnterprisePricing, "contact-sales pricing"},
		{p.SubscriptionPricing, "subscription cadence"},
		{p.FreeTrial, "free trial offered"},
		{p.Freemium, "free plan offered"},
	}
	for _, f := range flags {
		if f.on {
			p.Score++
			p.Signals = append(p.Signals, f.name)
		}
	}

	switch {
	case p.Freemium:
		p.Strategy = StrategyFreemium
	case p.SubscriptionPricing:
		p.Strategy = StrategySubscription
	case p.EnterprisePricing && !p.TransparentPricing:
		p.Strategy = StrategyContactSales
	case p.TransparentPricing:
		p.Strategy = StrategyTransparent
	default:
		p.Strategy = StrategyUndisclosed
	}
	return p
}
