package infer

import (
	"github.com/JakeFAU/site-audit/internal/audit"
)

// ModelPriority breaks ties between matching categories.
var ModelPriority = []string{
	audit.ModelEcommerce,
	audit.ModelSaaS,
	audit.ModelMarketplace,
	audit.ModelEnterprise,
	audit.ModelAgency,
	audit.ModelMedia,
	audit.ModelAppProduct,
	audit.ModelConsulting,
}

type rule struct {
	signal string
	weight int
	match  func(scope) bool
}

func text(pattern string) func(scope) bool {
	re := words(pattern)
	return func(s scope) bool { return s.says(re) }
}

var modelRules = map[string][]rule{
	audit.ModelEcommerce: {
		{"cart", 2, func(s scope) bool { return s.Conversion.HasCart }},
		{"checkout", 2, func(s scope) bool { return s.Conversion.HasCheckout }},
		{"commerce platform", 2, func(s scope) bool { return s.tech("ecommerce") }},
		{"product structured data", 2, func(s scope) bool { return s.hasType("Product", "Offer", "AggregateOffer") }},
		{"shopping language", 1, text(`add to cart|add to bag|shop now|free shipping|in stock|out of stock`)},
		{"payment provider", 1, func(s scope) bool { return s.tech("payments") }},
	},
	audit.ModelSaaS: {
		{"free trial", 2, text(`free trial|start (?:your )?trial|\d+-day trial`)},
		{"saas language", 2, text(`saas|software as a service|cloud-based|cloud platform`)},
		{"software structured data", 2, func(s scope) bool { return s.hasType("SoftwareApplication", "WebApplication") }},
		{"subscription cadence", 1, text(`per month|per user|billed (?:monthly|annually)|/mo`)},
		{"pricing page", 1, func(s scope) bool { return s.HasPricingPage }},
		{"signup cta", 1, text(`sign ?up|get started|create (?:an |your )?account`)},
		{"product language", 1, text(`dashboard|integrations|workflow|automation|api`)},
	},
	audit.ModelMarketplace: {
		{"marketplace language", 2, text(`marketplace`)},
		{"seller onboarding", 2, text(`become a (?:seller|vendor|host)|sell on|list your (?:property|product|item)s?|start selling`)},
		{"two-sided language", 1, text(`sellers|vendors|buyers|hosts and guests`)},
	},
	audit.ModelEnterprise: {
		{"contact sales", 2, text(`contact sales|talk to sales|request a demo|book a demo|schedule a demo`)},
		{"enterprise language", 1, text(`enterprise`)},
		{"compliance", 1, text(`soc ?2|iso ?27001|hipaa|fedramp|sso|saml`)},
		{"large customers", 1, text(`fortune 500|global brands|leading organizations`)},
	},
	audit.ModelAgency: {
		{"agency language", 2, text(`agency|studio`)},
		{"portfolio", 1, text(`our work|portfolio|case studies|our clients`)},
		{"services", 1, text(`our services|branding|web design|digital marketing`)},
	},
	audit.ModelMedia: {
		{"article structured data", 2, func(s scope) bool { return s.hasType("Article", "NewsArticle", "BlogPosting") }},
		{"article page", 1, func(s scope) bool { return s.Conversion.PageType == "article" }},
		{"blog volume", 1, func(s scope) bool { return s.BlogLinks > 20 }},
		{"editorial language", 1, text(`latest news|breaking|editorial|magazine|newsroom|opinion`)},
	},
	audit.ModelAppProduct: {
		{"app store links", 2, text(`app store|google play|download (?:the|our) app`)},
		{"app structured data", 2, func(s scope) bool { return s.hasType("MobileApplication") }},
		{"mobile language", 1, text(`ios|android|iphone`)},
	},
	audit.ModelConsulting: {
		{"consulting language", 2, text(`consulting|consultancy|consultants`)},
		{"consultation cta", 2, text(`free consultation|schedule a consultation|book a consultation`)},
		{"advisory language", 1, text(`advisory|advisors|strategy`)},
	},
}

var (
	b2bVocabulary = words(`b2b|for teams|for business(?:es)?|enterprise|saas|our clients|roi|workflow|solutions for|companies|organizations`)
	b2cVocabulary = words(`b2c|for you|your family|free shipping|gift|gifts|personal|lifestyle|shop now|add to cart`)
)

// BusinessModel scores every category. A category matches when its score reaches threshold;
// the first match in ModelPriority wins.
func BusinessModel(s scope, threshold int) audit.BusinessModel {
	out := audit.BusinessModel{
		InferredModel: audit.ModelUnknown,
		Audience:      "unknown",
		Scores:        map[string]int{},
		Signals:       []string{},
	}
	matched := map[string][]string{}
	for _, model := range ModelPriority {
		score := 0
		for _, r := range modelRules[model] {
			if r.match(s) {
				score += r.weight
				matched[model] = append(matched[model], r.signal)
			}
		}
		out.Scores[model] = score
	}
	for _, model := range ModelPriority {
		if out.Scores[model] >= threshold {
			out.InferredModel = model
			out.Score = out.Scores[model]
			for _, sig := range matched[model] {
				out.Signals = append(out.Signals, model+": "+sig)
			}
			break
		}
	}

	switch {
	case s.says(b2bVocabulary):
		out.Audience = "B2B"
	case s.says(b2cVocabulary):
		out.Audience = "B2C"
	}
	return out
}
