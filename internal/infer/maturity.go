package infer

import (
	"fmt"

	"github.com/JakeFAU/site-audit/internal/audit"
)

var (
	caseStudyTerms   = words(`case stud(?:y|ies)|customer stories|success stories|testimonials`)
	contactSaleTerms = words(`contact sales|talk to sales|speak (?:to|with) (?:an expert|sales)`)
	demoTerms        = words(`book a demo|request a demo|schedule a demo|get a demo|watch (?:a |the )?demo`)
)

type points struct {
	score   int
	signals []string
}

func (p *points) add(on bool, n int, signal string) {
	if !on {
		return
	}
	p.score += n
	p.signals = append(p.signals, fmt.Sprintf("%s (+%d)", signal, n))
}

func (p points) maturity() audit.Maturity {
	if p.signals == nil {
		p.signals = []string{}
	}
	return audit.Maturity{Level: band(p.score), Score: p.score, Signals: p.signals}
}

// SalesMaturity scores the sales apparatus: proof, sales contact, chat, CRM, pricing, demos.
func SalesMaturity(s scope) audit.Maturity {
	var p points
	p.add(s.says(caseStudyTerms), 1, "case studies")
	p.add(s.says(contactSaleTerms), 2, "contact sales")
	p.add(s.SupportWidgets.LiveChat, 2, "live chat")
	p.add(s.CRMIndicators.Present, 2, "crm")
	p.add(s.HasPricingPage, 1, "pricing page")
	p.add(s.says(demoTerms), 2, "demo request")
	return p.maturity()
}

// MarketingMaturity scores content volume, social reach, metadata polish, and tracking.
func MarketingMaturity(s scope) audit.Maturity {
	var p points
	p.add(s.BlogLinks >= 10, 2, "blog volume")
	p.add(s.BlogLinks > 0 && s.BlogLinks < 10, 1, "blog present")
	p.add(s.Social.ProfileCount >= 3, 2, "social profiles")
	p.add(s.Social.ProfileCount > 0 && s.Social.ProfileCount < 3, 1, "social profile")

	og := 0
	for _, v := range []string{s.Metadata.OGTitle, s.Metadata.OGDescription, s.Metadata.OGImage} {
		if v != "" {
			og++
		}
	}
	p.add(og == 3, 2, "open graph complete")
	p.add(og > 0 && og < 3, 1, "open graph partial")
	p.add(s.tech("analytics"), 1, "analytics")
	p.add(s.tech("tagmanager"), 1, "tag manager")
	p.add(s.Conversion.NewsletterSignup, 1, "newsletter")
	p.add(s.CRMIndicators.Present, 1, "marketing automation")
	return p.maturity()
}
