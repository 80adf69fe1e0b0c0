package infer

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Competitor detection methods.
const (
	MethodKeyword     = "keyword-table"
	MethodVsLink      = "vs-link"
	MethodAlternative = "alternative-text"
)

const maxCompetitors = 20

type competitorEntry struct {
	label  string
	phrase *regexp.Regexp
	names  []string
}

func entry(pattern string, names ...string) competitorEntry {
	label, _, _ := strings.Cut(pattern, "|")
	return competitorEntry{label: label, phrase: words(pattern), names: names}
}

var competitorTable = []competitorEntry{
	entry(`crm|customer relationship management`, "Salesforce", "HubSpot", "Pipedrive"),
	entry(`online store|ecommerce|e-commerce`, "Shopify", "BigCommerce", "WooCommerce"),
	entry(`project management|task management`, "Asana", "Trello", "Monday.com"),
	entry(`email marketing|newsletter platform`, "Mailchimp", "Klaviyo", "ConvertKit"),
	entry(`product analytics|web analytics`, "Google Analytics", "Mixpanel", "Amplitude"),
	entry(`payments|payment processing|checkout api`, "Stripe", "PayPal", "Adyen"),
	entry(`website builder|no-code`, "Wix", "Squarespace", "Webflow"),
	entry(`help desk|helpdesk|customer support|live chat`, "Zendesk", "Intercom", "Freshdesk"),
	entry(`video conferencing|video calls|webinars`, "Zoom", "Google Meet", "Microsoft Teams"),
	entry(`accounting|bookkeeping|invoicing`, "QuickBooks", "Xero", "FreshBooks"),
	entry(`design tool|prototyping|whiteboard`, "Figma", "Canva", "Miro"),
	entry(`team chat|messaging app`, "Slack", "Microsoft Teams", "Discord"),
	entry(`note-taking|knowledge base|wiki`, "Notion", "Confluence", "Evernote"),
	entry(`cloud hosting|web hosting`, "AWS", "DigitalOcean", "Vercel"),
	entry(`food delivery`, "DoorDash", "Uber Eats", "Grubhub"),
	entry(`ride sharing|ridesharing`, "Uber", "Lyft"),
	entry(`vacation rentals|short-term rentals`, "Airbnb", "Vrbo", "Booking.com"),
	entry(`streaming service|video streaming`, "Netflix", "Hulu", "Disney+"),
}

var (
	vsLink          = regexp.MustCompile(`(?i)(?:^|[/-])vs[-_]([a-z0-9][a-z0-9-]*[a-z0-9])`)
	alternativeText = regexp.MustCompile(`\b[Aa]lternatives? (?:to|for) ([A-Z][A-Za-z0-9.+]*(?: [A-Z][A-Za-z0-9.+]*)?)`)
)

// Competitors collects named competitors from the keyword table (matched against keywords,
// visible text and raw markup), comparison links, and
// "alternative to X" phrasing. The list is deduplicated case-insensitively, excludes the
// site's own brand, and is capped.
func Competitors(s scope) audit.Competitors {
	out := audit.Competitors{List: []audit.Competitor{}, Signals: []string{}}
	own := brand(s.Domain)
	seen := map[string]bool{}
	add := func(name, method string) {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] || len(out.List) >= maxCompetitors {
			return
		}
		if own != "" && strings.ReplaceAll(key, " ", "") == own {
			return
		}
		seen[key] = true
		out.List = append(out.List, audit.Competitor{Name: name, Method: method})
	}

	for _, e := range competitorTable {
		if s.mentions(e.phrase) {
			out.Signals = append(out.Signals, "category match: "+e.label)
			for _, n := range e.names {
				add(n, MethodKeyword)
			}
		}
	}

	title := cases.Title(language.English)
	for _, href := range s.Hrefs {
		m := vsLink.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		out.Signals = append(out.Signals, "comparison link: "+href)
		add(title.String(strings.ReplaceAll(m[1], "-", " ")), MethodVsLink)
	}

	for _, m := range alternativeText.FindAllStringSubmatch(s.Text, -1) {
		out.Signals = append(out.Signals, "alternative phrasing: "+m[0])
		add(m[1], MethodAlternative)
	}

	out.Score = min(100, len(out.List)*5)
	return out
}

// brand is the registrable label of a domain, e.g. "acme" for www.acme.co.uk.
func brand(domain string) string {
	labels := strings.Split(strings.TrimPrefix(strings.ToLower(domain), "www."), ".")
	switch {
	case len(labels) >= 3 && len(labels[len(labels)-1]) == 2 && len(labels[len(labels)-2]) <= 3:
		return labels[len(labels)-3]
	case len(labels) >= 2:
		return labels[len(labels)-2]
	default:
		return labels[0]
	}
}
