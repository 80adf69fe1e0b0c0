// Package audit defines the digital-audit document and the types shared by the
// fetch, extraction, inference, and sanitize layers.
package audit

import (
	"net/http"
	"time"
)

// SchemaVersion is stamped on every Result.
const SchemaVersion = "1.0.0"

// Business model categories.
const (
	ModelEcommerce   = "ecommerce"
	ModelSaaS        = "saas"
	ModelMarketplace = "marketplace"
	ModelAgency      = "agency"
	ModelMedia       = "media"
	ModelAppProduct  = "app_product"
	ModelEnterprise  = "enterprise"
	ModelConsulting  = "consulting"
	ModelUnknown     = "unknown"
)

// Traffic bands.
const (
	TrafficHigh    = "High (500k+/mo)"
	TrafficMid     = "Mid (50k–300k/mo)"
	TrafficSmall   = "Small (<50k/mo)"
	TrafficUnknown = "Unknown"
)

// Maturity levels.
const (
	LevelLow     = "Low"
	LevelMedium  = "Medium"
	LevelHigh    = "High"
	LevelUnknown = "Unknown"
)

// Options tunes a single analysis.
type Options struct {
	RunDeepAudit     bool `json:"runDeepAudit"`
	CollectResources bool `json:"collectResources"`
}

// Result is the root audit document. Every top-level key is always serialized.
type Result struct {
	URL               string                      `json:"url"`
	Domain            string                      `json:"domain"`
	ID                string                      `json:"id"`
	Version           string                      `json:"version"`
	Fetch             FetchInfo                   `json:"fetch"`
	SiteSignals       SiteSignals                 `json:"siteSignals"`
	Security          Security                    `json:"security"`
	Hosting           Hosting                     `json:"hosting"`
	HTMLMetrics       HTMLMetrics                 `json:"htmlMetrics"`
	Metadata          Metadata                    `json:"metadata"`
	SEO               SEO                         `json:"seo"`
	Content           Content                     `json:"content"`
	Resources         *ResourceSummary            `json:"resources"`
	Performance       Performance                 `json:"performance"`
	Social            Social                      `json:"social"`
	ConversionSignals ConversionSignals           `json:"conversionSignals"`
	SupportWidgets    SupportWidgets              `json:"supportWidgets"`
	CRMIndicators     CRMIndicators               `json:"crmIndicators"`
	Accessibility     Accessibility               `json:"accessibility"`
	SummarySignals    SummarySignals              `json:"summarySignals"`
	BusinessInsights  BusinessInsights            `json:"businessInsights"`
	Warnings          []string                    `json:"warnings"`
	Imputed           map[string]ImputationRecord `json:"_imputed"`
	ImputationLog     []string                    `json:"imputationLog"`
	AnalyzedAt        time.Time                   `json:"analyzedAt"`
}

// ImputationRecord describes how a field value was obtained when it was not measured directly.
type ImputationRecord struct {
	Estimated bool   `json:"estimated"`
	Method    string `json:"method,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// FetchInfo describes how the HTML was obtained.
type FetchInfo struct {
	FinalURL         string `json:"finalUrl"`
	StatusCode       int    `json:"statusCode"`
	UsedBrowser      bool   `json:"usedBrowser"`
	EscalationReason string `json:"escalationReason,omitempty"`
	HTMLBytes        int    `json:"htmlBytes"`
	HTMLSHA256       string `json:"htmlSha256"`
	DurationMs       int64  `json:"durationMs"`
}

// SiteSignals groups raw page-level signals.
type SiteSignals struct {
	PageType            string            `json:"pageType"`
	TechStack           map[string]string `json:"techStack"`
	Keywords            []string          `json:"keywords"`
	StructuredData      []map[string]any  `json:"structuredData"`
	StructuredDataTypes []string          `json:"structuredDataTypes"`
	SitemapInfo         SitemapInfo       `json:"sitemapInfo"`
	BlogLinks           int               `json:"blogLinks"`
	HasPricingPage      bool              `json:"hasPricingPage"`
	Language            string            `json:"language"`
}

// SitemapInfo reports what the sitemap/robots probe found.
type SitemapInfo struct {
	Found        bool     `json:"found"`
	URL          string   `json:"url,omitempty"`
	Pages        int      `json:"pages"`
	LastMod      string   `json:"lastmod,omitempty"`
	RobotsFound  bool     `json:"robotsFound"`
	CrawlAllowed bool     `json:"crawlAllowed"`
	Sitemaps     []string `json:"sitemaps,omitempty"`
}

// Security holds header presence flags. Values are never validated.
type Security struct {
	HTTPS                   bool `json:"https"`
	ContentSecurityPolicy   bool `json:"contentSecurityPolicy"`
	StrictTransportSecurity bool `json:"strictTransportSecurity"`
	XFrameOptions           bool `json:"xFrameOptions"`
	XXSSProtection          bool `json:"xXssProtection"`
}

// Hosting is the provider guess derived from response headers.
type Hosting struct {
	Provider string   `json:"provider"`
	CDN      bool     `json:"cdn"`
	Server   string   `json:"server,omitempty"`
	Signals  []string `json:"signals"`
}

// HTMLMetrics are static element counts over the parsed document.
type HTMLMetrics struct {
	Images           int `json:"images"`
	ImagesWithoutAlt int `json:"imagesWithoutAlt"`
	Scripts          int `json:"scripts"`
	ExternalScripts  int `json:"externalScripts"`
	Stylesheets      int `json:"stylesheets"`
	Links            int `json:"links"`
	InternalLinks    int `json:"internalLinks"`
	ExternalLinks    int `json:"externalLinks"`
	H1               int `json:"h1"`
	H2               int `json:"h2"`
	H3               int `json:"h3"`
	Forms            int `json:"forms"`
	Iframes          int `json:"iframes"`
	DOMNodes         int `json:"domNodes"`
	WordCount        int `json:"wordCount"`
	HTMLBytes        int `json:"htmlBytes"`
}

// Metadata is the canonical page metadata assembled by the metadata chain.
type Metadata struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Author        string `json:"author"`
	Image         string `json:"image"`
	Publisher     string `json:"publisher"`
	Language      string `json:"language"`
	Canonical     string `json:"canonical"`
	HTMLTitle     string `json:"htmlTitle"`
	OGTitle       string `json:"ogTitle"`
	OGDescription string `json:"ogDescription"`
	OGImage       string `json:"ogImage"`
	TwitterCard   string `json:"twitterCard"`
	Favicon       string `json:"favicon"`
	Viewport      string `json:"viewport"`
}

// SEO holds on-page SEO facts.
type SEO struct {
	Title             string   `json:"title"`
	TitleLength       int      `json:"titleLength"`
	MetaDescription   string   `json:"metaDescription"`
	DescriptionLength int      `json:"descriptionLength"`
	H1                []string `json:"h1"`
	Canonical         string   `json:"canonical"`
	RobotsMeta        string   `json:"robotsMeta"`
	HasSitemap        bool     `json:"hasSitemap"`
	Keywords          []string `json:"keywords"`
}

// Content summarises the visible text.
type Content struct {
	WordCount      int     `json:"wordCount"`
	ReadingMinutes float64 `json:"readingMinutes"`
	Excerpt        string  `json:"excerpt"`
}

// ResourceSummary aggregates the network activity of a rendered page.
// Numbers are nil when they could not be measured.
type ResourceSummary struct {
	DOMNodes           *int            `json:"domNodes"`
	ResourcesCount     *int            `json:"resourcesCount"`
	TotalImageKB       *float64        `json:"totalImageKB"`
	TotalJSKB          *float64        `json:"totalJsKB"`
	ThirdPartyRequests *int            `json:"thirdPartyRequests"`
	ThirdPartyHosts    *int            `json:"thirdPartyHosts"`
	ThirdPartyScripts  *int            `json:"thirdPartyScripts"`
	Entries            []ResourceEntry `json:"entries,omitempty"`
}

// ResourceEntry is one intercepted network response.
type ResourceEntry struct {
	URL      string      `json:"url"`
	Category string      `json:"category"`
	Status   int         `json:"status"`
	Bytes    *int64      `json:"bytes"`
	Headers  http.Header `json:"headers,omitempty"`
}

// Performance carries the external page-performance audit numbers.
type Performance struct {
	PerformanceScore   *float64 `json:"performanceScore"`
	AccessibilityScore *float64 `json:"accessibilityScore"`
	SEOScore           *float64 `json:"seoScore"`
	BestPracticesScore *float64 `json:"bestPracticesScore"`
	LCPMs              *float64 `json:"lcpMs"`
	CLS                *float64 `json:"cls"`
	TBTMs              *float64 `json:"tbtMs"`
	Source             string   `json:"source,omitempty"`
}

// Social lists discovered social profiles.
type Social struct {
	Profiles     map[string]string `json:"profiles"`
	ProfileCount int               `json:"profileCount"`
}

// ConversionSignals captures call-to-action and funnel markers.
type ConversionSignals struct {
	CTACount         int      `json:"ctaCount"`
	CTASamples       []string `json:"ctaSamples"`
	PageType         string   `json:"pageType"`
	HasCheckout      bool     `json:"hasCheckout"`
	HasCart          bool     `json:"hasCart"`
	Forms            int      `json:"forms"`
	NewsletterSignup bool     `json:"newsletterSignup"`
}

// SupportWidgets lists live-chat and helpdesk embeds.
type SupportWidgets struct {
	LiveChat  bool     `json:"liveChat"`
	Providers []string `json:"providers"`
}

// CRMIndicators lists CRM and marketing-automation embeds.
type CRMIndicators struct {
	Present   bool     `json:"present"`
	Providers []string `json:"providers"`
}

// Accessibility holds the static accessibility scan and the optional automated audit.
type Accessibility struct {
	ARIAElements       int              `json:"ariaElements"`
	ButtonsWithoutText int              `json:"buttonsWithoutText"`
	LinksWithoutText   int              `json:"linksWithoutText"`
	ImagesWithoutAlt   int              `json:"imagesWithoutAlt"`
	InputsWithoutLabel int              `json:"inputsWithoutLabel"`
	Landmarks          map[string]int   `json:"landmarks"`
	HasLangAttribute   bool             `json:"hasLangAttribute"`
	StaticScore        *float64         `json:"staticScore"`
	AuditViolations    *int             `json:"auditViolations"`
	Violations         []AuditViolation `json:"violations,omitempty"`
}

// AuditViolation is one rule failure reported by the automated accessibility auditor.
type AuditViolation struct {
	ID     string `json:"id"`
	Impact string `json:"impact"`
	Help   string `json:"help"`
	Nodes  int    `json:"nodes"`
}

// SummarySignals are the headline scores. Each is nil or within [0,100].
type SummarySignals struct {
	SEOScore            *float64 `json:"seoScore"`
	AccessibilityScore  *float64 `json:"accessibilityScore"`
	SecurityScore       *float64 `json:"securityScore"`
	PerformanceEstimate *float64 `json:"performanceEstimate"`
}

// BusinessInsights bundles the inference layer's judgments.
type BusinessInsights struct {
	BusinessModel     BusinessModel     `json:"businessModel"`
	Pricing           Pricing           `json:"pricing"`
	MarginEstimate    MarginEstimate    `json:"marginEstimate"`
	Competitors       Competitors       `json:"competitors"`
	TrafficEstimate   TrafficEstimate   `json:"trafficEstimate"`
	SalesMaturity     Maturity          `json:"salesMaturity"`
	MarketingMaturity Maturity          `json:"marketingMaturity"`
	TargetMarket      TargetMarket      `json:"targetMarket"`
	ProductComplexity ProductComplexity `json:"productComplexity"`
	MoatSignals       MoatSignals       `json:"moatSignals"`
}

// BusinessModel is the inferred category plus audience.
type BusinessModel struct {
	InferredModel string         `json:"inferredModel"`
	Audience      string         `json:"audience"`
	Score         int            `json:"score"`
	Scores        map[string]int `json:"scores"`
	Signals       []string       `json:"signals"`
}

// Pricing reports pricing-strategy booleans.
type Pricing struct {
	HasPricingPage      bool     `json:"hasPricingPage"`
	TransparentPricing  bool     `json:"transparentPricing"`
	EnterprisePricing   bool     `json:"enterprisePricing"`
	SubscriptionPricing bool     `json:"subscriptionPricing"`
	FreeTrial           bool     `json:"freeTrial"`
	Freemium            bool     `json:"freemium"`
	Strategy            string   `json:"strategy"`
	Score               int      `json:"score"`
	Signals             []string `json:"signals"`
}

// MarginEstimate is a gross-margin band in percent.
type MarginEstimate struct {
	Low      float64  `json:"low"`
	High     float64  `json:"high"`
	Estimate float64  `json:"estimate"`
	Score    int      `json:"score"`
	Signals  []string `json:"signals"`
}

// Competitor is one named competitor and how it was found.
type Competitor struct {
	Name   string `json:"name"`
	Method string `json:"method"`
}

// Competitors is the deduplicated competitor list.
type Competitors struct {
	List    []Competitor `json:"list"`
	Score   int          `json:"score"`
	Signals []string     `json:"signals"`
}

// TrafficEstimate is the monthly-traffic band.
type TrafficEstimate struct {
	EstimatedTrafficClass string   `json:"estimatedTrafficClass"`
	SitemapPages          int      `json:"sitemapPages"`
	BlogLinks             int      `json:"blogLinks"`
	Score                 int      `json:"score"`
	Signals               []string `json:"signals"`
}

// Maturity is a Low/Medium/High banding with its point score.
type Maturity struct {
	Level   string   `json:"level"`
	Score   int      `json:"score"`
	Signals []string `json:"signals"`
}

// TargetMarket describes language, regions, and currencies served.
type TargetMarket struct {
	Scope      string   `json:"scope"`
	Language   string   `json:"language"`
	Regions    []string `json:"regions"`
	Currencies []string `json:"currencies"`
	Score      int      `json:"score"`
	Signals    []string `json:"signals"`
}

// ProductComplexity bands how technical the offering appears.
type ProductComplexity struct {
	Level   string   `json:"level"`
	Score   int      `json:"score"`
	Signals []string `json:"signals"`
}

// MoatSignals lists defensibility markers.
type MoatSignals struct {
	Score   int      `json:"score"`
	Signals []string `json:"signals"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
