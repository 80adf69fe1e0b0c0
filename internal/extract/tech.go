package extract

import "regexp"

// Technology categories.
const (
	TechCMS        = "cms"
	TechEcommerce  = "ecommerce"
	TechFrontend   = "frontend"
	TechAnalytics  = "analytics"
	TechCDN        = "cdn"
	TechPayments   = "payments"
	TechChat       = "chat"
	TechCRM        = "crm"
	TechTagManager = "tagmanager"
)

// Signature marks one technology by a case-insensitive pattern over raw markup.
type Signature struct {
	Category string
	Name     string
	Pattern  *regexp.Regexp
}

func sig(category, name, pattern string) Signature {
	return Signature{Category: category, Name: name, Pattern: regexp.MustCompile("(?i)" + pattern)}
}

// Signatures is evaluated in order; within a category the first match wins.
var Signatures = []Signature{
	sig(TechCMS, "WordPress", `wp-content/|wp-includes/|<meta[^>]+generator[^>]+wordpress`),
	sig(TechCMS, "Drupal", `drupal-settings-json|/sites/default/files/|<meta[^>]+generator[^>]+drupal`),
	sig(TechCMS, "Joomla", `<meta[^>]+generator[^>]+joomla|/media/jui/`),
	sig(TechCMS, "Wix", `static\.wixstatic\.com|wix-code|_wixcss`),
	sig(TechCMS, "Squarespace", `static1\.squarespace\.com|squarespace-cdn`),
	sig(TechCMS, "Webflow", `data-wf-page|webflow\.js|assets\.website-files\.com`),
	sig(TechCMS, "Ghost", `<meta[^>]+generator[^>]+ghost|ghost-portal`),
	sig(TechCMS, "HubSpot CMS", `<meta[^>]+generator[^>]+hubspot|hs-sites\.com`),

	sig(TechEcommerce, "Shopify", `cdn\.shopify\.com|shopify\.theme|myshopify\.com`),
	sig(TechEcommerce, "WooCommerce", `woocommerce|wc-cart-fragments`),
	sig(TechEcommerce, "Magento", `mage/cookies|magento_|static/version\d+/frontend`),
	sig(TechEcommerce, "BigCommerce", `cdn\d*\.bigcommerce\.com|bigcommerce`),
	sig(TechEcommerce, "PrestaShop", `prestashop`),
	sig(TechEcommerce, "Salesforce Commerce", `demandware\.static|dwanalytics`),

	sig(TechFrontend, "Next.js", `__next_data__|/_next/static/`),
	sig(TechFrontend, "Nuxt", `window\.__nuxt__|/_nuxt/`),
	sig(TechFrontend, "Gatsby", `id="___gatsby"|gatsby-`),
	sig(TechFrontend, "Angular", `ng-version=|ng-app`),
	sig(TechFrontend, "React", `data-reactroot|react-dom|__react`),
	sig(TechFrontend, "Vue.js", `data-v-[0-9a-f]{6,}|vue(\.min)?\.js|__vue__`),
	sig(TechFrontend, "Svelte", `svelte-[a-z0-9]{5,}|__sveltekit`),
	sig(TechFrontend, "jQuery", `jquery(\.min)?\.js|jquery-\d`),

	sig(TechAnalytics, "Google Analytics", `google-analytics\.com|gtag\(|googletagmanager\.com/gtag`),
	sig(TechAnalytics, "Segment", `cdn\.segment\.com|analytics\.load\(`),
	sig(TechAnalytics, "Mixpanel", `cdn\.mxpnl\.com|mixpanel\.init`),
	sig(TechAnalytics, "Hotjar", `static\.hotjar\.com|hjsiteid`),
	sig(TechAnalytics, "Plausible", `plausible\.io/js`),
	sig(TechAnalytics, "Matomo", `matomo\.js|piwik\.js|_paq\.push`),
	sig(TechAnalytics, "Meta Pixel", `connect\.facebook\.net/[^"']*/fbevents\.js|fbq\(`),
	sig(TechAnalytics, "Amplitude", `cdn\.amplitude\.com|amplitude\.getinstance`),

	sig(TechCDN, "Cloudflare", `cdnjs\.cloudflare\.com|/cdn-cgi/`),
	sig(TechCDN, "jsDelivr", `cdn\.jsdelivr\.net`),
	sig(TechCDN, "unpkg", `unpkg\.com`),
	sig(TechCDN, "CloudFront", `\.cloudfront\.net`),
	sig(TechCDN, "Fastly", `\.fastly\.net|fastly`),
	sig(TechCDN, "Akamai", `akamaihd\.net|akamaized\.net`),

	sig(TechPayments, "Stripe", `js\.stripe\.com|stripe\.com/v3`),
	sig(TechPayments, "PayPal", `paypal\.com/sdk|paypalobjects\.com`),
	sig(TechPayments, "Braintree", `braintreegateway\.com|braintree-web`),
	sig(TechPayments, "Adyen", `adyen\.com|adyen-checkout`),
	sig(TechPayments, "Square", `squareup\.com|square\.js`),
	sig(TechPayments, "Klarna", `klarna`),

	sig(TechChat, "Intercom", `widget\.intercom\.io|intercomsettings`),
	sig(TechChat, "Drift", `js\.driftt\.com|drift\.load`),
	sig(TechChat, "Zendesk", `static\.zdassets\.com|zesettings`),
	sig(TechChat, "LiveChat", `cdn\.livechatinc\.com`),
	sig(TechChat, "Crisp", `client\.crisp\.chat`),
	sig(TechChat, "Tawk.to", `embed\.tawk\.to`),
	sig(TechChat, "Freshchat", `wchat\.freshchat\.com|freshchat`),
	sig(TechChat, "Olark", `static\.olark\.com`),
	sig(TechChat, "tidio", `code\.tidio\.co`),

	sig(TechCRM, "HubSpot", `js\.hs-scripts\.com|js\.hsforms\.net|hs-analytics`),
	sig(TechCRM, "Salesforce", `force\.com|salesforce\.com|pardot`),
	sig(TechCRM, "Marketo", `munchkin\.marketo\.net|marketo\.com`),
	sig(TechCRM, "Mailchimp", `list-manage\.com|chimpstatic\.com`),
	sig(TechCRM, "Klaviyo", `static\.klaviyo\.com|klaviyo`),
	sig(TechCRM, "ActiveCampaign", `activehosted\.com|trackcmp\.net`),
	sig(TechCRM, "Pipedrive", `pipedrive`),
	sig(TechCRM, "Zoho", `zohopublic|salesiq\.zoho`),

	sig(TechTagManager, "Google Tag Manager", `googletagmanager\.com/gtm\.js|gtm-[a-z0-9]{4,}`),
	sig(TechTagManager, "Tealium", `tags\.tiqcdn\.com|utag\.js`),
	sig(TechTagManager, "Adobe Launch", `assets\.adobedtm\.com`),
}

// Fingerprint maps each category to the first matching technology. Categories with no match
// are absent.
func Fingerprint(raw string) map[string]string {
	out := map[string]string{}
	for _, s := range Signatures {
		if _, done := out[s.Category]; done {
			continue
		}
		if s.Pattern.MatchString(raw) {
			out[s.Category] = s.Name
		}
	}
	return out
}

// MatchAll lists every technology of category present in raw, in table order.
func MatchAll(raw, category string) []string {
	names := []string{}
	for _, s := range Signatures {
		if s.Category == category && s.Pattern.MatchString(raw) {
			names = append(names, s.Name)
		}
	}
	return names
}
