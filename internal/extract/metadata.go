package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Metadata fields filled by the chain.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldAuthor      = "author"
	FieldImage       = "image"
	FieldPublisher   = "publisher"
	FieldLanguage    = "language"
	FieldCanonical   = "canonical"
	FieldFavicon     = "favicon"
	FieldViewport    = "viewport"
)

// FieldExtractor yields one candidate value for one metadata field.
type FieldExtractor struct {
	Name    string
	Field   string
	Extract func(*Document) (string, bool)
}

// DefaultMetadataChain is consulted in order; the first present value wins per field.
var DefaultMetadataChain = []FieldExtractor{
	{Name: "og:title", Field: FieldTitle, Extract: metaKey("og:title")},
	{Name: "twitter:title", Field: FieldTitle, Extract: metaKey("twitter:title")},
	{Name: "html-title", Field: FieldTitle, Extract: htmlTitle},
	{Name: "h1", Field: FieldTitle, Extract: firstText("h1")},

	{Name: "meta-description", Field: FieldDescription, Extract: metaKey("description")},
	{Name: "og:description", Field: FieldDescription, Extract: metaKey("og:description")},
	{Name: "twitter:description", Field: FieldDescription, Extract: metaKey("twitter:description")},

	{Name: "meta-author", Field: FieldAuthor, Extract: metaKey("author")},
	{Name: "article:author", Field: FieldAuthor, Extract: metaKey("article:author")},
	{Name: "jsonld-author", Field: FieldAuthor, Extract: jsonLDName("author")},

	{Name: "og:image", Field: FieldImage, Extract: resolved(metaKey("og:image"))},
	{Name: "twitter:image", Field: FieldImage, Extract: resolved(metaKey("twitter:image"))},
	{Name: "image_src", Field: FieldImage, Extract: resolved(linkRel("image_src"))},

	{Name: "og:site_name", Field: FieldPublisher, Extract: metaKey("og:site_name")},
	{Name: "jsonld-publisher", Field: FieldPublisher, Extract: jsonLDName("publisher")},
	{Name: "application-name", Field: FieldPublisher, Extract: metaKey("application-name")},

	{Name: "html-lang", Field: FieldLanguage, Extract: htmlLang},
	{Name: "content-language", Field: FieldLanguage, Extract: contentLanguage},
	{Name: "og:locale", Field: FieldLanguage, Extract: metaKey("og:locale")},

	{Name: "link-canonical", Field: FieldCanonical, Extract: resolved(linkRel("canonical"))},
	{Name: "og:url", Field: FieldCanonical, Extract: resolved(metaKey("og:url"))},

	{Name: "icon", Field: FieldFavicon, Extract: resolved(linkRel("icon"))},
	{Name: "shortcut-icon", Field: FieldFavicon, Extract: resolved(linkRel("shortcut icon"))},
	{Name: "apple-touch-icon", Field: FieldFavicon, Extract: resolved(linkRel("apple-touch-icon"))},

	{Name: "viewport", Field: FieldViewport, Extract: metaKey("viewport")},
}

// ScrapeMetadata runs chain over doc. A panicking extractor is skipped and reported in warnings.
func ScrapeMetadata(doc *Document, chain []FieldExtractor) (audit.Metadata, []string) {
	found := map[string]string{}
	var warnings []string
	for _, fe := range chain {
		if _, ok := found[fe.Field]; ok {
			continue
		}
		v, ok, err := safeExtract(fe, doc)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		if ok && v != "" {
			found[fe.Field] = v
		}
	}

	md := audit.Metadata{
		Title:       found[FieldTitle],
		Description: found[FieldDescription],
		Author:      found[FieldAuthor],
		Image:       found[FieldImage],
		Publisher:   found[FieldPublisher],
		Language:    found[FieldLanguage],
		Canonical:   found[FieldCanonical],
		Favicon:     found[FieldFavicon],
		Viewport:    found[FieldViewport],
	}
	md.HTMLTitle, _ = htmlTitle(doc)
	md.OGTitle, _ = doc.Meta("og:title")
	md.OGDescription, _ = doc.Meta("og:description")
	if img, ok := doc.Meta("og:image"); ok {
		md.OGImage = doc.Resolve(img)
	}
	md.TwitterCard, _ = doc.Meta("twitter:card")
	return md, warnings
}

func safeExtract(fe FieldExtractor, doc *Document) (v string, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("metadata extractor %s panicked: %v", fe.Name, r)
		}
	}()
	v, ok = fe.Extract(doc)
	return strings.TrimSpace(v), ok, nil
}

func metaKey(key string) func(*Document) (string, bool) {
	return func(d *Document) (string, bool) { return d.Meta(key) }
}

func htmlTitle(d *Document) (string, bool) {
	t := text(d.Sel.Find("title").First())
	return t, t != ""
}

func firstText(selector string) func(*Document) (string, bool) {
	return func(d *Document) (string, bool) {
		t := text(d.Sel.Find(selector).First())
		return t, t != ""
	}
}

func linkRel(rel string) func(*Document) (string, bool) {
	return func(d *Document) (string, bool) {
		var href string
		d.Sel.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !strings.EqualFold(strings.TrimSpace(s.AttrOr("rel", "")), rel) {
				return true
			}
			href = strings.TrimSpace(s.AttrOr("href", ""))
			return href == ""
		})
		return href, href != ""
	}
}

func resolved(fn func(*Document) (string, bool)) func(*Document) (string, bool) {
	return func(d *Document) (string, bool) {
		v, ok := fn(d)
		if !ok {
			return "", false
		}
		return d.Resolve(v), true
	}
}

func htmlLang(d *Document) (string, bool) {
	lang := strings.TrimSpace(d.Sel.Find("html").AttrOr("lang", ""))
	return lang, lang != ""
}

func contentLanguage(d *Document) (string, bool) {
	if v := strings.TrimSpace(d.Headers.Get("Content-Language")); v != "" {
		return v, true
	}
	var out string
	d.Sel.Find("meta[http-equiv]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(s.AttrOr("http-equiv", ""), "content-language") {
			out = strings.TrimSpace(s.AttrOr("content", ""))
		}
		return out == ""
	})
	return out, out != ""
}

// jsonLDName pulls key (a string or an object with a name) from the first JSON-LD node carrying it.
func jsonLDName(key string) func(*Document) (string, bool) {
	return func(d *Document) (string, bool) {
		nodes, _ := StructuredData(d)
		for _, n := range nodes {
			if name := nameOf(n[key]); name != "" {
				return name, true
			}
		}
		return "", false
	}
}

func nameOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["name"].(string); ok {
			return s
		}
	case []any:
		for _, item := range t {
			if s := nameOf(item); s != "" {
				return s
			}
		}
	}
	return ""
}

// Hreflangs lists the distinct hreflang values of alternate links, in document order.
func Hreflangs(doc *Document) []string {
	seen := map[string]bool{}
	out := []string{}
	doc.Sel.Find(`link[rel="alternate"][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		v := strings.ToLower(strings.TrimSpace(s.AttrOr("hreflang", "")))
		if v == "" || v == "x-default" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	})
	return out
}

// Hrefs lists every resolved anchor href, in document order.
func Hrefs(doc *Document) []string {
	out := []string{}
	doc.Sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if h := doc.Resolve(s.AttrOr("href", "")); h != "" {
			out = append(out, h)
		}
	})
	return out
}
