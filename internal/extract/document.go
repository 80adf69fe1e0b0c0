// Package extract derives independent signal sets from a parsed HTML page.
// Every extractor reads the shared Document and never modifies it.
package extract

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is an HTML page parsed once and shared read-only by all extractors.
type Document struct {
	URL     *url.URL
	Raw     string
	Lower   string
	Headers http.Header
	Sel     *goquery.Document

	text string
}

// Parse builds a Document. pageURL should be the final URL after redirects.
func Parse(body []byte, pageURL string, headers http.Header) (*Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if headers == nil {
		headers = http.Header{}
	}
	raw := string(body)
	return &Document{
		URL:     u,
		Raw:     raw,
		Lower:   strings.ToLower(raw),
		Headers: headers,
		Sel:     goquery.NewDocumentFromNode(root),
		text:    visibleText(root),
	}, nil
}

// Text returns the whitespace-normalised visible text of the page.
func (d *Document) Text() string { return d.text }

// Host returns the lowercase page hostname.
func (d *Document) Host() string { return strings.ToLower(d.URL.Hostname()) }

// Resolve makes ref absolute against the page URL. Unparseable refs are returned as-is.
func (d *Document) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return d.URL.ResolveReference(r).String()
}

// Meta returns the content of the first <meta> whose name or property equals key.
func (d *Document) Meta(key string) (string, bool) {
	var out string
	d.Sel.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		prop, _ := s.Attr("property")
		if !strings.EqualFold(name, key) && !strings.EqualFold(prop, key) {
			return true
		}
		out = strings.TrimSpace(s.AttrOr("content", ""))
		return out == ""
	})
	return out, out != ""
}

var skipText = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true, "head": true,
}

func visibleText(root *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipText[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(strings.Fields(b.String()), " ")
}

// text returns the collapsed text of a selection.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
