package extract

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/fetch"
)

const wordsPerMinute = 200

// HTMLMetrics counts elements over the parsed document.
func HTMLMetrics(doc *Document) audit.HTMLMetrics {
	m := audit.HTMLMetrics{
		Images:      doc.Sel.Find("img").Length(),
		Scripts:     doc.Sel.Find("script").Length(),
		Stylesheets: doc.Sel.Find(`link[rel="stylesheet"]`).Length(),
		H1:          doc.Sel.Find("h1").Length(),
		H2:          doc.Sel.Find("h2").Length(),
		H3:          doc.Sel.Find("h3").Length(),
		Forms:       doc.Sel.Find("form").Length(),
		Iframes:     doc.Sel.Find("iframe").Length(),
		DOMNodes:    doc.Sel.Find("*").Length(),
		WordCount:   len(strings.Fields(doc.Text())),
		HTMLBytes:   len(doc.Raw),
	}
	doc.Sel.Find("img").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("alt"); !ok {
			m.ImagesWithoutAlt++
		}
	})
	pageHost := doc.Host()
	doc.Sel.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if host := hostOf(doc.Resolve(s.AttrOr("src", ""))); host != "" && !fetch.IsFirstParty(pageHost, host) {
			m.ExternalScripts++
		}
	})
	doc.Sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		m.Links++
		u, err := url.Parse(doc.Resolve(s.AttrOr("href", "")))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		if fetch.IsFirstParty(pageHost, u.Hostname()) {
			m.InternalLinks++
		} else {
			m.ExternalLinks++
		}
	})
	return m
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// SEO gathers on-page SEO facts. HasSitemap is filled in once the sitemap probe completes.
func SEO(doc *Document, md audit.Metadata, keywords []string) audit.SEO {
	desc, _ := doc.Meta("description")
	robots, _ := doc.Meta("robots")
	h1s := []string{}
	doc.Sel.Find("h1").Each(func(_ int, s *goquery.Selection) {
		if t := text(s); t != "" {
			h1s = append(h1s, t)
		}
	})
	canonical, _ := resolved(linkRel("canonical"))(doc)
	if keywords == nil {
		keywords = []string{}
	}
	return audit.SEO{
		Title:             md.HTMLTitle,
		TitleLength:       utf8.RuneCountInString(md.HTMLTitle),
		MetaDescription:   desc,
		DescriptionLength: utf8.RuneCountInString(desc),
		H1:                h1s,
		Canonical:         canonical,
		RobotsMeta:        robots,
		Keywords:          keywords,
	}
}

// Content summarises the visible text with a Markdown excerpt of at most excerptChars runes.
func Content(doc *Document, excerptChars int) (audit.Content, error) {
	words := len(strings.Fields(doc.Text()))
	c := audit.Content{
		WordCount:      words,
		ReadingMinutes: math.Round(float64(words)/wordsPerMinute*10) / 10,
	}
	if excerptChars <= 0 {
		return c, nil
	}
	root := doc.Sel.Find("main").First()
	if root.Length() == 0 {
		root = doc.Sel.Find("article").First()
	}
	if root.Length() == 0 {
		root = doc.Sel.Find("body").First()
	}
	if root.Length() == 0 {
		return c, nil
	}
	root = root.Clone()
	root.Find("script, style, noscript, template, svg, nav, footer").Remove()
	fragment, err := goquery.OuterHtml(root)
	if err != nil {
		return c, fmt.Errorf("render excerpt html: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return c, fmt.Errorf("convert excerpt: %w", err)
	}
	c.Excerpt = truncateRunes(strings.TrimSpace(md), excerptChars)
	return c, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
