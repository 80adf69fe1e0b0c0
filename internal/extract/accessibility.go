package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/site-audit/internal/audit"
)

var landmarkRoles = map[string]string{
	"main":          "main",
	"navigation":    "nav",
	"banner":        "header",
	"contentinfo":   "footer",
	"complementary": "aside",
	"search":        "search",
}

// Accessibility performs a cheap static scan. It is not a WCAG audit.
func Accessibility(doc *Document) audit.Accessibility {
	out := audit.Accessibility{Landmarks: map[string]int{}}

	doc.Sel.Find("*").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("role"); ok {
			out.ARIAElements++
			return
		}
		for _, a := range s.Nodes[0].Attr {
			if strings.HasPrefix(a.Key, "aria-") {
				out.ARIAElements++
				return
			}
		}
	})

	doc.Sel.Find("button").Each(func(_ int, s *goquery.Selection) {
		if !hasAccessibleName(s) {
			out.ButtonsWithoutText++
		}
	})
	doc.Sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if !hasAccessibleName(s) {
			out.LinksWithoutText++
		}
	})
	doc.Sel.Find("img").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("alt"); !ok {
			out.ImagesWithoutAlt++
		}
	})
	doc.Sel.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		switch strings.ToLower(s.AttrOr("type", "")) {
		case "hidden", "submit", "button", "reset", "image":
			return
		}
		if !inputLabelled(doc, s) {
			out.InputsWithoutLabel++
		}
	})

	for _, tag := range []string{"main", "nav", "header", "footer", "aside", "search"} {
		if n := doc.Sel.Find(tag).Length(); n > 0 {
			out.Landmarks[tag] += n
		}
	}
	doc.Sel.Find("[role]").Each(func(_ int, s *goquery.Selection) {
		if tag, ok := landmarkRoles[strings.ToLower(strings.TrimSpace(s.AttrOr("role", "")))]; ok {
			out.Landmarks[tag]++
		}
	})

	out.HasLangAttribute = strings.TrimSpace(doc.Sel.Find("html").AttrOr("lang", "")) != ""
	score := StaticAccessibilityScore(out)
	out.StaticScore = &score
	return out
}

// StaticAccessibilityScore deducts capped penalties from 100.
func StaticAccessibilityScore(a audit.Accessibility) float64 {
	score := 100.0
	score -= min(30, float64(a.ImagesWithoutAlt*2))
	score -= min(20, float64(a.ButtonsWithoutText*5))
	score -= min(20, float64(a.LinksWithoutText*2))
	if a.Landmarks["main"] == 0 {
		score -= 10
	}
	if !a.HasLangAttribute {
		score -= 10
	}
	if score < 0 {
		return 0
	}
	return score
}

func hasAccessibleName(s *goquery.Selection) bool {
	if text(s) != "" {
		return true
	}
	for _, attr := range []string{"aria-label", "aria-labelledby", "title"} {
		if strings.TrimSpace(s.AttrOr(attr, "")) != "" {
			return true
		}
	}
	found := false
	s.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		found = strings.TrimSpace(img.AttrOr("alt", "")) != ""
		return !found
	})
	return found
}

func inputLabelled(doc *Document, s *goquery.Selection) bool {
	for _, attr := range []string{"aria-label", "aria-labelledby", "title"} {
		if strings.TrimSpace(s.AttrOr(attr, "")) != "" {
			return true
		}
	}
	if s.ParentsFiltered("label").Length() > 0 {
		return true
	}
	id := strings.TrimSpace(s.AttrOr("id", ""))
	if id == "" {
		return false
	}
	labelled := false
	doc.Sel.Find("label[for]").EachWithBreak(func(_ int, l *goquery.Selection) bool {
		labelled = l.AttrOr("for", "") == id
		return !labelled
	})
	return labelled
}
