package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"
)

// StructuredData parses every JSON-LD block. Blocks that are invalid even after repair
// are dropped; the returned count says how many.
func StructuredData(doc *Document) ([]map[string]any, int) {
	var (
		nodes   []map[string]any
		dropped int
	)
	doc.Sel.Find("script").Each(func(_ int, s *goquery.Selection) {
		typ := strings.ToLower(s.AttrOr("type", ""))
		if !strings.Contains(typ, "ld+json") {
			return
		}
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		v, ok := decodeJSONLD(raw)
		if !ok {
			dropped++
			return
		}
		nodes = flattenJSONLD(v, nodes)
	})
	return nodes, dropped
}

func decodeJSONLD(raw string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v, true
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, false
	}
	return v, true
}

func flattenJSONLD(v any, out []map[string]any) []map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			out = flattenJSONLD(item, out)
		}
	case map[string]any:
		if graph, ok := t["@graph"]; ok {
			return flattenJSONLD(graph, out)
		}
		out = append(out, t)
	}
	return out
}

// StructuredTypes returns the @type values of nodes in first-seen order.
func StructuredTypes(nodes []map[string]any) []string {
	seen := map[string]bool{}
	types := []string{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		types = append(types, s)
	}
	for _, n := range nodes {
		switch t := n["@type"].(type) {
		case string:
			add(t)
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
	}
	return types
}
