package sanitize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// numericPaths lists the JSON paths declared numeric; true marks integer fields.
var numericPaths = map[string]bool{
	"performance.performanceScore":                   false,
	"performance.accessibilityScore":                 false,
	"performance.seoScore":                           false,
	"performance.bestPracticesScore":                 false,
	"performance.lcpMs":                              false,
	"performance.cls":                                false,
	"performance.tbtMs":                              false,
	"summarySignals.seoScore":                        false,
	"summarySignals.accessibilityScore":              false,
	"summarySignals.securityScore":                   false,
	"summarySignals.performanceEstimate":             false,
	"resources.totalImageKB":                         false,
	"resources.totalJsKB":                            false,
	"resources.domNodes":                             true,
	"resources.resourcesCount":                       true,
	"resources.thirdPartyRequests":                   true,
	"resources.thirdPartyHosts":                      true,
	"resources.thirdPartyScripts":                    true,
	"accessibility.staticScore":                      false,
	"accessibility.auditViolations":                  true,
	"content.wordCount":                              true,
	"content.readingMinutes":                         false,
	"htmlMetrics.images":                             true,
	"htmlMetrics.imagesWithoutAlt":                   true,
	"htmlMetrics.scripts":                            true,
	"htmlMetrics.externalScripts":                    true,
	"htmlMetrics.stylesheets":                        true,
	"htmlMetrics.links":                              true,
	"htmlMetrics.internalLinks":                      true,
	"htmlMetrics.externalLinks":                      true,
	"htmlMetrics.h1":                                 true,
	"htmlMetrics.h2":                                 true,
	"htmlMetrics.h3":                                 true,
	"htmlMetrics.forms":                              true,
	"htmlMetrics.iframes":                            true,
	"htmlMetrics.domNodes":                           true,
	"htmlMetrics.wordCount":                          true,
	"htmlMetrics.htmlBytes":                          true,
	"siteSignals.blogLinks":                          true,
	"siteSignals.sitemapInfo.pages":                  true,
	"businessInsights.marginEstimate.low":            false,
	"businessInsights.marginEstimate.high":           false,
	"businessInsights.marginEstimate.estimate":       false,
	"businessInsights.trafficEstimate.sitemapPages":  true,
	"businessInsights.trafficEstimate.blogLinks":     true,
	"businessInsights.salesMaturity.score":           true,
	"businessInsights.marketingMaturity.score":       true,
}

// Decode reads an audit document produced elsewhere. Values at numeric paths that arrive as
// strings are converted; unconvertible ones become null and are recorded in the imputation log.
func Decode(raw []byte) (audit.Result, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return audit.Result{}, fmt.Errorf("decode audit document: %w", err)
	}
	var notes []string
	for path, integer := range numericPaths {
		parent, key, ok := lookup(doc, path)
		if !ok {
			continue
		}
		v, note := coerce(path, parent[key], integer)
		parent[key] = v
		if note != "" {
			notes = append(notes, note)
		}
	}

	res, structural, err := decodeLenient(doc)
	if err != nil {
		return audit.Result{}, err
	}
	notes = append(notes, structural...)
	// map iteration is unordered; keep the log stable
	slices.Sort(notes)
	res.ImputationLog = append(res.ImputationLog, notes...)
	return res, nil
}

// maxTypeRepairs bounds how many mismatched fields one document may null out.
const maxTypeRepairs = 64

// decodeLenient decodes doc into a Result. A field whose JSON type does not fit the document
// shape is set to null in doc and the decode retried.
func decodeLenient(doc map[string]any) (audit.Result, []string, error) {
	var notes []string
	for range maxTypeRepairs {
		normalized, err := json.Marshal(doc)
		if err != nil {
			return audit.Result{}, nil, fmt.Errorf("re-encode audit document: %w", err)
		}
		var res audit.Result
		err = json.Unmarshal(normalized, &res)
		if err == nil {
			return res, notes, nil
		}
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return audit.Result{}, nil, fmt.Errorf("decode audit document: %w", err)
		}
		path, ok := nullNearest(doc, typeErr.Field)
		if !ok {
			return audit.Result{}, nil, fmt.Errorf("decode audit document: %w", err)
		}
		notes = append(notes, fmt.Sprintf("Coerce: %s could not be coerced from %s to %s; set to null",
			path, typeErr.Value, typeErr.Type))
	}
	return audit.Result{}, nil, fmt.Errorf("decode audit document: more than %d mismatched fields", maxTypeRepairs)
}

// nullNearest nulls the deepest existing, non-null ancestor of path. Array indices are not
// part of decode error paths, so a bad list element nulls the whole list.
func nullNearest(doc map[string]any, path string) (string, bool) {
	parts := strings.Split(path, ".")
	for n := len(parts); n > 0; n-- {
		p := strings.Join(parts[:n], ".")
		parent, key, ok := lookup(doc, p)
		if ok && parent[key] != nil {
			parent[key] = nil
			return p, true
		}
	}
	return "", false
}

func lookup(doc map[string]any, path string) (map[string]any, string, bool) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return nil, "", false
		}
		cur = next
	}
	key := parts[len(parts)-1]
	_, ok := cur[key]
	return cur, key, ok
}

func coerce(path string, v any, integer bool) (any, string) {
	switch t := v.(type) {
	case nil:
		return nil, ""
	case float64:
		if integer {
			return math.Round(t), ""
		}
		return t, ""
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%")), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Sprintf("Coerce: %s value %q is not numeric; set to null", path, t)
		}
		if integer {
			f = math.Round(f)
		}
		return f, fmt.Sprintf("Coerce: %s converted from string %q to %s", path, t, num(f))
	default:
		return nil, fmt.Sprintf("Coerce: %s has non-numeric type %T; set to null", path, v)
	}
}
