package fetch

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// AxeScript returns a page expression that loads axe-core from scriptURL (unless
// already present), runs it, and resolves to a JSON string of the violations.
func AxeScript(scriptURL string) string {
	return `new Promise((resolve, reject) => {
  const run = () => window.axe.run(document, {resultTypes: ['violations']})
    .then(r => resolve(JSON.stringify(r.violations.map(v => ({
      id: v.id, impact: v.impact || '', help: v.help, nodes: (v.nodes || []).length
    })))))
    .catch(reject);
  if (window.axe) { run(); return; }
  const s = document.createElement('script');
  s.src = ` + strconv.Quote(scriptURL) + `;
  s.onload = run;
  s.onerror = () => reject(new Error('axe-core failed to load'));
  (document.head || document.documentElement).appendChild(s);
})`
}

// DOMNodeCountScript evaluates to the number of elements in the document.
const DOMNodeCountScript = `document.getElementsByTagName('*').length`

// ParseAxeViolations decodes the JSON produced by AxeScript.
func ParseAxeViolations(raw string) ([]audit.AuditViolation, error) {
	var out []audit.AuditViolation
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode axe violations: %w", err)
	}
	return out, nil
}
