package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// YAMLWriter emits the document as YAML with the same keys as the JSON form.
type YAMLWriter struct {
	output io.Writer
}

// NewYAMLWriter builds a YAMLWriter.
func NewYAMLWriter(output io.Writer) *YAMLWriter {
	return &YAMLWriter{output: output}
}

// Write implements Writer. The document round-trips through JSON first so the json tags,
// omitempty rules and null values carry over unchanged.
func (w *YAMLWriter) Write(res audit.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal yaml report: %w", err)
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decode yaml report: %w", err)
	}
	enc := yaml.NewEncoder(w.output)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush yaml report: %w", err)
	}
	return nil
}
