package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// JSONWriter emits the document as JSON, the hand-off format for report generators.
type JSONWriter struct {
	output io.Writer
	indent bool
}

// NewJSONWriter builds a JSONWriter. indent pretty-prints with two spaces.
func NewJSONWriter(output io.Writer, indent bool) *JSONWriter {
	return &JSONWriter{output: output, indent: indent}
}

// Write implements Writer.
func (w *JSONWriter) Write(res audit.Result) error {
	enc := json.NewEncoder(w.output)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}
