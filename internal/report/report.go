// Package report renders an audit document for humans and downstream tools.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JakeFAU/site-audit/internal/audit"
)

// Supported output formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer renders one audit document.
type Writer interface {
	Write(res audit.Result) error
}

// New returns the Writer for format. "md" is accepted as an alias for markdown and
// "yml" for yaml.
func New(format string, output io.Writer) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		return NewJSONWriter(output, true), nil
	case FormatYAML, "yml":
		return NewYAMLWriter(output), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatYAML, "yml":
		return "application/yaml"
	case FormatMarkdown, "md":
		return "text/markdown; charset=utf-8"
	default:
		return "application/json"
	}
}
