// Package ui renders command results in terminal (rich), text (plain) or
// JSON form.
package ui

import (
	"io"
	"os"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/export"
	"github.com/arthur-debert/dopack/pkg/ignore"
	"github.com/arthur-debert/dopack/pkg/ui/json"
	"github.com/arthur-debert/dopack/pkg/ui/terminal"
	"github.com/arthur-debert/dopack/pkg/ui/text"
	"github.com/arthur-debert/dopack/pkg/walker"
)

// Renderer is the common interface for all output renderers
type Renderer interface {
	// RenderExport renders the outcome of an export or dry run
	RenderExport(result *export.Result) error

	// RenderManifest renders the entries a walk selected
	RenderManifest(manifest walker.Manifest) error

	// RenderRules renders the compiled ignore rules. source is the ignore
	// file they came from, empty for the built-in rules.
	RenderRules(source string, rules []ignore.Rule) error

	// RenderError renders an error with its details
	RenderError(err error) error

	// RenderMessage renders a simple message
	RenderMessage(msg string) error
}

// NewRenderer creates a renderer for format. FormatAuto inspects output
// when it is a file and falls back to plain text otherwise.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if file, ok := output.(*os.File); ok {
			return NewRenderer(DetectFormat(file), output)
		}
		return NewRenderer(FormatText, output)
	case FormatTerminal:
		return terminal.New(output)
	case FormatText:
		return text.New(output)
	case FormatJSON:
		return json.New(output)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format: %v", format)
	}
}
