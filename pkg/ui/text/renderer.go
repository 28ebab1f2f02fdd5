// Package text provides plain text output without any styling
package text

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/export"
	"github.com/arthur-debert/dopack/pkg/ignore"
	"github.com/arthur-debert/dopack/pkg/ui/display"
	"github.com/arthur-debert/dopack/pkg/walker"
)

// Renderer provides plain text output without colors or styling
type Renderer struct {
	output io.Writer
}

// New creates a new text renderer
func New(output io.Writer) (*Renderer, error) {
	return &Renderer{output: output}, nil
}

// RenderExport renders the summary of an export
func (r *Renderer) RenderExport(result *export.Result) error {
	summary := display.ExportSummary(result)
	width := summary.LabelWidth()

	var b strings.Builder
	b.WriteString(summary.Title + "\n")
	for _, section := range summary.Sections {
		fmt.Fprintf(&b, "\n%s:\n", section.Name)
		for _, row := range section.Rows {
			fmt.Fprintf(&b, "  %-*s  %s\n", width, row.Label, row.Value)
		}
	}
	_, err := io.WriteString(r.output, b.String())
	return err
}

// RenderManifest lists the manifest paths, directories with a trailing slash
func (r *Renderer) RenderManifest(manifest walker.Manifest) error {
	var b strings.Builder
	for _, p := range manifest.Paths() {
		b.WriteString(ManifestLine(manifest[p]) + "\n")
	}
	_, err := io.WriteString(r.output, b.String())
	return err
}

// ManifestLine formats one manifest entry.
func ManifestLine(e walker.Entry) string {
	switch {
	case e.IsSymlink():
		return e.Path + " -> " + e.SymlinkTarget
	case e.IsDir:
		return e.Path + "/"
	default:
		return e.Path
	}
}

// RenderRules lists the rules one per line after their scope
func (r *Renderer) RenderRules(source string, rules []ignore.Rule) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Rules from %s:\n", RulesSource(source))
	for _, rule := range rules {
		fmt.Fprintf(&b, "  %-8s %s\n", rule.Scope, rule)
	}
	_, err := io.WriteString(r.output, b.String())
	return err
}

// RulesSource names where rules came from.
func RulesSource(source string) string {
	if source == "" {
		return "built-in rules"
	}
	return source
}

// RenderError renders an error as plain text, followed by its details
func (r *Renderer) RenderError(err error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %v\n", err)
	for _, line := range DetailLines(err) {
		b.WriteString("  " + line + "\n")
	}
	_, werr := io.WriteString(r.output, b.String())
	return werr
}

// DetailLines returns "key: value" lines for the details of a coded
// error, sorted by key.
func DetailLines(err error) []string {
	details := errors.GetErrorDetails(err)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, details[k]))
	}
	return lines
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}
