// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/dopack/pkg/export"
	"github.com/arthur-debert/dopack/pkg/ignore"
	"github.com/arthur-debert/dopack/pkg/ui/display"
	"github.com/arthur-debert/dopack/pkg/ui/styles"
	"github.com/arthur-debert/dopack/pkg/ui/text"
	"github.com/arthur-debert/dopack/pkg/walker"
	"github.com/pterm/pterm"
)

// Renderer provides rich terminal output using pterm tables and styles
type Renderer struct {
	output io.Writer
}

// New creates a new terminal renderer
func New(w io.Writer) (*Renderer, error) {
	return &Renderer{output: w}, nil
}

// RenderExport renders the export summary as a table
func (r *Renderer) RenderExport(result *export.Result) error {
	summary := display.ExportSummary(result)

	title := styles.Render("Header", summary.Title)
	if summary.DryRun {
		title = styles.Render("Warning", "(dry run) ") + title
	}

	data := pterm.TableData{{"Stage", "Item", "Value"}}
	for _, section := range summary.Sections {
		for i, row := range section.Rows {
			stage := ""
			if i == 0 {
				stage = section.Name
			}
			data = append(data, []string{stage, styles.Render("Label", row.Label), row.Value})
		}
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render summary table: %w", err)
	}
	_, err = fmt.Fprintf(r.output, "%s\n%s\n", title, table)
	return err
}

// RenderManifest lists the manifest, styling directories and links
func (r *Renderer) RenderManifest(manifest walker.Manifest) error {
	var b strings.Builder
	for _, p := range manifest.Paths() {
		e := manifest[p]
		switch {
		case e.IsSymlink():
			b.WriteString(e.Path + styles.Render("Muted", " -> "+e.SymlinkTarget))
		case e.IsDir:
			b.WriteString(styles.Render("Path", e.Path+"/"))
		default:
			b.WriteString(e.Path)
		}
		b.WriteString("\n")
	}
	footer := fmt.Sprintf("%d entries, %d files, %s", len(manifest), len(manifest.Files()), display.Bytes(manifest.Size()))
	fmt.Fprintf(&b, "%s\n", styles.Render("Muted", footer))
	_, err := io.WriteString(r.output, b.String())
	return err
}

// RenderRules renders the rules as a scope/pattern table
func (r *Renderer) RenderRules(source string, rules []ignore.Rule) error {
	title := styles.Render("Header", "Rules from "+text.RulesSource(source))

	data := pterm.TableData{{"Scope", "Pattern"}}
	for _, rule := range rules {
		data = append(data, []string{styles.Render("Label", rule.Scope.String()), rule.String()})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render rules table: %w", err)
	}
	_, err = fmt.Fprintf(r.output, "%s\n%s\n", title, table)
	return err
}

// RenderError renders an error followed by its details
func (r *Renderer) RenderError(err error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", styles.Render("Error", "Error:"), err.Error())
	for _, line := range text.DetailLines(err) {
		b.WriteString("  " + styles.Render("Label", line) + "\n")
	}
	_, werr := io.WriteString(r.output, b.String())
	return werr
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, styles.Render("Success", msg))
	return err
}
