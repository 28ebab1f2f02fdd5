package dopack

import (
	"context"
	"io"

	"github.com/arthur-debert/dopack/pkg/ui"
)

// renderer picks the output renderer from the global flags. --json wins
// over --format.
func (f *globalFlags) renderer(w io.Writer) (ui.Renderer, error) {
	if f.json {
		return ui.NewRenderer(ui.FormatJSON, w)
	}
	format, err := ui.ParseFormat(f.format)
	if err != nil {
		return nil, err
	}
	return ui.NewRenderer(format, w)
}

// Execute runs the command line with args and returns the exit code.
// Errors are rendered on stderr in the requested output format.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := &globalFlags{}
	rootCmd := newRootCmd(flags)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	r, rerr := flags.renderer(stderr)
	if rerr != nil {
		r, _ = ui.NewRenderer(ui.FormatText, stderr)
	}
	_ = r.RenderError(err)
	return 1
}
