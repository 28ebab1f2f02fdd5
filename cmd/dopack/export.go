package dopack

import (
	"github.com/arthur-debert/dopack/pkg/config"
	"github.com/arthur-debert/dopack/pkg/export"
	"github.com/arthur-debert/dopack/pkg/filesystem"
	"github.com/arthur-debert/dopack/pkg/logging"
	"github.com/arthur-debert/dopack/pkg/packages"
	"github.com/spf13/cobra"
)

type exportFlags struct {
	source      string
	replace     bool
	packages    string
	pm          string
	concurrency int
	dryRun      bool
}

// overrides maps the flags given on the command line to configuration keys.
func (f *exportFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	overrides := map[string]interface{}{}
	if cmd.Flags().Changed("replace") {
		overrides["export.replace"] = f.replace
	}
	if cmd.Flags().Changed("pm") {
		overrides["descriptor.package_manager"] = f.pm
	}
	if cmd.Flags().Changed("concurrency") {
		overrides["walk.concurrency"] = f.concurrency
	}
	return overrides
}

func newExportCmd(global *globalFlags) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:     "export [destination]",
		Short:   MsgExportShort,
		Long:    MsgExportLong,
		Example: MsgExportExample,
		GroupID: "core",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cli.export")

			var dest string
			if len(args) > 0 {
				dest = args[0]
			}

			fsys := filesystem.NewOS()
			cfg, err := config.LoadWithOverrides(fsys, flags.source, flags.overrides(cmd))
			if err != nil {
				return err
			}

			opts := export.Options{
				Source:         flags.source,
				Replace:        cfg.Export.Replace,
				PackageManager: cfg.Descriptor.PackageManager,
				DescriptorFile: cfg.Descriptor.File,
				Strip:          cfg.Descriptor.Strip,
				IgnoreFiles:    cfg.Ignore.Files,
				DefaultRules:   cfg.Ignore.Defaults,
				DryRun:         flags.dryRun,
				Concurrency:    cfg.Walk.Concurrency,
			}

			if flags.packages != "" {
				tree, err := packages.LoadTree(fsys, flags.packages, cfg.Descriptor.BundleDir)
				if err != nil {
					return err
				}
				logger.Debug().
					Str("file", flags.packages).
					Int("packages", tree.Len()).
					Msg("Loaded package tree")
				opts.Packages = tree
			}

			result, err := export.New(fsys).Export(cmd.Context(), dest, opts)
			if err != nil {
				return err
			}

			r, err := global.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return r.RenderExport(result)
		},
	}

	cmd.Flags().StringVarP(&flags.source, "source", "s", ".", MsgFlagSource)
	cmd.Flags().BoolVar(&flags.replace, "replace", false, MsgFlagReplace)
	cmd.Flags().StringVarP(&flags.packages, "packages", "p", "", MsgFlagPackages)
	cmd.Flags().StringVar(&flags.pm, "pm", "", MsgFlagPM)
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "j", 0, MsgFlagConcurrency)
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, MsgFlagDryRun)
	_ = cmd.MarkFlagFilename("packages", "yaml", "yml", "json")
	_ = cmd.MarkFlagDirname("source")

	return cmd
}
