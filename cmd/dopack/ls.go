package dopack

import (
	"fmt"

	"github.com/arthur-debert/dopack/pkg/config"
	"github.com/arthur-debert/dopack/pkg/export"
	"github.com/arthur-debert/dopack/pkg/filesystem"
	"github.com/arthur-debert/dopack/pkg/ignore"
	"github.com/spf13/cobra"
)

func newLsCmd(global *globalFlags) *cobra.Command {
	var showRules bool

	cmd := &cobra.Command{
		Use:     "ls [source]",
		Short:   MsgLsShort,
		Long:    MsgLsLong,
		GroupID: "core",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "."
			if len(args) > 0 {
				source = args[0]
			}

			fsys := filesystem.NewOS()
			cfg, err := config.Load(fsys, source)
			if err != nil {
				return err
			}

			r, err := global.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if showRules {
				rules, err := ignore.Load(fsys, source, ignore.LoadOptions{
					Files:    cfg.Ignore.Files,
					Defaults: cfg.Ignore.Defaults,
				})
				if err != nil {
					return err
				}
				return r.RenderRules(rules.Source, rules.Rules())
			}

			result, err := export.New(fsys).Export(cmd.Context(), "", export.Options{
				Source:       source,
				IgnoreFiles:  cfg.Ignore.Files,
				DefaultRules: cfg.Ignore.Defaults,
				DryRun:       true,
				Concurrency:  cfg.Walk.Concurrency,
			})
			if err != nil {
				return err
			}

			if len(result.Manifest) == 0 && !global.json {
				return r.RenderMessage(fmt.Sprintf(MsgNothingExported, result.Source))
			}
			return r.RenderManifest(result.Manifest)
		},
	}
	cmd.Flags().BoolVar(&showRules, "rules", false, MsgFlagRules)
	return cmd
}
