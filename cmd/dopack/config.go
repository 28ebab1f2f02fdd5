package dopack

import (
	"io"

	"github.com/arthur-debert/dopack/pkg/config"
	"github.com/arthur-debert/dopack/pkg/filesystem"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var template bool

	cmd := &cobra.Command{
		Use:     "config [source]",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "misc",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if template {
				_, err := io.WriteString(cmd.OutOrStdout(), config.Template())
				return err
			}

			source := "."
			if len(args) > 0 {
				source = args[0]
			}
			cfg, err := config.Load(filesystem.NewOS(), source)
			if err != nil {
				return err
			}
			data, err := cfg.TOML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&template, "template", false, MsgFlagTemplate)
	return cmd
}
