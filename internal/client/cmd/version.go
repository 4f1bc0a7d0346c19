package cmd

import (
	"github.com/spf13/cobra"

	"flyingsocks-core/internal/version"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			return a.render(info, func() {
				a.out.Plain("flyingsocks %s", version.GetVersion())
				a.out.KeyValue("Go", info.GoVersion)
				a.out.KeyValue("Platform", info.Platform)
			})
		},
	}
}
