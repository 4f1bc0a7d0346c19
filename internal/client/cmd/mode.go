package cmd

import (
	"github.com/spf13/cobra"

	"flyingsocks-core/internal/client/cli"
	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/pac"
)

// modeView 模式的结构化输出
type modeView struct {
	Tag  string `json:"tag" yaml:"tag"`
	Name string `json:"name" yaml:"name"`
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

var modeDescriptions = map[pac.Mode]string{
	pac.ModeNone:       "never proxy",
	pac.ModeDomainList: "proxy hosts in the domain list",
	pac.ModeGlobal:     "always proxy",
	pac.ModeNonChina:   "proxy unless the IPv4 address is whitelisted",
}

func newModeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Show the saved proxy mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.modeStore()
			if err != nil {
				return err
			}
			mode, err := store.Load()
			if err != nil {
				return err
			}

			view := modeView{Tag: mode.Tag(), Name: mode.String(), File: store.Path()}
			return a.render(view, func() {
				a.out.KeyValue("Mode", view.Tag)
				a.out.KeyValue("Description", modeDescriptions[mode])
				a.out.KeyValue("File", view.File)
			})
		},
	}

	cmd.AddCommand(newModeSetCommand(a))
	cmd.AddCommand(newModeListCommand(a))
	return cmd
}

func newModeSetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <no|pac|global|noncn>",
		Short: "Change and save the proxy mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := pac.ModeFromTag(args[0])
			if err != nil {
				return err
			}

			store, err := a.modeStore()
			if err != nil {
				return err
			}
			cfg, err := pac.NewModeConfig(store, corelog.Default())
			if err != nil {
				return err
			}
			current := cfg.ProxyMode()
			if current == mode {
				a.out.Info("proxy mode is already %s", mode.Tag())
				return nil
			}

			if err := cfg.SetProxyMode(mode); err != nil {
				return err
			}
			a.out.Success("proxy mode changed from %s to %s", current.Tag(), mode.Tag())
			return nil
		},
	}
}

func newModeListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the proxy modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := []pac.Mode{pac.ModeNone, pac.ModeDomainList, pac.ModeGlobal, pac.ModeNonChina}
			views := make([]modeView, 0, len(modes))
			for _, m := range modes {
				views = append(views, modeView{Tag: m.Tag(), Name: m.String()})
			}

			return a.render(views, func() {
				table := cli.NewTable("TAG", "MODE", "DESCRIPTION")
				for _, m := range modes {
					table.AddRow(m.Tag(), m.String(), modeDescriptions[m])
				}
				table.Render(a.out.Writer())
			})
		},
	}
}
