package cmd

import (
	"github.com/spf13/cobra"

	"flyingsocks-core/internal/client/cli"
	"flyingsocks-core/internal/core/metrics"
	"flyingsocks-core/internal/pac"
)

// decision 单个主机的代理决策
type decision struct {
	Host  string `json:"host" yaml:"host"`
	Proxy bool   `json:"proxy" yaml:"proxy"`
}

// checkResult check 命令的结构化输出
type checkResult struct {
	Mode      string     `json:"mode" yaml:"mode"`
	Decisions []decision `json:"decisions" yaml:"decisions"`
}

func newCheckCommand(a *app) *cobra.Command {
	var modeTag string

	cmd := &cobra.Command{
		Use:   "check <host>...",
		Short: "Show whether hosts go through the proxy",
		Long: `Load the rule files and evaluate each host under the saved proxy mode.
--mode evaluates under another mode without saving it.

Example:
  flyingsocks check www.example.com 114.114.114.114 --mode noncn`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadPAC()
			if err != nil {
				return err
			}
			engine := cfg.Engine()

			if modeTag != "" {
				mode, err := pac.ModeFromTag(modeTag)
				if err != nil {
					return err
				}
				if err := engine.ChangeProxyMode(mode); err != nil {
					return err
				}
			}

			result := checkResult{Mode: engine.ProxyMode().Tag()}
			for _, host := range args {
				need, err := engine.NeedProxy(cmd.Context(), host)
				if err != nil {
					return err
				}
				result.Decisions = append(result.Decisions, decision{Host: host, Proxy: need})
			}

			return a.render(result, func() {
				a.out.Info("proxy mode: %s", result.Mode)
				table := cli.NewTable("HOST", "DECISION")
				for _, d := range result.Decisions {
					table.AddRow(d.Host, a.out.Proxy(d.Proxy))
				}
				table.Render(a.out.Writer())
				a.out.Plain("%d proxy, %d direct",
					metrics.DecisionCount(a.metrics, result.Mode, true),
					metrics.DecisionCount(a.metrics, result.Mode, false))
			})
		},
	}

	cmd.Flags().StringVarP(&modeTag, "mode", "m", "", "Evaluate under this mode: no/pac/global/noncn")
	return cmd
}
