// Package cmd 提供 flyingsocks 客户端的命令行入口
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"flyingsocks-core/internal/client/cli"
	"flyingsocks-core/internal/config"
	"flyingsocks-core/internal/config/schema"
	coreerrors "flyingsocks-core/internal/core/errors"
	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/core/metrics"
	"flyingsocks-core/internal/pac"
	"flyingsocks-core/internal/utils"
	"flyingsocks-core/internal/version"
)

// 输出格式
const (
	outputText = "text"
	outputYAML = "yaml"
	outputJSON = "json"
)

// globalFlags 全局标志
type globalFlags struct {
	configFile string
	logLevel   string
	output     string
	noColor    bool
}

// app 在子命令之间共享已加载的配置和输出工具
type app struct {
	flags globalFlags
	root    *schema.Root
	out     *cli.Output
	metrics *metrics.MemoryMetrics
}

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "flyingsocks",
		Short: "flyingsocks - rule based proxy client",
		Long: `flyingsocks decides per destination whether traffic goes through the
proxy server or straight to the target, and speaks the proxy request
protocol to the server.

Examples:
  flyingsocks check www.example.com 1.2.3.4
  flyingsocks mode set noncn
  flyingsocks encode --host example.com --port 443
  flyingsocks connect example.com:80`,
		Version:           version.GetVersion(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVarP(&a.flags.configFile, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug/info/warn/error")
	rootCmd.PersistentFlags().StringVarP(&a.flags.output, "output", "o", outputText, "Output format: text/yaml/json")
	rootCmd.PersistentFlags().BoolVar(&a.flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newCheckCommand(a))
	rootCmd.AddCommand(newModeCommand(a))
	rootCmd.AddCommand(newEncodeCommand(a))
	rootCmd.AddCommand(newDecodeCommand(a))
	rootCmd.AddCommand(newConnectCommand(a))
	rootCmd.AddCommand(newVersionCommand(a))

	return rootCmd
}

// Execute 执行根命令
func Execute() {
	// 全局 panic recovery
	defer func() {
		if r := recover(); r != nil {
			corelog.Errorf("FATAL: main goroutine panic recovered: %v", r)
			fmt.Fprintf(os.Stderr, "\nPANIC: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", string(debug.Stack()))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// setup 加载配置并初始化日志
func (a *app) setup(cmd *cobra.Command, args []string) error {
	switch a.flags.output {
	case outputText, outputYAML, outputJSON:
	default:
		return coreerrors.Newf(coreerrors.CodeInvalidParam, "unknown output format %q, expected text/yaml/json", a.flags.output)
	}

	root, err := config.Load(a.flags.configFile, func(cfg *schema.Root) {
		if a.flags.logLevel != "" {
			cfg.Log.Level = a.flags.logLevel
		}
	})
	if err != nil {
		return err
	}
	if err := corelog.Configure(config.LogConfig(root)); err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeConfigError, "failed to configure logging")
	}

	a.root = root
	a.out = cli.NewOutput(cmd.OutOrStdout(), a.flags.noColor)
	a.metrics = metrics.NewMemoryMetrics()
	return nil
}

// render 按 --output 输出，text 格式调用 text
func (a *app) render(v interface{}, text func()) error {
	w := a.out.Writer()
	switch a.flags.output {
	case outputYAML:
		return encodeYAML(w, v)
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		text()
		return nil
	}
}

func encodeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// modeStore 返回配置目录下的模式文件
func (a *app) modeStore() (*pac.FileModeStore, error) {
	dir, err := utils.ExpandPath(a.root.PAC.Dir)
	if err != nil {
		return nil, err
	}
	return pac.NewFileModeStore(filepath.Join(dir, a.root.PAC.ModeFile), corelog.Default()), nil
}

// loadPAC 加载规则文件并创建决策引擎
func (a *app) loadPAC() (*pac.Config, error) {
	return pac.Load(config.PACOptions(a.root), pac.WithConfigLogger(corelog.Default()),
		pac.WithConfigMetrics(a.metrics))
}
