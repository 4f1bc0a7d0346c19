package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"flyingsocks-core/internal/client/cli"
	"flyingsocks-core/internal/client/tunnel"
	"flyingsocks-core/internal/config"
	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/utils/iocopy"
)

func newConnectCommand(a *app) *cobra.Command {
	var network string

	cmd := &cobra.Command{
		Use:   "connect <host:port>",
		Short: "Connect to a target and relay stdin/stdout",
		Long: `Connect to host:port, through the proxy server when the proxy mode
requires it, and relay standard input and output over the connection.

Example:
  printf 'HEAD / HTTP/1.0\r\n\r\n' | flyingsocks connect example.com:80`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadPAC()
			if err != nil {
				return err
			}

			dialer, err := tunnel.NewDialer(config.TunnelConfig(a.root), cfg.Engine(),
				tunnel.WithLogger(corelog.Default()), tunnel.WithMetrics(a.metrics))
			if err != nil {
				return err
			}
			defer dialer.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			conn, err := dialer.DialContext(ctx, network, args[0])
			if err != nil {
				return err
			}
			defer conn.Close()

			tc, proxied := conn.(*tunnel.Conn)
			if proxied {
				corelog.Infof("connected to %s via %s (serial %d)", args[0], a.root.Server.Address, tc.SerialID())
			} else {
				corelog.Infof("connected to %s directly", args[0])
			}

			stdio, err := iocopy.NewReadWriteCloser(cmd.InOrStdin(), cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}

			// 中断时先通知服务器断开目标连接，再结束转发
			relayCtx, cancelRelay := context.WithCancel(context.Background())
			defer cancelRelay()
			stop := context.AfterFunc(ctx, func() {
				if proxied {
					if err := tc.CloseRemote(); err != nil {
						corelog.Debugf("failed to send close request for tunnel %d: %v", tc.SerialID(), err)
					}
				}
				cancelRelay()
			})
			defer stop()

			result := iocopy.Bidirectional(stdio, conn, &iocopy.Options{
				Context:   relayCtx,
				LogPrefix: "connect " + args[0],
			})
			if proxied {
				stats := tc.Stats()
				corelog.Infof("tunnel %d closed, sent %s, received %s in %s", tc.SerialID(),
					cli.FormatBytes(stats.BytesSent), cli.FormatBytes(stats.BytesRecv), cli.FormatDuration(stats.Duration))
			} else {
				corelog.Infof("connection closed, sent %s, received %s",
					cli.FormatBytes(result.BytesSent), cli.FormatBytes(result.BytesReceived))
			}
			return result.Err()
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", "tcp", "Network: tcp/udp")
	return cmd
}
