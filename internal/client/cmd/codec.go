package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"flyingsocks-core/internal/client/cli"
	"flyingsocks-core/internal/packet"
	"flyingsocks-core/internal/packet/builder"
	"flyingsocks-core/internal/packet/parser"
)

// requestView 代理请求的结构化输出
type requestView struct {
	SerialID   int32  `json:"serial_id" yaml:"serial_id"`
	Host       string `json:"host" yaml:"host"`
	Port       uint16 `json:"port" yaml:"port"`
	Transport  string `json:"transport" yaml:"transport"`
	PayloadLen int    `json:"payload_len" yaml:"payload_len"`
	Payload    string `json:"payload_hex,omitempty" yaml:"payload_hex,omitempty"`
	Consumed   int    `json:"consumed" yaml:"consumed"`
	Trailing   int    `json:"trailing" yaml:"trailing"`
}

func newEncodeCommand(a *app) *cobra.Command {
	var (
		serialID   int32
		host       string
		port       int
		transport  string
		payload    string
		payloadHex string
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a proxy request frame and print it as hex",
		Long: `Build a proxy request frame and print it as hex.

Example:
  flyingsocks encode --serial 1 --host example.com --port 443 --payload "GET / HTTP/1.1"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proto, err := packet.ParseTransport(transport)
			if err != nil {
				return err
			}
			req, err := packet.NewProxyRequest(serialID, proto)
			if err != nil {
				return err
			}
			req.SetHost(host)
			if err := req.SetPort(port); err != nil {
				return err
			}

			body := []byte(payload)
			if payloadHex != "" {
				if body, err = cli.ParseHex(payloadHex); err != nil {
					return err
				}
			}
			req.SetPayload(body)

			frame, err := builder.NewDefaultPacketBuilder(nil).Serialize(req)
			if err != nil {
				return err
			}
			defer frame.Release()

			a.out.Plain("%s", hex.EncodeToString(frame.Bytes()))
			return nil
		},
	}

	cmd.Flags().Int32Var(&serialID, "serial", 1, "Message serial id")
	cmd.Flags().StringVar(&host, "host", "", "Target host name or IP address")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Target port (1-65535)")
	cmd.Flags().StringVarP(&transport, "transport", "t", "tcp", "Transport: tcp/udp/close")
	cmd.Flags().StringVar(&payload, "payload", "", "Payload text")
	cmd.Flags().StringVar(&payloadHex, "payload-hex", "", "Payload as hex, overrides --payload")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("port")
	return cmd
}

func newDecodeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>...",
		Short: "Parse a hex encoded proxy request frame",
		Long: `Parse a hex encoded proxy request frame. Arguments are joined, so the
frame may be split across several arguments.

Example:
  flyingsocks decode 00 00000001 04 feff0061 00 0050 00000002 6869`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := cli.ParseHex(strings.Join(args, ""))
			if err != nil {
				return err
			}

			req, n, err := parser.NewDefaultPacketParser(a.root.Server.MaxPayload).Deserialize(data)
			if err != nil {
				return err
			}

			view := requestView{
				SerialID:   req.SerialID,
				Host:       req.Host,
				Port:       req.Port,
				Transport:  req.Transport.String(),
				PayloadLen: len(req.Payload),
				Payload:    hex.EncodeToString(req.Payload),
				Consumed:   n,
				Trailing:   len(data) - n,
			}
			return a.render(view, func() {
				a.out.KeyValue("Serial ID", strconv.Itoa(int(view.SerialID)))
				a.out.KeyValue("Target", req.Address())
				a.out.KeyValue("Transport", view.Transport)
				a.out.KeyValue("Payload", fmt.Sprintf("%d bytes %s", view.PayloadLen, cli.Truncate(view.Payload, 48)))
				if view.Trailing > 0 {
					a.out.Warning("%d trailing bytes after the frame", view.Trailing)
				}
			})
		},
	}
}
