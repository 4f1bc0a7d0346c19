package tunnel

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/proxy"

	"flyingsocks-core/internal/client/transport"
	coreerrors "flyingsocks-core/internal/core/errors"
	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/core/metrics"
	"flyingsocks-core/internal/pac"
	"flyingsocks-core/internal/packet"
	"flyingsocks-core/internal/packet/builder"
)

// DefaultConnectTimeout 连接代理服务器的默认超时
const DefaultConnectTimeout = 10 * time.Second

// Config 隧道拨号配置
type Config struct {
	ServerAddress  string        // 代理服务器地址
	Protocol       string        // 传输层协议: tcp / websocket
	ConnectTimeout time.Duration // 连接代理服务器的超时
}

// Dialer 根据代理决策选择直连或经由代理服务器建立隧道
//
// 实现 proxy.Dialer 与 proxy.ContextDialer，可直接用于 http.Transport 等场景
type Dialer struct {
	config  Config
	checker pac.Checker
	builder builder.PacketBuilder
	manager *Manager
	logger  corelog.Logger
	metrics metrics.Metrics

	direct     proxy.ContextDialer
	dialServer transport.Dialer

	serial atomic.Int32
}

// Option Dialer 选项
type Option func(*Dialer)

// WithServerDialer 替换连接代理服务器的拨号函数
func WithServerDialer(d transport.Dialer) Option {
	return func(dl *Dialer) {
		if d != nil {
			dl.dialServer = d
		}
	}
}

// WithLogger 设置日志
func WithLogger(l corelog.Logger) Option {
	return func(dl *Dialer) {
		if l != nil {
			dl.logger = l
		}
	}
}

// WithMetrics 设置拨号与隧道流量计数
func WithMetrics(m metrics.Metrics) Option {
	return func(dl *Dialer) {
		dl.metrics = m
	}
}

// NewDialer 创建隧道拨号器
func NewDialer(cfg Config, checker pac.Checker, opts ...Option) (*Dialer, error) {
	if checker == nil {
		return nil, coreerrors.New(coreerrors.CodeInvalidParam, "proxy checker is nil")
	}
	if cfg.ServerAddress == "" {
		return nil, coreerrors.New(coreerrors.CodeInvalidParam, "server address is empty")
	}
	if cfg.Protocol == "" {
		cfg.Protocol = transport.ProtocolTCP
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}

	d := &Dialer{
		config:  cfg,
		checker: checker,
		builder: builder.NewDefaultPacketBuilder(nil),
		manager: NewManager(),
		logger:  corelog.Default(),
		direct:  proxy.Direct,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.dialServer == nil {
		if !transport.IsProtocolAvailable(cfg.Protocol) {
			return nil, coreerrors.Newf(coreerrors.CodeConfigError,
				"transport %q is not available, expected one of %v", cfg.Protocol, transport.GetAvailableProtocolNames())
		}
		protocol := cfg.Protocol
		d.dialServer = func(ctx context.Context, address string) (net.Conn, error) {
			return transport.Dial(ctx, protocol, address)
		}
	}
	return d, nil
}

// Manager 返回活动隧道管理器
func (d *Dialer) Manager() *Manager {
	return d.manager
}

// Dial 实现 proxy.Dialer
func (d *Dialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

// DialContext 实现 proxy.ContextDialer
//
// 代理决策在调用方的 goroutine 上执行，NON_CHINA 模式下可能因解析主机名而阻塞
func (d *Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	proto, err := transportOf(network)
	if err != nil {
		return nil, err
	}
	host, port, err := splitHostPort(addr)
	if err != nil {
		return nil, err
	}

	need, err := d.checker.NeedProxy(ctx, host)
	if err != nil {
		return nil, err
	}

	logger := d.logger.WithFields(map[string]interface{}{
		corelog.FieldHost: host,
		corelog.FieldPort: port,
		corelog.FieldMode: d.checker.ProxyMode().Tag(),
	})

	if !need {
		logger.Debugf("direct connect %s", addr)
		conn, err := d.direct.DialContext(ctx, network, addr)
		metrics.RecordDial(d.metrics, metrics.RouteDirect, network, err)
		if err != nil {
			return nil, coreerrors.Wrapf(err, coreerrors.CodeConnectionError, "direct dial %s failed", addr)
		}
		return conn, nil
	}

	conn, err := d.dialTunnel(ctx, proto, host, port, logger)
	metrics.RecordDial(d.metrics, metrics.RouteProxy, network, err)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (d *Dialer) dialTunnel(ctx context.Context, proto packet.Transport, host string, port int, logger corelog.Logger) (*Conn, error) {
	req, err := packet.NewProxyRequest(d.serial.Add(1), proto)
	if err != nil {
		return nil, err
	}
	req.SetHost(host)
	if err := req.SetPort(port); err != nil {
		return nil, err
	}
	req.SetPayload([]byte{})

	dialCtx, cancel := context.WithTimeout(ctx, d.config.ConnectTimeout)
	defer cancel()

	raw, err := d.dialServer(dialCtx, d.config.ServerAddress)
	if err != nil {
		return nil, coreerrors.Wrapf(err, coreerrors.CodeTunnelError,
			"failed to connect proxy server %s", d.config.ServerAddress)
	}

	if deadline, ok := dialCtx.Deadline(); ok {
		_ = raw.SetWriteDeadline(deadline)
	}
	if _, err := d.builder.WriteTo(raw, req); err != nil {
		raw.Close()
		return nil, coreerrors.Wrap(err, coreerrors.CodeTunnelError, "failed to send proxy request")
	}
	_ = raw.SetWriteDeadline(time.Time{})

	conn := &Conn{
		Conn:      raw,
		serialID:  req.SerialID,
		host:      host,
		port:      req.Port,
		transport: proto,
		builder:   d.builder,
		manager:   d.manager,
		logger:    d.logger,
		metrics:   d.metrics,
		createdAt: time.Now(),
	}
	if err := d.manager.Register(conn); err != nil {
		raw.Close()
		return nil, err
	}
	metrics.SetActiveTunnels(d.metrics, d.manager.Count())

	logger.WithField(corelog.FieldSerialID, req.SerialID).
		WithField(corelog.FieldTransport, d.config.Protocol).
		Debugf("tunnel to %s established via %s", conn.Target(), d.config.ServerAddress)
	return conn, nil
}

// Close 关闭所有活动隧道
func (d *Dialer) Close() error {
	d.manager.CloseAll()
	return nil
}

// transportOf 将网络类型映射为代理请求的传输层协议
func transportOf(network string) (packet.Transport, error) {
	switch {
	case strings.HasPrefix(network, "tcp"):
		return packet.TransportTCP, nil
	case strings.HasPrefix(network, "udp"):
		return packet.TransportUDP, nil
	default:
		return 0, coreerrors.Newf(coreerrors.CodeInvalidParam, "unsupported network %q", network)
	}
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, coreerrors.Wrapf(err, coreerrors.CodeInvalidParam, "invalid address %q", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, coreerrors.Wrapf(err, coreerrors.CodeInvalidParam, "invalid port in %q", addr)
	}
	return host, port, nil
}

var (
	_ proxy.Dialer        = (*Dialer)(nil)
	_ proxy.ContextDialer = (*Dialer)(nil)
)
