// Package packet 定义客户端向代理服务器发起的代理请求报文
//
// 报文格式（整数均为大端序）：
//
//	0      1            5         6        6+N      7+N       9+N           13+N
//	+------+------------+---------+--------+--------+---------+-------------+---------+
//	| Head | Serial ID  |Host Len |  Host  |  Ctrl  |  Port   | Message Len | Message |
//	|  1B  |    4B      |   1B    |   N    |   1B   |   2B    |     4B      |    M    |
//	+------+------------+---------+--------+--------+---------+-------------+---------+
//
// Serial ID 用于识别代理消息来自哪个本地连接；Ctrl 第 7 位为 UDP，第 6 位为 CLOSE，
// 都不置位为 TCP；Host 使用带 BOM 的 UTF-16 大端编码。
package packet

import (
	"fmt"
	"strings"

	coreerrors "flyingsocks-core/internal/core/errors"
	"flyingsocks-core/internal/utils/netaddr"
)

const (
	// ProxyRequestHead 代理请求报文头标识
	ProxyRequestHead byte = 0x00

	// HeaderFixedSize 除 Host 外的固定头部长度
	HeaderFixedSize = 1 + 4 + 1 + 1 + 2 + 4

	// MaxHostLength 编码后 Host 的最大字节数（单字节长度字段）
	MaxHostLength = 255

	// ControlUDP 控制字节中表示 UDP 的位
	ControlUDP byte = 1 << 7
	// ControlClose 控制字节中表示 CLOSE 的位
	ControlClose byte = 1 << 6
)

// Transport 传输层协议
type Transport byte

const (
	TransportTCP   Transport = iota
	TransportUDP             // UDP 报文
	TransportClose           // 要求服务器关闭与目标主机的连接
)

// String 返回协议名
func (t Transport) String() string {
	switch t {
	case TransportTCP:
		return "TCP"
	case TransportUDP:
		return "UDP"
	case TransportClose:
		return "CLOSE"
	default:
		return fmt.Sprintf("Transport(%d)", byte(t))
	}
}

// IsValid 判断协议取值是否合法
func (t Transport) IsValid() bool {
	return t <= TransportClose
}

// ControlByte 返回协议对应的控制字节
func (t Transport) ControlByte() byte {
	switch t {
	case TransportUDP:
		return ControlUDP
	case TransportClose:
		return ControlClose
	default:
		return 0
	}
}

// TransportFromControl 按第 7 位、第 6 位的顺序解析控制字节
func TransportFromControl(ctl byte) Transport {
	if ctl&ControlUDP != 0 {
		return TransportUDP
	}
	if ctl&ControlClose != 0 {
		return TransportClose
	}
	return TransportTCP
}

// ParseTransport 解析协议名（大小写不敏感）
func ParseTransport(s string) (Transport, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TCP":
		return TransportTCP, nil
	case "UDP":
		return TransportUDP, nil
	case "CLOSE":
		return TransportClose, nil
	default:
		return 0, coreerrors.Newf(coreerrors.CodeInvalidParam, "unknown transport %q, expected tcp/udp/close", s)
	}
}

// ProxyRequest 代理请求报文
type ProxyRequest struct {
	SerialID  int32     // 客户端消息序列号
	Host      string    // 目标主机名或 IP 地址
	Port      uint16    // 目标端口
	Transport Transport // 传输层协议
	Payload   []byte    // 首段应用数据，可以为空但序列化时不能为 nil
}

// NewProxyRequest 创建出站代理请求，Host/Port/Payload 需在序列化前设置
func NewProxyRequest(serialID int32, transport Transport) (*ProxyRequest, error) {
	if !transport.IsValid() {
		return nil, coreerrors.Newf(coreerrors.CodeValidationError, "invalid transport: %d", byte(transport))
	}
	return &ProxyRequest{
		SerialID:  serialID,
		Transport: transport,
	}, nil
}

// SetHost 设置目标主机
func (r *ProxyRequest) SetHost(host string) {
	r.Host = host
}

// SetPort 设置目标端口，超出 1-65535 时返回校验错误且不修改原值
func (r *ProxyRequest) SetPort(port int) error {
	if !netaddr.IsPort(port) {
		return coreerrors.Newf(coreerrors.CodeValidationError, "illegal port: %d", port).
			WithDetailInt("port", int64(port))
	}
	r.Port = uint16(port)
	return nil
}

// SetPayload 设置首段应用数据
func (r *ProxyRequest) SetPayload(payload []byte) {
	r.Payload = payload
}

// Address 返回 host:port 形式的目标地址
func (r *ProxyRequest) Address() string {
	if netaddr.IsIPv6Address(r.Host) && !strings.HasPrefix(r.Host, "[") {
		return fmt.Sprintf("[%s]:%d", r.Host, r.Port)
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// String 返回报文摘要，不包含 Payload 内容
func (r *ProxyRequest) String() string {
	return fmt.Sprintf("ProxyRequest{serialId=%d, host='%s', port=%d, transport=%s, payload=%d bytes}",
		r.SerialID, r.Host, r.Port, r.Transport, len(r.Payload))
}
