// Package transport TCP 传输层实现
// TCP 是基础协议，始终编译
package transport

import (
	"context"
	"net"
	"time"

	coreerrors "flyingsocks-core/internal/core/errors"
)

const (
	// ProtocolTCP TCP 协议名
	ProtocolTCP = "tcp"

	tcpDialTimeout     = 10 * time.Second
	tcpKeepAlivePeriod = 30 * time.Second
)

func init() {
	RegisterProtocol(ProtocolTCP, 30, DialTCP)
}

// DialTCP 建立到代理服务器的 TCP 连接，ctx 带截止时间时以 ctx 为准
func DialTCP(ctx context.Context, address string) (net.Conn, error) {
	dialer := &net.Dialer{
		Timeout:   tcpDialTimeout,
		KeepAlive: tcpKeepAlivePeriod,
	}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, coreerrors.Wrapf(err, coreerrors.CodeConnectionError, "failed to dial tcp %s", address)
	}
	return conn, nil
}
