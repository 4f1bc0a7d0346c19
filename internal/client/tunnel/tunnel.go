// Package tunnel 通过代理服务器建立到目标主机的隧道连接
package tunnel

import (
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/core/metrics"
	"flyingsocks-core/internal/packet"
	"flyingsocks-core/internal/packet/builder"
)

// CloseReason 关闭原因
type CloseReason int

const (
	CloseReasonLocalClosed     CloseReason = iota // 本地连接关闭
	CloseReasonContextCanceled                    // 管理器关闭
)

func (r CloseReason) String() string {
	switch r {
	case CloseReasonLocalClosed:
		return "local_closed"
	case CloseReasonContextCanceled:
		return "context_canceled"
	default:
		return "unknown"
	}
}

// Stats 隧道统计信息
type Stats struct {
	BytesSent int64
	BytesRecv int64
	Duration  time.Duration
}

// Conn 经由代理服务器的隧道连接
//
// 每次 Write 都封装为一条携带相同序列号和目标的代理请求，Read 返回服务器的原始数据
type Conn struct {
	net.Conn

	serialID  int32
	host      string
	port      uint16
	transport packet.Transport

	builder builder.PacketBuilder
	manager *Manager
	logger  corelog.Logger
	metrics metrics.Metrics

	writeMu sync.Mutex

	createdAt time.Time
	bytesSent atomic.Int64
	bytesRecv atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

// SerialID 返回本连接的消息序列号
func (c *Conn) SerialID() int32 {
	return c.serialID
}

// Target 返回目标 host:port
func (c *Conn) Target() string {
	return net.JoinHostPort(c.host, strconv.Itoa(int(c.port)))
}

// Transport 返回传输层协议
func (c *Conn) Transport() packet.Transport {
	return c.transport
}

// Read 读取并统计
func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	c.bytesRecv.Add(int64(n))
	return n, err
}

// Write 将 p 作为一条代理请求的消息体发送，返回的字节数不含报文头
func (c *Conn) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := c.send(c.transport, p); err != nil {
		return 0, err
	}
	c.bytesSent.Add(int64(len(p)))
	return len(p), nil
}

func (c *Conn) send(transport packet.Transport, payload []byte) error {
	req := &packet.ProxyRequest{
		SerialID:  c.serialID,
		Host:      c.host,
		Port:      c.port,
		Transport: transport,
		Payload:   payload,
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.builder.WriteTo(c.Conn, req)
	return err
}

// Stats 返回统计信息
func (c *Conn) Stats() Stats {
	return Stats{
		BytesSent: c.bytesSent.Load(),
		BytesRecv: c.bytesRecv.Load(),
		Duration:  time.Since(c.createdAt),
	}
}

// CloseRemote 发送 CLOSE 请求，要求服务器断开与目标主机的连接
func (c *Conn) CloseRemote() error {
	return c.send(packet.TransportClose, []byte{})
}

// Close 关闭连接并从管理器中注销
func (c *Conn) Close() error {
	return c.close(CloseReasonLocalClosed)
}

func (c *Conn) close(reason CloseReason) error {
	c.closeOnce.Do(func() {
		if c.manager != nil {
			c.manager.Unregister(c.serialID)
		}
		c.closeErr = c.Conn.Close()

		stats := c.Stats()
		metrics.RecordTunnelTraffic(c.metrics, stats.BytesSent, stats.BytesRecv)
		if c.manager != nil {
			metrics.SetActiveTunnels(c.metrics, c.manager.Count())
		}
		c.logger.WithFields(map[string]interface{}{
			corelog.FieldSerialID: c.serialID,
			corelog.FieldHost:     c.host,
			corelog.FieldPort:     c.port,
		}).Debugf("tunnel closed, reason=%s, sent=%d, recv=%d, duration=%s",
			reason, stats.BytesSent, stats.BytesRecv, stats.Duration)
	})
	return c.closeErr
}
