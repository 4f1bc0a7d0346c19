//go:build !no_websocket

// Package transport WebSocket 传输层实现
// 将 WebSocket 二进制消息封装为 net.Conn，用于穿过只放行 HTTP 的网络
// 使用 -tags no_websocket 可以排除此协议
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	coreerrors "flyingsocks-core/internal/core/errors"
	corelog "flyingsocks-core/internal/core/log"
)

const (
	// ProtocolWebSocket WebSocket 协议名
	ProtocolWebSocket = "websocket"

	// DefaultWebSocketPath 地址中未给出路径时使用的默认路径
	DefaultWebSocketPath = "/flyingsocks"

	webSocketBufferSize       = 32 * 1024
	webSocketHandshakeTimeout = 20 * time.Second
)

func init() {
	RegisterProtocol(ProtocolWebSocket, 10, DialWebSocket)
}

// WebSocketStreamConn 把 WebSocket 连接包装成字节流形式的 net.Conn
type WebSocketStreamConn struct {
	conn       *websocket.Conn
	readBuf    []byte
	readMu     sync.Mutex
	writeMu    sync.Mutex
	closeOnce  sync.Once
	closed     chan struct{}
	localAddr  net.Addr
	remoteAddr net.Addr
}

// NewWebSocketStreamConn 包装已建立的 WebSocket 连接
func NewWebSocketStreamConn(conn *websocket.Conn, remote string) *WebSocketStreamConn {
	return &WebSocketStreamConn{
		conn:       conn,
		closed:     make(chan struct{}),
		localAddr:  &wsAddr{addr: conn.LocalAddr().String()},
		remoteAddr: &wsAddr{addr: remote},
	}
}

// Read implements io.Reader
func (c *WebSocketStreamConn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closed:
		return 0, io.EOF
	default:
	}

	// 先返回上一条消息中未读完的部分
	if len(c.readBuf) > 0 {
		n := copy(p, c.readBuf)
		c.readBuf = c.readBuf[n:]
		return n, nil
	}

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		select {
		case <-c.closed:
			return 0, io.EOF
		default:
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return 0, io.EOF
		}
		return 0, coreerrors.Wrap(err, coreerrors.CodeNetworkError, "websocket read failed")
	}

	if messageType != websocket.BinaryMessage {
		return 0, coreerrors.Newf(coreerrors.CodeProtocolError, "unexpected websocket message type: %d", messageType)
	}

	n := copy(p, data)
	if n < len(data) {
		c.readBuf = append(c.readBuf[:0], data[n:]...)
	}
	return n, nil
}

// Write implements io.Writer，每次写入对应一条二进制消息
func (c *WebSocketStreamConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closed:
		return 0, io.ErrClosedPipe
	default:
	}

	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, coreerrors.Wrap(err, coreerrors.CodeNetworkError, "websocket write failed")
	}
	return len(p), nil
}

// Close implements io.Closer
func (c *WebSocketStreamConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()
		corelog.Debugf("WebSocket: connection to %s closed", c.remoteAddr)
	})
	return err
}

// LocalAddr implements net.Conn
func (c *WebSocketStreamConn) LocalAddr() net.Addr {
	return c.localAddr
}

// RemoteAddr implements net.Conn
func (c *WebSocketStreamConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// SetDeadline implements net.Conn
func (c *WebSocketStreamConn) SetDeadline(t time.Time) error {
	if err := c.SetReadDeadline(t); err != nil {
		return err
	}
	return c.SetWriteDeadline(t)
}

// SetReadDeadline implements net.Conn
func (c *WebSocketStreamConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline implements net.Conn
func (c *WebSocketStreamConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// wsAddr implements net.Addr for WebSocket connections
type wsAddr struct {
	addr string
}

func (a *wsAddr) Network() string {
	return ProtocolWebSocket
}

func (a *wsAddr) String() string {
	return a.addr
}

// NormalizeWebSocketURL 规范化 WebSocket URL，支持多种格式：
// - https://proxy.example.com/flyingsocks -> wss://proxy.example.com/flyingsocks
// - http://proxy.example.com/flyingsocks -> ws://proxy.example.com/flyingsocks
// - ws://proxy.example.com -> ws://proxy.example.com/flyingsocks (添加默认路径)
// - proxy.example.com:2020 -> ws://proxy.example.com:2020/flyingsocks
func NormalizeWebSocketURL(address string) (string, error) {
	if address == "" {
		return "", coreerrors.New(coreerrors.CodeInvalidParam, "websocket address is empty")
	}

	lower := strings.ToLower(address)
	if strings.HasPrefix(lower, "ws://") || strings.HasPrefix(lower, "wss://") ||
		strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		parsedURL, err := url.Parse(address)
		if err != nil {
			return "", coreerrors.Wrap(err, coreerrors.CodeInvalidParam, "invalid URL format")
		}
		if parsedURL.Host == "" {
			return "", coreerrors.Newf(coreerrors.CodeInvalidParam, "missing host in %q", address)
		}

		scheme := strings.ToLower(parsedURL.Scheme)
		switch scheme {
		case "http":
			scheme = "ws"
		case "https":
			scheme = "wss"
		}

		path := parsedURL.Path
		if path == "" {
			path = DefaultWebSocketPath
		}

		wsURL := fmt.Sprintf("%s://%s%s", scheme, parsedURL.Host, path)
		if parsedURL.RawQuery != "" {
			wsURL += "?" + parsedURL.RawQuery
		}
		return wsURL, nil
	}

	// host:port 形式，可带路径
	if strings.Contains(address, "/") {
		return "ws://" + address, nil
	}
	return "ws://" + address + DefaultWebSocketPath, nil
}

// DialWebSocket 通过 WebSocket 连接代理服务器
func DialWebSocket(ctx context.Context, address string) (net.Conn, error) {
	wsURL, err := NormalizeWebSocketURL(address)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: webSocketHandshakeTimeout,
		ReadBufferSize:   webSocketBufferSize,
		WriteBufferSize:  webSocketBufferSize,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, coreerrors.Wrapf(err, coreerrors.CodeConnectionError, "websocket dial %s failed", wsURL)
	}
	corelog.Debugf("WebSocket: connected to %s", wsURL)

	return NewWebSocketStreamConn(conn, wsURL), nil
}
