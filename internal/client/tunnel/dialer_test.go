package tunnel

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "flyingsocks-core/internal/core/errors"
	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/core/metrics"
	"flyingsocks-core/internal/pac"
	"flyingsocks-core/internal/packet"
	"flyingsocks-core/internal/packet/parser"
)

// fakeServer 接收代理请求，首帧送到 requests，后续帧的消息体送到 data
type fakeServer struct {
	listener net.Listener
	requests chan *packet.ProxyRequest
	data     chan []byte
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{
		listener: l,
		requests: make(chan *packet.ProxyRequest, 16),
		data:     make(chan []byte, 16),
	}
	go s.serve()
	t.Cleanup(func() { l.Close() })
	return s
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go func(c net.Conn) {
			defer c.Close()
			p := parser.NewDefaultPacketParser(0)
			req, err := p.ReadFrom(c)
			if err != nil {
				return
			}
			s.requests <- req

			for {
				frame, err := p.ReadFrom(c)
				if err != nil {
					return
				}
				if frame.SerialID != req.SerialID || frame.Host != req.Host {
					return
				}
				s.data <- append([]byte(nil), frame.Payload...)
			}
		}(conn)
	}
}

func newEngine(t *testing.T, mode pac.Mode) *pac.Engine {
	t.Helper()
	e, err := pac.NewEngine(mode, pac.WithLogger(corelog.NewNopLogger()))
	require.NoError(t, err)
	return e
}

func TestNewDialer_Invalid(t *testing.T) {
	_, err := NewDialer(Config{ServerAddress: "127.0.0.1:1"}, nil)
	assert.True(t, coreerrors.IsValidationError(err))

	_, err = NewDialer(Config{}, newEngine(t, pac.ModeGlobal))
	assert.True(t, coreerrors.IsValidationError(err))

	_, err = NewDialer(Config{ServerAddress: "127.0.0.1:1", Protocol: "carrier-pigeon"}, newEngine(t, pac.ModeGlobal))
	assert.ErrorIs(t, err, coreerrors.ErrConfigError)
}

func TestDialer_Tunnel(t *testing.T) {
	srv := newFakeServer(t)
	m := metrics.NewMemoryMetrics()
	d, err := NewDialer(Config{ServerAddress: srv.listener.Addr().String()},
		newEngine(t, pac.ModeGlobal), WithLogger(corelog.NewTestLogger(t)), WithMetrics(m))
	require.NoError(t, err)
	defer d.Close()

	conn, err := d.DialContext(context.Background(), "tcp", "example.com:443")
	require.NoError(t, err)

	tc, ok := conn.(*Conn)
	require.True(t, ok)
	assert.Equal(t, int32(1), tc.SerialID())
	assert.Equal(t, "example.com:443", tc.Target())
	assert.Equal(t, packet.TransportTCP, tc.Transport())
	assert.Equal(t, 1, d.Manager().Count())

	select {
	case req := <-srv.requests:
		assert.Equal(t, int32(1), req.SerialID)
		assert.Equal(t, "example.com", req.Host)
		assert.Equal(t, uint16(443), req.Port)
		assert.Equal(t, packet.TransportTCP, req.Transport)
		assert.Empty(t, req.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive proxy request")
	}

	n, err := conn.Write([]byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = conn.Write(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	select {
	case data := <-srv.data:
		assert.Equal(t, "ping", string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive data")
	}
	assert.Equal(t, int64(4), tc.Stats().BytesSent)

	require.NoError(t, conn.Close())
	assert.Equal(t, 0, d.Manager().Count())

	dials, _ := m.GetCounter(metrics.NameDials, map[string]string{"route": metrics.RouteProxy, "network": "tcp"})
	assert.Equal(t, float64(1), dials)
	sent, _ := m.GetCounter(metrics.NameTunnelSent, nil)
	assert.Equal(t, float64(4), sent)
	active, _ := m.GetGauge(metrics.NameActiveTunnels, nil)
	assert.Equal(t, float64(0), active)
}

func TestDialer_SerialIncrementsAndUDP(t *testing.T) {
	srv := newFakeServer(t)
	d, err := NewDialer(Config{ServerAddress: srv.listener.Addr().String()}, newEngine(t, pac.ModeGlobal),
		WithLogger(corelog.NewNopLogger()))
	require.NoError(t, err)
	defer d.Close()

	c1, err := d.Dial("tcp", "a.example:80")
	require.NoError(t, err)
	c2, err := d.Dial("udp", "[2001:db8::1]:53")
	require.NoError(t, err)

	assert.Equal(t, int32(1), c1.(*Conn).SerialID())
	assert.Equal(t, int32(2), c2.(*Conn).SerialID())
	assert.Equal(t, packet.TransportUDP, c2.(*Conn).Transport())

	got := map[int32]*packet.ProxyRequest{}
	for i := 0; i < 2; i++ {
		select {
		case req := <-srv.requests:
			got[req.SerialID] = req
		case <-time.After(2 * time.Second):
			t.Fatal("server did not receive proxy request")
		}
	}
	assert.Equal(t, "2001:db8::1", got[2].Host)
	assert.Equal(t, packet.TransportUDP, got[2].Transport)

	assert.Len(t, d.Manager().List(), 2)
	d.Close()
	assert.Equal(t, 0, d.Manager().Count())
}

func TestDialer_CloseRemote(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	frames := make(chan *packet.ProxyRequest, 2)
	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		p := parser.NewDefaultPacketParser(0)
		for i := 0; i < 2; i++ {
			req, err := p.ReadFrom(c)
			if err != nil {
				return
			}
			frames <- req
		}
	}()

	d, err := NewDialer(Config{ServerAddress: l.Addr().String()}, newEngine(t, pac.ModeGlobal),
		WithLogger(corelog.NewNopLogger()))
	require.NoError(t, err)

	conn, err := d.Dial("tcp", "example.com:80")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.(*Conn).CloseRemote())

	var reqs []*packet.ProxyRequest
	for i := 0; i < 2; i++ {
		select {
		case req := <-frames:
			reqs = append(reqs, req)
		case <-time.After(2 * time.Second):
			t.Fatal("missing frame")
		}
	}
	assert.Equal(t, packet.TransportTCP, reqs[0].Transport)
	assert.Equal(t, packet.TransportClose, reqs[1].Transport)
	assert.Equal(t, reqs[0].SerialID, reqs[1].SerialID)
	assert.Equal(t, "example.com", reqs[1].Host)
}

func TestDialer_Direct(t *testing.T) {
	target, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer target.Close()

	go func() {
		c, err := target.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		io.WriteString(c, "direct")
	}()

	serverDialed := false
	d, err := NewDialer(Config{ServerAddress: "127.0.0.1:1"}, newEngine(t, pac.ModeNone),
		WithLogger(corelog.NewNopLogger()),
		WithServerDialer(func(ctx context.Context, address string) (net.Conn, error) {
			serverDialed = true
			return nil, io.EOF
		}))
	require.NoError(t, err)

	conn, err := d.DialContext(context.Background(), "tcp", target.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, isTunnel := conn.(*Conn)
	assert.False(t, isTunnel)
	assert.False(t, serverDialed)

	buf := make([]byte, 6)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "direct", string(buf))
}

func TestDialer_ServerUnavailable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	d, err := NewDialer(Config{ServerAddress: addr, ConnectTimeout: time.Second}, newEngine(t, pac.ModeGlobal),
		WithLogger(corelog.NewNopLogger()))
	require.NoError(t, err)

	_, err = d.Dial("tcp", "example.com:80")
	assert.ErrorIs(t, err, coreerrors.ErrTunnelError)
	assert.Equal(t, 0, d.Manager().Count())
}

func TestDialer_BadArguments(t *testing.T) {
	d, err := NewDialer(Config{ServerAddress: "127.0.0.1:1"}, newEngine(t, pac.ModeGlobal),
		WithLogger(corelog.NewNopLogger()))
	require.NoError(t, err)

	_, err = d.Dial("unix", "/tmp/sock")
	assert.True(t, coreerrors.IsValidationError(err))

	_, err = d.Dial("tcp", "no-port")
	assert.True(t, coreerrors.IsValidationError(err))

	_, err = d.Dial("tcp", "example.com:0")
	assert.True(t, coreerrors.IsValidationError(err))

	_, err = d.Dial("tcp", "example.com:http")
	assert.True(t, coreerrors.IsValidationError(err))
}
