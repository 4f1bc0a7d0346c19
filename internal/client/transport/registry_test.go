package transport

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "flyingsocks-core/internal/core/errors"
)

func TestRegisterProtocol(t *testing.T) {
	testDialer := func(ctx context.Context, address string) (net.Conn, error) {
		return nil, nil
	}
	RegisterProtocol("test-protocol", 50, testDialer)

	info, ok := GetProtocol("test-protocol")
	require.True(t, ok)
	assert.Equal(t, "test-protocol", info.Name)
	assert.Equal(t, 50, info.Priority)
	assert.NotNil(t, info.Dialer)
	assert.True(t, IsProtocolAvailable("test-protocol"))
}

func TestGetProtocol(t *testing.T) {
	tests := []struct {
		name     string
		protocol string
		exists   bool
	}{
		{name: "tcp", protocol: ProtocolTCP, exists: true},
		{name: "websocket", protocol: ProtocolWebSocket, exists: true},
		{name: "non-existent", protocol: "non-existent", exists: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := GetProtocol(tt.protocol)
			assert.Equal(t, tt.exists, ok)
			if tt.exists {
				assert.NotNil(t, info)
			}
		})
	}
}

func TestGetRegisteredProtocols_SortedByPriority(t *testing.T) {
	protocols := GetRegisteredProtocols()
	require.NotEmpty(t, protocols)

	for i := 1; i < len(protocols); i++ {
		assert.LessOrEqual(t, protocols[i-1].Priority, protocols[i].Priority)
	}

	names := GetAvailableProtocolNames()
	assert.Contains(t, names, ProtocolTCP)
	assert.Contains(t, names, ProtocolWebSocket)
	// websocket 优先级 10，排在 tcp（30）之前
	assert.Less(t, indexOf(names, ProtocolWebSocket), indexOf(names, ProtocolTCP))
}

func TestDial_UnavailableProtocol(t *testing.T) {
	_, err := Dial(context.Background(), "unavailable-protocol", "127.0.0.1:8080")
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeProtocolError))
}

func TestDial_TCP(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, _ := listener.Accept()
		if conn != nil {
			conn.Close()
		}
	}()

	conn, err := Dial(context.Background(), ProtocolTCP, listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
