// Package validator 提供数据包验证器的测试
package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	coreerrors "flyingsocks-core/internal/core/errors"
	"flyingsocks-core/internal/packet"
)

func TestDefaultPacketValidator_ValidateProxyRequest(t *testing.T) {
	t.Parallel()

	v := NewDefaultPacketValidator()

	tests := []struct {
		name    string
		req     *packet.ProxyRequest
		wantErr bool
	}{
		{name: "nil request", req: nil, wantErr: true},
		{
			name: "complete request",
			req:  &packet.ProxyRequest{SerialID: 1, Host: "example.com", Port: 443, Payload: []byte{}},
		},
		{
			name:    "missing host",
			req:     &packet.ProxyRequest{Port: 443, Payload: []byte{}},
			wantErr: true,
		},
		{
			name:    "nil payload",
			req:     &packet.ProxyRequest{Host: "example.com", Port: 443},
			wantErr: true,
		},
		{
			name:    "zero port",
			req:     &packet.ProxyRequest{Host: "example.com", Payload: []byte("x")},
			wantErr: true,
		},
		{
			name:    "unknown transport",
			req:     &packet.ProxyRequest{Host: "example.com", Port: 80, Payload: []byte("x"), Transport: packet.Transport(9)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateProxyRequest(tt.req)
			if tt.wantErr {
				assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaultPacketValidator_ValidateDecodedHeader(t *testing.T) {
	t.Parallel()

	v := NewDefaultPacketValidator()

	assert.NoError(t, v.ValidateDecodedHeader(80, 10, 10))
	assert.NoError(t, v.ValidateDecodedHeader(65535, 0, 0))
	// 流式读取时 remaining 为 -1，不校验可读长度
	assert.NoError(t, v.ValidateDecodedHeader(80, 1<<30, -1))

	err := v.ValidateDecodedHeader(0, 0, 0)
	assert.ErrorIs(t, err, coreerrors.ErrInvalidPacket)

	err = v.ValidateDecodedHeader(80, 11, 10)
	assert.ErrorIs(t, err, coreerrors.ErrInvalidPacket)
	var e *coreerrors.Error
	if assert.ErrorAs(t, err, &e) {
		n, _ := e.GetDetailInt("msg_len")
		assert.Equal(t, int64(11), n)
	}
}
