package validator

import (
	coreerrors "flyingsocks-core/internal/core/errors"
	"flyingsocks-core/internal/packet"
	"flyingsocks-core/internal/utils/netaddr"
)

// PacketValidator 数据包验证器接口
type PacketValidator interface {
	// ValidateProxyRequest 验证待序列化的代理请求
	ValidateProxyRequest(req *packet.ProxyRequest) error

	// ValidateDecodedHeader 验证解码得到的端口与消息长度
	ValidateDecodedHeader(port uint16, msgLen uint32, remaining int) error
}

// DefaultPacketValidator 默认数据包验证器
type DefaultPacketValidator struct{}

// NewDefaultPacketValidator 创建新的默认数据包验证器
func NewDefaultPacketValidator() *DefaultPacketValidator {
	return &DefaultPacketValidator{}
}

// ValidateProxyRequest 验证代理请求是否完整
//
// Host 不能为空、Payload 不能为 nil、端口必须在 1-65535 之间
func (v *DefaultPacketValidator) ValidateProxyRequest(req *packet.ProxyRequest) error {
	if req == nil {
		return coreerrors.New(coreerrors.CodeValidationError, "proxy request is nil")
	}
	if req.Host == "" || req.Payload == nil || !netaddr.IsPort(int(req.Port)) {
		return coreerrors.Newf(coreerrors.CodeValidationError,
			"proxy request is not complete, or port is illegal, message detail: %s", req)
	}
	if !req.Transport.IsValid() {
		return coreerrors.Newf(coreerrors.CodeValidationError, "invalid transport: %d", byte(req.Transport))
	}
	return nil
}

// ValidateDecodedHeader 验证解码得到的端口与声明的消息长度
func (v *DefaultPacketValidator) ValidateDecodedHeader(port uint16, msgLen uint32, remaining int) error {
	if !netaddr.IsPort(int(port)) {
		return coreerrors.NewPacketError("ProxyRequest", "illegal port, should be between 1 and 65535", nil).
			WithDetailInt("port", int64(port))
	}
	if remaining >= 0 && int64(msgLen) > int64(remaining) {
		return coreerrors.NewPacketError("ProxyRequest", "declared message length exceeds readable bytes", nil).
			WithDetailInt("msg_len", int64(msgLen)).
			WithDetailInt("readable", int64(remaining))
	}
	return nil
}
