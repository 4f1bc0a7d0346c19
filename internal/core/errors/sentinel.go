package errors

// 预定义哨兵错误（用于 errors.Is 比较）
// 这些错误用于快速类型检查，不包含详细信息
var (
	// 请求错误
	ErrInvalidParam    = New(CodeInvalidParam, "invalid parameter")
	ErrValidationError = New(CodeValidationError, "validation error")
	ErrInvalidState    = New(CodeInvalidState, "invalid state")
	ErrConfigError     = New(CodeConfigError, "configuration error")

	// 系统错误
	ErrInternal     = New(CodeInternal, "internal error")
	ErrStorageError = New(CodeStorageError, "storage error")
	ErrNetworkError = New(CodeNetworkError, "network error")
	ErrTimeout      = New(CodeTimeout, "operation timeout")
	ErrNotFound     = New(CodeNotFound, "resource not found")

	// 连接错误
	ErrConnectionError = New(CodeConnectionError, "connection error")
	ErrTunnelError     = New(CodeTunnelError, "tunnel error")

	// 数据包错误
	ErrInvalidPacket  = New(CodeInvalidPacket, "invalid packet")
	ErrPacketTooLarge = New(CodePacketTooLarge, "packet too large")
	ErrProtocolError  = New(CodeProtocolError, "protocol error")
)

// IsValidationError 检查是否为参数校验错误（调用方编程错误，不应重试）
func IsValidationError(err error) bool {
	return IsCode(err, CodeValidationError) ||
		IsCode(err, CodeInvalidParam)
}

// IsDecodeError 检查是否为报文解码错误
func IsDecodeError(err error) bool {
	return IsCode(err, CodeInvalidPacket) ||
		IsCode(err, CodePacketTooLarge)
}

// IsRetryable 检查错误是否可重试
//
// 编解码错误与校验错误都不可重试，重连策略属于传输层
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case CodeTimeout, CodeNetworkError, CodeConnectionError:
		return true
	default:
		return false
	}
}
