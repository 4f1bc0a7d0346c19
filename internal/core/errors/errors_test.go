package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without cause",
			err:      New(CodeInvalidPacket, "illegal head value: 7"),
			expected: "[INVALID_PACKET] illegal head value: 7",
		},
		{
			name:     "with cause",
			err:      Wrap(errors.New("no such file"), CodeStorageError, "failed to read mode file"),
			expected: "[STORAGE_ERROR] failed to read mode file: no such file",
		},
		{
			name:     "formatted message",
			err:      Newf(CodeValidationError, "invalid port: %d", 99999),
			expected: "[VALIDATION_ERROR] invalid port: 99999",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err1 := New(CodeInvalidPacket, "truncated header")
	err2 := New(CodeInvalidPacket, "bad head marker")
	err3 := New(CodeInvalidState, "unknown proxy mode")

	// 相同错误码应该匹配
	if !errors.Is(err1, err2) {
		t.Error("errors with same code should match")
	}

	// 不同错误码不应该匹配
	if errors.Is(err1, err3) {
		t.Error("errors with different code should not match")
	}

	// 使用哨兵错误
	if !errors.Is(err1, ErrInvalidPacket) {
		t.Error("should match sentinel error with same code")
	}

	// 经过 fmt.Errorf 包装后仍可匹配
	if !errors.Is(fmt.Errorf("dial: %w", err3), ErrInvalidState) {
		t.Error("should match through fmt.Errorf wrapping")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("original error")
	wrapped := Wrap(cause, CodeInternal, "wrapped")

	if errors.Unwrap(wrapped) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_WithDetail(t *testing.T) {
	err := New(CodeValidationError, "invalid port").
		WithDetailInt("port", 99999).
		WithDetailInt("max", 65535)

	portVal, ok := err.GetDetailInt("port")
	if !ok || portVal != 99999 {
		t.Error("detail 'port' should be 99999")
	}
	maxVal, ok := err.GetDetailInt("max")
	if !ok || maxVal != 65535 {
		t.Error("detail 'max' should be 65535")
	}

	err2 := New(CodeInvalidPacket, "bad frame").
		WithDetailString("field", "host")
	if err2.GetDetailString("field") != "host" {
		t.Error("detail 'field' should be 'host'")
	}

	// 测试整数转字符串
	if err.GetDetailString("port") != "99999" {
		t.Error("GetDetailString for int should return '99999'")
	}
	if _, ok := err2.GetDetailInt("missing"); ok {
		t.Error("missing detail should report ok=false")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"custom error", New(CodeInvalidPacket, "bad"), CodeInvalidPacket},
		{"wrapped error", Wrap(errors.New("io"), CodeStorageError, "storage"), CodeStorageError},
		{"standard error", errors.New("standard"), CodeInternal},
		{"nil error", nil, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsDecodeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"invalid packet", NewPacketError("ProxyRequest", "truncated", nil), true},
		{"too large", ErrPacketTooLarge, true},
		{"validation", ErrValidationError, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDecodeError(tt.err); got != tt.expected {
				t.Errorf("IsDecodeError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"timeout", ErrTimeout, true},
		{"network error", ErrNetworkError, true},
		{"invalid packet", ErrInvalidPacket, false},
		{"validation", ErrValidationError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.expected)
			}
		})
	}
}
