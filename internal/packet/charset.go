package packet

import (
	"golang.org/x/text/encoding/unicode"

	coreerrors "flyingsocks-core/internal/core/errors"
)

// hostEncoding 编码时写入 FE FF BOM，解码时识别 BOM，缺省按大端处理
var hostEncoding = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// EncodeHost 将主机名编码为报文中的 Host 字段
func EncodeHost(host string) ([]byte, error) {
	b, err := hostEncoding.NewEncoder().Bytes([]byte(host))
	if err != nil {
		return nil, coreerrors.Wrapf(err, coreerrors.CodeValidationError, "failed to encode host %q", host)
	}
	if len(b) > MaxHostLength {
		return nil, coreerrors.Newf(coreerrors.CodeValidationError,
			"host %q is too long: %d encoded bytes, max %d", host, len(b), MaxHostLength).
			WithDetailInt("length", int64(len(b)))
	}
	return b, nil
}

// DecodeHost 解码报文中的 Host 字段
func DecodeHost(b []byte) (string, error) {
	s, err := hostEncoding.NewDecoder().Bytes(b)
	if err != nil {
		return "", coreerrors.NewPacketError("ProxyRequest", "illegal host encoding", err)
	}
	return string(s), nil
}
