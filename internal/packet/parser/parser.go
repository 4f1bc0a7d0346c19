package parser

import (
	"encoding/binary"
	"errors"
	"io"

	coreerrors "flyingsocks-core/internal/core/errors"
	"flyingsocks-core/internal/packet"
	"flyingsocks-core/internal/packet/validator"
)

// DefaultMaxPayload 流式读取时允许的最大消息长度
const DefaultMaxPayload = 16 << 20

// PacketParser 数据包解析器接口
type PacketParser interface {
	// Deserialize 从完整的缓冲区中解析代理请求，返回消耗的字节数
	Deserialize(buf []byte) (*packet.ProxyRequest, int, error)

	// ReadFrom 从流中读取并解析一个代理请求
	ReadFrom(reader io.Reader) (*packet.ProxyRequest, error)
}

// DefaultPacketParser 默认数据包解析器
type DefaultPacketParser struct {
	maxPayload int
	validator  validator.PacketValidator
}

// NewDefaultPacketParser 创建新的默认数据包解析器，maxPayload <= 0 时使用默认上限
func NewDefaultPacketParser(maxPayload int) *DefaultPacketParser {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &DefaultPacketParser{
		maxPayload: maxPayload,
		validator:  validator.NewDefaultPacketValidator(),
	}
}

// cursor 带边界检查的读取游标
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *cursor) next(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, coreerrors.NewPacketError("ProxyRequest", "unexpected end of frame", io.ErrUnexpectedEOF).
			WithDetailInt("need", int64(n)).
			WithDetailInt("readable", int64(c.remaining()))
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) readByte() (byte, error) {
	b, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readUint16() (uint16, error) {
	b, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) readUint32() (uint32, error) {
	b, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Deserialize 解析代理请求
//
// Payload 直接引用 buf 中的数据，不做拷贝；任何截断都会返回 CodeInvalidPacket
func (p *DefaultPacketParser) Deserialize(buf []byte) (*packet.ProxyRequest, int, error) {
	c := &cursor{buf: buf}

	head, err := c.readByte()
	if err != nil {
		return nil, 0, err
	}
	if head != packet.ProxyRequestHead {
		return nil, 0, coreerrors.NewPacketError("ProxyRequest", "illegal head marker", nil).
			WithDetailInt("head", int64(head))
	}

	serial, err := c.readUint32()
	if err != nil {
		return nil, 0, err
	}

	hostLen, err := c.readByte()
	if err != nil {
		return nil, 0, err
	}
	hostBytes, err := c.next(int(hostLen))
	if err != nil {
		return nil, 0, err
	}
	host, err := packet.DecodeHost(hostBytes)
	if err != nil {
		return nil, 0, err
	}

	ctl, err := c.readByte()
	if err != nil {
		return nil, 0, err
	}
	port, err := c.readUint16()
	if err != nil {
		return nil, 0, err
	}
	msgLen, err := c.readUint32()
	if err != nil {
		return nil, 0, err
	}
	if err := p.validator.ValidateDecodedHeader(port, msgLen, c.remaining()); err != nil {
		return nil, 0, err
	}

	payload, err := c.next(int(msgLen))
	if err != nil {
		return nil, 0, err
	}

	return &packet.ProxyRequest{
		SerialID:  int32(serial),
		Host:      host,
		Port:      port,
		Transport: packet.TransportFromControl(ctl),
		Payload:   payload,
	}, c.off, nil
}

// ReadFrom 从流中读取一个完整的代理请求
//
// 流在帧边界处结束时返回 io.EOF；帧中途结束返回 CodeInvalidPacket；
// 声明的消息长度超过上限时返回 CodePacketTooLarge
func (p *DefaultPacketParser) ReadFrom(reader io.Reader) (*packet.ProxyRequest, error) {
	// head + serial + host len
	prefix := make([]byte, 6)
	if n, err := io.ReadFull(reader, prefix); err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, truncated(err)
	}
	if prefix[0] != packet.ProxyRequestHead {
		return nil, coreerrors.NewPacketError("ProxyRequest", "illegal head marker", nil).
			WithDetailInt("head", int64(prefix[0]))
	}

	hostLen := int(prefix[5])
	// host + ctl + port + msg len
	rest := make([]byte, hostLen+7)
	if _, err := io.ReadFull(reader, rest); err != nil {
		return nil, truncated(err)
	}

	host, err := packet.DecodeHost(rest[:hostLen])
	if err != nil {
		return nil, err
	}
	ctl := rest[hostLen]
	port := binary.BigEndian.Uint16(rest[hostLen+1 : hostLen+3])
	msgLen := binary.BigEndian.Uint32(rest[hostLen+3:])

	if err := p.validator.ValidateDecodedHeader(port, msgLen, -1); err != nil {
		return nil, err
	}
	if int64(msgLen) > int64(p.maxPayload) {
		return nil, coreerrors.Newf(coreerrors.CodePacketTooLarge,
			"message length %d exceeds limit %d", msgLen, p.maxPayload).
			WithDetailInt("msg_len", int64(msgLen))
	}

	payload := make([]byte, msgLen)
	if _, err := io.ReadFull(reader, payload); err != nil {
		return nil, truncated(err)
	}

	return &packet.ProxyRequest{
		SerialID:  int32(binary.BigEndian.Uint32(prefix[1:5])),
		Host:      host,
		Port:      port,
		Transport: packet.TransportFromControl(ctl),
		Payload:   payload,
	}, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return coreerrors.NewPacketError("ProxyRequest", "unexpected end of stream", io.ErrUnexpectedEOF)
	}
	return coreerrors.Wrap(err, coreerrors.CodeNetworkError, "failed to read proxy request")
}
