package builder

import (
	"encoding/binary"
	"io"
	"net"

	"flyingsocks-core/internal/packet"
	"flyingsocks-core/internal/packet/validator"
	"flyingsocks-core/internal/utils/buffer"
)

// PacketBuilder 数据包构建器接口
type PacketBuilder interface {
	// Serialize 序列化代理请求，返回头部与 Payload 组成的复合帧
	Serialize(req *packet.ProxyRequest) (*Frame, error)

	// WriteTo 序列化代理请求并写入 writer
	WriteTo(writer io.Writer, req *packet.ProxyRequest) (int64, error)
}

// Frame 序列化结果：头部来自分配器，Payload 直接引用请求中的切片
type Frame struct {
	Header  []byte
	Payload []byte

	alloc buffer.Allocator
}

// Buffers 返回可直接用于向量写的分段视图
func (f *Frame) Buffers() net.Buffers {
	return net.Buffers{f.Header, f.Payload}
}

// Len 返回帧总长度
func (f *Frame) Len() int {
	return len(f.Header) + len(f.Payload)
}

// Bytes 返回拷贝拼接后的连续字节
func (f *Frame) Bytes() []byte {
	b := make([]byte, 0, f.Len())
	b = append(b, f.Header...)
	return append(b, f.Payload...)
}

// WriteTo 将帧写入 writer
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	bufs := f.Buffers()
	return bufs.WriteTo(w)
}

// Release 归还头部缓冲区，之后不能再使用该帧
func (f *Frame) Release() {
	if f.alloc != nil && f.Header != nil {
		f.alloc.Put(f.Header)
	}
	f.Header = nil
	f.Payload = nil
}

// DefaultPacketBuilder 默认数据包构建器
type DefaultPacketBuilder struct {
	alloc     buffer.Allocator
	validator validator.PacketValidator
}

// NewDefaultPacketBuilder 创建新的默认数据包构建器，alloc 为 nil 时使用共享缓冲区池
func NewDefaultPacketBuilder(alloc buffer.Allocator) *DefaultPacketBuilder {
	if alloc == nil {
		alloc = buffer.Default()
	}
	return &DefaultPacketBuilder{
		alloc:     alloc,
		validator: validator.NewDefaultPacketValidator(),
	}
}

// Serialize 序列化代理请求
func (b *DefaultPacketBuilder) Serialize(req *packet.ProxyRequest) (*Frame, error) {
	if err := b.validator.ValidateProxyRequest(req); err != nil {
		return nil, err
	}

	host, err := packet.EncodeHost(req.Host)
	if err != nil {
		return nil, err
	}

	size := packet.HeaderFixedSize + len(host)
	header := b.alloc.Get(size)

	header[0] = packet.ProxyRequestHead
	binary.BigEndian.PutUint32(header[1:5], uint32(req.SerialID))
	header[5] = byte(len(host))
	off := 6 + copy(header[6:], host)
	header[off] = req.Transport.ControlByte()
	binary.BigEndian.PutUint16(header[off+1:off+3], req.Port)
	binary.BigEndian.PutUint32(header[off+3:off+7], uint32(len(req.Payload)))

	return &Frame{
		Header:  header,
		Payload: req.Payload,
		alloc:   b.alloc,
	}, nil
}

// WriteTo 序列化并写入 writer，写完后归还头部缓冲区
func (b *DefaultPacketBuilder) WriteTo(writer io.Writer, req *packet.ProxyRequest) (int64, error) {
	frame, err := b.Serialize(req)
	if err != nil {
		return 0, err
	}
	defer frame.Release()
	return frame.WriteTo(writer)
}
