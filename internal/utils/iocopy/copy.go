// Package iocopy 提供本地端与远端之间的双向数据拷贝
package iocopy

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/utils/buffer"
)

// CopyBufferSize 单方向拷贝缓冲区大小
const CopyBufferSize = 32 * 1024

var (
	ErrNilReader = errors.New("reader cannot be nil")
	ErrNilWriter = errors.New("writer cannot be nil")
)

// CloseWriter 支持半关闭（关闭写方向）的接口
type CloseWriter interface {
	CloseWrite() error
}

// readWriteCloser 将 io.Reader 和 io.Writer 组合成 io.ReadWriteCloser
type readWriteCloser struct {
	io.Reader
	io.Writer
	closeFunc func() error
}

func (rw *readWriteCloser) Close() error {
	if rw.closeFunc != nil {
		return rw.closeFunc()
	}
	return nil
}

// CloseWrite 转发给底层 Writer，不支持时忽略
func (rw *readWriteCloser) CloseWrite() error {
	if cw, ok := rw.Writer.(CloseWriter); ok {
		return cw.CloseWrite()
	}
	return nil
}

// NewReadWriteCloser 创建 ReadWriteCloser 适配器，closeFunc 可为 nil
func NewReadWriteCloser(r io.Reader, w io.Writer, closeFunc func() error) (io.ReadWriteCloser, error) {
	if r == nil {
		return nil, ErrNilReader
	}
	if w == nil {
		return nil, ErrNilWriter
	}
	return &readWriteCloser{Reader: r, Writer: w, closeFunc: closeFunc}, nil
}

// Options 双向拷贝配置选项
type Options struct {
	// Context 取消时关闭两端，默认 context.Background()
	Context context.Context

	// 日志前缀
	LogPrefix string

	// 拷贝完成后的回调
	OnComplete func(sent, received int64, err error)
}

// Result 双向拷贝结果
type Result struct {
	BytesSent     int64 // local→remote
	BytesReceived int64 // remote→local
	SendError     error
	ReceiveError  error
}

// Err 返回首个非 EOF 错误
func (r *Result) Err() error {
	if r.SendError != nil {
		return r.SendError
	}
	return r.ReceiveError
}

// tryCloseWrite 对支持半关闭的连接关闭写方向，返回是否成功
func tryCloseWrite(conn io.ReadWriteCloser) bool {
	cw, ok := conn.(CloseWriter)
	if !ok {
		return false
	}
	return cw.CloseWrite() == nil
}

// copyStream 从 src 拷贝到 dst 并累加写出字节数，EOF 不算错误
func copyStream(dst io.Writer, src io.Reader, counter *atomic.Int64) error {
	buf := buffer.Default().Get(CopyBufferSize)
	defer buffer.Default().Put(buf)

	for {
		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, writeErr := dst.Write(buf[:nr])
			if nw > 0 {
				counter.Add(int64(nw))
			}
			if writeErr != nil {
				return writeErr
			}
			if nw != nr {
				return io.ErrShortWrite
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return readErr
		}
	}
}

// Bidirectional 在 local 与 remote 之间双向拷贝。
//
// local→remote 读到 EOF 时对 remote 半关闭，remote 仍可继续回写。
// remote→local 结束即视为会话结束：关闭两端后返回，不再等待阻塞在
// local 读取上的发送方向。
func Bidirectional(local, remote io.ReadWriteCloser, options *Options) *Result {
	if options == nil {
		options = &Options{}
	}
	ctx := options.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logPrefix := options.LogPrefix
	if logPrefix == "" {
		logPrefix = "BidirectionalCopy"
	}

	var (
		sent, received atomic.Int64
		localOnce      sync.Once
		remoteOnce     sync.Once
	)
	closeLocal := func() { localOnce.Do(func() { local.Close() }) }
	closeRemote := func() { remoteOnce.Do(func() { remote.Close() }) }

	stop := context.AfterFunc(ctx, func() {
		closeRemote()
		closeLocal()
	})
	defer stop()

	sendDone := make(chan error, 1)
	go func() {
		err := copyStream(remote, local, &sent)
		if err != nil {
			corelog.Debugf("%s: local→remote error after %d bytes: %v", logPrefix, sent.Load(), err)
			closeRemote()
		} else if !tryCloseWrite(remote) {
			corelog.Debugf("%s: remote does not support half-close", logPrefix)
		}
		sendDone <- err
	}()

	result := &Result{ReceiveError: copyStream(local, remote, &received)}
	// 关闭之前取发送方向结果，关闭引起的错误不计入
	select {
	case result.SendError = <-sendDone:
	default:
	}
	tryCloseWrite(local)
	closeRemote()
	closeLocal()
	if ctx.Err() != nil {
		// 取消导致的读写错误不上报
		result.SendError, result.ReceiveError = nil, nil
	}
	result.BytesSent = sent.Load()
	result.BytesReceived = received.Load()

	corelog.Debugf("%s: finished, sent=%d, received=%d", logPrefix, result.BytesSent, result.BytesReceived)
	if options.OnComplete != nil {
		options.OnComplete(result.BytesSent, result.BytesReceived, result.Err())
	}
	return result
}
