package buffer

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

const (
	minBucketShift = 4  // 16 字节
	maxBucketShift = 16 // 64 KiB
)

// Allocator 缓冲区分配器接口
type Allocator interface {
	// Get 获取长度为 size 的缓冲区
	Get(size int) []byte

	// Put 归还缓冲区
	Put(buf []byte)
}

// PoolStats 池统计信息
type PoolStats struct {
	TotalAllocated int64 `json:"total_allocated"`
	TotalReturned  int64 `json:"total_returned"`
	CurrentInUse   int64 `json:"current_in_use"`
	Oversized      int64 `json:"oversized"`
}

// BufferPool 按 2 的幂分桶的缓冲区池
type BufferPool struct {
	pools [maxBucketShift - minBucketShift + 1]sync.Pool

	allocated atomic.Int64
	returned  atomic.Int64
	oversized atomic.Int64
}

// NewBufferPool 创建新的缓冲区池
func NewBufferPool() *BufferPool {
	bp := &BufferPool{}
	for i := range bp.pools {
		capacity := 1 << (i + minBucketShift)
		bp.pools[i].New = func() interface{} {
			b := make([]byte, capacity)
			return &b
		}
	}
	return bp
}

// bucketOf 返回能容纳 size 的最小桶下标，超出最大桶时返回 -1
func bucketOf(size int) int {
	if size <= 1<<minBucketShift {
		return 0
	}
	shift := bits.Len(uint(size - 1))
	if shift > maxBucketShift {
		return -1
	}
	return shift - minBucketShift
}

// Get 获取缓冲区
func (bp *BufferPool) Get(size int) []byte {
	if size < 0 {
		size = 0
	}
	bp.allocated.Add(1)

	idx := bucketOf(size)
	if idx < 0 {
		bp.oversized.Add(1)
		return make([]byte, size)
	}
	b := bp.pools[idx].Get().(*[]byte)
	return (*b)[:size]
}

// Put 归还缓冲区，非本池规格的缓冲区直接丢弃
func (bp *BufferPool) Put(buf []byte) {
	if buf == nil {
		return
	}
	bp.returned.Add(1)

	c := cap(buf)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	idx := bucketOf(c)
	if idx < 0 || 1<<(idx+minBucketShift) != c {
		return
	}
	buf = buf[:c]
	bp.pools[idx].Put(&buf)
}

// GetStats 获取统计信息
func (bp *BufferPool) GetStats() *PoolStats {
	allocated := bp.allocated.Load()
	returned := bp.returned.Load()
	return &PoolStats{
		TotalAllocated: allocated,
		TotalReturned:  returned,
		CurrentInUse:   allocated - returned,
		Oversized:      bp.oversized.Load(),
	}
}

// HeapAllocator 不做复用的分配器
type HeapAllocator struct{}

// Get 分配新的缓冲区
func (HeapAllocator) Get(size int) []byte { return make([]byte, size) }

// Put 不做任何处理
func (HeapAllocator) Put([]byte) {}

var defaultPool = NewBufferPool()

// Default 返回进程级共享的缓冲区池
func Default() *BufferPool {
	return defaultPool
}
