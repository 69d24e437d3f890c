package emitter

import (
	"sync"

	"go.uber.org/atomic"
)

// BufferPool recycles byte slices of one fixed capacity. Buffers come out
// empty and are zeroed on the way back in.
type BufferPool struct {
	pool sync.Pool
	size int

	gets    atomic.Int64
	puts    atomic.Int64
	creates atomic.Int64
}

func NewBufferPool(capacity int) *BufferPool {
	bp := &BufferPool{size: capacity}
	bp.pool.New = func() any {
		bp.creates.Inc()
		b := make([]byte, 0, capacity)
		return &b
	}
	return bp
}

// Get returns a zero-length buffer with capacity Size.
func (bp *BufferPool) Get() []byte {
	bp.gets.Inc()
	b := bp.pool.Get().(*[]byte)
	return (*b)[:0]
}

// Put hands buf back. Slices of any other capacity are left to the GC.
func (bp *BufferPool) Put(buf []byte) {
	if cap(buf) != bp.size {
		return
	}
	bp.puts.Inc()

	clear(buf[:cap(buf)])
	buf = buf[:0]
	bp.pool.Put(&buf)
}

func (bp *BufferPool) Stats() PoolStats {
	return PoolStats{
		Size:    bp.size,
		Gets:    bp.gets.Load(),
		Puts:    bp.puts.Load(),
		Creates: bp.creates.Load(),
	}
}

// PoolStats is a point-in-time view of one BufferPool.
type PoolStats struct {
	Size    int   `json:"size"`
	Gets    int64 `json:"gets"`
	Puts    int64 `json:"puts"`
	Creates int64 `json:"creates"` // buffers allocated because the pool was empty
}

// HitRatio is the share of Gets served without allocating, from 0 to 1.
func (ps PoolStats) HitRatio() float64 {
	if ps.Gets == 0 {
		return 0
	}
	return 1 - float64(ps.Creates)/float64(ps.Gets)
}

// messageBuffers hands out buffers for rendered lines in three size classes.
type messageBuffers struct {
	small   *BufferPool // 256 bytes
	medium  *BufferPool // 1024 bytes
	large   *BufferPool // 4096 bytes
	metrics *Metrics
}

func newMessageBuffers(m *Metrics) *messageBuffers {
	return &messageBuffers{
		small:   NewBufferPool(256),
		medium:  NewBufferPool(1024),
		large:   NewBufferPool(4096),
		metrics: m,
	}
}

// get returns a zero-length buffer with capacity for at least size bytes
// and the func that gives it back. Oversized requests are allocated directly.
func (mb *messageBuffers) get(size int) ([]byte, func()) {
	var pool *BufferPool
	switch {
	case size <= 256:
		pool = mb.small
	case size <= 1024:
		pool = mb.medium
	case size <= 4096:
		pool = mb.large
	}

	if pool == nil {
		if mb.metrics != nil {
			mb.metrics.BufferPoolMisses.Add(1)
		}
		return make([]byte, 0, size), func() {}
	}

	if mb.metrics != nil {
		mb.metrics.BufferPoolHits.Add(1)
	}
	buf := pool.Get()
	return buf, func() { pool.Put(buf) }
}

func (mb *messageBuffers) stats() []PoolStats {
	return []PoolStats{
		mb.small.Stats(),
		mb.medium.Stats(),
		mb.large.Stats(),
	}
}
