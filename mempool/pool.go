// Package mempool implements the packet-buffer pool that stands in
// for the NIC-bypass mempool spec §1 keeps external: a preallocated
// pool of fixed-size buffers, sized to hold one MTU frame, reused
// across the RX/TX fast path (spec §3's "Packet buffer").
//
// Grounded on the teacher's pool.BufferPoolManager / linuxBufferPool
// (a sync.Pool-backed slab allocator), generalized from a per-NUMA-node
// keyed map to the two named pools spec §4.1 requires: one for TX, one
// for RX, "separate pools reduce false sharing between engines".
package mempool

import (
	"sync"
	"sync/atomic"
)

// Buffer is a packet buffer obtained from a Pool. It is owned by the
// NIC between submission and completion and by the endpoint at all
// other times (spec §3's Packet buffer invariant); it must be
// returned to its pool exactly once.
type Buffer struct {
	data []byte
	pool *Pool
}

// Bytes returns the full-capacity backing slice.
func (b *Buffer) Bytes() []byte { return b.data }

// Truncate resizes the view to n bytes for a build/parse result whose
// framed length is smaller than the buffer's capacity.
func (b *Buffer) Truncate(n int) {
	b.data = b.data[:n]
}

// Release returns the buffer to its originating pool. After Release
// the buffer must not be used.
func (b *Buffer) Release() {
	b.pool.put(b)
}

// Pool is a fixed-size-buffer allocator backed by sync.Pool, sized for
// one MTU frame per buffer. Two Pools (TX, RX) exist per endpoint.
type Pool struct {
	sync.Pool
	bufSize   int
	allocated atomic.Int64
	inUse     atomic.Int64
}

// New creates a pool of buffers of the given size, matching the
// mempool sizing rule of spec §4.1: capacity should be at least 2x the
// ring capacity the pool backs.
func New(bufSize int, capacityHint int) *Pool {
	if bufSize <= 0 {
		bufSize = 2048
	}
	p := &Pool{bufSize: bufSize}
	p.Pool.New = func() any {
		p.allocated.Add(1)
		return &Buffer{data: make([]byte, bufSize), pool: p}
	}
	// Pre-warm the pool so the fast path never pays an allocation on
	// the first `capacityHint` acquisitions.
	warm := make([]*Buffer, 0, capacityHint)
	for i := 0; i < capacityHint; i++ {
		warm = append(warm, p.Get().(*Buffer))
	}
	for _, b := range warm {
		p.Pool.Put(b)
	}
	return p
}

// Acquire returns a buffer sized to bufSize, ready for framing.
func (p *Pool) Acquire() *Buffer {
	b := p.Pool.Get().(*Buffer)
	if cap(b.data) < p.bufSize {
		b.data = make([]byte, p.bufSize)
	} else {
		b.data = b.data[:p.bufSize]
	}
	p.inUse.Add(1)
	return b
}

func (p *Pool) put(b *Buffer) {
	p.inUse.Add(-1)
	p.Pool.Put(b)
}

// InUse returns the number of buffers currently checked out — used by
// the no-leak invariant test (spec §8) to assert quiescent counts
// return to their starting value.
func (p *Pool) InUse() int64 { return p.inUse.Load() }

// Stats mirrors the teacher's BufferPoolStats shape for observability.
type Stats struct {
	Allocated int64
	InUse     int64
}

func (p *Pool) Stats() Stats {
	return Stats{Allocated: p.allocated.Load(), InUse: p.inUse.Load()}
}
