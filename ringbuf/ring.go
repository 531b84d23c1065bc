// Package ringbuf implements the bounded single-producer/single-consumer
// ring buffer that spec §3 calls "Ring": the outbound, inbound and
// returned application-facing queues. The SRP outstanding-TX window
// is a separate type, retransmit.Window.
//
// Grounded on the teacher's pool.RingBuffer / internal/concurrency.RingBuffer
// (atomic head/tail, cache-line padding, power-of-two mask), extended
// with burst enqueue/dequeue and a zero-copy dequeue pair since the
// teacher's ring only ever moves one item at a time.
package ringbuf

import (
	"sync/atomic"

	"github.com/flowplane/l2rp/api"
)

// Ring is a lock-free, single-producer/single-consumer ring buffer of
// power-of-two capacity. It implements api.Ring[T].
type Ring[T any] struct {
	data []T
	mask uint64
	head atomic.Uint64
	_    [64]byte // separates head from tail to avoid false sharing
	tail atomic.Uint64
	_    [64]byte
}

var _ api.Ring[any] = (*Ring[any])(nil)

// New allocates a ring of the given power-of-two size. It returns an
// error rather than panicking, since a non-power-of-two ring size is a
// spec §4.1 bootstrap failure, not a programmer error to crash on.
func New[T any](size uint64) (*Ring[T], error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, api.ErrRingSizeNotPow2
	}
	return &Ring[T]{
		data: make([]T, size),
		mask: size - 1,
	}, nil
}

// Enqueue adds a single item; returns false if full.
func (r *Ring[T]) Enqueue(item T) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	if tail-head >= uint64(len(r.data)) {
		return false
	}
	r.data[tail&r.mask] = item
	r.tail.Store(tail + 1)
	return true
}

// Dequeue removes and returns the oldest item; ok is false if empty.
func (r *Ring[T]) Dequeue() (T, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head >= tail {
		var zero T
		return zero, false
	}
	item := r.data[head&r.mask]
	var zero T
	r.data[head&r.mask] = zero // drop the reference so it can be GC'd
	r.head.Store(head + 1)
	return item, true
}

// EnqueueBurst adds as many of items as fit; returns the count enqueued.
func (r *Ring[T]) EnqueueBurst(items []T) int {
	head := r.head.Load()
	tail := r.tail.Load()
	free := uint64(len(r.data)) - (tail - head)
	n := uint64(len(items))
	if n > free {
		n = free
	}
	for i := uint64(0); i < n; i++ {
		r.data[(tail+i)&r.mask] = items[i]
	}
	if n > 0 {
		r.tail.Store(tail + n)
	}
	return int(n)
}

// DequeueBurst fills dst with up to len(dst) items; returns the count dequeued.
func (r *Ring[T]) DequeueBurst(dst []T) int {
	first, second := r.DequeueZeroCopyStart(len(dst))
	n := copy(dst, first)
	n += copy(dst[n:], second)
	r.DequeueZeroCopyFinish(n)
	return n
}

// DequeueZeroCopyStart returns up to two contiguous spans directly
// into the backing array without advancing the read position or
// copying. The second span is non-empty only when the read wraps.
func (r *Ring[T]) DequeueZeroCopyStart(max int) (first, second []T) {
	head := r.head.Load()
	tail := r.tail.Load()
	avail := tail - head
	if avail == 0 {
		return nil, nil
	}
	n := uint64(max)
	if n > avail {
		n = avail
	}
	start := head & r.mask
	end := start + n
	if end <= uint64(len(r.data)) {
		return r.data[start:end], nil
	}
	first = r.data[start:]
	second = r.data[:end-uint64(len(r.data))]
	return first, second
}

// DequeueZeroCopyFinish advances the read position by n, releasing
// the slots covered by the matching DequeueZeroCopyStart span(s).
func (r *Ring[T]) DequeueZeroCopyFinish(n int) {
	if n <= 0 {
		return
	}
	head := r.head.Load()
	var zero T
	for i := uint64(0); i < uint64(n); i++ {
		r.data[(head+i)&r.mask] = zero
	}
	r.head.Store(head + uint64(n))
}

// Len returns the current number of items.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the fixed buffer capacity.
func (r *Ring[T]) Cap() int {
	return len(r.data)
}
