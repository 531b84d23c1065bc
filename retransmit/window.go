// Package retransmit implements the SRP outstanding-TX window and its
// retransmit timer: the sliding-window state that turns URP's
// fire-and-forget engine into SRP's reliable one (spec §4.5/§4.6).
//
// Grounded on original_source/include/ring.hpp's fixed-capacity
// RingBuffer (push/pop/peek by head and tail counters) rather than
// ringbuf.Ring, because the window must support peeking a span of
// already-pushed, not-yet-acked entries without removing them — a
// capability ringbuf.Ring's consume-only Dequeue doesn't offer.
package retransmit

import (
	"sync"
	"sync/atomic"

	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/mempool"
)

// Window is the SRP outstanding-TX window: a bounded, ordered sequence
// of packet buffers sent but not yet cumulatively acknowledged (spec
// §3's "SRP-only: outstanding-TX window"). The tail grows on send (TX
// engine); the head advances on ACK (RX engine).
//
// Unlike ringbuf.Ring, a Window is not a pure SPSC structure: TX's
// LongestSpan (retransmit) reads slots RX's PopAcked concurrently
// clears, so the backing slice needs mu, not just atomic counters.
// head/tail stay atomic so Len/Full (read by both engines constantly)
// don't need to take the lock on the hot path.
type Window struct {
	mu   sync.Mutex
	data []*mempool.Buffer
	mask uint64
	head atomic.Uint64
	tail atomic.Uint64
}

// NewWindow allocates a window of the given power-of-two capacity,
// matching spec §3's requirement that window capacity is fixed at
// construction and must never be exceeded.
func NewWindow(capacity uint64) (*Window, error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, api.ErrRingSizeNotPow2
	}
	return &Window{
		data: make([]*mempool.Buffer, capacity),
		mask: capacity - 1,
	}, nil
}

// Len returns the current occupancy: tx_next_seq - acked_up_to (spec
// §3 invariant 4).
func (w *Window) Len() int { return int(w.tail.Load() - w.head.Load()) }

// Cap returns the fixed window capacity.
func (w *Window) Cap() int { return len(w.data) }

// Full reports whether the window has reached capacity; the TX engine
// must not push another frame while this holds (spec §4.5).
func (w *Window) Full() bool { return w.Len() >= len(w.data) }

// Mark returns the current tail position, to be paired with a later
// SpanFrom call so the TX engine submits only the entries pushed since
// the mark (spec §4.5 step 1, "submit to the NIC").
func (w *Window) Mark() uint64 { return w.tail.Load() }

// Push appends buf at the tail. Returns false if the window is full;
// callers must check Full before calling in the fast path. Only the
// TX engine calls Push.
func (w *Window) Push(buf *mempool.Buffer) bool {
	tail := w.tail.Load()
	if int(tail-w.head.Load()) >= len(w.data) {
		return false
	}
	w.mu.Lock()
	w.data[tail&w.mask] = buf
	w.mu.Unlock()
	w.tail.Store(tail + 1)
	return true
}

// PopAcked removes and returns the oldest unacknowledged buffer,
// called by the RX engine once per acknowledged sequence number. Only
// the RX engine calls PopAcked.
func (w *Window) PopAcked() (*mempool.Buffer, bool) {
	head := w.head.Load()
	if head >= w.tail.Load() {
		return nil, false
	}
	w.mu.Lock()
	buf := w.data[head&w.mask]
	w.data[head&w.mask] = nil
	w.mu.Unlock()
	w.head.Store(head + 1)
	return buf, true
}

// SpanFrom returns the (at most two, on wraparound) contiguous slices
// covering entries pushed since mark, without removing them — the
// "two-call wraparound retransmit submit" original_source/include/srp.hpp's
// tx() performs when the newly-pushed tail segment straddles the
// backing array's end.
func (w *Window) SpanFrom(mark uint64) (first, second []*mempool.Buffer) {
	return w.spanRange(mark, w.tail.Load())
}

// LongestSpan returns the full occupied range (head..tail), used for a
// timeout-triggered full-window retransmit (spec §4.5 step 2).
func (w *Window) LongestSpan() (first, second []*mempool.Buffer) {
	return w.spanRange(w.head.Load(), w.tail.Load())
}

func (w *Window) spanRange(from, to uint64) (first, second []*mempool.Buffer) {
	if from >= to {
		return nil, nil
	}
	n := to - from
	start := from & w.mask
	end := start + n

	w.mu.Lock()
	defer w.mu.Unlock()
	if end <= uint64(len(w.data)) {
		return append([]*mempool.Buffer(nil), w.data[start:end]...), nil
	}
	first = append([]*mempool.Buffer(nil), w.data[start:]...)
	second = append([]*mempool.Buffer(nil), w.data[:end-uint64(len(w.data))]...)
	return first, second
}
