// Package api
//
// Lock-free single-producer/single-consumer ring buffer contract
// (spec §3's Ring). Single-item and burst operations are both part of
// the contract; a zero-copy dequeue pair lets a consumer read directly
// out of the ring's backing array without an intermediate copy.

package api

// Ring is a bounded SPSC FIFO of pointer-sized entries with
// power-of-two capacity. The ring does not own what its entries point
// to — ownership transfers from producer to consumer on a successful
// Enqueue/Dequeue pair.
type Ring[T any] interface {
	// Enqueue adds a single item, returns false if full.
	Enqueue(item T) bool
	// Dequeue removes the oldest item, returns false if empty.
	Dequeue() (T, bool)

	// EnqueueBurst adds as many of items as fit, returns the count
	// actually enqueued (which may be less than len(items)).
	EnqueueBurst(items []T) int
	// DequeueBurst fills dst with up to len(dst) items, returns the
	// count actually dequeued.
	DequeueBurst(dst []T) int

	// DequeueZeroCopyStart returns up to two contiguous spans directly
	// into the ring's backing storage (the second span is non-empty
	// only when the read wraps around the end of the array), without
	// copying or advancing the read position. The caller must call
	// DequeueZeroCopyFinish with the number of items it consumed.
	DequeueZeroCopyStart(max int) (first, second []T)
	// DequeueZeroCopyFinish advances the read position by n, which
	// must not exceed the combined length of the spans returned by
	// the matching DequeueZeroCopyStart call.
	DequeueZeroCopyFinish(n int)

	// Len returns the current number of items.
	Len() int
	// Cap returns the buffer capacity.
	Cap() int
}
