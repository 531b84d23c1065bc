package endpoint

import (
	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/payloadpool"
	"github.com/flowplane/l2rp/ringbuf"
)

// Consumer is the application-facing handle for spec §4.2's activity
// 4: drain delivered payloads from the inbound ring. Once the
// application has consumed a record's bytes it must call Release so
// the record returns to the shared pool.
type Consumer struct {
	records *payloadpool.Pool
	inbound *ringbuf.Ring[*api.Payload]
}

// Dequeue removes one delivered Payload, or returns false if none is
// available yet.
func (c *Consumer) Dequeue() (*api.Payload, bool) {
	return c.inbound.Dequeue()
}

// Release returns a consumed Payload to the shared pool.
func (c *Consumer) Release(payload *api.Payload) {
	c.records.Put(payload)
}

// PayloadBatch is the result of a single DrainBatch call: the
// delivered payloads pulled off the inbound ring in one shot, in
// arrival order. It is the concrete contract application code drains
// against — there is exactly one batch shape in this domain, so it
// gets a named type rather than a generic interface.
type PayloadBatch struct {
	items []*api.Payload
}

// Len returns the number of payloads in the batch.
func (b PayloadBatch) Len() int { return len(b.items) }

// Get returns the payload at index, panicking like a slice index
// would if index is out of range.
func (b PayloadBatch) Get(index int) *api.Payload { return b.items[index] }

// Slice returns the underlying payload slice.
func (b PayloadBatch) Slice() []*api.Payload { return b.items }

// DrainBatch pulls up to max delivered payloads at once via the
// inbound ring's zero-copy dequeue pair. The pointers in the (up to
// two) returned spans are copied into a fresh slice before the read
// is finished, since finishing clears those ring slots.
func (c *Consumer) DrainBatch(max int) PayloadBatch {
	first, second := c.inbound.DequeueZeroCopyStart(max)
	items := make([]*api.Payload, 0, len(first)+len(second))
	items = append(items, first...)
	items = append(items, second...)
	c.inbound.DequeueZeroCopyFinish(len(items))
	return PayloadBatch{items: items}
}
