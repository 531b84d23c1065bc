package endpoint

import (
	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/payloadpool"
	"github.com/flowplane/l2rp/ringbuf"
)

// Producer is the application-facing handle for spec §4.2's activity
// 1: allocate a Payload record, fill it, submit it to the outbound
// ring. The TX engines never free a record (spec §9's Open Question
// decision): a record is returned to the payloadpool.Pool only through
// Release here or Consumer.Release.
type Producer struct {
	records  *payloadpool.Pool
	outbound *ringbuf.Ring[*api.Payload]
	returned *ringbuf.Ring[*api.Payload]
}

// Acquire returns a Payload ready to be filled. It first drains a
// record the TX engine has finished framing and handed back via the
// returned ring, falling back to the pool's own allocator only when
// none is available yet — keeping steady-state allocation at zero
// once the ring has been primed.
func (p *Producer) Acquire() *api.Payload {
	if rec, ok := p.returned.Dequeue(); ok {
		rec.Size = 0
		return rec
	}
	return p.records.Get()
}

// Submit enqueues a filled Payload for transmission, returning false
// if the outbound ring is full (spec §7's resource-exhaustion policy:
// caller retries or drops, the endpoint never blocks).
func (p *Producer) Submit(payload *api.Payload) bool {
	return p.outbound.Enqueue(payload)
}

// Release returns a Payload the caller decided not to submit (e.g. it
// failed application-level validation) directly to the pool.
func (p *Producer) Release(payload *api.Payload) {
	p.records.Put(payload)
}
