// Package payloadpool implements the fixed-size Payload record pool
// the endpoint reuses (spec §5 "Memory discipline"; §9's Open
// Question decision: "producer owns the record pool; TX never
// frees"). Records are not preallocated: the pool allocates a new
// record on demand whenever it has none to hand back.
//
// Grounded directly on the teacher's pool.SyncPool[T] (a thin
// sync.Pool wrapper), specialized to *api.Payload.
package payloadpool

import (
	"sync"

	"github.com/flowplane/l2rp/api"
)

// Pool hands out reusable *api.Payload records to the producer.
type Pool struct {
	pool *sync.Pool
}

// New creates a payload pool.
func New() *Pool {
	return &Pool{
		pool: &sync.Pool{New: func() any { return &api.Payload{} }},
	}
}

// Get returns a payload record ready to be filled by the caller.
func (p *Pool) Get() *api.Payload {
	return p.pool.Get().(*api.Payload)
}

// Put returns a payload record for reuse. Only the application-facing
// handles call this (endpoint.Producer.Release and
// endpoint.Consumer.Release) — engines never free a Payload whose
// ownership they don't hold (spec §4.7).
func (p *Pool) Put(v *api.Payload) {
	v.Size = 0
	p.pool.Put(v)
}

var _ api.ObjectPool[*api.Payload] = (*Pool)(nil)
