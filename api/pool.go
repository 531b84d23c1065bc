// Defines the abstract pooling API the fixed-size record pool
// (payloadpool.Pool) is checked against.

package api

// ObjectPool is the contract payloadpool.Pool implements: a pool of
// *Payload records that Get/Put recycles across the
// producer/consumer boundary (spec §9's "producer owns the record
// pool; TX never frees" — Put is only ever called from endpoint code,
// never from an engine; the RX engines call Get for each record they
// deliver).
type ObjectPool[T any] interface {
	// Get returns an available instance from pool
	Get() T

	// Put returns an instance for reuse
	Put(obj T)
}
