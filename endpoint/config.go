// Package endpoint wires the mempool, rings, NIC port, and engines
// into the single bootstrapped object spec §4.1 describes, exposing
// Producer/Consumer accessors to application code and a Shutdown that
// tears every engine down cleanly.
package endpoint

import (
	"time"

	"github.com/flowplane/l2rp/affinity"
	"github.com/flowplane/l2rp/api"
)

// Config is the bootstrap contract of spec §4.1's
// "Config { port_id, default_peer_mac, ring_size, tx_burst, rx_burst,
// unit_size }", extended with the SRP-only retransmit parameters spec
// §4.5 defines and an optional CPU-pinning set mirroring the teacher's
// AffinityScope option.
type Config struct {
	PortID         uint16
	DefaultPeerMAC api.MAC
	Variant        api.Variant

	RingSize uint64
	TXBurst  int
	RXBurst  int
	UnitSize int

	// WindowSize is the SRP outstanding-TX window capacity; ignored
	// for URP. Must be a power of two.
	WindowSize uint64
	// RetransmitTimeout is the SRP retransmit timeout; zero selects
	// retransmit.DefaultTimeout (spec §4.5's "default = timer-hz/10,
	// i.e. 100 ms").
	RetransmitTimeout time.Duration
	// MaxRetransmitAttempts bounds consecutive full-window retransmit
	// rounds before the TX engine gives up on the outstanding window;
	// zero (the default) leaves it unbounded, matching spec §9's open
	// question ("not currently treated as fatal"). Ignored for URP.
	MaxRetransmitAttempts int

	// CPU IDs the four activities pin to, in the teacher's
	// WithAffinityScope style; NoAffinity (-1) leaves the OS scheduler
	// in control. The zero value 0 is a real CPU ID, not "unset".
	// Endpoint reads only TxEngineCPU and RxEngineCPU, for the engine
	// goroutines it spawns; ProducerCPU and ConsumerCPU are not applied
	// by Endpoint, since it does not run the producer or consumer.
	ProducerCPU int
	TxEngineCPU int
	RxEngineCPU int
	ConsumerCPU int
}

// NoAffinity marks a Config CPU field as "do not pin".
const NoAffinity = affinity.Unpinned

// DefaultConfig returns spec §6's documented CLI defaults.
// DefaultPeerMAC starts as api.Broadcast, matching spec §6's dst-MAC
// rule ("learned peer, else configured default, broadcast at start"):
// the zero-value MAC is never a valid destination to send the first
// frame to.
func DefaultConfig() Config {
	return Config{
		DefaultPeerMAC: api.Broadcast,
		RingSize:       4096,
		TXBurst:        128,
		RXBurst:        128,
		UnitSize:       64,
		WindowSize:     4096,
		ProducerCPU:    NoAffinity,
		TxEngineCPU:    NoAffinity,
		RxEngineCPU:    NoAffinity,
		ConsumerCPU:    NoAffinity,
	}
}

// Validate applies spec §4.1's fail-fast bootstrap checks: non-power-
// of-two ring/window sizes and a unit size below the framing minimum
// abort configuration before any resource is allocated.
func (c Config) Validate() error {
	if c.RingSize < 2 || c.RingSize&(c.RingSize-1) != 0 {
		return api.Wrap(api.ErrCodeBootstrap, api.ErrRingSizeNotPow2, "ring_size must be a power of two greater than one")
	}
	if c.Variant == api.VariantSRP && (c.WindowSize < 2 || c.WindowSize&(c.WindowSize-1) != 0) {
		return api.Wrap(api.ErrCodeBootstrap, api.ErrRingSizeNotPow2, "window_size must be a power of two greater than one")
	}
	if c.UnitSize < 24 {
		return api.Wrap(api.ErrCodeBootstrap, api.ErrUnitSizeTooSmall, "unit_size must be at least 24 bytes")
	}
	if c.TXBurst <= 0 || c.RXBurst <= 0 {
		return api.NewError(api.ErrCodeBootstrap, "tx_burst and rx_burst must be positive")
	}
	return nil
}
