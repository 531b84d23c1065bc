package retransmit

// State is the per-endpoint SRP engine state, ported from
// original_source/include/srp.hpp's EngineState: sequence counters
// and the pending-ack flag. The source's learned_peer/have_learned_peer
// fields are not carried here — engine.PeerLatch replaces them, since
// the endpoint's peer MAC is read and written across two goroutines
// (TX and RX) and needs the atomic packed-word design PeerLatch uses,
// not a plain struct field.
type State struct {
	TxNextSeq uint32
	RxNextSeq uint32
	NeedAck   bool

	// TxAckedUpTo is the cursor separating the source's overloaded
	// rx_seq field into its two distinct roles: this one tracks how
	// far the peer's cumulative ACKs have advanced the outstanding-TX
	// window, independent of RxNextSeq's tracking of the peer's own
	// inbound DATA stream (see the design ledger's Open Question note
	// on this split).
	TxAckedUpTo uint32

	// Attempts counts retransmit rounds since the window was last fully
	// drained. MaxAttempts bounds it when non-zero; the spec's own
	// open question leaves the default unbounded (see the Open
	// Question decisions in the design ledger).
	Attempts    int
	MaxAttempts int
}

// ExceededMaxAttempts reports whether the bounded-attempt opt-in has
// tripped. MaxAttempts == 0 means unbounded, matching the source's own
// unenforced behavior (spec §9 open question).
func (s *State) ExceededMaxAttempts() bool {
	return s.MaxAttempts > 0 && s.Attempts >= s.MaxAttempts
}
