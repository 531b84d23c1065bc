package engine

import (
	"sync"
	"time"

	"github.com/flowplane/l2rp/mempool"
	"github.com/flowplane/l2rp/retransmit"
	"github.com/flowplane/l2rp/wire"
)

// SRPTx implements spec §4.5: stop-and-wait generalized to a bounded
// window. While the window has room, dequeue one Payload, frame it
// with the next tx_next_seq, submit it, and push the buffer onto the
// window tail. When the oldest unacked send exceeds the retransmit
// timeout, resend the entire window as one logical burst and reset
// the timeout reference.
//
// Grounded on original_source/include/srp.hpp's tx(): the "two-call
// wraparound retransmit submit" (span_from/longest_span each return
// up to two contiguous slices when the window wraps, submitted as two
// separate tx_burst calls rather than copied into one contiguous
// buffer).
type SRPTx struct {
	deps   *Deps
	state  *retransmit.State
	window *retransmit.Window
	timer  *retransmit.Timer
	txMu   *sync.Mutex
	stopCh <-chan struct{}

	// gaveUp remembers that the max-attempts warning already fired for
	// the current run of exceeded attempts, so a stuck window logs
	// once instead of once per busy-poll iteration.
	gaveUp bool
}

// NewSRPTx builds an SRP TX engine. txMu serializes access to the
// shared NIC TX queue against the SRP RX engine's ACK sends, since
// spec §2 puts both on distinct cores contending for one TX queue.
func NewSRPTx(deps *Deps, state *retransmit.State, window *retransmit.Window, timer *retransmit.Timer, txMu *sync.Mutex, stopCh <-chan struct{}) *SRPTx {
	return &SRPTx{deps: deps, state: state, window: window, timer: timer, txMu: txMu, stopCh: stopCh}
}

// Run blocks until stopCh closes, executing spec §4.5's loop.
func (e *SRPTx) Run() {
	idle := 0
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		progressed := e.trySend()
		if e.retransmitIfExpired() {
			progressed = true
		}

		if !progressed {
			pauseHint(idle)
			idle++
		} else {
			idle = 0
		}
	}
}

func (e *SRPTx) trySend() bool {
	if e.window.Full() {
		return false
	}
	p, ok := e.deps.Outbound.Dequeue()
	if !ok {
		return false
	}

	dest := e.deps.Peer.Dest(e.deps.DefaultPeer)
	buf := e.deps.TXPool.Acquire()
	seq := e.state.TxNextSeq
	framed, err := wire.Build(buf.Bytes(), dest, e.deps.SrcMAC, e.deps.Variant, wire.OpcodeSRPData, seq, p, e.deps.UnitSize)
	if err != nil {
		buf.Release()
		if e.deps.Log != nil {
			e.deps.Log.WithError(err).Warn("srp tx: build failed")
		}
	} else {
		buf.Truncate(framed)
		mark := e.window.Mark()
		e.window.Push(buf)
		e.state.TxNextSeq = seq + 1
		e.timer.PushSendTime(time.Now())

		first, second := e.window.SpanFrom(mark)
		e.submitTwoCall(first, second)
	}

	// Hand the Payload back to the producer; only the producer calls
	// payloadpool.Pool.Put (spec §9).
	for !e.deps.Returned.Enqueue(p) {
		pauseHint(0)
	}
	return true
}

func (e *SRPTx) retransmitIfExpired() bool {
	if !e.timer.Expired(time.Now()) {
		return false
	}
	if e.state.ExceededMaxAttempts() {
		if !e.gaveUp {
			e.gaveUp = true
			if e.deps.Log != nil {
				e.deps.Log.WithField("attempts", e.state.Attempts).
					Warn("srp tx: max retransmit attempts exceeded, giving up on outstanding window")
			}
		}
		return false
	}
	e.gaveUp = false

	first, second := e.window.LongestSpan()
	if len(first)+len(second) == 0 {
		return false
	}
	e.submitTwoCall(first, second)
	e.timer.ResetAfterRetransmit(time.Now())
	e.state.Attempts++
	e.deps.metrics().Retransmits(len(first) + len(second))
	return true
}

// submitTwoCall submits first, then second, as two separate bursts —
// the wraparound split original_source/include/srp.hpp's tx()
// performs when a span straddles the window's backing array end.
func (e *SRPTx) submitTwoCall(first, second []*mempool.Buffer) {
	e.submitOne(first)
	e.submitOne(second)
}

func (e *SRPTx) submitOne(span []*mempool.Buffer) {
	if len(span) == 0 {
		return
	}
	frames := make([][]byte, len(span))
	for i, b := range span {
		frames[i] = b.Bytes()
	}
	e.txMu.Lock()
	err := submitBurst(e.deps.Port, frames)
	e.txMu.Unlock()
	if err != nil {
		if e.deps.Log != nil {
			e.deps.Log.WithError(err).Warn("srp tx: submit burst failed")
		}
		return
	}
	e.deps.metrics().FramesSent(e.deps.Variant, len(frames))
}
