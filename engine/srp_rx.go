package engine

import (
	"sync"

	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/retransmit"
	"github.com/flowplane/l2rp/wire"
)

// SRPRx implements spec §4.6: parse each received frame; ACKs release
// entries from the outstanding-TX window head, DATA frames advance
// rx_next_seq only in order and always schedule a cumulative ACK.
type SRPRx struct {
	deps    *Deps
	state   *retransmit.State
	window  *retransmit.Window
	timer   *retransmit.Timer
	txMu    *sync.Mutex
	payload func() *api.Payload
	stopCh  <-chan struct{}
}

// NewSRPRx builds an SRP RX engine sharing state, window, and timer
// with the paired SRPTx, and txMu to serialize ACK sends against DATA
// sends on the shared NIC TX queue.
func NewSRPRx(deps *Deps, state *retransmit.State, window *retransmit.Window, timer *retransmit.Timer, txMu *sync.Mutex, newPayload func() *api.Payload, stopCh <-chan struct{}) *SRPRx {
	return &SRPRx{deps: deps, state: state, window: window, timer: timer, txMu: txMu, payload: newPayload, stopCh: stopCh}
}

// Run blocks until stopCh closes, executing spec §4.6's loop.
func (e *SRPRx) Run() {
	deps := e.deps
	bufs := make([][]byte, deps.RxBurst)
	idle := 0
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		n, err := deps.Port.RxBurst(bufs)
		if err != nil && deps.Log != nil {
			deps.Log.WithError(err).Warn("srp rx: rx_burst failed")
		}
		if n == 0 {
			pauseHint(idle)
			idle++
			continue
		}
		idle = 0

		accepted := make([]*api.Payload, 0, n)
		for i := 0; i < n; i++ {
			e.handleOne(bufs[i], &accepted)
		}
		if len(accepted) > 0 {
			deps.metrics().FramesReceived(deps.Variant, len(accepted))
			delivered := 0
			for delivered < len(accepted) {
				delivered += deps.Inbound.EnqueueBurst(accepted[delivered:])
				if delivered < len(accepted) {
					pauseHint(0)
				}
			}
		}

		if e.state.NeedAck {
			e.sendAck()
			e.state.NeedAck = false
		}
	}
}

func (e *SRPRx) handleOne(buf []byte, accepted *[]*api.Payload) {
	deps := e.deps
	frame, err := wire.Parse(buf, deps.Variant)
	if err != nil {
		deps.Port.Free(buf)
		deps.metrics().FramesDropped(deps.Variant, "malformed", 1)
		return
	}
	if _, hadLearned := deps.Peer.Get(); !hadLearned {
		deps.metrics().PeerLearned()
	}
	deps.Peer.Learn(frame.SrcMAC)

	switch frame.Opcode {
	case wire.OpcodeSRPAck:
		e.handleAck(frame.Seq)
		deps.Port.Free(buf)
	default:
		if frame.Seq == e.state.RxNextSeq {
			e.state.RxNextSeq++
			p := e.payload()
			frame.CopyInto(p)
			*accepted = append(*accepted, p)
		} else {
			// Out-of-order: drop, still ack to resync the peer (spec §4.6).
			deps.metrics().FramesDropped(deps.Variant, "out-of-order", 1)
		}
		deps.Port.Free(buf)
		e.state.NeedAck = true
	}
}

// handleAck releases window entries the peer's cumulative ACK
// confirms. Stale or duplicate ACKs (acked would exceed the current
// window occupancy) are ignored per spec §4.6/§7.4.
func (e *SRPRx) handleAck(receivedSeq uint32) {
	acked := receivedSeq - e.state.TxAckedUpTo
	if acked == 0 || acked > uint32(e.window.Len()) {
		return
	}
	for i := uint32(0); i < acked; i++ {
		buf, ok := e.window.PopAcked()
		if !ok {
			break
		}
		buf.Release()
		e.timer.PopOldest()
	}
	e.state.TxAckedUpTo = receivedSeq
	if e.window.Len() == 0 {
		// The window was last fully drained now; a fresh run of
		// retransmit attempts starts counting from zero (see
		// retransmit.State.Attempts's doc comment).
		e.state.Attempts = 0
	}
}

func (e *SRPRx) sendAck() {
	deps := e.deps
	dest := deps.Peer.Dest(deps.DefaultPeer)
	buf := deps.TXPool.Acquire()
	framed, err := wire.Build(buf.Bytes(), dest, deps.SrcMAC, deps.Variant, wire.OpcodeSRPAck, e.state.RxNextSeq, nil, deps.UnitSize)
	if err != nil {
		buf.Release()
		if deps.Log != nil {
			deps.Log.WithError(err).Warn("srp rx: build ack failed")
		}
		return
	}
	buf.Truncate(framed)
	e.txMu.Lock()
	sendErr := submitBurst(deps.Port, [][]byte{buf.Bytes()})
	e.txMu.Unlock()
	buf.Release()
	if sendErr != nil {
		if deps.Log != nil {
			deps.Log.WithError(sendErr).Warn("srp rx: send ack failed")
		}
		return
	}
	deps.metrics().FramesSent(deps.Variant, 1)
}
