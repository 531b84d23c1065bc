package engine

import (
	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/wire"
)

// URPRx implements spec §4.4: poll the NIC, parse each buffer,
// latch the source MAC on the first valid frame, copy each accepted
// payload into a fresh record, and burst-enqueue into the inbound
// ring, busy-retrying the tail if the ring is momentarily full.
type URPRx struct {
	deps    *Deps
	payload func() *api.Payload
	stopCh  <-chan struct{}
}

// NewURPRx builds a URP RX engine. newPayload allocates the record an
// accepted frame is copied into (the endpoint wires this to
// payloadpool.Pool.Get).
func NewURPRx(deps *Deps, newPayload func() *api.Payload, stopCh <-chan struct{}) *URPRx {
	return &URPRx{deps: deps, payload: newPayload, stopCh: stopCh}
}

// Run blocks until stopCh closes, executing spec §4.4's loop.
func (e *URPRx) Run() {
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
			deps.Log.WithError(err).Warn("urp rx: rx_burst failed")
		}
		if n == 0 {
			pauseHint(idle)
			idle++
			continue
		}
		idle = 0

		accepted := make([]*api.Payload, 0, n)
		for i := 0; i < n; i++ {
			frame, err := wire.Parse(bufs[i], deps.Variant)
			if err != nil {
				deps.Port.Free(bufs[i])
				deps.metrics().FramesDropped(deps.Variant, "malformed", 1)
				continue
			}
			if _, hadLearned := deps.Peer.Get(); !hadLearned {
				deps.metrics().PeerLearned()
			}
			deps.Peer.Learn(frame.SrcMAC)

			p := e.payload()
			frame.CopyInto(p)
			deps.Port.Free(bufs[i])
			accepted = append(accepted, p)
		}
		deps.metrics().FramesReceived(deps.Variant, len(accepted))

		delivered := 0
		for delivered < len(accepted) {
			delivered += deps.Inbound.EnqueueBurst(accepted[delivered:])
			if delivered < len(accepted) {
				pauseHint(0)
			}
		}
	}
}
