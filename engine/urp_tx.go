package engine

import (
	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/mempool"
	"github.com/flowplane/l2rp/wire"
)

// URPTx implements spec §4.3: drain the outbound ring, frame each
// Payload with a monotonically increasing sequence, submit as a
// single burst, retry the unaccepted tail, and never free the
// Payload — only the buffer it was framed into.
type URPTx struct {
	deps   *Deps
	txSeq  uint32
	stopCh <-chan struct{}
}

// NewURPTx builds a URP TX engine bound to deps, stopping when stopCh
// closes.
func NewURPTx(deps *Deps, stopCh <-chan struct{}) *URPTx {
	return &URPTx{deps: deps, stopCh: stopCh}
}

// Run blocks until stopCh closes, executing spec §4.3's loop.
func (e *URPTx) Run() {
	deps := e.deps
	payloads := make([]*api.Payload, deps.TxBurst)
	idle := 0
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		n := deps.Outbound.DequeueBurst(payloads)
		if n == 0 {
			pauseHint(idle)
			idle++
			continue
		}
		idle = 0

		frames := make([][]byte, 0, n)
		bufs := make([]*mempool.Buffer, 0, n)
		dest := deps.Peer.Dest(deps.DefaultPeer)
		for i := 0; i < n; i++ {
			buf := deps.TXPool.Acquire()
			framed, err := wire.Build(buf.Bytes(), dest, deps.SrcMAC, deps.Variant, wire.OpcodeURPData, e.txSeq, payloads[i], deps.UnitSize)
			e.txSeq++

			// Hand the Payload back to the producer's free ring
			// regardless of build outcome; only the producer calls
			// payloadpool.Pool.Put (spec §9) and it can never
			// reacquire a record TX silently drops here.
			for !deps.Returned.Enqueue(payloads[i]) {
				pauseHint(0)
			}

			if err != nil {
				buf.Release()
				continue
			}
			buf.Truncate(framed)
			bufs = append(bufs, buf)
			frames = append(frames, buf.Bytes())
		}

		if len(frames) > 0 {
			if err := submitBurst(deps.Port, frames); err != nil && deps.Log != nil {
				deps.Log.WithError(err).Warn("urp tx: submit burst failed")
			}
			deps.metrics().FramesSent(deps.Variant, len(frames))
		}
		for _, b := range bufs {
			b.Release()
		}
	}
}
