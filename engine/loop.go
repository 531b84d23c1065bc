package engine

import (
	"runtime"
	"time"

	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/mempool"
	"github.com/flowplane/l2rp/metrics"
	"github.com/flowplane/l2rp/nic"

	"github.com/sirupsen/logrus"
)

// pauseHint is the architectural pause spec §5 calls for on empty/full
// conditions: yield the OS thread first, then a microsecond sleep if
// the loop stays idle, mirroring the teacher's adaptiveBackoff without
// its unbounded growth (§5 has no cooperative suspension beyond this).
func pauseHint(idleStreak int) {
	if idleStreak < 64 {
		runtime.Gosched()
		return
	}
	time.Sleep(time.Microsecond)
}

// Deps are the collaborators every engine loop needs, shared across
// URP and SRP, TX and RX.
type Deps struct {
	Port        nic.Port
	TXPool      *mempool.Pool
	RXPool      *mempool.Pool
	SrcMAC      api.MAC
	DefaultPeer api.MAC
	Variant     api.Variant
	UnitSize    int
	TxBurst     int
	RxBurst     int
	Peer        *PeerLatch
	Metrics     api.Metrics
	Log         logrus.FieldLogger

	// Outbound carries producer-filled Payloads to the TX engine.
	Outbound api.Ring[*api.Payload]
	// Inbound carries RX-delivered Payloads to the consumer.
	Inbound api.Ring[*api.Payload]
	// Returned carries Payload pointers TX has finished framing back
	// to the producer for reuse, since spec §9 fixes ownership as
	// "producer owns the record pool; TX never frees" — TX cannot call
	// payloadpool.Pool.Put itself, so it hands the pointer back here.
	Returned api.Ring[*api.Payload]
}

func (d *Deps) metrics() api.Metrics {
	if d.Metrics == nil {
		return metrics.NoOp
	}
	return d.Metrics
}

// submitBurst drains frames onto the port, retrying the unaccepted
// tail until fully drained (spec §4.3 step 4: "blocking retry is
// acceptable since failure here indicates NIC saturation, not error").
func submitBurst(port nic.Port, frames [][]byte) error {
	submitted := 0
	idle := 0
	for submitted < len(frames) {
		n, err := port.TxBurst(frames[submitted:])
		if err != nil {
			return err
		}
		if n == 0 {
			pauseHint(idle)
			idle++
			continue
		}
		submitted += n
		idle = 0
	}
	return nil
}
