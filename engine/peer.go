// Package engine implements the four data-plane loops spec §4.3-§4.6
// describe: URP's TX/RX pair and SRP's TX/RX pair. Each loop is a
// goroutine meant to run pinned to its own core (affinity package),
// busy-polling with an adaptive pause hint on idle iterations.
//
// Grounded on the teacher's internal/concurrency.EventLoop.Run: a
// select-on-stop-channel loop around a batch-processing step with an
// adaptive backoff when the batch was empty.
package engine

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/flowplane/l2rp/api"
)

// PeerLatch is the cross-engine learned-peer MAC (spec §3 invariant 5
// and §9's "tearing-tolerant latch"). RX writes it once a valid frame
// arrives; TX reads it to pick the destination address. Packing the
// 48-bit MAC into a uint64 makes every store/load atomic in Go, going
// one better than the source's own "tolerate a torn read" design.
type PeerLatch struct {
	packed  atomic.Uint64
	learned atomic.Bool
}

// Learn latches mac as the current peer. Safe for a single writer
// (the RX engine) called concurrently with readers.
func (l *PeerLatch) Learn(mac api.MAC) {
	l.packed.Store(packMAC(mac))
	l.learned.Store(true)
}

// Get returns the learned MAC and whether one has ever been learned.
func (l *PeerLatch) Get() (api.MAC, bool) {
	if !l.learned.Load() {
		return api.MAC{}, false
	}
	return unpackMAC(l.packed.Load()), true
}

// Dest returns the learned peer if latched, else fallback (spec
// §4.2's "learned peer, else configured default").
func (l *PeerLatch) Dest(fallback api.MAC) api.MAC {
	if mac, ok := l.Get(); ok {
		return mac
	}
	return fallback
}

func packMAC(mac api.MAC) uint64 {
	var buf [8]byte
	copy(buf[2:], mac[:])
	return binary.BigEndian.Uint64(buf[:])
}

func unpackMAC(v uint64) api.MAC {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	var mac api.MAC
	copy(mac[:], buf[2:])
	return mac
}
