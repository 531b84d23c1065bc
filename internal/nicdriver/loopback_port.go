// Package nicdriver provides concrete nic.Port implementations. This
// file provides an in-memory loopback pair used by tests and by the
// demo binary's -loopback mode, standing in for two NICs wired
// back-to-back over a real link.
//
// Grounded on the teacher's internal/transport/dpdk_transport_stub.go:
// a build-tag-free stand-in that satisfies the same interface as the
// real driver so tests never need the real collaborator.
package nicdriver

import (
	"sync"

	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/nic"
)

// DropFunc decides whether a frame in flight should be dropped,
// letting tests exercise spec §8's lossy-link scenarios (URP loss,
// SRP retransmit, SRP ACK loss) deterministically.
type DropFunc func(frame []byte) bool

// LoopbackPort is an in-memory nic.Port. Frames submitted via TxBurst
// are copied onto the peer's inbound queue (or dropped, per dropFn)
// rather than touching a real wire.
type LoopbackPort struct {
	mac    api.MAC
	mtu    int
	mu     sync.Mutex
	inbox  [][]byte
	peer   *LoopbackPort
	dropFn DropFunc
}

var _ nic.Port = (*LoopbackPort)(nil)

// NewLoopbackPair creates two ports wired to each other full-duplex.
func NewLoopbackPair(macA, macB api.MAC, mtu int) (a, b *LoopbackPort) {
	a = &LoopbackPort{mac: macA, mtu: mtu}
	b = &LoopbackPort{mac: macB, mtu: mtu}
	a.peer = b
	b.peer = a
	return a, b
}

// SetDropFunc installs a predicate deciding which outbound frames
// from this port never reach its peer. A nil DropFunc drops nothing.
func (p *LoopbackPort) SetDropFunc(fn DropFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropFn = fn
}

func (p *LoopbackPort) MAC() api.MAC { return p.mac }
func (p *LoopbackPort) MTU() int     { return p.mtu }

func (p *LoopbackPort) RxBurst(dst [][]byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.inbox)
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = p.inbox[i]
	}
	p.inbox = p.inbox[n:]
	return n, nil
}

// Free is a no-op: loopback buffers are plain copies collected by the GC.
func (p *LoopbackPort) Free(buf []byte) {}

func (p *LoopbackPort) TxBurst(frames [][]byte) (int, error) {
	peer := p.peer
	p.mu.Lock()
	dropFn := p.dropFn
	p.mu.Unlock()

	accepted := make([][]byte, 0, len(frames))
	for _, f := range frames {
		if dropFn != nil && dropFn(f) {
			continue
		}
		cp := make([]byte, len(f))
		copy(cp, f)
		accepted = append(accepted, cp)
	}
	peer.mu.Lock()
	peer.inbox = append(peer.inbox, accepted...)
	peer.mu.Unlock()
	return len(frames), nil
}

func (p *LoopbackPort) Close() error { return nil }
