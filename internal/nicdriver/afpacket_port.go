//go:build linux && afpacket

// Real nic.Port backed by AF_PACKET via gopacket/afpacket, the closest
// available stand-in for the DPDK poll-mode port spec §1 keeps
// external. Grounded on firestige-Otus/internal/source/afpacket's
// TPacket construction (ring size in frames/blocks, promiscuous mode,
// timeout).
package nicdriver

import (
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket/afpacket"

	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/nic"
)

// AFPacketPort binds one network interface with one shared RX/TX ring
// via a single afpacket.TPacket handle (spec §1's "one RX and one TX
// queue pair").
type AFPacketPort struct {
	handle *afpacket.TPacket
	mac    api.MAC
	mtu    int
}

var _ nic.Port = (*AFPacketPort)(nil)

// AFPacketConfig mirrors the fields firestige-Otus's afpacket.Source
// exposes for TPacket construction.
type AFPacketConfig struct {
	Interface    string
	SnapLen      int
	BlockSize    int
	NumBlocks    int
	PollTimeout  time.Duration
	Promiscuous  bool
}

// OpenAFPacketPort binds cfg.Interface, enabling promiscuous mode per
// spec §4.1's bootstrap contract.
func OpenAFPacketPort(cfg AFPacketConfig) (*AFPacketPort, error) {
	if cfg.SnapLen == 0 {
		cfg.SnapLen = 2048
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = 1 << 20
	}
	if cfg.NumBlocks == 0 {
		cfg.NumBlocks = 8
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 100 * time.Millisecond
	}

	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(cfg.Interface),
		afpacket.OptFrameSize(cfg.SnapLen),
		afpacket.OptBlockSize(cfg.BlockSize),
		afpacket.OptNumBlocks(cfg.NumBlocks),
		afpacket.OptPollTimeout(cfg.PollTimeout),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, api.Wrap(api.ErrCodeBootstrap, api.ErrPortInvalid, fmt.Sprintf("afpacket: open %s: %v", cfg.Interface, err))
	}

	iface, err := net.InterfaceByName(cfg.Interface)
	if err != nil {
		tp.Close()
		return nil, api.Wrap(api.ErrCodeBootstrap, api.ErrPortInvalid, fmt.Sprintf("afpacket: lookup %s: %v", cfg.Interface, err))
	}
	if cfg.Promiscuous {
		if err := setPromiscuous(iface.Name, true); err != nil {
			tp.Close()
			return nil, api.Wrap(api.ErrCodeBootstrap, api.ErrPortInvalid, fmt.Sprintf("afpacket: promisc %s: %v", cfg.Interface, err))
		}
	}

	var mac api.MAC
	copy(mac[:], iface.HardwareAddr)

	return &AFPacketPort{handle: tp, mac: mac, mtu: cfg.SnapLen}, nil
}

func (p *AFPacketPort) MAC() api.MAC { return p.mac }
func (p *AFPacketPort) MTU() int     { return p.mtu }

func (p *AFPacketPort) RxBurst(dst [][]byte) (int, error) {
	n := 0
	for n < len(dst) {
		data, _, err := p.handle.ZeroCopyReadPacketData()
		if err != nil {
			break
		}
		dst[n] = data
		n++
	}
	return n, nil
}

// Free is a no-op: afpacket's ring slots are recycled by the kernel
// once the next poll cycle reuses them; there is no explicit release.
func (p *AFPacketPort) Free(buf []byte) {}

func (p *AFPacketPort) TxBurst(frames [][]byte) (int, error) {
	for i, f := range frames {
		if err := p.handle.WritePacketData(f); err != nil {
			return i, api.Wrap(api.ErrCodeResourceExhausted, err, "afpacket: tx_burst failed")
		}
	}
	return len(frames), nil
}

func (p *AFPacketPort) Close() error {
	p.handle.Close()
	return nil
}
