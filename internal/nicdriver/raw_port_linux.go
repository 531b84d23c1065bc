//go:build linux && !afpacket

// Fallback nic.Port for Linux builds without the afpacket ring buffer
// support (build tag "afpacket" not set): a plain AF_PACKET/SOCK_RAW
// socket bound to one interface. Grounded on psaab-bpfrx's reliance on
// golang.org/x/sys/unix for raw netlink/socket plumbing throughout its
// dataplane package.
package nicdriver

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/nic"
)

// RawPort binds one interface with a single AF_PACKET/SOCK_RAW socket
// used for both RX and TX, the closest a syscall-only implementation
// gets to spec §4.1's "one RX and one TX queue pair" without a ring
// buffer allocator.
type RawPort struct {
	fd    int
	mac   api.MAC
	mtu   int
	ifidx int
}

var _ nic.Port = (*RawPort)(nil)

// OpenRawPort binds ifaceName in promiscuous mode.
func OpenRawPort(ifaceName string, mtu int) (*RawPort, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, api.Wrap(api.ErrCodeBootstrap, api.ErrPortInvalid, "raw port: "+err.Error())
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, api.Wrap(api.ErrCodeBootstrap, api.ErrPortInvalid, "raw port: socket: "+err.Error())
	}
	addr := unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, api.Wrap(api.ErrCodeBootstrap, api.ErrPortInvalid, "raw port: bind: "+err.Error())
	}

	mll := unix.PacketMreq{
		Ifindex: int32(iface.Index),
		Type:    unix.PACKET_MR_PROMISC,
	}
	_ = unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, &mll)

	var mac api.MAC
	copy(mac[:], iface.HardwareAddr)

	return &RawPort{fd: fd, mac: mac, mtu: mtu, ifidx: iface.Index}, nil
}

func htons(v uint16) uint16 {
	return (v<<8)&0xff00 | (v>>8)&0xff
}

func (p *RawPort) MAC() api.MAC { return p.mac }
func (p *RawPort) MTU() int     { return p.mtu }

func (p *RawPort) RxBurst(dst [][]byte) (int, error) {
	n := 0
	for n < len(dst) {
		buf := make([]byte, p.mtu)
		nread, _, err := unix.Recvfrom(p.fd, buf, unix.MSG_DONTWAIT)
		if err != nil {
			break
		}
		dst[n] = buf[:nread]
		n++
	}
	return n, nil
}

func (p *RawPort) Free(buf []byte) {}

func (p *RawPort) TxBurst(frames [][]byte) (int, error) {
	addr := unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  p.ifidx,
	}
	for i, f := range frames {
		if err := unix.Sendto(p.fd, f, 0, &addr); err != nil {
			return i, api.Wrap(api.ErrCodeResourceExhausted, err, "raw port: sendto failed")
		}
	}
	return len(frames), nil
}

func (p *RawPort) Close() error {
	return unix.Close(p.fd)
}
