// Package nic defines the contract between the endpoint core and the
// external NIC-bypass driver collaborator that spec §1 keeps out of
// scope: "a kernel-bypass DPDK-like runtime supplying poll-mode
// rx_burst/tx_burst, a mempool of fixed-size packet buffers, physical
// port configuration, CPU pinning, and a hardware timestamp counter".
//
// Grounded on the teacher's api.Transport interface shape
// (Recv/Send/Close), generalized from stream-oriented receive/send to
// the burst-of-buffers poll-mode shape spec §4 requires. The teacher's
// Transport also carries a Features capability struct; nothing in this
// domain picks a framing or window strategy per port (framing is fixed
// by protocol variant, the window by SRP/URP, never by the port
// implementation), so it has no counterpart here.
package nic

import "github.com/flowplane/l2rp/api"

// Port is one physical or virtual Ethernet port configured with one
// RX queue and one TX queue (spec §2's "handle to one NIC port").
type Port interface {
	// MAC returns the port's own hardware address, read once at
	// bootstrap (spec §4.1).
	MAC() api.MAC

	// RxBurst polls for up to len(dst) received frames, filling dst
	// with borrowed byte views and returning the count received. Each
	// returned slice remains valid until the corresponding call to
	// Free (spec §3's "Packet buffer ... owned by the NIC between
	// submission and completion").
	RxBurst(dst [][]byte) (n int, err error)
	// Free returns an RX buffer obtained from RxBurst back to the
	// port's RX mempool.
	Free(buf []byte)

	// TxBurst submits up to len(frames) frames for transmission,
	// returning the count actually accepted. A partial accept is not
	// an error (spec §4.3: "if the NIC accepted fewer than submitted,
	// retry the tail of the burst").
	TxBurst(frames [][]byte) (n int, err error)

	// MTU returns the maximum frame size the port will transmit or
	// receive, used to size mempool buffers.
	MTU() int

	// Close releases the port and any resources it owns.
	Close() error
}
