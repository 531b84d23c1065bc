//go:build linux && afpacket

package nicdriver

import (
	"time"

	"github.com/flowplane/l2rp/nic"
)

// OpenNICPort opens the real nic.Port implementation this build was
// compiled with, giving cmd/l2endpoint one call site regardless of
// which build tag selected the underlying transport.
func OpenNICPort(iface string, mtu int) (nic.Port, error) {
	return OpenAFPacketPort(AFPacketConfig{
		Interface:   iface,
		SnapLen:     mtu,
		BlockSize:   1 << 20,
		NumBlocks:   64,
		PollTimeout: 100 * time.Millisecond,
		Promiscuous: true,
	})
}
