//go:build !linux

package nicdriver

import (
	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/nic"
)

// OpenNICPort has no real-NIC implementation outside Linux; callers
// fall back to NewLoopbackPair for local testing.
func OpenNICPort(iface string, mtu int) (nic.Port, error) {
	return nil, api.NewError(api.ErrCodeBootstrap, "no real nic.Port implementation on this platform, use -loopback")
}
