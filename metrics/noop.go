// Package metrics provides the optional api.Metrics implementations:
// a zero-cost no-op default and a Prometheus-backed one for
// deployments that want observability into frame counts and
// retransmits (spec §7.3: "a counter may be incremented for
// observability").
package metrics

import "github.com/flowplane/l2rp/api"

type noop struct{}

func (noop) FramesSent(api.Variant, int)             {}
func (noop) FramesReceived(api.Variant, int)         {}
func (noop) FramesDropped(api.Variant, string, int)  {}
func (noop) Retransmits(int)                         {}
func (noop) PeerLearned()                            {}

// NoOp is the zero-value default: every call is a no-op, so wiring
// metrics is opt-in and costs nothing on the data-plane fast path
// when unused.
var NoOp api.Metrics = noop{}
