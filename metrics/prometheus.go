package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowplane/l2rp/api"
)

// Prometheus is an api.Metrics implementation backed directly by
// prometheus.CounterVec/Counter, incremented synchronously on the
// data-plane fast path rather than read on scrape. Grounded on
// psaab-bpfrx's pkg/api/metrics.go collector, simplified from its
// scrape-time BPF-map-read pattern (nothing here to read lazily; the
// endpoint already knows the count at the call site).
type Prometheus struct {
	framesSent     *prometheus.CounterVec
	framesReceived *prometheus.CounterVec
	framesDropped  *prometheus.CounterVec
	retransmits    prometheus.Counter
	peersLearned   prometheus.Counter
}

// NewPrometheus registers the endpoint's counters against reg and
// returns the resulting Metrics implementation.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "l2rp_frames_sent_total",
			Help: "Total frames submitted to the NIC, by protocol variant.",
		}, []string{"variant"}),
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "l2rp_frames_received_total",
			Help: "Total frames accepted from the NIC, by protocol variant.",
		}, []string{"variant"}),
		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "l2rp_frames_dropped_total",
			Help: "Total frames dropped, by protocol variant and reason.",
		}, []string{"variant", "reason"}),
		retransmits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "l2rp_retransmits_total",
			Help: "Total frames resent by SRP window retransmissions.",
		}),
		peersLearned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "l2rp_peer_learned_total",
			Help: "Total times an inbound frame latched a peer while none had been learned yet.",
		}),
	}
	reg.MustRegister(p.framesSent, p.framesReceived, p.framesDropped, p.retransmits, p.peersLearned)
	return p
}

var _ api.Metrics = (*Prometheus)(nil)

func (p *Prometheus) FramesSent(v api.Variant, n int) {
	p.framesSent.WithLabelValues(v.String()).Add(float64(n))
}

func (p *Prometheus) FramesReceived(v api.Variant, n int) {
	p.framesReceived.WithLabelValues(v.String()).Add(float64(n))
}

func (p *Prometheus) FramesDropped(v api.Variant, reason string, n int) {
	p.framesDropped.WithLabelValues(v.String(), reason).Add(float64(n))
}

func (p *Prometheus) Retransmits(n int) {
	p.retransmits.Add(float64(n))
}

func (p *Prometheus) PeerLearned() {
	p.peersLearned.Inc()
}
