package endpoint

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/flowplane/l2rp/affinity"
	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/engine"
	"github.com/flowplane/l2rp/mempool"
	"github.com/flowplane/l2rp/metrics"
	"github.com/flowplane/l2rp/nic"
	"github.com/flowplane/l2rp/payloadpool"
	"github.com/flowplane/l2rp/retransmit"
	"github.com/flowplane/l2rp/ringbuf"
)

// Endpoint is the bootstrapped object spec §4.1 describes: one NIC
// port, two mempools, the outbound/inbound/returned rings, and the
// variant-appropriate TX/RX engine goroutines, each pinned to its own
// core when Config requests it.
//
// Grounded on momentics-hioload-ws/server/server.go's Server (holds
// its collaborators and a stop channel, exposes Run/Shutdown) and
// server/run.go's goroutine-per-activity launch pattern.
type Endpoint struct {
	cfg Config
	log logrus.FieldLogger

	port    nic.Port
	txPool  *mempool.Pool
	rxPool  *mempool.Pool
	records *payloadpool.Pool

	outbound *ringbuf.Ring[*api.Payload]
	inbound  *ringbuf.Ring[*api.Payload]
	returned *ringbuf.Ring[*api.Payload]

	peer *engine.PeerLatch

	stopCh chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// New bootstraps an Endpoint from cfg over port, failing fast on any
// invalid configuration (spec §4.1). metricsImpl may be nil, in which
// case metrics.NoOp is used; log may be nil, in which case a
// logrus.New() default is used, mirroring firestige-Otus's
// constructor-injected-logger style.
func New(cfg Config, port nic.Port, metricsImpl api.Metrics, log logrus.FieldLogger) (*Endpoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}
	if metricsImpl == nil {
		metricsImpl = metrics.NoOp
	}

	outbound, err := ringbuf.New[*api.Payload](cfg.RingSize)
	if err != nil {
		return nil, api.Wrap(api.ErrCodeBootstrap, err, "allocate outbound ring")
	}
	inbound, err := ringbuf.New[*api.Payload](cfg.RingSize)
	if err != nil {
		return nil, api.Wrap(api.ErrCodeBootstrap, err, "allocate inbound ring")
	}
	returned, err := ringbuf.New[*api.Payload](cfg.RingSize)
	if err != nil {
		return nil, api.Wrap(api.ErrCodeBootstrap, err, "allocate returned ring")
	}

	unitSize := port.MTU()
	if unitSize <= 0 || unitSize < cfg.UnitSize {
		unitSize = cfg.UnitSize
	}
	// Mempool sizing rule (spec §4.1): capacity at least 2x the ring
	// capacity the pool backs.
	txPool := mempool.New(unitSize, int(cfg.RingSize)*2)
	rxPool := mempool.New(unitSize, int(cfg.RingSize)*2)

	ep := &Endpoint{
		cfg:      cfg,
		log:      log.WithField("port", cfg.PortID),
		port:     port,
		txPool:   txPool,
		rxPool:   rxPool,
		records:  payloadpool.New(),
		outbound: outbound,
		inbound:  inbound,
		returned: returned,
		peer:     &engine.PeerLatch{},
		stopCh:   make(chan struct{}),
	}
	// A configured default that is a real, specific MAC (neither the
	// zero value nor broadcast) is treated as already learned, so an
	// operator who already knows the peer skips the broadcast phase
	// entirely. Broadcast itself is never latched as "learned" — it is
	// the fallback Dest() uses precisely because nothing has been
	// learned yet (spec §6's "broadcast at start").
	if cfg.DefaultPeerMAC != (api.MAC{}) && cfg.DefaultPeerMAC != api.Broadcast {
		ep.peer.Learn(cfg.DefaultPeerMAC)
	}

	ep.startEngines(metricsImpl)
	return ep, nil
}

func (e *Endpoint) deps() *engine.Deps {
	return &engine.Deps{
		Port:        e.port,
		TXPool:      e.txPool,
		RXPool:      e.rxPool,
		SrcMAC:      e.port.MAC(),
		DefaultPeer: e.cfg.DefaultPeerMAC,
		Variant:     e.cfg.Variant,
		UnitSize:    e.cfg.UnitSize,
		TxBurst:     e.cfg.TXBurst,
		RxBurst:     e.cfg.RXBurst,
		Peer:        e.peer,
		Log:         e.log,
		Outbound:    e.outbound,
		Inbound:     e.inbound,
		Returned:    e.returned,
	}
}

// startEngines launches the variant-appropriate TX/RX goroutines,
// each optionally pinned to a dedicated core via
// affinity.PinCallingGoroutine (spec §5's "each engine pinned to a
// dedicated CPU core").
func (e *Endpoint) startEngines(metricsImpl api.Metrics) {
	depsTx := e.deps()
	depsTx.Metrics = metricsImpl
	depsRx := e.deps()
	depsRx.Metrics = metricsImpl

	switch e.cfg.Variant {
	case api.VariantURP:
		e.spawn(e.cfg.TxEngineCPU, "urp-tx", func() { engine.NewURPTx(depsTx, e.stopCh).Run() })
		e.spawn(e.cfg.RxEngineCPU, "urp-rx", func() { engine.NewURPRx(depsRx, e.records.Get, e.stopCh).Run() })
	case api.VariantSRP:
		timeout := e.cfg.RetransmitTimeout
		if timeout <= 0 {
			timeout = retransmit.DefaultTimeout
		}
		window, err := retransmit.NewWindow(e.cfg.WindowSize)
		if err != nil {
			// Validate already checked power-of-two; unreachable in
			// practice, but the TX goroutine must not start with a
			// nil window.
			e.log.WithError(err).Fatal("endpoint: allocate retransmit window")
			return
		}
		state := &retransmit.State{MaxAttempts: e.cfg.MaxRetransmitAttempts}
		timer := retransmit.NewTimer(timeout)
		txMu := &sync.Mutex{}

		e.spawn(e.cfg.TxEngineCPU, "srp-tx", func() {
			engine.NewSRPTx(depsTx, state, window, timer, txMu, e.stopCh).Run()
		})
		e.spawn(e.cfg.RxEngineCPU, "srp-rx", func() {
			engine.NewSRPRx(depsRx, state, window, timer, txMu, e.records.Get, e.stopCh).Run()
		})
	}
}

// spawn launches fn in its own goroutine, pinned to cpuID via
// affinity.PinCallingGoroutine for the goroutine's whole lifetime.
func (e *Endpoint) spawn(cpuID int, name string, fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		release, err := affinity.PinCallingGoroutine(cpuID)
		defer release()
		if err != nil {
			e.log.WithError(err).WithField("activity", name).WithField("cpu", cpuID).
				Warn("endpoint: cpu affinity pin failed, continuing unpinned")
		}
		fn()
	}()
}

// Producer returns the application-facing handle for submitting
// outbound payloads (spec §4.2's activity 1).
func (e *Endpoint) Producer() *Producer {
	return &Producer{records: e.records, outbound: e.outbound, returned: e.returned}
}

// Consumer returns the application-facing handle for draining
// delivered payloads (spec §4.2's activity 4).
func (e *Endpoint) Consumer() *Consumer {
	return &Consumer{records: e.records, inbound: e.inbound}
}

// Shutdown stops every engine goroutine and closes the NIC port. Safe
// to call more than once.
func (e *Endpoint) Shutdown() error {
	e.closeOnce.Do(func() {
		close(e.stopCh)
		e.wg.Wait()
	})
	return e.port.Close()
}
