// Command l2endpoint demonstrates one bootstrapped endpoint over a
// real or loopback NIC port. Argument parsing and process lifecycle
// (the arg parser and the NIC-bypass runtime's own init sequence) are
// the external collaborators spec §1 keeps out of scope, so this
// binary stays a thin `flag`-based demonstration rather than a CLI
// framework consumer (see original_source/arg.cpp's four positional
// flags with baked-in defaults, reproduced here as spec §6's table).
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/endpoint"
	"github.com/flowplane/l2rp/internal/nicdriver"
	"github.com/flowplane/l2rp/metrics"
	"github.com/flowplane/l2rp/nic"
)

func main() {
	var (
		portID      = flag.Uint("p", 0, "NIC port id")
		txBurst     = flag.Int("tx", 128, "max frames per TX submit")
		rxBurst     = flag.Int("rx", 128, "max frames per RX poll")
		unitSize    = flag.Int("size", 64, "per-frame unit size")
		variant     = flag.String("variant", "urp", "protocol variant: urp or srp")
		iface       = flag.String("iface", "", "interface name for a real NIC port")
		peerMAC     = flag.String("peer", "", "default peer MAC, e.g. 02:00:00:00:00:02 (optional)")
		loopback    = flag.Bool("loopback", false, "use an in-memory loopback port instead of a real interface")
		promMetrics = flag.Bool("prometheus", false, "expose Prometheus counters instead of no-op metrics")
	)
	flag.Parse()

	log := logrus.New()

	v, err := parseVariant(*variant)
	if err != nil {
		log.WithError(err).Fatal("l2endpoint: invalid -variant")
	}
	// No -peer given: broadcast until an inbound frame's source MAC is
	// learned (spec §6's dst-MAC rule; original_source/client-src/
	// client.cpp:97-99 unconditionally sets cfg.default_peer_mac to
	// BCAST since its arg parser has no peer-MAC override at all).
	peer := api.Broadcast
	if *peerMAC != "" {
		peer, err = parseMAC(*peerMAC)
		if err != nil {
			log.WithError(err).Fatal("l2endpoint: invalid -peer")
		}
	}

	cfg := endpoint.DefaultConfig()
	cfg.PortID = uint16(*portID)
	cfg.Variant = v
	cfg.DefaultPeerMAC = peer
	cfg.TXBurst = *txBurst
	cfg.RXBurst = *rxBurst
	cfg.UnitSize = *unitSize

	port, err := openPort(*loopback, *iface, *unitSize)
	if err != nil {
		log.WithError(err).Fatal("l2endpoint: open nic port")
	}

	var metricsImpl api.Metrics
	if *promMetrics {
		metricsImpl = metrics.NewPrometheus(prometheus.DefaultRegisterer)
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(":9110", nil); err != nil {
				log.WithError(err).Warn("l2endpoint: metrics server stopped")
			}
		}()
	}

	ep, err := endpoint.New(cfg, port, metricsImpl, log)
	if err != nil {
		log.WithError(err).Fatal("l2endpoint: bootstrap failed")
	}
	log.WithFields(logrus.Fields{"variant": v, "port": cfg.PortID}).Info("l2endpoint: running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("l2endpoint: shutting down")
	if err := ep.Shutdown(); err != nil {
		log.WithError(err).Warn("l2endpoint: shutdown")
	}
}

func openPort(loopback bool, iface string, mtu int) (nic.Port, error) {
	if loopback {
		a, _ := nicdriver.NewLoopbackPair(api.MAC{0x02, 0, 0, 0, 0, 0x01}, api.MAC{0x02, 0, 0, 0, 0, 0x02}, mtu)
		return a, nil
	}
	if iface == "" {
		return nil, api.NewError(api.ErrCodeBootstrap, "either -iface or -loopback must be given")
	}
	return nicdriver.OpenNICPort(iface, mtu)
}

func parseVariant(s string) (api.Variant, error) {
	switch s {
	case "urp":
		return api.VariantURP, nil
	case "srp":
		return api.VariantSRP, nil
	default:
		return 0, fmt.Errorf("unknown variant %q, want urp or srp", s)
	}
}

func parseMAC(s string) (api.MAC, error) {
	var mac api.MAC
	var parts [6]int
	n, err := fmt.Sscanf(s, "%02x:%02x:%02x:%02x:%02x:%02x",
		&parts[0], &parts[1], &parts[2], &parts[3], &parts[4], &parts[5])
	if err != nil || n != 6 {
		return mac, fmt.Errorf("malformed MAC %q", s)
	}
	for i, p := range parts {
		mac[i] = byte(p)
	}
	return mac, nil
}
