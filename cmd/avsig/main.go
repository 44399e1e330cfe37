// Avsig — AV signaling demo entry point.
//
// This tool runs a full signaling handshake between an initiator and an
// acceptor session: discover the acceptor's stream endpoints, query
// capabilities, configure, open and start the stream, exchange a delay
// report, then suspend and close.
//
// With no -role flag both sessions run in-process over a packet pipe. With
// -role host / -role client the sessions run on separate machines over a
// WebRTC DataChannel, bootstrapped through a WebSocket SDP/ICE exchange.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"

	"github.com/nkravets/avsig/internal/caps"
	"github.com/nkravets/avsig/internal/config"
	"github.com/nkravets/avsig/internal/message"
	"github.com/nkravets/avsig/internal/metrics"
	"github.com/nkravets/avsig/internal/protocol"
	"github.com/nkravets/avsig/internal/session"
	"github.com/nkravets/avsig/internal/signaling"
	"github.com/nkravets/avsig/internal/transport"
	"github.com/nkravets/avsig/internal/util"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	role := flag.String("role", "", "Role: host (acceptor) or client (initiator); empty runs both in-process")
	addr := flag.String("addr", ":0", "Bootstrap listen address (host only)")
	wsURL := flag.String("url", "", "Bootstrap WebSocket URL to connect to (client only)")
	configPath := flag.String("config", "", "Path to YAML config file")
	metricsAddr := flag.String("metrics", "", "Prometheus listen address (e.g. :9100)")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			util.LogError("%v", err)
			os.Exit(1)
		}
	}
	if *metricsAddr != "" {
		cfg.MetricsListen = *metricsAddr
	}
	if *debugMode || cfg.Debug {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Avsig — v%s", version))
	pterm.Println()

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)

	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		go func() {
			util.LogInfo("serving metrics on http://%s/metrics", cfg.MetricsListen)
			if err := http.ListenAndServe(cfg.MetricsListen, mux); err != nil {
				util.LogError("metrics server: %v", err)
			}
		}()
	}

	sessCfg := session.Config{
		PeerMTU:           cfg.PeerMTU,
		ResponseTimeout:   cfg.ResponseTimeout,
		RetransmitTimeout: cfg.RetransmitTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	switch *role {
	case "":
		if err := runLoopback(sessCfg, met); err != nil {
			util.LogError("handshake failed: %v", err)
			os.Exit(1)
		}
		util.LogSuccess("signaling handshake completed")
		if cfg.MetricsListen != "" {
			<-ctx.Done()
		}

	case "host":
		runHost(ctx, sessCfg, met, *addr)

	case "client":
		if *wsURL == "" {
			util.LogError("missing -url for client role")
			os.Exit(1)
		}
		runClient(ctx, sessCfg, met, *wsURL)

	default:
		util.LogError("invalid -role: must be 'host' or 'client'")
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

// runLoopback wires an initiator and an acceptor over an in-process pipe and
// drives the scripted stream lifecycle. The pipe delivers synchronously, so
// the whole exchange completes inside the first SendCommand call.
func runLoopback(sessCfg session.Config, met *metrics.Metrics) error {
	a, b := transport.NewPipe()

	acc := newAcceptor()
	acc.sess = session.New(sessCfg, b, acc)
	acc.sess.SetMetrics(met)
	acc.sess.RegisterEndpoint(acceptorSEID, acc)
	b.SetHandler(sessionHandler{acc.sess})
	defer acc.sess.Close()

	ini := newInitiator()
	ini.sess = session.New(sessCfg, a, ini)
	ini.sess.SetMetrics(met)
	a.SetHandler(sessionHandler{ini.sess})
	defer ini.sess.Close()

	ini.discover()

	select {
	case <-ini.done:
		return nil
	default:
		return fmt.Errorf("stream lifecycle did not complete")
	}
}

// runHost accepts one peer and serves the acceptor session until the
// transport or the context goes down.
func runHost(ctx context.Context, sessCfg session.Config, met *metrics.Metrics, addr string) {
	tr, err := signaling.EstablishAsHost(ctx, addr)
	if err != nil {
		util.LogError("failed to establish transport: %v", err)
		os.Exit(1)
	}
	defer tr.Close()

	acc := newAcceptor()
	acc.sess = session.New(sessCfg, tr, acc)
	acc.sess.SetMetrics(met)
	acc.sess.RegisterEndpoint(acceptorSEID, acc)
	tr.SetHandler(sessionHandler{acc.sess})
	defer acc.sess.Close()

	util.StartStatsReporter(ctx)
	util.LogSuccess("transport established, serving stream endpoint %d", acceptorSEID)

	select {
	case <-tr.Done():
	case <-ctx.Done():
	}
}

// runClient connects to the host and drives the stream lifecycle as the
// initiator.
func runClient(ctx context.Context, sessCfg session.Config, met *metrics.Metrics, wsURL string) {
	tr, err := signaling.EstablishAsClient(ctx, wsURL)
	if err != nil {
		util.LogError("failed to establish transport: %v", err)
		os.Exit(1)
	}
	defer tr.Close()

	ini := newInitiator()
	ini.sess = session.New(sessCfg, tr, ini)
	ini.sess.SetMetrics(met)
	tr.SetHandler(sessionHandler{ini.sess})
	defer ini.sess.Close()

	util.StartStatsReporter(ctx)
	util.LogSuccess("transport established, starting handshake")
	ini.discover()

	select {
	case <-ini.done:
		util.LogSuccess("signaling handshake completed")
	case <-tr.Done():
		util.LogError("transport closed before the handshake completed")
		os.Exit(1)
	case <-ctx.Done():
	}
}

// sessionHandler adapts a session to the transport's notification interface.
type sessionHandler struct {
	sess *session.Session
}

func (h sessionHandler) OnPacket(pkt []byte) { h.sess.OnPacket(pkt) }
func (h sessionHandler) OnSendReady()        { h.sess.OnSendReady() }

// ---------------------------------------------------------------------------
// Acceptor
// ---------------------------------------------------------------------------

const (
	acceptorSEID  = 1
	initiatorSEID = 2
)

// acceptor plays the sink side: it owns one stream endpoint and answers every
// inbound command.
type acceptor struct {
	sess *session.Session
	caps caps.ServiceCapabilities
	cfg  caps.ServiceCapabilities
}

func newAcceptor() *acceptor {
	a := &acceptor{}
	a.caps.PscMask = protocol.PscMediaTransport | protocol.PscDelayReport
	a.caps.SetCodec([]byte{0x00, 0x00, 0x21, 0x15, 0x02, 0x33})
	return a
}

func (a *acceptor) OnEvent(evt session.EventID, m *message.Message) {
	var rsp message.Message
	rsp.Hdr.Label = m.Hdr.Label

	switch evt {
	case session.EvtDiscoverCmd:
		rsp.Discover.Entries = []message.EndpointInfo{{
			SEID:      acceptorSEID,
			MediaType: message.MediaTypeAudio,
			Role:      message.RoleSink,
		}}
		a.sess.SendResponse(protocol.SigDiscover, &rsp)

	case session.EvtGetCapCmd:
		// covers both the basic and the full capability query; the builder
		// filters the category set per signal
		rsp.SvcCaps.Caps = &a.caps
		a.sess.SendResponse(m.Hdr.SigID, &rsp)

	case session.EvtSetConfigCmd:
		a.cfg = *m.Config.Caps
		util.LogInfo("acceptor: configured by seid %d, codec % x",
			m.Config.IntSEID, a.cfg.Codec())
		a.sess.SendResponse(protocol.SigSetConfig, &rsp)

	case session.EvtGetConfigCmd:
		rsp.SvcCaps.Caps = &a.cfg
		a.sess.SendResponse(protocol.SigGetConfig, &rsp)

	case session.EvtOpenCmd, session.EvtCloseCmd:
		a.sess.SendResponse(m.Hdr.SigID, &rsp)

	case session.EvtStartCmd:
		a.sess.SendResponse(protocol.SigStart, &rsp)
		// stream is live, report the initial sink latency
		var dr message.Message
		dr.Delay.SEID = initiatorSEID
		dr.Delay.Delay = 1500 // tenths of a millisecond
		a.sess.SendCommand(protocol.SigDelayReport, &dr)

	case session.EvtSuspendCmd:
		a.sess.SendResponse(protocol.SigSuspend, &rsp)
	}
}

// ---------------------------------------------------------------------------
// Initiator
// ---------------------------------------------------------------------------

// initiator plays the source side, advancing the stream lifecycle one command
// per response. done is closed when the close response arrives.
type initiator struct {
	sess     *session.Session
	peerCaps caps.ServiceCapabilities
	remote   uint8
	done     chan struct{}
}

func newInitiator() *initiator {
	return &initiator{done: make(chan struct{})}
}

// discover kicks off the lifecycle.
func (i *initiator) discover() {
	var m message.Message
	m.Discover.Entries = make([]message.EndpointInfo, protocol.MaxEndpoints)
	i.sess.SendCommand(protocol.SigDiscover, &m)
}

func (i *initiator) OnEvent(evt session.EventID, m *message.Message) {
	switch evt {
	case session.EvtDiscoverRsp:
		if len(m.Discover.Entries) == 0 {
			util.LogWarning("initiator: peer has no stream endpoints")
			return
		}
		e := m.Discover.Entries[0]
		i.remote = e.SEID
		util.LogInfo("initiator: found endpoint seid=%d media=%d role=%d",
			e.SEID, e.MediaType, e.Role)

		// responses to endpoint commands route back under the peer's id
		i.sess.RegisterEndpoint(i.remote, i)
		i.sess.RegisterEndpoint(initiatorSEID, i)

		var cmd message.Message
		cmd.Single.SEID = i.remote
		cmd.SvcCaps.Caps = &i.peerCaps
		i.sess.SendCommand(protocol.SigGetAllCap, &cmd)

	case session.EvtGetCapRsp:
		util.LogInfo("initiator: peer caps mask=%#04x codec=% x",
			i.peerCaps.PscMask, i.peerCaps.Codec())

		var cmd message.Message
		cmd.Config.SEID = i.remote
		cmd.Config.IntSEID = initiatorSEID
		var cfg caps.ServiceCapabilities
		cfg.PscMask = protocol.PscMediaTransport | protocol.PscDelayReport
		cfg.SetCodec(i.peerCaps.Codec())
		cmd.Config.Caps = &cfg
		i.sess.SendCommand(protocol.SigSetConfig, &cmd)

	case session.EvtSetConfigRsp:
		var cmd message.Message
		cmd.Single.SEID = i.remote
		i.sess.SendCommand(protocol.SigGetConfig, &cmd)

	case session.EvtGetConfigRsp:
		util.LogInfo("initiator: active config mask=%#04x", m.SvcCaps.Caps.PscMask)
		var cmd message.Message
		cmd.Single.SEID = i.remote
		i.sess.SendCommand(protocol.SigOpen, &cmd)

	case session.EvtOpenRsp:
		var cmd message.Message
		cmd.Multi.SEIDs = []uint8{i.remote}
		i.sess.SendCommand(protocol.SigStart, &cmd)

	case session.EvtStartRsp:
		util.LogInfo("initiator: streaming")
		var cmd message.Message
		cmd.Multi.SEIDs = []uint8{i.remote}
		i.sess.SendCommand(protocol.SigSuspend, &cmd)

	case session.EvtDelayReportCmd:
		util.LogInfo("initiator: sink reports %d.%d ms of delay",
			m.Delay.Delay/10, m.Delay.Delay%10)
		var rsp message.Message
		rsp.Hdr.Label = m.Hdr.Label
		i.sess.SendResponse(protocol.SigDelayReport, &rsp)

	case session.EvtSuspendRsp:
		var cmd message.Message
		cmd.Single.SEID = i.remote
		i.sess.SendCommand(protocol.SigClose, &cmd)

	case session.EvtCloseRsp:
		close(i.done)

	case session.EvtSetConfigRej, session.EvtOpenRej:
		util.LogWarning("initiator: peer rejected %s: %s (param %d)",
			m.Hdr.SigID, m.Hdr.ErrCode, m.Hdr.ErrParam)
	}
}
