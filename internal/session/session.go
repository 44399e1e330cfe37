// Package session implements the per-peer signaling session: the outbound
// segmentation engine, the inbound reassembly engine, and the inbound
// dispatcher that correlates responses to outstanding commands and routes
// decoded events to session or stream-endpoint logic.
//
// All operations on a Session execute synchronously inside the handler
// invoked by the transport's packet-arrival or send-opportunity
// notifications; none of them block. Packets are assumed to arrive in
// transport delivery order.
package session

import (
	"time"

	"github.com/nkravets/avsig/internal/caps"
	"github.com/nkravets/avsig/internal/message"
	"github.com/nkravets/avsig/internal/metrics"
	"github.com/nkravets/avsig/internal/protocol"
)

// Transport is the packet channel a session sends on. Send transmits one
// packet and returns the channel's congestion state: true means further
// sends should be deferred until the transport signals a send opportunity.
type Transport interface {
	Send(pkt []byte) (congested bool)
}

// EventHandler consumes decoded inbound messages. The message and anything
// it aliases are only valid for the duration of the call.
type EventHandler interface {
	OnEvent(evt EventID, m *message.Message)
}

// Endpoint is a registered local stream endpoint. Commands addressed to its
// SEID are routed to its handler.
type Endpoint struct {
	SEID    uint8
	Handler EventHandler
}

// Config holds the per-session protocol parameters.
type Config struct {
	// PeerMTU is the negotiated maximum transport payload; messages larger
	// than PeerMTU less the packet header are fragmented.
	PeerMTU int

	// ResponseTimeout is the response-wait deadline for commands that are
	// never retransmitted. RetransmitTimeout is the deadline for all other
	// commands; zero disables retransmission entirely, putting every
	// command on the response-wait timer.
	ResponseTimeout   time.Duration
	RetransmitTimeout time.Duration
	IdleTimeout       time.Duration

	// Timer expiry callbacks. Optional; retransmission and teardown policy
	// live with the session owner.
	OnResponseTimeout   func()
	OnRetransmitTimeout func()
	OnIdleTimeout       func()
}

// outMessage is one queued outbound message with its send cursor.
type outMessage struct {
	sig     protocol.SignalID
	msgType protocol.MessageType
	label   uint8
	data    []byte // built payload, packet headers added at send time
	offset  int    // bytes of data already sent
	started bool   // a START packet has been emitted

	// routing and destination context for the eventual response
	seid        uint8
	discoverDst []message.EndpointInfo
	capsDst     *caps.ServiceCapabilities
}

// Session is the signaling state for one peer connection.
type Session struct {
	cfg     Config
	tr      Transport
	handler EventHandler
	met     *metrics.Metrics

	endpoints map[uint8]*Endpoint

	cmdQ []*outMessage // outgoing commands
	rspQ []*outMessage // outgoing responses and rejects

	cur         *outMessage // message currently being segmented
	outstanding *outMessage // sent command awaiting response/reject

	rxBuf []byte // reassembly buffer, nil when idle

	label      uint8 // 4-bit rolling correlation label
	congested  bool
	retryCount int

	idleAlarm *alarm
	retAlarm  *alarm
	rspAlarm  *alarm
}

// New creates a session bound to a transport. handler receives the
// session-routed events.
func New(cfg Config, tr Transport, handler EventHandler) *Session {
	s := &Session{
		cfg:       cfg,
		tr:        tr,
		handler:   handler,
		endpoints: make(map[uint8]*Endpoint),
	}
	s.idleAlarm = newAlarm(cfg.OnIdleTimeout)
	s.retAlarm = newAlarm(cfg.OnRetransmitTimeout)
	s.rspAlarm = newAlarm(cfg.OnResponseTimeout)
	return s
}

// SetMetrics attaches a metrics set. Optional.
func (s *Session) SetMetrics(m *metrics.Metrics) {
	s.met = m
}

// RegisterEndpoint adds a local stream endpoint. Inbound commands carrying
// its SEID are validated against it and routed to h.
func (s *Session) RegisterEndpoint(seid uint8, h EventHandler) *Endpoint {
	ep := &Endpoint{SEID: seid, Handler: h}
	s.endpoints[seid] = ep
	return ep
}

// UnregisterEndpoint removes a local stream endpoint.
func (s *Session) UnregisterEndpoint(seid uint8) {
	delete(s.endpoints, seid)
}

// HasEndpoint reports whether seid names a registered local endpoint. It
// implements message.EndpointResolver.
func (s *Session) HasEndpoint(seid uint8) bool {
	return s.endpoints[seid] != nil
}

// SendCommand builds and queues a command message. The label is assigned
// from the session's rolling counter. For Discover, m.Discover.Entries
// supplies the destination buffer the response will be parsed into; for
// GetCapabilities and GetAllCapabilities, m.SvcCaps.Caps does. Returns the
// session's congestion state.
func (s *Session) SendCommand(sig protocol.SignalID, m *message.Message) bool {
	om := &outMessage{
		sig:     sig,
		msgType: protocol.MsgTypeCommand,
		label:   s.label,
		data:    message.BuildCommand(sig, m),
	}
	s.label = (s.label + 1) % 16

	switch sig {
	case protocol.SigSetConfig, protocol.SigReconfig:
		om.seid = m.Config.SEID
	case protocol.SigSecurity:
		om.seid = m.Security.SEID
	case protocol.SigDelayReport:
		om.seid = m.Delay.SEID
	case protocol.SigDiscover:
		om.discoverDst = m.Discover.Entries
	case protocol.SigGetCap, protocol.SigGetAllCap:
		om.seid = m.Single.SEID
		om.capsDst = m.SvcCaps.Caps
	default:
		om.seid = m.Single.SEID
	}

	s.cmdQ = append(s.cmdQ, om)
	return s.Flush()
}

// SendResponse builds and queues a response message echoing m.Hdr.Label.
func (s *Session) SendResponse(sig protocol.SignalID, m *message.Message) bool {
	s.rspQ = append(s.rspQ, &outMessage{
		sig:     sig,
		msgType: protocol.MsgTypeResponse,
		label:   m.Hdr.Label,
		data:    message.BuildResponse(sig, m),
	})
	return s.Flush()
}

// SendReject builds and queues a reject for sig carrying m.Hdr.ErrCode and,
// where the shape requires it, m.Hdr.ErrParam.
func (s *Session) SendReject(sig protocol.SignalID, m *message.Message) bool {
	if s.met != nil {
		s.met.RejectsSent.Inc()
	}
	s.rspQ = append(s.rspQ, &outMessage{
		sig:     sig,
		msgType: protocol.MsgTypeReject,
		label:   m.Hdr.Label,
		data:    message.BuildReject(sig, m),
	})
	return s.Flush()
}

// SendGeneralReject queues a general reject echoing the offending signal id
// and label.
func (s *Session) SendGeneralReject(sig protocol.SignalID, label uint8) bool {
	if s.met != nil {
		s.met.RejectsSent.Inc()
	}
	s.rspQ = append(s.rspQ, &outMessage{
		sig:     sig,
		msgType: protocol.MsgTypeGeneralReject,
		label:   label,
	})
	return s.Flush()
}

// OnSendReady is the transport's send-opportunity notification: congestion
// has cleared and segmentation may resume.
func (s *Session) OnSendReady() {
	s.congested = false
	s.Flush()
}

// RetryCount returns the retransmission counter for the outstanding command.
func (s *Session) RetryCount() int {
	return s.retryCount
}

// IncRetry bumps the retransmission counter; called by the owner's
// retransmit-timeout policy.
func (s *Session) IncRetry() int {
	s.retryCount++
	return s.retryCount
}

// Close tears the session down, releasing the partially-sent message, the
// reassembly buffer, the outstanding command, and all queued messages, and
// disarming every timer.
func (s *Session) Close() {
	s.idleAlarm.cancel()
	s.retAlarm.cancel()
	s.rspAlarm.cancel()
	s.cur = nil
	s.outstanding = nil
	s.rxBuf = nil
	s.cmdQ = nil
	s.rspQ = nil
}
