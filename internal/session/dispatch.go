package session

import (
	"github.com/nkravets/avsig/internal/caps"
	"github.com/nkravets/avsig/internal/message"
	"github.com/nkravets/avsig/internal/protocol"
	"github.com/nkravets/avsig/internal/util"
)

// OnPacket is the transport's packet-arrival notification. It owns the
// receive path end to end: reassembly, header parse, general-reject and
// correlation discrimination, payload parse, event mapping, and routing to
// the session handler or the owning endpoint.
func (s *Session) OnPacket(pkt []byte) {
	if s.met != nil {
		s.met.PacketsReceived.Inc()
	}

	buf := s.reassemble(pkt)
	if buf == nil {
		return
	}

	label, _, msgType := protocol.ParseHeader(buf[0])

	var m message.Message
	m.Hdr.Label = label

	// an inbound general-reject marker is itself invalid; drop it
	if msgType == protocol.MsgTypeGeneralReject {
		util.LogWarning("dropping message with general-reject type marker")
		return
	}

	var sig protocol.SignalID
	var evt EventID
	genRej := false

	if msgType == protocol.MsgTypeReject && len(buf) == protocol.GeneralRejectLen {
		// a reject of general-reject length means the peer does not
		// support the outstanding command at all
		genRej = true
		if s.outstanding == nil {
			util.LogWarning("dropping general reject with no outstanding command")
			return
		}
		sig = s.outstanding.sig
		m.Hdr.SigID = sig
		m.Hdr.ErrCode = protocol.ErrNotSupportedCommand
		evt = rejEvents[sig-1]
	} else {
		sig = protocol.ParseSig(buf[1])
		m.Hdr.SigID = sig

		if sig == 0 || sig > protocol.SigMax {
			util.LogWarning("dropping message with unknown signal %d", sig)
			if msgType == protocol.MsgTypeCommand {
				s.SendGeneralReject(sig, label)
			}
			return
		}

		// responses and rejects must answer the outstanding command
		if (msgType == protocol.MsgTypeResponse || msgType == protocol.MsgTypeReject) &&
			(s.outstanding == nil || s.outstanding.sig != sig) {
			if s.met != nil {
				s.met.CorrelationDrops.Inc()
			}
			util.LogWarning("dropping %s with mismatched signal %s", typeName(msgType), sig)
			return
		}
	}

	if !genRej {
		payload := buf[protocol.HdrLenSingle:]

		// select the destination structure: discover and capability
		// responses parse into buffers supplied with the original
		// request, the rest into scratch
		var scratch caps.ServiceCapabilities
		switch {
		case msgType == protocol.MsgTypeResponse && sig == protocol.SigDiscover:
			m.Discover.Entries = s.outstanding.discoverDst
		case msgType == protocol.MsgTypeResponse &&
			(sig == protocol.SigGetCap || sig == protocol.SigGetAllCap):
			m.SvcCaps.Caps = s.outstanding.capsDst
			if m.SvcCaps.Caps == nil {
				m.SvcCaps.Caps = &scratch
			}
		case msgType == protocol.MsgTypeResponse && sig == protocol.SigGetConfig:
			m.SvcCaps.Caps = &scratch
		case msgType == protocol.MsgTypeCommand &&
			(sig == protocol.SigSetConfig || sig == protocol.SigReconfig):
			m.Config.Caps = &scratch
		}

		var code protocol.ErrorCode
		switch msgType {
		case protocol.MsgTypeCommand:
			code = message.ParseCommand(sig, &m, payload, s)
			m.Hdr.ErrCode = code
			evt = cmdEvents[sig-1]
		case protocol.MsgTypeResponse:
			code = message.ParseResponse(sig, &m, payload, s)
			m.Hdr.ErrCode = code
			evt = rspEvents[sig-1]
		default:
			code = message.ParseReject(&m, payload, sig)
			evt = rejEvents[sig-1]
		}

		if code != protocol.ErrNone {
			if s.met != nil {
				s.met.ParseErrors.Inc()
			}
			util.LogWarning("parse failed sig=%s err=%s", sig, code)
			// failed commands are answered with a reject (never for
			// abort); failed responses/rejects are dropped silently
			if msgType == protocol.MsgTypeCommand && sig != protocol.SigAbort {
				s.SendReject(sig, &m)
			}
			return
		}
	}

	// correlate: a response/reject resolves the outstanding command only if
	// both signal and label match
	resolved := false
	if msgType == protocol.MsgTypeResponse || msgType == protocol.MsgTypeReject {
		if s.outstanding != nil && s.outstanding.sig == sig && s.outstanding.label == label {
			s.idleAlarm.cancel()
			s.retAlarm.cancel()
			s.rspAlarm.cancel()
			s.retryCount = 0
			resolved = true
		} else {
			if s.met != nil {
				s.met.CorrelationDrops.Inc()
			}
			util.LogWarning("no matching command for %s label=%d", sig, label)
			return
		}
	}

	if evt != 0 {
		if evt.IsSessionEvent() {
			s.handler.OnEvent(evt, &m)
		} else {
			// commands carry the endpoint id; responses and rejects
			// recover it from the stored outstanding command
			seid := s.routeSEID(msgType, sig, &m)
			if ep := s.endpoints[seid]; ep != nil {
				ep.Handler.OnEvent(evt, &m)
			}
		}
	}

	if resolved {
		s.outstanding = nil
		s.Flush()
	}
}

// routeSEID returns the endpoint id an event is routed to.
func (s *Session) routeSEID(msgType protocol.MessageType, sig protocol.SignalID, m *message.Message) uint8 {
	if msgType != protocol.MsgTypeCommand {
		return s.outstanding.seid
	}
	switch sig {
	case protocol.SigSetConfig, protocol.SigReconfig:
		return m.Config.SEID
	case protocol.SigSecurity:
		return m.Security.SEID
	case protocol.SigDelayReport:
		return m.Delay.SEID
	default:
		return m.Single.SEID
	}
}

func typeName(t protocol.MessageType) string {
	switch t {
	case protocol.MsgTypeCommand:
		return "command"
	case protocol.MsgTypeResponse:
		return "response"
	case protocol.MsgTypeReject:
		return "reject"
	default:
		return "general-reject"
	}
}
