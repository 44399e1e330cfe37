package session

import (
	"github.com/nkravets/avsig/internal/protocol"
	"github.com/nkravets/avsig/internal/util"
)

// Flush runs the outbound segmentation engine: it emits packets for the
// pending message (and any further queued messages) until everything is sent
// or the transport reports congestion. Congestion suspends the loop
// mid-message without losing position; OnSendReady resumes it. Returns the
// session's congestion state.
func (s *Session) Flush() bool {
	for !s.congested {
		if s.cur == nil {
			s.cur = s.nextQueued()
			if s.cur == nil {
				break
			}
		}

		m := s.cur
		mtu := s.cfg.PeerMTU
		remaining := len(m.data) - m.offset

		var pkt []byte
		done := false

		switch {
		// unfragmented and fits: send whole as SINGLE
		case !m.started && remaining <= mtu-protocol.HdrLenSingle:
			pkt = make([]byte, 0, protocol.HdrLenSingle+remaining)
			pkt = append(pkt,
				protocol.BuildHeader(m.label, protocol.PktTypeSingle, m.msgType),
				byte(m.sig))
			pkt = append(pkt, m.data...)
			done = true

		// unfragmented and oversized: first chunk as START
		case !m.started:
			first := mtu - protocol.HdrLenStart
			contMax := mtu - protocol.HdrLenContinue
			nosp := (remaining - first + contMax - 1) / contMax // packets after this one
			pkt = make([]byte, 0, mtu)
			pkt = append(pkt,
				protocol.BuildHeader(m.label, protocol.PktTypeStart, m.msgType),
				byte(nosp),
				byte(m.sig))
			pkt = append(pkt, m.data[:first]...)
			m.started = true
			m.offset = first

		// fragmentation in progress, remainder still too big: CONTINUE
		case remaining > mtu-protocol.HdrLenContinue:
			n := mtu - protocol.HdrLenContinue
			pkt = make([]byte, 0, mtu)
			pkt = append(pkt,
				protocol.BuildHeader(m.label, protocol.PktTypeContinue, m.msgType))
			pkt = append(pkt, m.data[m.offset:m.offset+n]...)
			m.offset += n

		// remainder fits: final chunk as END
		default:
			pkt = make([]byte, 0, protocol.HdrLenEnd+remaining)
			pkt = append(pkt,
				protocol.BuildHeader(m.label, protocol.PktTypeEnd, m.msgType))
			pkt = append(pkt, m.data[m.offset:]...)
			m.offset = len(m.data)
			done = true
		}

		// record the outstanding command and arm its timer before the final
		// packet goes out: with a synchronous transport the response can
		// arrive from inside Send
		if done {
			s.cur = nil
			s.finishSend(m)
		}

		congested := s.tr.Send(pkt)
		if s.met != nil {
			s.met.PacketsSent.Inc()
		}
		if congested {
			s.congested = true
		}
	}
	return s.congested
}

// nextQueued dequeues the next message to send. Responses and rejects drain
// ahead of commands; a new command is not taken up while another command is
// still awaiting its response.
func (s *Session) nextQueued() *outMessage {
	if len(s.rspQ) > 0 {
		m := s.rspQ[0]
		s.rspQ = s.rspQ[1:]
		return m
	}
	if len(s.cmdQ) > 0 && s.outstanding == nil {
		m := s.cmdQ[0]
		s.cmdQ = s.cmdQ[1:]
		return m
	}
	return nil
}

// finishSend records a fully sent message and, for commands, arms the timer
// required by the signal's retransmission policy. At most one of the three
// session timers is armed for the outstanding command.
func (s *Session) finishSend(m *outMessage) {
	if m.msgType != protocol.MsgTypeCommand {
		return
	}
	s.outstanding = m
	util.LogDebug("sending command sig=%s label=%d (%d bytes)", m.sig, m.label, len(m.data))

	switch {
	case m.sig == protocol.SigDiscover || m.sig == protocol.SigGetCap ||
		m.sig == protocol.SigSecurity || s.cfg.RetransmitTimeout == 0:
		// signals that never retransmit wait on the response timer
		s.idleAlarm.cancel()
		s.retAlarm.cancel()
		s.rspAlarm.set(s.cfg.ResponseTimeout)

	case m.sig != protocol.SigDelayReport:
		s.idleAlarm.cancel()
		s.rspAlarm.cancel()
		s.retAlarm.set(s.cfg.RetransmitTimeout)

		// delay report: no retransmission timer at all
	}
}
