package session

import (
	"github.com/nkravets/avsig/internal/protocol"
	"github.com/nkravets/avsig/internal/util"
)

// reassemble consumes one transport packet and returns a complete message
// buffer, or nil if the packet was a fragment, out of order, or malformed.
// The returned buffer starts with the header byte followed by the signal
// byte; START/CONTINUE framing has been stripped.
func (s *Session) reassemble(pkt []byte) []byte {
	if len(pkt) < 1 {
		return nil
	}
	_, pktType, _ := protocol.ParseHeader(pkt[0])

	if len(pkt) < protocol.PktTypeMinLen(pktType) {
		util.LogWarning("dropping short packet: %d bytes for type %d", len(pkt), pktType)
		return nil
	}

	switch pktType {
	case protocol.PktTypeSingle:
		if s.rxBuf != nil {
			util.LogWarning("got SINGLE during reassembly, abandoning partial message")
			s.abandonReassembly()
		}
		return pkt

	case protocol.PktTypeStart:
		if s.rxBuf != nil {
			util.LogWarning("got START during reassembly, abandoning partial message")
			s.abandonReassembly()
		}
		// the stored form drops the packet-count byte; reject before
		// allocating if even this first fragment exceeds capacity
		if len(pkt)-1 > protocol.MaxMessageLen {
			util.LogWarning("START packet of %d bytes exceeds reassembly capacity", len(pkt))
			return nil
		}
		buf := make([]byte, 0, protocol.MaxMessageLen)
		buf = append(buf, pkt[0], pkt[2]) // header byte, signal byte
		buf = append(buf, pkt[protocol.HdrLenStart:]...)
		s.rxBuf = buf
		return nil

	default: // CONTINUE or END
		if s.rxBuf == nil {
			util.LogWarning("packet type %d out of order, no reassembly in progress", pktType)
			return nil
		}
		payload := pkt[protocol.HdrLenContinue:]
		if len(s.rxBuf)+len(payload) > protocol.MaxMessageLen {
			util.LogWarning("fragmented message exceeds %d bytes, abandoning", protocol.MaxMessageLen)
			s.abandonReassembly()
			return nil
		}
		s.rxBuf = append(s.rxBuf, payload...)

		if pktType == protocol.PktTypeContinue {
			return nil
		}
		out := s.rxBuf
		s.rxBuf = nil
		if s.met != nil {
			s.met.MessagesReassembled.Inc()
		}
		return out
	}
}

// abandonReassembly discards the in-progress reassembly buffer.
func (s *Session) abandonReassembly() {
	s.rxBuf = nil
	if s.met != nil {
		s.met.ReassemblyAbandoned.Inc()
	}
}
