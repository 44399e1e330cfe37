package session

import (
	"bytes"
	"testing"

	"github.com/nkravets/avsig/internal/protocol"
)

func hdr(label uint8, pkt protocol.PacketType, msg protocol.MessageType) byte {
	return protocol.BuildHeader(label, pkt, msg)
}

// TestReassembleSingle verifies that a SINGLE packet passes through
// unchanged.
func TestReassembleSingle(t *testing.T) {
	s := newTestSession(200, &fakeTransport{}, &recHandler{})
	defer s.Close()

	pkt := []byte{hdr(2, protocol.PktTypeSingle, protocol.MsgTypeCommand), byte(protocol.SigOpen), 1 << 2}
	got := s.reassemble(pkt)
	if !bytes.Equal(got, pkt) {
		t.Errorf("got % x, want % x", got, pkt)
	}
}

// TestReassembleFragments verifies that START/CONTINUE/END framing is
// stripped: the result is the START header byte, the signal byte, and the
// concatenated fragment payloads.
func TestReassembleFragments(t *testing.T) {
	s := newTestSession(200, &fakeTransport{}, &recHandler{})
	defer s.Close()

	h := hdr(4, protocol.PktTypeStart, protocol.MsgTypeResponse)
	start := []byte{h, 2, byte(protocol.SigGetCap), 0xA0, 0xA1}
	cont := []byte{hdr(4, protocol.PktTypeContinue, protocol.MsgTypeResponse), 0xB0}
	end := []byte{hdr(4, protocol.PktTypeEnd, protocol.MsgTypeResponse), 0xC0, 0xC1}

	if got := s.reassemble(start); got != nil {
		t.Fatalf("START returned %x, want nil", got)
	}
	if got := s.reassemble(cont); got != nil {
		t.Fatalf("CONTINUE returned %x, want nil", got)
	}
	got := s.reassemble(end)
	want := []byte{h, byte(protocol.SigGetCap), 0xA0, 0xA1, 0xB0, 0xC0, 0xC1}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

// TestReassembleAbandonsOnNewMessage verifies that a SINGLE or START arriving
// mid-reassembly discards the partial message.
func TestReassembleAbandonsOnNewMessage(t *testing.T) {
	s := newTestSession(200, &fakeTransport{}, &recHandler{})
	defer s.Close()

	start := []byte{hdr(0, protocol.PktTypeStart, protocol.MsgTypeCommand), 1, byte(protocol.SigSecurity), 0x01}
	s.reassemble(start)

	single := []byte{hdr(1, protocol.PktTypeSingle, protocol.MsgTypeCommand), byte(protocol.SigOpen), 1 << 2}
	if got := s.reassemble(single); !bytes.Equal(got, single) {
		t.Fatalf("SINGLE during reassembly: got % x", got)
	}
	if s.rxBuf != nil {
		t.Error("partial message not discarded")
	}

	// the abandoned fragments must not leak into a later message
	s.reassemble(start)
	end := []byte{hdr(0, protocol.PktTypeEnd, protocol.MsgTypeCommand), 0x02}
	got := s.reassemble(end)
	want := []byte{start[0], byte(protocol.SigSecurity), 0x01, 0x02}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

// TestReassembleDropsOrphans verifies that CONTINUE and END without a
// preceding START are discarded.
func TestReassembleDropsOrphans(t *testing.T) {
	s := newTestSession(200, &fakeTransport{}, &recHandler{})
	defer s.Close()

	cont := []byte{hdr(0, protocol.PktTypeContinue, protocol.MsgTypeCommand), 0xFF}
	if got := s.reassemble(cont); got != nil {
		t.Errorf("orphan CONTINUE returned %x", got)
	}
	end := []byte{hdr(0, protocol.PktTypeEnd, protocol.MsgTypeCommand), 0xFF}
	if got := s.reassemble(end); got != nil {
		t.Errorf("orphan END returned %x", got)
	}
}

// TestReassembleShortPackets verifies the per-type minimum length checks.
func TestReassembleShortPackets(t *testing.T) {
	s := newTestSession(200, &fakeTransport{}, &recHandler{})
	defer s.Close()

	if got := s.reassemble(nil); got != nil {
		t.Error("empty packet not dropped")
	}
	short := []byte{hdr(0, protocol.PktTypeSingle, protocol.MsgTypeCommand)}
	if got := s.reassemble(short); got != nil {
		t.Error("one-byte SINGLE not dropped")
	}
	shortStart := []byte{hdr(0, protocol.PktTypeStart, protocol.MsgTypeCommand), 2}
	if got := s.reassemble(shortStart); got != nil {
		t.Error("two-byte START not dropped")
	}
}

// TestReassembleEnforcesCapacity verifies the size cap on both the initial
// START and accumulated fragments.
func TestReassembleEnforcesCapacity(t *testing.T) {
	s := newTestSession(200, &fakeTransport{}, &recHandler{})
	defer s.Close()

	// START whose stored form alone exceeds the cap is rejected outright
	big := make([]byte, protocol.MaxMessageLen+2)
	big[0] = hdr(0, protocol.PktTypeStart, protocol.MsgTypeCommand)
	big[1] = 1
	big[2] = byte(protocol.SigSecurity)
	if got := s.reassemble(big); got != nil {
		t.Error("oversized START not rejected")
	}
	if s.rxBuf != nil {
		t.Error("oversized START left reassembly state")
	}

	// accumulation past the cap abandons the message
	start := []byte{hdr(0, protocol.PktTypeStart, protocol.MsgTypeCommand), 1, byte(protocol.SigSecurity), 0x01}
	s.reassemble(start)
	huge := make([]byte, protocol.MaxMessageLen+1)
	huge[0] = hdr(0, protocol.PktTypeContinue, protocol.MsgTypeCommand)
	if got := s.reassemble(huge); got != nil {
		t.Error("oversized CONTINUE returned a message")
	}
	if s.rxBuf != nil {
		t.Error("oversized accumulation not abandoned")
	}
}
