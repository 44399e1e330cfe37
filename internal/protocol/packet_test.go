package protocol

import "testing"

// TestHeaderRoundTrip verifies that building and parsing the header byte are
// inverse operations across the full label, packet-type and message-type
// ranges.
func TestHeaderRoundTrip(t *testing.T) {
	for label := uint8(0); label < 16; label++ {
		for pkt := PktTypeSingle; pkt <= PktTypeEnd; pkt++ {
			for msg := MsgTypeCommand; msg <= MsgTypeReject; msg++ {
				b := BuildHeader(label, pkt, msg)
				gotLabel, gotPkt, gotMsg := ParseHeader(b)
				if gotLabel != label || gotPkt != pkt || gotMsg != msg {
					t.Fatalf("header %#02x: got (%d,%d,%d), want (%d,%d,%d)",
						b, gotLabel, gotPkt, gotMsg, label, pkt, msg)
				}
			}
		}
	}
}

// TestParseSigMasksReservedBits verifies that the two high bits of the signal
// byte are ignored.
func TestParseSigMasksReservedBits(t *testing.T) {
	if got := ParseSig(0xC0 | byte(SigOpen)); got != SigOpen {
		t.Fatalf("ParseSig: got %d, want %d", got, SigOpen)
	}
	if got := ParseSig(0x3F); got != SignalID(0x3F) {
		t.Fatalf("ParseSig: got %d, want %d", got, 0x3F)
	}
}

// TestPktTypeMinLen verifies the per-type minimum packet lengths.
func TestPktTypeMinLen(t *testing.T) {
	testCases := []struct {
		pkt  PacketType
		want int
	}{
		{PktTypeSingle, 2},
		{PktTypeStart, 3},
		{PktTypeContinue, 1},
		{PktTypeEnd, 1},
	}
	for _, tc := range testCases {
		if got := PktTypeMinLen(tc.pkt); got != tc.want {
			t.Errorf("PktTypeMinLen(%d): got %d, want %d", tc.pkt, got, tc.want)
		}
	}
}

// TestSignalNames verifies the string form of valid and invalid signal ids.
func TestSignalNames(t *testing.T) {
	if got := SigDelayReport.String(); got != "delay-report" {
		t.Errorf("SigDelayReport.String(): got %q", got)
	}
	if got := SignalID(0).String(); got != "unknown" {
		t.Errorf("SignalID(0).String(): got %q", got)
	}
	if got := SignalID(SigMax + 1).String(); got != "unknown" {
		t.Errorf("SignalID(SigMax+1).String(): got %q", got)
	}
}

// TestCatLenBounds spot-checks the category length table.
func TestCatLenBounds(t *testing.T) {
	testCases := []struct {
		cat      Category
		min, max uint8
	}{
		{CatMediaTransport, 0, 0},
		{CatRecovery, 3, 3},
		{CatProtection, 2, 10},
		{CatHeaderComp, 1, 1},
		{CatMultiplexing, 3, 7},
		{CatCodec, 2, 32},
		{CatDelayReport, 0, 0},
	}
	for _, tc := range testCases {
		min, max := CatLenBounds(tc.cat)
		if min != tc.min || max != tc.max {
			t.Errorf("CatLenBounds(%d): got (%d,%d), want (%d,%d)",
				tc.cat, min, max, tc.min, tc.max)
		}
	}
}
