package message

import (
	"bytes"
	"testing"

	"github.com/nkravets/avsig/internal/caps"
	"github.com/nkravets/avsig/internal/protocol"
)

// resolverFunc adapts a function to the EndpointResolver interface.
type resolverFunc func(seid uint8) bool

func (f resolverFunc) HasEndpoint(seid uint8) bool { return f(seid) }

var allEndpoints = resolverFunc(func(uint8) bool { return true })

// TestSingleCommandRoundTrip verifies the single-SEID command shape across
// every signal that uses it.
func TestSingleCommandRoundTrip(t *testing.T) {
	sigs := []protocol.SignalID{
		protocol.SigGetCap, protocol.SigGetConfig, protocol.SigOpen,
		protocol.SigClose, protocol.SigAbort, protocol.SigGetAllCap,
	}
	for _, sig := range sigs {
		t.Run(sig.String(), func(t *testing.T) {
			var m Message
			m.Single.SEID = 5
			data := BuildCommand(sig, &m)
			if !bytes.Equal(data, []byte{5 << 2}) {
				t.Fatalf("wire form: got % x", data)
			}

			var got Message
			if code := ParseCommand(sig, &got, data, allEndpoints); code != protocol.ErrNone {
				t.Fatalf("parse failed: %s", code)
			}
			if got.Single.SEID != 5 {
				t.Errorf("SEID: got %d, want 5", got.Single.SEID)
			}
		})
	}
}

// TestSingleCommandErrors covers the length and endpoint checks of the
// single-SEID shape.
func TestSingleCommandErrors(t *testing.T) {
	var m Message
	if code := ParseCommand(protocol.SigOpen, &m, nil, allEndpoints); code != protocol.ErrLength {
		t.Errorf("empty payload: got %s, want %s", code, protocol.ErrLength)
	}
	if code := ParseCommand(protocol.SigOpen, &m, []byte{5 << 2, 0}, allEndpoints); code != protocol.ErrLength {
		t.Errorf("oversized payload: got %s, want %s", code, protocol.ErrLength)
	}
	none := resolverFunc(func(uint8) bool { return false })
	if code := ParseCommand(protocol.SigOpen, &m, []byte{5 << 2}, none); code != protocol.ErrSeid {
		t.Errorf("unknown endpoint: got %s, want %s", code, protocol.ErrSeid)
	}
}

// TestSetConfigRoundTrip verifies the SetConfiguration command shape,
// including both SEIDs and the capability list.
func TestSetConfigRoundTrip(t *testing.T) {
	var cfg caps.ServiceCapabilities
	cfg.PscMask = protocol.PscMediaTransport | protocol.PscDelayReport
	cfg.SetCodec([]byte{0x00, 0x00, 0x21, 0x15})

	var m Message
	m.Config.SEID = 3
	m.Config.IntSEID = 7
	m.Config.Caps = &cfg
	data := BuildCommand(protocol.SigSetConfig, &m)

	var got Message
	var gotCaps caps.ServiceCapabilities
	got.Config.Caps = &gotCaps
	if code := ParseCommand(protocol.SigSetConfig, &got, data, allEndpoints); code != protocol.ErrNone {
		t.Fatalf("parse failed: %s", code)
	}
	if got.Config.SEID != 3 || got.Config.IntSEID != 7 {
		t.Errorf("SEIDs: got (%d,%d), want (3,7)", got.Config.SEID, got.Config.IntSEID)
	}
	if !bytes.Equal(gotCaps.Codec(), cfg.Codec()) {
		t.Errorf("codec: got % x, want % x", gotCaps.Codec(), cfg.Codec())
	}
}

// TestSetConfigValidation covers the capability-set checks applied after a
// structurally valid decode.
func TestSetConfigValidation(t *testing.T) {
	t.Run("missing codec", func(t *testing.T) {
		var cfg caps.ServiceCapabilities
		cfg.PscMask = protocol.PscMediaTransport
		var m Message
		m.Config.SEID = 3
		m.Config.IntSEID = 7
		m.Config.Caps = &cfg
		data := BuildCommand(protocol.SigSetConfig, &m)

		var got Message
		var gotCaps caps.ServiceCapabilities
		got.Config.Caps = &gotCaps
		if code := ParseCommand(protocol.SigSetConfig, &got, data, allEndpoints); code != protocol.ErrInvalidCapabilities {
			t.Errorf("got %s, want %s", code, protocol.ErrInvalidCapabilities)
		}
	})

	t.Run("unsupported category", func(t *testing.T) {
		// recovery decodes fine but is outside the accepted configuration set
		data := []byte{
			3 << 2, 7 << 2,
			byte(protocol.CatRecovery), 3, 0x01, 0x05, 0x05,
			byte(protocol.CatCodec), 2, 0x00, 0x00,
		}
		var got Message
		var gotCaps caps.ServiceCapabilities
		got.Config.Caps = &gotCaps
		if code := ParseCommand(protocol.SigSetConfig, &got, data, allEndpoints); code != protocol.ErrInvalidCapabilities {
			t.Errorf("got %s, want %s", code, protocol.ErrInvalidCapabilities)
		}
	})

	t.Run("zero internal seid", func(t *testing.T) {
		data := []byte{3 << 2, 0, byte(protocol.CatCodec), 2, 0x00, 0x00}
		var got Message
		var gotCaps caps.ServiceCapabilities
		got.Config.Caps = &gotCaps
		if code := ParseCommand(protocol.SigSetConfig, &got, data, allEndpoints); code != protocol.ErrSeid {
			t.Errorf("got %s, want %s", code, protocol.ErrSeid)
		}
	})
}

// TestReconfigRoundTrip verifies that a reconfigure command carries only the
// codec and content-protection elements.
func TestReconfigRoundTrip(t *testing.T) {
	var cfg caps.ServiceCapabilities
	cfg.PscMask = protocol.PscMediaTransport | protocol.PscDelayReport // must not be built
	cfg.SetCodec([]byte{0x00, 0x00})

	var m Message
	m.Config.SEID = 4
	m.Config.Caps = &cfg
	data := BuildCommand(protocol.SigReconfig, &m)

	want := []byte{4 << 2, byte(protocol.CatCodec), 2, 0x00, 0x00}
	if !bytes.Equal(data, want) {
		t.Fatalf("wire form: got % x, want % x", data, want)
	}

	var got Message
	var gotCaps caps.ServiceCapabilities
	got.Config.Caps = &gotCaps
	if code := ParseCommand(protocol.SigReconfig, &got, data, allEndpoints); code != protocol.ErrNone {
		t.Fatalf("parse failed: %s", code)
	}
	if gotCaps.PscMask != protocol.PscCodec {
		t.Errorf("PscMask: got %#04x, want %#04x", gotCaps.PscMask, protocol.PscCodec)
	}
}

// TestReconfigValidation verifies the reconfigurable category restriction.
func TestReconfigValidation(t *testing.T) {
	// media transport is not reconfigurable
	data := []byte{4 << 2, byte(protocol.CatMediaTransport), 0, byte(protocol.CatCodec), 2, 0x00, 0x00}
	var got Message
	var gotCaps caps.ServiceCapabilities
	got.Config.Caps = &gotCaps
	if code := ParseCommand(protocol.SigReconfig, &got, data, allEndpoints); code != protocol.ErrInvalidCapabilities {
		t.Errorf("got %s, want %s", code, protocol.ErrInvalidCapabilities)
	}
}

// TestMultiRoundTrip verifies the Start/Suspend endpoint-list shape.
func TestMultiRoundTrip(t *testing.T) {
	var m Message
	m.Multi.SEIDs = []uint8{1, 2, 3}
	data := BuildCommand(protocol.SigStart, &m)
	if !bytes.Equal(data, []byte{1 << 2, 2 << 2, 3 << 2}) {
		t.Fatalf("wire form: got % x", data)
	}

	var got Message
	if code := ParseCommand(protocol.SigStart, &got, data, allEndpoints); code != protocol.ErrNone {
		t.Fatalf("parse failed: %s", code)
	}
	if len(got.Multi.SEIDs) != 3 || got.Multi.SEIDs[2] != 3 {
		t.Errorf("SEIDs: got %v", got.Multi.SEIDs)
	}
}

// TestMultiErrors covers the list length bounds and the failing-SEID report.
func TestMultiErrors(t *testing.T) {
	var m Message
	if code := ParseCommand(protocol.SigSuspend, &m, nil, allEndpoints); code != protocol.ErrLength {
		t.Errorf("empty list: got %s, want %s", code, protocol.ErrLength)
	}
	long := make([]byte, protocol.MaxEndpoints+1)
	if code := ParseCommand(protocol.SigSuspend, &m, long, allEndpoints); code != protocol.ErrLength {
		t.Errorf("oversized list: got %s, want %s", code, protocol.ErrLength)
	}

	// second id unknown: error names it, decoded ids before it survive
	onlyOne := resolverFunc(func(seid uint8) bool { return seid == 1 })
	var got Message
	code := ParseCommand(protocol.SigStart, &got, []byte{1 << 2, 2 << 2}, onlyOne)
	if code != protocol.ErrSeid {
		t.Fatalf("got %s, want %s", code, protocol.ErrSeid)
	}
	if got.Hdr.ErrParam != 2 {
		t.Errorf("ErrParam: got %d, want 2", got.Hdr.ErrParam)
	}
	if len(got.Multi.SEIDs) != 1 || got.Multi.SEIDs[0] != 1 {
		t.Errorf("partial SEIDs: got %v", got.Multi.SEIDs)
	}
}

// TestSecurityRoundTrip verifies the opaque security payload shapes.
func TestSecurityRoundTrip(t *testing.T) {
	var m Message
	m.Security.SEID = 6
	m.Security.Data = []byte{0xDE, 0xAD}
	data := BuildCommand(protocol.SigSecurity, &m)
	if !bytes.Equal(data, []byte{6 << 2, 0xDE, 0xAD}) {
		t.Fatalf("command wire form: got % x", data)
	}

	var got Message
	if code := ParseCommand(protocol.SigSecurity, &got, data, allEndpoints); code != protocol.ErrNone {
		t.Fatalf("parse failed: %s", code)
	}
	if got.Security.SEID != 6 || !bytes.Equal(got.Security.Data, []byte{0xDE, 0xAD}) {
		t.Errorf("got seid=%d data=% x", got.Security.SEID, got.Security.Data)
	}

	rspData := BuildResponse(protocol.SigSecurity, &m)
	var gotRsp Message
	if code := ParseResponse(protocol.SigSecurity, &gotRsp, rspData, allEndpoints); code != protocol.ErrNone {
		t.Fatalf("response parse failed: %s", code)
	}
	if !bytes.Equal(gotRsp.Security.Data, []byte{0xDE, 0xAD}) {
		t.Errorf("response data: got % x", gotRsp.Security.Data)
	}
}

// TestDelayReportRoundTrip verifies the delay report shape and its big-endian
// delay field.
func TestDelayReportRoundTrip(t *testing.T) {
	var m Message
	m.Delay.SEID = 2
	m.Delay.Delay = 0x1234
	data := BuildCommand(protocol.SigDelayReport, &m)
	if !bytes.Equal(data, []byte{2 << 2, 0x12, 0x34}) {
		t.Fatalf("wire form: got % x", data)
	}

	var got Message
	if code := ParseCommand(protocol.SigDelayReport, &got, data, allEndpoints); code != protocol.ErrNone {
		t.Fatalf("parse failed: %s", code)
	}
	if got.Delay.SEID != 2 || got.Delay.Delay != 0x1234 {
		t.Errorf("got seid=%d delay=%#04x", got.Delay.SEID, got.Delay.Delay)
	}
}

// TestDiscoverResponse verifies discover entry encoding and the clamp to the
// caller's entry buffer.
func TestDiscoverResponse(t *testing.T) {
	var m Message
	m.Discover.Entries = []EndpointInfo{
		{SEID: 1, InUse: true, MediaType: MediaTypeAudio, Role: RoleSink},
		{SEID: 2, MediaType: MediaTypeVideo, Role: RoleSource},
		{SEID: 3, MediaType: MediaTypeAudio, Role: RoleSource},
	}
	data := BuildResponse(protocol.SigDiscover, &m)
	if len(data) != 6 {
		t.Fatalf("wire length: got %d, want 6", len(data))
	}
	if data[0] != 1<<2|1<<1 || data[1] != 0<<4|1<<3 {
		t.Errorf("first entry: got % x", data[:2])
	}

	// destination smaller than the wire list: decode clamps
	var got Message
	got.Discover.Entries = make([]EndpointInfo, 2)
	if code := ParseResponse(protocol.SigDiscover, &got, data, allEndpoints); code != protocol.ErrNone {
		t.Fatalf("parse failed: %s", code)
	}
	if len(got.Discover.Entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(got.Discover.Entries))
	}
	e := got.Discover.Entries[0]
	if e.SEID != 1 || !e.InUse || e.MediaType != MediaTypeAudio || e.Role != RoleSink {
		t.Errorf("first entry: got %+v", e)
	}

	// zero SEID on the wire is invalid
	bad := []byte{0, 0}
	var gotBad Message
	gotBad.Discover.Entries = make([]EndpointInfo, 4)
	if code := ParseResponse(protocol.SigDiscover, &gotBad, bad, allEndpoints); code != protocol.ErrSeid {
		t.Errorf("zero seid: got %s, want %s", code, protocol.ErrSeid)
	}
}

// TestCapabilityResponseFiltering verifies the per-signal presence-mask
// filters on capability responses.
func TestCapabilityResponseFiltering(t *testing.T) {
	var c caps.ServiceCapabilities
	c.PscMask = protocol.PscMediaTransport | protocol.PscDelayReport
	c.SetCodec([]byte{0x00, 0x00})

	var m Message
	m.SvcCaps.Caps = &c

	// basic query drops the delay-report bit on build
	basic := BuildResponse(protocol.SigGetCap, &m)
	var gotBasic Message
	var basicCaps caps.ServiceCapabilities
	gotBasic.SvcCaps.Caps = &basicCaps
	if code := ParseResponse(protocol.SigGetCap, &gotBasic, basic, allEndpoints); code != protocol.ErrNone {
		t.Fatalf("parse failed: %s", code)
	}
	if basicCaps.PscMask != protocol.PscMediaTransport|protocol.PscCodec {
		t.Errorf("basic mask: got %#04x", basicCaps.PscMask)
	}

	// full query keeps it
	full := BuildResponse(protocol.SigGetAllCap, &m)
	var gotFull Message
	var fullCaps caps.ServiceCapabilities
	gotFull.SvcCaps.Caps = &fullCaps
	if code := ParseResponse(protocol.SigGetAllCap, &gotFull, full, allEndpoints); code != protocol.ErrNone {
		t.Fatalf("parse failed: %s", code)
	}
	want := protocol.PscMediaTransport | protocol.PscDelayReport | protocol.PscCodec
	if fullCaps.PscMask != want {
		t.Errorf("full mask: got %#04x, want %#04x", fullCaps.PscMask, want)
	}
}

// TestRejectShapes verifies the per-signal reject payload asymmetry: category
// byte for configuration signals, encoded SEID for list signals, bare error
// code for the rest.
func TestRejectShapes(t *testing.T) {
	testCases := []struct {
		name     string
		sig      protocol.SignalID
		param    uint8
		wantWire []byte
	}{
		{"set-configuration carries raw category", protocol.SigSetConfig, uint8(protocol.CatRecovery), []byte{3, 0x25}},
		{"reconfigure carries raw category", protocol.SigReconfig, uint8(protocol.CatCodec), []byte{7, 0x25}},
		{"start carries encoded seid", protocol.SigStart, 5, []byte{5 << 2, 0x25}},
		{"suspend carries encoded seid", protocol.SigSuspend, 5, []byte{5 << 2, 0x25}},
		{"open carries error code only", protocol.SigOpen, 0, []byte{0x25}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var m Message
			m.Hdr.ErrParam = tc.param
			m.Hdr.ErrCode = protocol.ErrRecoveryFormat
			data := BuildReject(tc.sig, &m)
			if !bytes.Equal(data, tc.wantWire) {
				t.Fatalf("wire form: got % x, want % x", data, tc.wantWire)
			}

			var got Message
			if code := ParseReject(&got, data, tc.sig); code != protocol.ErrNone {
				t.Fatalf("parse failed: %s", code)
			}
			if got.Hdr.ErrCode != protocol.ErrRecoveryFormat {
				t.Errorf("ErrCode: got %s", got.Hdr.ErrCode)
			}
			if got.Hdr.ErrParam != tc.param {
				t.Errorf("ErrParam: got %d, want %d", got.Hdr.ErrParam, tc.param)
			}
		})
	}
}

// TestRejectTooShort verifies that a reject without an error code is a length
// error.
func TestRejectTooShort(t *testing.T) {
	var m Message
	if code := ParseReject(&m, nil, protocol.SigOpen); code != protocol.ErrLength {
		t.Errorf("empty: got %s, want %s", code, protocol.ErrLength)
	}
	if code := ParseReject(&m, []byte{5 << 2}, protocol.SigStart); code != protocol.ErrLength {
		t.Errorf("param only: got %s, want %s", code, protocol.ErrLength)
	}
}
