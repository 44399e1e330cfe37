package message

import (
	"encoding/binary"

	"github.com/nkravets/avsig/internal/caps"
	"github.com/nkravets/avsig/internal/protocol"
)

type buildFn func(dst []byte, m *Message) []byte

// Build table for command payloads, indexed by SignalID-1.
var buildCmd = [protocol.SigMax]buildFn{
	bldNone,        // discover
	bldSingle,      // get capabilities
	bldSetConfig,   // set configuration
	bldSingle,      // get configuration
	bldReconfig,    // reconfigure
	bldSingle,      // open
	bldMulti,       // start
	bldSingle,      // close
	bldMulti,       // suspend
	bldSingle,      // abort
	bldSecurityCmd, // security control
	bldSingle,      // get all capabilities
	bldDelayReport, // delay report
}

// Build table for response payloads, indexed by SignalID-1.
var buildRsp = [protocol.SigMax]buildFn{
	bldDiscoverRsp, // discover
	bldSvcCap,      // get capabilities
	bldNone,        // set configuration
	bldAllSvcCap,   // get configuration
	bldNone,        // reconfigure
	bldNone,        // open
	bldNone,        // start
	bldNone,        // close
	bldNone,        // suspend
	bldNone,        // abort
	bldSecurityRsp, // security control
	bldAllSvcCap,   // get all capabilities
	bldNone,        // delay report
}

// BuildCommand encodes the command payload for sig.
func BuildCommand(sig protocol.SignalID, m *Message) []byte {
	return buildCmd[sig-1](nil, m)
}

// BuildResponse encodes the response payload for sig.
func BuildResponse(sig protocol.SignalID, m *Message) []byte {
	return buildRsp[sig-1](nil, m)
}

// BuildReject encodes the reject payload for the signal being rejected.
// SetConfiguration and Reconfigure rejects lead with the failed category id,
// Start and Suspend rejects lead with the failed endpoint id; every reject
// ends with the error code.
func BuildReject(sig protocol.SignalID, m *Message) []byte {
	var dst []byte
	switch sig {
	case protocol.SigSetConfig, protocol.SigReconfig:
		dst = append(dst, m.Hdr.ErrParam)
	case protocol.SigStart, protocol.SigSuspend:
		dst = append(dst, buildSEID(m.Hdr.ErrParam))
	}
	return append(dst, byte(m.Hdr.ErrCode))
}

func bldNone(dst []byte, _ *Message) []byte {
	return dst
}

func bldSingle(dst []byte, m *Message) []byte {
	return append(dst, buildSEID(m.Single.SEID))
}

func bldSetConfig(dst []byte, m *Message) []byte {
	dst = append(dst, buildSEID(m.Config.SEID), buildSEID(m.Config.IntSEID))
	return caps.AppendConfig(dst, m.Config.Caps)
}

func bldReconfig(dst []byte, m *Message) []byte {
	dst = append(dst, buildSEID(m.Config.SEID))

	// drop the presence-only categories so only codec and content
	// protection are built
	cfg := *m.Config.Caps
	cfg.PscMask = 0
	return caps.AppendConfig(dst, &cfg)
}

func bldMulti(dst []byte, m *Message) []byte {
	for _, seid := range m.Multi.SEIDs {
		dst = append(dst, buildSEID(seid))
	}
	return dst
}

func bldSecurityCmd(dst []byte, m *Message) []byte {
	dst = append(dst, buildSEID(m.Security.SEID))
	return append(dst, m.Security.Data...)
}

func bldSecurityRsp(dst []byte, m *Message) []byte {
	return append(dst, m.Security.Data...)
}

func bldDelayReport(dst []byte, m *Message) []byte {
	dst = append(dst, buildSEID(m.Delay.SEID))
	return binary.BigEndian.AppendUint16(dst, m.Delay.Delay)
}

func bldDiscoverRsp(dst []byte, m *Message) []byte {
	for _, e := range m.Discover.Entries {
		b0 := e.SEID << 2
		if e.InUse {
			b0 |= 1 << 1
		}
		b1 := e.MediaType<<4 | e.Role<<3
		dst = append(dst, b0, b1)
	}
	return dst
}

// bldSvcCap builds a capability list filtered to the basic categories, as
// carried by a GetCapabilities response.
func bldSvcCap(dst []byte, m *Message) []byte {
	cfg := *m.SvcCaps.Caps
	cfg.PscMask &= protocol.PscMaskBasic
	return caps.AppendConfig(dst, &cfg)
}

// bldAllSvcCap builds the unfiltered capability list, as carried by
// GetAllCapabilities and GetConfiguration responses.
func bldAllSvcCap(dst []byte, m *Message) []byte {
	return caps.AppendConfig(dst, m.SvcCaps.Caps)
}
