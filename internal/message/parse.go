package message

import (
	"encoding/binary"

	"github.com/nkravets/avsig/internal/caps"
	"github.com/nkravets/avsig/internal/protocol"
)

type parseFn func(m *Message, data []byte, r EndpointResolver) protocol.ErrorCode

// Parse table for command payloads, indexed by SignalID-1.
var parseCmd = [protocol.SigMax]parseFn{
	prsNone,        // discover
	prsSingle,      // get capabilities
	prsSetConfig,   // set configuration
	prsSingle,      // get configuration
	prsReconfig,    // reconfigure
	prsSingle,      // open
	prsMulti,       // start
	prsSingle,      // close
	prsMulti,       // suspend
	prsSingle,      // abort
	prsSecurityCmd, // security control
	prsSingle,      // get all capabilities
	prsDelayReport, // delay report
}

// Parse table for response payloads, indexed by SignalID-1.
var parseRsp = [protocol.SigMax]parseFn{
	prsDiscoverRsp, // discover
	prsSvcCap,      // get capabilities
	prsNone,        // set configuration
	prsAllSvcCap,   // get configuration
	prsNone,        // reconfigure
	prsNone,        // open
	prsNone,        // start
	prsNone,        // close
	prsNone,        // suspend
	prsNone,        // abort
	prsSecurityRsp, // security control
	prsAllSvcCap,   // get all capabilities
	prsNone,        // delay report
}

// ParseCommand decodes a command payload for sig into m.
func ParseCommand(sig protocol.SignalID, m *Message, data []byte, r EndpointResolver) protocol.ErrorCode {
	return parseCmd[sig-1](m, data, r)
}

// ParseResponse decodes a response payload for sig into m.
func ParseResponse(sig protocol.SignalID, m *Message, data []byte, r EndpointResolver) protocol.ErrorCode {
	return parseRsp[sig-1](m, data, r)
}

// ParseReject decodes a reject payload. The shape depends on the signal being
// rejected, not on the reject itself: SetConfiguration and Reconfigure
// rejects carry a category byte, Start and Suspend rejects carry an endpoint
// id, and every reject ends with a one-byte error code.
func ParseReject(m *Message, data []byte, sig protocol.SignalID) protocol.ErrorCode {
	i := 0
	if len(data) > 0 {
		switch sig {
		case protocol.SigSetConfig, protocol.SigReconfig:
			m.Hdr.ErrParam = data[0]
			i = 1
		case protocol.SigStart, protocol.SigSuspend:
			m.Hdr.ErrParam = parseSEID(data[0])
			i = 1
		}
	}
	if len(data)-i < 1 {
		return protocol.ErrLength
	}
	m.Hdr.ErrCode = protocol.ErrorCode(data[i])
	return protocol.ErrNone
}

func prsNone(_ *Message, _ []byte, _ EndpointResolver) protocol.ErrorCode {
	return protocol.ErrNone
}

func prsSingle(m *Message, data []byte, r EndpointResolver) protocol.ErrorCode {
	if len(data) != lenSingle {
		return protocol.ErrLength
	}
	m.Single.SEID = parseSEID(data[0])
	if !r.HasEndpoint(m.Single.SEID) {
		return protocol.ErrSeid
	}
	return protocol.ErrNone
}

func prsSetConfig(m *Message, data []byte, r EndpointResolver) protocol.ErrorCode {
	m.Hdr.ErrParam = 0

	if len(data) < lenSetConfigMin {
		return protocol.ErrLength
	}

	var err protocol.ErrorCode
	m.Config.SEID = parseSEID(data[0])
	if !r.HasEndpoint(m.Config.SEID) {
		err = protocol.ErrSeid
	}
	m.Config.IntSEID = parseSEID(data[1])
	if m.Config.IntSEID < protocol.SeidMin || m.Config.IntSEID > protocol.SeidMax {
		err = protocol.ErrSeid
	}
	if err != protocol.ErrNone {
		return err
	}

	failedCat, err := caps.DecodeConfig(m.Config.Caps, data[2:], protocol.SigSetConfig)
	m.Hdr.ErrParam = failedCat
	if err != protocol.ErrNone {
		return err
	}

	// the accepted configuration must stay within the supported service
	// categories and must include a codec
	if m.Config.Caps.PscMask&^protocol.PscMaskSupported != 0 || m.Config.Caps.NumCodec == 0 {
		return protocol.ErrInvalidCapabilities
	}
	return protocol.ErrNone
}

func prsReconfig(m *Message, data []byte, r EndpointResolver) protocol.ErrorCode {
	m.Hdr.ErrParam = 0

	if len(data) < lenReconfigMin {
		return protocol.ErrLength
	}
	m.Config.SEID = parseSEID(data[0])
	if !r.HasEndpoint(m.Config.SEID) {
		return protocol.ErrSeid
	}

	failedCat, err := caps.DecodeConfig(m.Config.Caps, data[1:], protocol.SigReconfig)
	m.Hdr.ErrParam = failedCat
	if err != protocol.ErrNone {
		return err
	}

	// reconfiguration may only change codec and content protection, and
	// must carry at least one of them
	if m.Config.Caps.PscMask&^protocol.PscMaskReconfig != 0 ||
		(m.Config.Caps.NumCodec == 0 && m.Config.Caps.NumProtect == 0) {
		return protocol.ErrInvalidCapabilities
	}
	return protocol.ErrNone
}

func prsMulti(m *Message, data []byte, r EndpointResolver) protocol.ErrorCode {
	m.Hdr.ErrParam = 0

	if len(data) < lenMultiMin || len(data) > protocol.MaxEndpoints {
		return protocol.ErrLength
	}
	seids := make([]uint8, 0, len(data))
	for _, b := range data {
		seid := parseSEID(b)
		if !r.HasEndpoint(seid) {
			m.Multi.SEIDs = seids
			m.Hdr.ErrParam = seid
			return protocol.ErrSeid
		}
		seids = append(seids, seid)
	}
	m.Multi.SEIDs = seids
	return protocol.ErrNone
}

func prsSecurityCmd(m *Message, data []byte, r EndpointResolver) protocol.ErrorCode {
	if len(data) < lenSecurityMin {
		return protocol.ErrLength
	}
	m.Security.SEID = parseSEID(data[0])
	if !r.HasEndpoint(m.Security.SEID) {
		return protocol.ErrSeid
	}
	m.Security.Data = data[1:]
	return protocol.ErrNone
}

func prsSecurityRsp(m *Message, data []byte, _ EndpointResolver) protocol.ErrorCode {
	m.Security.Data = data
	return protocol.ErrNone
}

func prsDelayReport(m *Message, data []byte, r EndpointResolver) protocol.ErrorCode {
	if len(data) != lenDelayReport {
		return protocol.ErrLength
	}
	m.Delay.SEID = parseSEID(data[0])
	if !r.HasEndpoint(m.Delay.SEID) {
		return protocol.ErrSeid
	}
	m.Delay.Delay = binary.BigEndian.Uint16(data[1:3])
	return protocol.ErrNone
}

// prsDiscoverRsp decodes as many entries as fit in both the wire payload and
// the caller-supplied Entries slice.
func prsDiscoverRsp(m *Message, data []byte, _ EndpointResolver) protocol.ErrorCode {
	n := len(data) / 2
	if n > len(m.Discover.Entries) {
		n = len(m.Discover.Entries)
	}

	for i := 0; i < n; i++ {
		b0, b1 := data[i*2], data[i*2+1]
		e := &m.Discover.Entries[i]
		e.SEID = b0 >> 2
		e.InUse = b0>>1&1 != 0
		e.MediaType = b1 >> 4
		e.Role = b1 >> 3 & 1
		if e.SEID < protocol.SeidMin || e.SEID > protocol.SeidMax {
			m.Discover.Entries = m.Discover.Entries[:i]
			return protocol.ErrSeid
		}
	}
	m.Discover.Entries = m.Discover.Entries[:n]
	return protocol.ErrNone
}

// prsSvcCap decodes a GetCapabilities response, retaining only the basic
// capability bits.
func prsSvcCap(m *Message, data []byte, _ EndpointResolver) protocol.ErrorCode {
	failedCat, err := caps.DecodeConfig(m.SvcCaps.Caps, data, protocol.SigGetCap)
	m.Hdr.ErrParam = failedCat
	if m.SvcCaps.Caps != nil {
		m.SvcCaps.Caps.PscMask &= protocol.PscMaskBasic
	}
	return err
}

// prsAllSvcCap decodes a GetAllCapabilities or GetConfiguration response,
// retaining the full supported bit superset.
func prsAllSvcCap(m *Message, data []byte, _ EndpointResolver) protocol.ErrorCode {
	failedCat, err := caps.DecodeConfig(m.SvcCaps.Caps, data, protocol.SigGetAllCap)
	m.Hdr.ErrParam = failedCat
	if m.SvcCaps.Caps != nil {
		m.SvcCaps.Caps.PscMask &= protocol.PscMaskAll
	}
	return err
}
