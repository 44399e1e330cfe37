// Package message implements the per-signal payload codec: building and
// parsing the thirteen signal types' command, response, and reject payload
// shapes. Build and parse functions are selected through fixed tables indexed
// by signal id.
package message

import (
	"github.com/nkravets/avsig/internal/caps"
	"github.com/nkravets/avsig/internal/protocol"
)

// Media types and endpoint roles carried in discover entries.
const (
	MediaTypeAudio      = 0
	MediaTypeVideo      = 1
	MediaTypeMultimedia = 2

	RoleSource = 0
	RoleSink   = 1
)

// Minimum payload lengths per shape (payload excludes the packet header and
// signal byte).
const (
	lenSingle       = 1
	lenSetConfigMin = 2
	lenReconfigMin  = 1
	lenMultiMin     = 1
	lenSecurityMin  = 1
	lenDelayReport  = 3
)

// Header is the part of a decoded message shared by every shape.
type Header struct {
	Label    uint8
	SigID    protocol.SignalID
	ErrCode  protocol.ErrorCode
	ErrParam uint8
}

// EndpointInfo is one entry of a discover response.
type EndpointInfo struct {
	SEID      uint8
	InUse     bool
	MediaType uint8
	Role      uint8
}

// SingleParams carries a single stream endpoint id.
type SingleParams struct {
	SEID uint8
}

// ConfigParams carries the SetConfiguration / Reconfigure fields. IntSEID is
// only present on the wire for SetConfiguration.
type ConfigParams struct {
	SEID    uint8
	IntSEID uint8
	Caps    *caps.ServiceCapabilities
}

// MultiParams carries the endpoint-id list of a Start or Suspend command.
type MultiParams struct {
	SEIDs []uint8
}

// DelayParams carries a delay report.
type DelayParams struct {
	SEID  uint8
	Delay uint16
}

// DiscoverParams carries discover response entries. On parse, Entries bounds
// the number of decoded entries and is re-sliced to the decoded count.
type DiscoverParams struct {
	Entries []EndpointInfo
}

// SecurityParams carries an opaque security payload. On parse, Data aliases
// the message buffer and is only valid until the dispatcher returns.
type SecurityParams struct {
	SEID uint8
	Data []byte
}

// SvcCapParams is the destination for capability response payloads.
type SvcCapParams struct {
	Caps *caps.ServiceCapabilities
}

// Message is the decoded form of one signaling message. Exactly one of the
// shape fields is meaningful, keyed by Hdr.SigID and the message type it was
// parsed or built as.
type Message struct {
	Hdr Header

	Single   SingleParams
	Config   ConfigParams
	Multi    MultiParams
	Delay    DelayParams
	Discover DiscoverParams
	Security SecurityParams
	SvcCaps  SvcCapParams
}

// EndpointResolver reports whether a stream endpoint id refers to a live
// local endpoint. Command parsers use it to validate incoming ids.
type EndpointResolver interface {
	HasEndpoint(seid uint8) bool
}

// SEID wire form: the id occupies the six high bits of its byte.

func buildSEID(seid uint8) byte { return seid << 2 }

func parseSEID(b byte) uint8 { return b >> 2 }
