// Package protocol defines the wire-level constants and header codec for the
// AV signaling channel: signal identifiers, message and packet types, protocol
// error codes, and the capability-category tables shared by the TLV codec.
package protocol

// SignalID identifies one of the thirteen signaling operations.
type SignalID uint8

// Signal identifiers.
const (
	SigDiscover    SignalID = 1
	SigGetCap      SignalID = 2
	SigSetConfig   SignalID = 3
	SigGetConfig   SignalID = 4
	SigReconfig    SignalID = 5
	SigOpen        SignalID = 6
	SigStart       SignalID = 7
	SigClose       SignalID = 8
	SigSuspend     SignalID = 9
	SigAbort       SignalID = 10
	SigSecurity    SignalID = 11
	SigGetAllCap   SignalID = 12
	SigDelayReport SignalID = 13

	SigMax = SigDelayReport
)

var sigNames = [...]string{
	"", "discover", "get-capabilities", "set-configuration", "get-configuration",
	"reconfigure", "open", "start", "close", "suspend", "abort",
	"security-control", "get-all-capabilities", "delay-report",
}

func (s SignalID) String() string {
	if s == 0 || s > SigMax {
		return "unknown"
	}
	return sigNames[s]
}

// MessageType identifies the role of a signaling message.
type MessageType uint8

// Message types, as carried in the two low bits of the header byte.
const (
	MsgTypeCommand       MessageType = 0
	MsgTypeGeneralReject MessageType = 1
	MsgTypeResponse      MessageType = 2
	MsgTypeReject        MessageType = 3
)

// PacketType identifies a transport packet's position in a fragmented message.
type PacketType uint8

// Packet types, as carried in bits 2-3 of the header byte.
const (
	PktTypeSingle   PacketType = 0
	PktTypeStart    PacketType = 1
	PktTypeContinue PacketType = 2
	PktTypeEnd      PacketType = 3
)

// Per-packet-type header sizes in bytes. SINGLE carries the header byte plus
// the signal byte; START additionally carries the packet count; CONTINUE and
// END carry only the header byte.
const (
	HdrLenSingle   = 2
	HdrLenStart    = 3
	HdrLenContinue = 1
	HdrLenEnd      = 1
)

// PktTypeMinLen returns the minimum valid packet length for a packet type.
func PktTypeMinLen(t PacketType) int {
	switch t {
	case PktTypeSingle:
		return HdrLenSingle
	case PktTypeStart:
		return HdrLenStart
	case PktTypeContinue:
		return HdrLenContinue
	default:
		return HdrLenEnd
	}
}

// GeneralRejectLen is the total length of a general reject message: the
// header byte and the signal byte, with no error code.
const GeneralRejectLen = 2

// Stream endpoint identifier range.
const (
	SeidMin = 0x01
	SeidMax = 0x3E
)

// Payload shape limits.
const (
	// MaxEndpoints bounds the endpoint-id lists in Start/Suspend commands
	// and the entry count of a Discover response.
	MaxEndpoints = 10

	// CodecInfoSize caps a codec capability element: one length byte plus
	// up to CodecInfoSize-1 bytes of codec payload.
	CodecInfoSize = 20

	// ProtectInfoSize caps the packed content-protection element buffer.
	ProtectInfoSize = 90

	// MaxMessageLen is the reassembly buffer capacity: the largest message
	// this layer accepts after stripping packet framing.
	MaxMessageLen = 4096
)

// MinPeerMTU is the smallest usable peer MTU: a START header plus one
// payload byte.
const MinPeerMTU = HdrLenStart + 1

// BuildHeader builds the shared header byte from label, packet type and
// message type. The label occupies the four high bits.
func BuildHeader(label uint8, pkt PacketType, msg MessageType) byte {
	return label<<4 | byte(pkt)<<2 | byte(msg)
}

// ParseHeader splits a header byte into label, packet type and message type.
func ParseHeader(b byte) (label uint8, pkt PacketType, msg MessageType) {
	return b >> 4, PacketType(b >> 2 & 0x03), MessageType(b & 0x03)
}

// ParseSig extracts a signal id from its wire byte; the two high bits are
// reserved and ignored.
func ParseSig(b byte) SignalID {
	return SignalID(b & 0x3F)
}
