// Package caps implements the service-capability TLV codec: the list of
// category elements (media transport, reporting, recovery, content
// protection, header compression, multiplexing, codec, delay report) carried
// inside configuration and capability payloads.
package caps

import (
	"github.com/nkravets/avsig/internal/protocol"
)

// ServiceCapabilities is the decoded form of a capability element list.
//
// PscMask always reflects which categories are actually populated: decode
// sets one presence bit per accepted element, and encode emits elements only
// for set bits (codec and content protection presence is tracked through
// NumCodec and NumProtect).
type ServiceCapabilities struct {
	PscMask uint16

	// NumCodec is 0 or 1; CodecInfo[0] holds the element length followed by
	// up to CodecInfoSize-1 payload bytes.
	NumCodec  uint8
	CodecInfo [protocol.CodecInfoSize]byte

	// Content protection elements packed as {length, payload...} runs.
	NumProtect  uint8
	ProtectInfo [protocol.ProtectInfoSize]byte

	RecoveryType uint8
	RecoveryMRWS uint8 // maximum recovery window size
	RecoveryMNMP uint8 // maximum number of media packets

	HeaderCompMask uint8
}

// SetCodec installs a codec element and sets the codec presence bit.
func (c *ServiceCapabilities) SetCodec(payload []byte) {
	n := len(payload)
	if n > protocol.CodecInfoSize-1 {
		n = protocol.CodecInfoSize - 1
	}
	c.CodecInfo[0] = byte(len(payload))
	copy(c.CodecInfo[1:], payload[:n])
	c.NumCodec = 1
	c.PscMask |= protocol.PscCodec
}

// Codec returns the codec element payload, or nil if none is present.
func (c *ServiceCapabilities) Codec() []byte {
	if c.NumCodec == 0 {
		return nil
	}
	n := int(c.CodecInfo[0])
	if n > protocol.CodecInfoSize-1 {
		n = protocol.CodecInfoSize - 1
	}
	return c.CodecInfo[1 : 1+n]
}

// AppendConfig appends the encoded element list to dst and returns the
// extended slice. Encoding order is fixed: media transport, reporting, codec,
// content protection, delay report. Other categories are built only where a
// specific signal payload requires them.
func AppendConfig(dst []byte, c *ServiceCapabilities) []byte {
	if c.PscMask&protocol.PscMediaTransport != 0 {
		dst = append(dst, byte(protocol.CatMediaTransport), 0)
	}
	if c.PscMask&protocol.PscReporting != 0 {
		dst = append(dst, byte(protocol.CatReporting), 0)
	}
	if c.NumCodec != 0 {
		n := int(c.CodecInfo[0]) + 1
		if n > protocol.CodecInfoSize {
			n = protocol.CodecInfoSize
		}
		dst = append(dst, byte(protocol.CatCodec))
		dst = append(dst, c.CodecInfo[:n]...)
	}
	if c.NumProtect != 0 {
		n := int(c.ProtectInfo[0]) + 1
		if n > protocol.ProtectInfoSize {
			n = protocol.ProtectInfoSize
		}
		dst = append(dst, byte(protocol.CatProtection))
		dst = append(dst, c.ProtectInfo[:n]...)
	}
	if c.PscMask&protocol.PscDelayReport != 0 {
		dst = append(dst, byte(protocol.CatDelayReport), 0)
	}
	return dst
}

// configSetting reports whether sig carries a configuration the local side
// would accept, as opposed to a capability query. Unknown categories are an
// error in the former and skipped in the latter.
func configSetting(sig protocol.SignalID) bool {
	return sig == protocol.SigSetConfig || sig == protocol.SigReconfig
}

// DecodeConfig decodes a capability element list into c. data is untrusted;
// every element's claimed length is bounds-checked against the end of data
// before any payload byte is read. On failure it returns the category id of
// the element that failed and a non-zero error code; c may be partially
// filled. On success the presence bits in c.PscMask match the populated
// fields exactly.
func DecodeConfig(c *ServiceCapabilities, data []byte, sig protocol.SignalID) (failedCat uint8, code protocol.ErrorCode) {
	if c == nil {
		return 0, protocol.ErrBadState
	}

	c.PscMask = 0
	c.NumCodec = 0
	c.NumProtect = 0

	var cat uint8
	protectOffset := 0

	for i := 0; i < len(data); {
		// every element needs at least an id byte and a length byte
		if len(data)-i < 2 {
			return cat, protocol.ErrPayloadFormat
		}
		cat = data[i]
		elemLen := int(data[i+1])
		i += 2

		if cat == 0 || cat > uint8(protocol.CatMax) {
			if configSetting(sig) {
				// unknown categories must not silently affect an
				// accepted configuration
				return cat, protocol.ErrCategory
			}
			// capability query: skip categories too new for us
			i += elemLen
			continue
		}

		category := protocol.Category(cat)
		min, max := protocol.CatLenBounds(category)
		if elemLen < int(min) || elemLen > int(max) {
			return cat, protocol.CatLenError(category)
		}

		// content protection sets its presence bit only once an element
		// is actually retained, keeping the mask consistent with the
		// populated fields
		if category != protocol.CatProtection {
			c.PscMask |= 1 << uint16(cat)
		}

		switch category {
		case protocol.CatRecovery:
			if len(data)-i < 3 {
				return cat, protocol.ErrPayloadFormat
			}
			c.RecoveryType = data[i]
			c.RecoveryMRWS = data[i+1]
			c.RecoveryMNMP = data[i+2]
			i += 3
			if c.RecoveryType != protocol.RecoveryTypeRFC2733 {
				return cat, protocol.ErrRecoveryType
			}
			if c.RecoveryMRWS < protocol.RecoveryMRWSMin || c.RecoveryMRWS > protocol.RecoveryMRWSMax ||
				c.RecoveryMNMP < protocol.RecoveryMNMPMin || c.RecoveryMNMP > protocol.RecoveryMNMPMax {
				return cat, protocol.ErrRecoveryFormat
			}

		case protocol.CatProtection:
			if i+elemLen > len(data) {
				return cat, protocol.ErrLength
			}
			if elemLen+protectOffset < protocol.ProtectInfoSize {
				c.NumProtect++
				c.PscMask |= protocol.PscProtection
				c.ProtectInfo[protectOffset] = byte(elemLen)
				copy(c.ProtectInfo[protectOffset+1:], data[i:i+elemLen])
				protectOffset += elemLen + 1
			}
			i += elemLen

		case protocol.CatHeaderComp:
			if len(data)-i < 1 {
				return cat, protocol.ErrPayloadFormat
			}
			c.HeaderCompMask = data[i]
			i++

		case protocol.CatCodec:
			if i+elemLen > len(data) {
				return cat, protocol.ErrLength
			}
			keep := elemLen
			if keep >= protocol.CodecInfoSize {
				keep = protocol.CodecInfoSize - 1
			}
			c.NumCodec++
			c.CodecInfo[0] = byte(elemLen)
			copy(c.CodecInfo[1:], data[i:i+keep])
			i += elemLen

		default:
			// media transport, reporting, delay report: zero length.
			// multiplexing: parameters not retained, skip the payload.
			i += elemLen
		}
	}

	return cat, protocol.ErrNone
}
