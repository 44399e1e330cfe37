package protocol

// Capability category identifiers, one per kind of service parameter.
type Category uint8

const (
	CatMediaTransport Category = 1
	CatReporting      Category = 2
	CatRecovery       Category = 3
	CatProtection     Category = 4
	CatHeaderComp     Category = 5
	CatMultiplexing   Category = 6
	CatCodec          Category = 7
	CatDelayReport    Category = 8

	CatMax = CatDelayReport
)

// Psc bits: one presence bit per capability category, bit position equal to
// the category id.
const (
	PscMediaTransport uint16 = 1 << uint16(CatMediaTransport)
	PscReporting      uint16 = 1 << uint16(CatReporting)
	PscRecovery       uint16 = 1 << uint16(CatRecovery)
	PscProtection     uint16 = 1 << uint16(CatProtection)
	PscHeaderComp     uint16 = 1 << uint16(CatHeaderComp)
	PscMultiplexing   uint16 = 1 << uint16(CatMultiplexing)
	PscCodec          uint16 = 1 << uint16(CatCodec)
	PscDelayReport    uint16 = 1 << uint16(CatDelayReport)
)

// PscMaskAll covers every category this implementation knows about.
const PscMaskAll = PscMediaTransport | PscReporting | PscRecovery |
	PscProtection | PscHeaderComp | PscMultiplexing | PscCodec | PscDelayReport

// PscMaskBasic is the subset retained in a GetCapabilities response.
const PscMaskBasic = PscMediaTransport | PscReporting | PscProtection | PscCodec

// PscMaskSupported is the set a SetConfiguration command may carry; any other
// bit in an accepted configuration is an invalid-capabilities error.
const PscMaskSupported = PscMediaTransport | PscReporting | PscDelayReport |
	PscProtection | PscCodec

// PscMaskReconfig is the set a Reconfigure command may carry: codec and
// content protection only.
const PscMaskReconfig = PscProtection | PscCodec

// Element length bounds, indexed by category (index 0 unused).
var (
	catLenMin = [CatMax + 1]uint8{0, 0, 0, 3, 2, 1, 3, 2, 0}
	catLenMax = [CatMax + 1]uint8{0, 0, 0, 3, 10, 1, 7, 32, 0}
)

// Per-category error code reported when an element's length is out of bounds,
// indexed by category (index 0 unused).
var catLenErr = [CatMax + 1]ErrorCode{
	0,
	ErrMediaTransportFormat, // media transport
	ErrLength,               // reporting
	ErrRecoveryFormat,       // recovery
	ErrProtectionFormat,     // content protection
	ErrHeaderCompFormat,     // header compression
	ErrMultiplexingFormat,   // multiplexing
	ErrService,              // codec
	ErrService,              // delay report
}

// CatLenBounds returns the [min,max] payload length for a category.
func CatLenBounds(c Category) (min, max uint8) {
	return catLenMin[c], catLenMax[c]
}

// CatLenError returns the error code for a length violation in a category.
func CatLenError(c Category) ErrorCode {
	return catLenErr[c]
}

// Recovery parameter bounds. Only RFC 2733 recovery is defined.
const (
	RecoveryTypeRFC2733 = 0x01
	RecoveryMRWSMin     = 0x01
	RecoveryMRWSMax     = 0x18
	RecoveryMNMPMin     = 0x01
	RecoveryMNMPMax     = 0x18
)
