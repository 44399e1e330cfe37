package protocol

// ErrorCode is the one-byte protocol error carried in reject messages.
// Zero means no error. Decode-time failures are reported through these codes
// rather than Go errors; they never cross the engine boundary as panics.
type ErrorCode uint8

const (
	ErrNone                 ErrorCode = 0x00
	ErrBadHeader            ErrorCode = 0x01
	ErrLength               ErrorCode = 0x11
	ErrSeid                 ErrorCode = 0x12
	ErrInUse                ErrorCode = 0x13
	ErrNotInUse             ErrorCode = 0x14
	ErrCategory             ErrorCode = 0x17
	ErrPayloadFormat        ErrorCode = 0x18
	ErrNotSupportedCommand  ErrorCode = 0x19
	ErrInvalidCapabilities  ErrorCode = 0x1A
	ErrRecoveryType         ErrorCode = 0x22
	ErrMediaTransportFormat ErrorCode = 0x23
	ErrRecoveryFormat       ErrorCode = 0x25
	ErrHeaderCompFormat     ErrorCode = 0x26
	ErrProtectionFormat     ErrorCode = 0x27
	ErrMultiplexingFormat   ErrorCode = 0x28
	ErrUnsupportedConfig    ErrorCode = 0x29
	ErrBadState             ErrorCode = 0x31
	ErrService              ErrorCode = 0x80
	ErrResource             ErrorCode = 0x81
)

func (e ErrorCode) String() string {
	switch e {
	case ErrNone:
		return "ok"
	case ErrBadHeader:
		return "bad header format"
	case ErrLength:
		return "bad length"
	case ErrSeid:
		return "bad endpoint id"
	case ErrInUse:
		return "endpoint in use"
	case ErrNotInUse:
		return "endpoint not in use"
	case ErrCategory:
		return "bad service category"
	case ErrPayloadFormat:
		return "bad payload format"
	case ErrNotSupportedCommand:
		return "command not supported"
	case ErrInvalidCapabilities:
		return "invalid capabilities"
	case ErrRecoveryType:
		return "bad recovery type"
	case ErrMediaTransportFormat:
		return "bad media transport format"
	case ErrRecoveryFormat:
		return "bad recovery format"
	case ErrHeaderCompFormat:
		return "bad header compression format"
	case ErrProtectionFormat:
		return "bad content protection format"
	case ErrMultiplexingFormat:
		return "bad multiplexing format"
	case ErrUnsupportedConfig:
		return "unsupported configuration"
	case ErrBadState:
		return "bad state"
	case ErrService:
		return "bad service"
	case ErrResource:
		return "insufficient resources"
	default:
		return "unknown error"
	}
}
