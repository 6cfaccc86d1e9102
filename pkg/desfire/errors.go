package desfire

import (
	"errors"
	"fmt"
)

// Kind identifies which layer of the stack raised an Error.
type Kind int

const (
	KindTransport Kind = iota
	KindFraming
	KindCrypto
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindFraming:
		return "framing"
	case KindCrypto:
		return "crypto"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// TransportReason enumerates Transport-kind failures (§7).
type TransportReason int

const (
	TransportTimeout TransportReason = iota
	TransportDeviceNotFound
	TransportWriteFailed
	TransportReadFailed
	TransportBusError
)

func (r TransportReason) String() string {
	switch r {
	case TransportTimeout:
		return "Timeout"
	case TransportDeviceNotFound:
		return "DeviceNotFound"
	case TransportWriteFailed:
		return "WriteFailed"
	case TransportReadFailed:
		return "ReadFailed"
	case TransportBusError:
		return "BusError"
	default:
		return "Unknown"
	}
}

// FramingReason enumerates Framing-kind failures (§7).
type FramingReason int

const (
	FramingShortFrame FramingReason = iota
	FramingBadStartOfFrame
	FramingBadLength
	FramingBadChecksum
	FramingUnexpectedStatus
)

func (r FramingReason) String() string {
	switch r {
	case FramingShortFrame:
		return "ShortFrame"
	case FramingBadStartOfFrame:
		return "BadStartOfFrame"
	case FramingBadLength:
		return "BadLength"
	case FramingBadChecksum:
		return "BadChecksum"
	case FramingUnexpectedStatus:
		return "UnexpectedStatus"
	default:
		return "Unknown"
	}
}

// CryptoReason enumerates Crypto-kind failures (§7).
type CryptoReason int

const (
	CryptoIntegrityError CryptoReason = iota
	CryptoBadKeyLength
	CryptoBadResponseSize
)

func (r CryptoReason) String() string {
	switch r {
	case CryptoIntegrityError:
		return "IntegrityError"
	case CryptoBadKeyLength:
		return "BadKeyLength"
	case CryptoBadResponseSize:
		return "BadResponseSize"
	default:
		return "Unknown"
	}
}

// Status is a DESFire status byte (§7 table). 0x00 and 0xAF are control
// values, not errors; every other observed value maps to a named variant.
type Status byte

const (
	StatusOK              Status = 0x00
	StatusNoChanges       Status = 0x0C
	StatusOutOfEeprom     Status = 0x0E
	StatusIllegalCommand  Status = 0x1C
	StatusIntegrityError  Status = 0x1E
	StatusNoSuchKey       Status = 0x40
	StatusLengthError     Status = 0x7E
	StatusPermissionDenied    Status = 0x9D
	StatusParameterError      Status = 0x9E
	StatusApplicationNotFound Status = 0xA0
	StatusAppIntegrityError   Status = 0xA1
	StatusAuthenticationError Status = 0xAE
	StatusAdditionalFrame     Status = 0xAF
	StatusBoundaryError       Status = 0xBE
	StatusPiccIntegrityError  Status = 0xC1
	StatusCommandAborted      Status = 0xCA
	StatusPiccDisabled        Status = 0xCD
	StatusCountError          Status = 0xCE
	StatusDuplicateError      Status = 0xDE
	StatusEepromError         Status = 0xEE
	StatusFileNotFound        Status = 0xF0
	StatusFileIntegrity       Status = 0xF1
)

var statusNames = map[Status]string{
	StatusOK:                 "OK",
	StatusNoChanges:           "NoChanges",
	StatusOutOfEeprom:         "OutOfEeprom",
	StatusIllegalCommand:      "IllegalCommand",
	StatusIntegrityError:      "IntegrityError",
	StatusNoSuchKey:           "NoSuchKey",
	StatusLengthError:         "LengthError",
	StatusPermissionDenied:    "PermissionDenied",
	StatusParameterError:      "ParameterError",
	StatusApplicationNotFound: "ApplicationNotFound",
	StatusAppIntegrityError:   "AppIntegrityError",
	StatusAuthenticationError: "AuthenticationError",
	StatusAdditionalFrame:     "AdditionalFrame",
	StatusBoundaryError:       "BoundaryError",
	StatusPiccIntegrityError:  "PiccIntegrityError",
	StatusCommandAborted:      "CommandAborted",
	StatusPiccDisabled:        "PiccDisabled",
	StatusCountError:          "CountError",
	StatusDuplicateError:      "DuplicateError",
	StatusEepromError:         "EepromError",
	StatusFileNotFound:        "FileNotFound",
	StatusFileIntegrity:       "FileIntegrity",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02X)", byte(s))
}

// IsControl reports whether s is a control value (OK or AdditionalFrame)
// rather than an error status.
func (s Status) IsControl() bool {
	return s == StatusOK || s == StatusAdditionalFrame
}

// Error is the single tagged-union error value every layer of the core
// returns. Inspect Kind, then the matching Transport/Framing/Crypto/Status
// field.
type Error struct {
	Kind      Kind
	Transport TransportReason
	Framing   FramingReason
	Crypto    CryptoReason
	Status    Status
	Op        string // command or operation name, e.g. "ReadData"
	Err       error  // underlying cause, if any
}

func (e *Error) Error() string {
	var detail string
	switch e.Kind {
	case KindTransport:
		detail = e.Transport.String()
	case KindFraming:
		detail = e.Framing.String()
	case KindCrypto:
		detail = e.Crypto.String()
	case KindProtocol:
		detail = e.Status.String()
	}
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("desfire: %s: %s %s: %v", e.Op, e.Kind, detail, e.Err)
		}
		return fmt.Sprintf("desfire: %s: %s %s", e.Op, e.Kind, detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("desfire: %s %s: %v", e.Kind, detail, e.Err)
	}
	return fmt.Sprintf("desfire: %s %s", e.Kind, detail)
}

func (e *Error) Unwrap() error { return e.Err }

func transportErr(op string, reason TransportReason, cause error) *Error {
	return &Error{Kind: KindTransport, Transport: reason, Op: op, Err: cause}
}

func framingErr(op string, reason FramingReason, cause error) *Error {
	return &Error{Kind: KindFraming, Framing: reason, Op: op, Err: cause}
}

func cryptoErr(op string, reason CryptoReason, cause error) *Error {
	return &Error{Kind: KindCrypto, Crypto: reason, Op: op, Err: cause}
}

// protocolErr maps a non-control status byte to a Protocol-kind Error.
// Callers must not invoke it for 0x00/0xAF; mapStatus enforces this.
func protocolErr(op string, status Status) *Error {
	return &Error{Kind: KindProtocol, Status: status, Op: op}
}

// mapStatus maps a raw response status byte to an *Error, or (nil, true)
// if the byte is a control value (P7: status mapping totality).
func mapStatus(op string, raw byte) (*Error, bool) {
	s := Status(raw)
	if s.IsControl() {
		return nil, true
	}
	return protocolErr(op, s), false
}

// IsKind reports whether err is a *desfire.Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
