package desfire

// Command is a finite-state iterator over one DESFire operation's
// frames. It replaces the abstract-base-class dispatch of the
// original prototype with an explicit state machine: a command
// drives itself across as many 0xAF continuation frames as it needs,
// and the processor (C7) only has to keep calling it until IsComplete
// reports true.
//
// The processor (C7) applies PipeWrap/PipeUnwrap around BuildRequest
// and ParseResponse according to Mode(); a command only sees its own
// plaintext request/response bytes unless it declares ModeRaw, in
// which case it manages its own secure-pipe framing entirely.
type Command interface {
	Name() string
	// Mode is the secure-pipe mode the processor applies to this
	// command's request/response bodies. Authenticate returns
	// ModeRaw, so the pipe leaves its traffic untouched (§4.6:
	// "bypasses the pipe").
	Mode() CommMode
	// ExpectedLen is the number of useful payload bytes this command
	// expects back on this frame, used only in ModeEnc to strip the
	// checksum/padding tail. Commands that never run in ENC mode may
	// return 0.
	ExpectedLen() int
	BuildRequest(s *Session) (Request, error)
	ParseResponse(s *Session, status byte, body []byte) error
	IsComplete() bool
	Reset()
}

// chainBuffer is a small helper embedded by multi-frame read commands
// (ReadData, ReadRecords, GetApplicationIDs, GetVersion) to accumulate
// bytes across 0xAF continuations.
type chainBuffer struct {
	buf []byte
}

func (c *chainBuffer) append(b []byte) {
	c.buf = append(c.buf, b...)
}

func (c *chainBuffer) bytes() []byte {
	return c.buf
}

func (c *chainBuffer) reset() {
	c.buf = nil
}

// le24 encodes a 24-bit little-endian length/offset field, the common
// encoding for DESFire Offset/Length parameters.
func le24(v int) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16)}
}

func decodeLE24(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func decodeLE32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le32Signed(v int32) []byte {
	return le32(uint32(v))
}

func decodeLE32Signed(b []byte) int32 {
	return int32(decodeLE32(b))
}
