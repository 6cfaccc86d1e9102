package desfire

// SelectApplication selects an AID (0x000000 selects the PICC level).
// Success resets the session's authentication state (P6); a rejected
// select leaves the session exactly as it was.
type SelectApplicationCommand struct {
	AID  [3]byte
	done bool
}

func (c *SelectApplicationCommand) Name() string      { return "SelectApplication" }
func (c *SelectApplicationCommand) Mode() CommMode     { return ModePlain }
func (c *SelectApplicationCommand) ExpectedLen() int   { return 0 }
func (c *SelectApplicationCommand) Reset()             { c.done = false }
func (c *SelectApplicationCommand) IsComplete() bool   { return c.done }

func (c *SelectApplicationCommand) BuildRequest(s *Session) (Request, error) {
	return Request{Cmd: cmdSelectApplication, Body: append([]byte{}, c.AID[:]...)}, nil
}

func (c *SelectApplicationCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	if status == byte(StatusOK) {
		s.selectApplication(c.AID)
	}
	return nil
}

// GetApplicationIDsCommand lists every AID on the PICC, 3 bytes each,
// across as many 0xAF frames as the card needs.
type GetApplicationIDsCommand struct {
	chainBuffer
	started bool
	done    bool
}

func (c *GetApplicationIDsCommand) Name() string    { return "GetApplicationIDs" }
func (c *GetApplicationIDsCommand) Mode() CommMode   { return ModePlain }
func (c *GetApplicationIDsCommand) ExpectedLen() int { return 0 }
func (c *GetApplicationIDsCommand) IsComplete() bool { return c.done }

func (c *GetApplicationIDsCommand) Reset() {
	c.chainBuffer.reset()
	c.started = false
	c.done = false
}

func (c *GetApplicationIDsCommand) BuildRequest(s *Session) (Request, error) {
	if !c.started {
		c.started = true
		return Request{Cmd: cmdGetApplicationIDs}, nil
	}
	return Request{Cmd: cmdAdditionalFrame}, nil
}

func (c *GetApplicationIDsCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.append(body)
	if status == byte(StatusOK) {
		c.done = true
	}
	return nil
}

// AIDs decodes the accumulated payload into 3-byte application IDs.
func (c *GetApplicationIDsCommand) AIDs() [][3]byte {
	buf := c.bytes()
	out := make([][3]byte, 0, len(buf)/3)
	for i := 0; i+3 <= len(buf); i += 3 {
		var aid [3]byte
		copy(aid[:], buf[i:i+3])
		out = append(out, aid)
	}
	return out
}

// CreateApplicationCommand creates a new application. Body is PLAIN;
// the exchange is MAC-protected once authenticated on the PICC (§4.6).
type CreateApplicationCommand struct {
	AID         [3]byte
	KeySettings byte
	NumKeys     byte
	done        bool
}

func (c *CreateApplicationCommand) Name() string    { return "CreateApplication" }
func (c *CreateApplicationCommand) Mode() CommMode   { return ModeMAC }
func (c *CreateApplicationCommand) ExpectedLen() int { return 0 }
func (c *CreateApplicationCommand) Reset()           { c.done = false }
func (c *CreateApplicationCommand) IsComplete() bool { return c.done }

func (c *CreateApplicationCommand) BuildRequest(s *Session) (Request, error) {
	body := append(append([]byte{}, c.AID[:]...), c.KeySettings, c.NumKeys)
	return Request{Cmd: cmdCreateApplication, Body: body}, nil
}

func (c *CreateApplicationCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}

// DeleteApplicationCommand deletes an application by AID.
type DeleteApplicationCommand struct {
	AID  [3]byte
	done bool
}

func (c *DeleteApplicationCommand) Name() string    { return "DeleteApplication" }
func (c *DeleteApplicationCommand) Mode() CommMode   { return ModeMAC }
func (c *DeleteApplicationCommand) ExpectedLen() int { return 0 }
func (c *DeleteApplicationCommand) Reset()           { c.done = false }
func (c *DeleteApplicationCommand) IsComplete() bool { return c.done }

func (c *DeleteApplicationCommand) BuildRequest(s *Session) (Request, error) {
	return Request{Cmd: cmdDeleteApplication, Body: append([]byte{}, c.AID[:]...)}, nil
}

func (c *DeleteApplicationCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}

// FormatPICCCommand erases every application on the card (supplemented
// from original_source; outside spec.md's Non-goals).
type FormatPICCCommand struct{ done bool }

func (c *FormatPICCCommand) Name() string    { return "FormatPICC" }
func (c *FormatPICCCommand) Mode() CommMode   { return ModeMAC }
func (c *FormatPICCCommand) ExpectedLen() int { return 0 }
func (c *FormatPICCCommand) Reset()           { c.done = false }
func (c *FormatPICCCommand) IsComplete() bool { return c.done }

func (c *FormatPICCCommand) BuildRequest(s *Session) (Request, error) {
	return Request{Cmd: cmdFormatPICC}, nil
}

func (c *FormatPICCCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}

// GetVersionCommand reads the fixed three-frame HW/SW/UID version
// structure (supplemented from original_source).
type GetVersionCommand struct {
	chainBuffer
	started bool
	done    bool
}

func (c *GetVersionCommand) Name() string    { return "GetVersion" }
func (c *GetVersionCommand) Mode() CommMode   { return ModePlain }
func (c *GetVersionCommand) ExpectedLen() int { return 0 }
func (c *GetVersionCommand) IsComplete() bool { return c.done }

func (c *GetVersionCommand) Reset() {
	c.chainBuffer.reset()
	c.started = false
	c.done = false
}

func (c *GetVersionCommand) BuildRequest(s *Session) (Request, error) {
	if !c.started {
		c.started = true
		return Request{Cmd: cmdGetVersion}, nil
	}
	return Request{Cmd: cmdAdditionalFrame}, nil
}

func (c *GetVersionCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.append(body)
	if status == byte(StatusOK) {
		c.done = true
	}
	return nil
}

// Data returns the accumulated three-frame version structure once the
// command completes.
func (c *GetVersionCommand) Data() []byte { return c.bytes() }

// GetKeyVersionCommand reads a key slot's version byte (supplemented).
type GetKeyVersionCommand struct {
	KeyNo   byte
	Version byte
	done    bool
}

func (c *GetKeyVersionCommand) Name() string    { return "GetKeyVersion" }
func (c *GetKeyVersionCommand) Mode() CommMode   { return ModePlain }
func (c *GetKeyVersionCommand) ExpectedLen() int { return 0 }
func (c *GetKeyVersionCommand) Reset()           { c.done = false }
func (c *GetKeyVersionCommand) IsComplete() bool { return c.done }

func (c *GetKeyVersionCommand) BuildRequest(s *Session) (Request, error) {
	return Request{Cmd: cmdGetKeyVersion, Body: []byte{c.KeyNo}}, nil
}

func (c *GetKeyVersionCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	if status == byte(StatusOK) && len(body) >= 1 {
		c.Version = body[0]
	}
	return nil
}
