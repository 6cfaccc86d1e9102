package desfire

// GetKeySettingsCommand reads the application's key settings byte and
// key count. Request is empty (effectively PLAIN); the response is
// MAC-protected once authenticated. The two directions differ, so the
// command applies that protection itself (ModeRaw).
type GetKeySettingsCommand struct {
	KeySettings byte
	NumKeys     byte
	done        bool
}

func (c *GetKeySettingsCommand) Name() string    { return "GetKeySettings" }
func (c *GetKeySettingsCommand) Mode() CommMode   { return ModeRaw }
func (c *GetKeySettingsCommand) ExpectedLen() int { return 0 }
func (c *GetKeySettingsCommand) Reset()           { c.done = false }
func (c *GetKeySettingsCommand) IsComplete() bool { return c.done }

func (c *GetKeySettingsCommand) BuildRequest(s *Session) (Request, error) {
	if _, err := PipeWrap(s, ModePlain, cmdGetKeySettings, nil); err != nil {
		return Request{}, err
	}
	return Request{Cmd: cmdGetKeySettings}, nil
}

func (c *GetKeySettingsCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	body, err := PipeUnwrap(s, ModeMAC, status, body, 0)
	if err != nil {
		return err
	}
	if status == byte(StatusOK) && len(body) >= 2 {
		c.KeySettings = body[0]
		c.NumKeys = body[1]
	}
	return nil
}

// ChangeKeySettingsCommand updates the application's key settings
// byte. The request body is ENC-protected; the card's acknowledgement
// carries no encrypted payload, so the command manages its own
// request encryption (ModeRaw) rather than running through the
// generic symmetric pipe.
type ChangeKeySettingsCommand struct {
	NewKeySettings byte
	done           bool
}

func (c *ChangeKeySettingsCommand) Name() string    { return "ChangeKeySettings" }
func (c *ChangeKeySettingsCommand) Mode() CommMode   { return ModeRaw }
func (c *ChangeKeySettingsCommand) ExpectedLen() int { return 0 }
func (c *ChangeKeySettingsCommand) Reset()           { c.done = false }
func (c *ChangeKeySettingsCommand) IsComplete() bool { return c.done }

func (c *ChangeKeySettingsCommand) BuildRequest(s *Session) (Request, error) {
	if !s.Authenticated() {
		return Request{Cmd: cmdChangeKeySettings, Body: []byte{c.NewKeySettings}}, nil
	}
	bs := blockSizeFor(s.authScheme)
	checksumInput := []byte{cmdChangeKeySettings, c.NewKeySettings}

	plain := []byte{c.NewKeySettings}
	if s.authScheme == SchemeAES {
		plain = append(plain, le32(crc32DESFire(checksumInput))...)
		plain = padISO9797M2(plain, bs)
	} else {
		plain = append(plain, crc16LE(crc16DESFire(checksumInput))...)
		plain = padZero(plain, bs)
	}

	ct := cbcEncrypt(s.block, s.iv, plain)
	s.advanceIV(ct[len(ct)-bs:])
	return Request{Cmd: cmdChangeKeySettings, Body: ct}, nil
}

func (c *ChangeKeySettingsCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}

// configSelectorATS is the SetConfiguration selector that replaces the
// PICC's ATS bytes; it is the one selector affected by the TL-byte
// convention ambiguity below.
const configSelectorATS = 0x02

// ATSLengthConvention selects whether a SetConfiguration ATS payload
// (selector configSelectorATS) is prefixed with its own length byte,
// placed right after the selector byte, an ambiguity the source material never
// resolved cleanly (§ Open Questions: both conventions are observed on
// real readers). Defaults to ATSLengthIncluded, matching the more
// common reader SDK behavior; callers that observe a reader rejecting
// the configured ATS should try ATSLengthOmitted instead.
type ATSLengthConvention int

const (
	ATSLengthIncluded ATSLengthConvention = iota
	ATSLengthOmitted
)

// SetConfigurationCommand writes a PICC configuration option (flags or
// ATS bytes). The request body is ENC-protected; like ChangeKeySettings,
// the card's acknowledgement carries no encrypted payload, so the
// command manages its own request encryption (ModeRaw) rather than
// running through the generic symmetric pipe.
type SetConfigurationCommand struct {
	Selector      byte
	Data          []byte
	ATSConvention ATSLengthConvention
	done          bool
}

func (c *SetConfigurationCommand) Name() string    { return "SetConfiguration" }
func (c *SetConfigurationCommand) Mode() CommMode   { return ModeRaw }
func (c *SetConfigurationCommand) ExpectedLen() int { return 0 }
func (c *SetConfigurationCommand) Reset()           { c.done = false }
func (c *SetConfigurationCommand) IsComplete() bool { return c.done }

func (c *SetConfigurationCommand) BuildRequest(s *Session) (Request, error) {
	data := c.Data
	if c.Selector == configSelectorATS && c.ATSConvention == ATSLengthIncluded {
		data = append([]byte{byte(len(c.Data))}, c.Data...)
	}
	plain := append([]byte{c.Selector}, data...)

	if !s.Authenticated() {
		return Request{Cmd: cmdSetConfiguration, Body: plain}, nil
	}

	bs := blockSizeFor(s.authScheme)
	checksumInput := append([]byte{cmdSetConfiguration}, plain...)

	ct := append([]byte{}, plain...)
	if s.authScheme == SchemeAES {
		ct = append(ct, le32(crc32DESFire(checksumInput))...)
		ct = padISO9797M2(ct, bs)
	} else {
		ct = append(ct, crc16LE(crc16DESFire(checksumInput))...)
		ct = padZero(ct, bs)
	}

	ct = cbcEncrypt(s.block, s.iv, ct)
	s.advanceIV(ct[len(ct)-bs:])
	return Request{Cmd: cmdSetConfiguration, Body: ct}, nil
}

func (c *SetConfigurationCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}

// ChangeKeyIVSeed selects which IV seeds a legacy DES ChangeKey's ENC
// cryptogram (§ Open Questions).
type ChangeKeyIVSeed int

const (
	ChangeKeyIVCurrent ChangeKeyIVSeed = iota
	ChangeKeyIVZero
	ChangeKeyIVLegacyAuthCipher
)

// ChangeKeyCommand installs a new key into a key slot. Its cryptogram
// shape depends on whether the same key/type is being changed in
// place or a different key slot/type is targeted (§4.6); it manages
// its own ENC encryption (ModeRaw) because the IV seed is selectable
// and the cryptogram isn't simple body‖checksum.
type ChangeKeyCommand struct {
	KeyNo         byte
	NewKeyType    KeyType
	NewKey        []byte
	NewKeyVersion byte // AES only
	OldKey        []byte // empty => same key/type cryptogram
	IVSeed        ChangeKeyIVSeed
	done          bool
}

func (c *ChangeKeyCommand) Name() string    { return "ChangeKey" }
func (c *ChangeKeyCommand) Mode() CommMode   { return ModeRaw }
func (c *ChangeKeyCommand) ExpectedLen() int { return 0 }
func (c *ChangeKeyCommand) Reset()           { c.done = false }
func (c *ChangeKeyCommand) IsComplete() bool { return c.done }

func (c *ChangeKeyCommand) BuildRequest(s *Session) (Request, error) {
	if !s.Authenticated() {
		return Request{}, protocolErr("ChangeKey", StatusAuthenticationError)
	}
	bs := blockSizeFor(s.authScheme)
	isAES := s.authScheme == SchemeAES
	sameKeySlot := len(c.OldKey) == 0

	var plain []byte
	if sameKeySlot {
		plain = append(plain, c.NewKey...)
		if isAES {
			plain = append(plain, c.NewKeyVersion)
		}
		crcScope := append([]byte{cmdChangeKey, c.KeyNo}, c.NewKey...)
		if isAES {
			crcScope = append(crcScope, c.NewKeyVersion)
			plain = append(plain, le32(crc32DESFire(crcScope))...)
		} else {
			plain = append(plain, crc16LE(crc16DESFire(crcScope))...)
		}
	} else {
		xored := make([]byte, len(c.NewKey))
		xorBytes(xored, c.NewKey, c.OldKey)
		plain = append(plain, xored...)
		if isAES {
			plain = append(plain, c.NewKeyVersion)
		}
		if isAES {
			plain = append(plain, le32(crc32DESFire(c.NewKey))...)
			plain = append(plain, le32(crc32DESFire(xored))...)
		} else {
			plain = append(plain, crc16LE(crc16DESFire(c.NewKey))...)
			plain = append(plain, crc16LE(crc16DESFire(xored))...)
		}
	}

	if isAES {
		plain = padISO9797M2(plain, bs)
	} else {
		plain = padZero(plain, bs)
	}

	iv := s.iv
	switch c.IVSeed {
	case ChangeKeyIVZero:
		iv = make([]byte, bs)
	case ChangeKeyIVLegacyAuthCipher:
		if len(s.legacyAuthCipher) == bs {
			iv = s.legacyAuthCipher
		}
	}

	ct := cbcEncrypt(s.block, iv, plain)
	s.advanceIV(ct[len(ct)-bs:])

	body := append([]byte{c.KeyNo}, ct...)
	return Request{Cmd: cmdChangeKey, Body: body}, nil
}

func (c *ChangeKeyCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}
