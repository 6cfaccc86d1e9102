package desfire

import "bytes"

// CmdCounterMode selects how the AES CMAC seed treats the command
// counter named in the authenticate state machine's open question:
// some EV-class card variants fold a per-exchange counter into the
// response CMAC input, others never touch it. Both are implemented;
// CmdCounterConstantZero is the default.
type CmdCounterMode int

const (
	CmdCounterConstantZero CmdCounterMode = iota
	CmdCounterPerExchange
)

// PipeWrap applies comm-mode protection to an outgoing command body,
// mutating the session's IV/CMAC bookkeeping (C5). cmd is the command
// byte the body will be framed under; it participates in the MAC/ENC
// checksum even though it travels outside the protected body. An
// unauthenticated session passes bodies through unchanged regardless
// of mode, matching commands issued before Authenticate.
func PipeWrap(s *Session, mode CommMode, cmd byte, body []byte) ([]byte, error) {
	if mode == ModeRaw || !s.Authenticated() {
		return body, nil
	}
	switch mode {
	case ModePlain:
		tag := s.cmacOver(append([]byte{cmd}, body...))
		s.advanceIV(tag)
		return body, nil
	case ModeMAC:
		return macWrap(s, cmd, body)
	case ModeEnc:
		return encWrap(s, cmd, body)
	default:
		return body, nil
	}
}

// PipeUnwrap reverses PipeWrap on an incoming response. expectedLen is
// the number of useful payload bytes the issuing command expects (read
// operations know this from their own request); it is ignored in PLAIN
// and MAC modes, where the whole body minus any trailing MAC is the
// payload. A verification failure returns Crypto.IntegrityError but
// still advances IV exactly as a successful exchange would, so the
// session stays in lockstep with the card across a retried command.
func PipeUnwrap(s *Session, mode CommMode, status byte, body []byte, expectedLen int) ([]byte, error) {
	if mode == ModeRaw || !s.Authenticated() {
		return body, nil
	}
	switch mode {
	case ModePlain:
		tag := s.cmacOver(append([]byte{status}, body...))
		s.advanceIV(tag)
		return body, nil
	case ModeMAC:
		return macUnwrap(s, status, body)
	case ModeEnc:
		return encUnwrap(s, status, body, expectedLen)
	default:
		return body, nil
	}
}

func macLenFor(scheme AuthScheme) int {
	if scheme == SchemeLegacyDES {
		return 4
	}
	return 8
}

func macWrap(s *Session, cmd byte, body []byte) ([]byte, error) {
	data := append([]byte{cmd}, body...)
	full := rawMAC(s, data)
	s.advanceIV(full)
	mac := truncateMAC(full, macLenFor(s.authScheme))
	out := make([]byte, 0, len(body)+len(mac))
	out = append(out, body...)
	out = append(out, mac...)
	return out, nil
}

func macUnwrap(s *Session, status byte, body []byte) ([]byte, error) {
	n := macLenFor(s.authScheme)
	if len(body) < n {
		return nil, cryptoErr("pipe.unwrap", CryptoBadResponseSize, nil)
	}
	payload := body[:len(body)-n]
	gotMAC := body[len(body)-n:]

	data := append([]byte{status}, payload...)
	if s.authScheme == SchemeAES {
		data = appendCounter(s, data)
	}
	full := rawMAC(s, data)
	s.advanceIV(full)

	wantMAC := truncateMAC(full, n)
	if !bytes.Equal(gotMAC, wantMAC) {
		return payload, cryptoErr("pipe.unwrap", CryptoIntegrityError, nil)
	}
	advanceCmdCounter(s)
	return payload, nil
}

// rawMAC computes the scheme's request/response authentication tag
// chained from the session's current IV: CMAC for AES, a zero-padded
// CBC-MAC for the DES-family schemes.
func rawMAC(s *Session, data []byte) []byte {
	if s.authScheme == SchemeAES {
		return s.cmacOver(data)
	}
	bs := blockSizeFor(s.authScheme)
	enc := cbcEncrypt(s.block, s.iv, padZero(data, bs))
	return enc[len(enc)-bs:]
}

// truncateMAC shortens a full MAC block to n bytes. A block at least
// twice n long (the 16-byte AES CMAC) keeps every other byte starting at
// index 1, the DESFire CMAC truncation convention; a shorter block (the
// 8-byte DES-family CBC-MAC) keeps its leading n bytes.
func truncateMAC(full []byte, n int) []byte {
	if len(full) < 2*n {
		return append([]byte(nil), full[:n]...)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = full[1+i*2]
	}
	return out
}

func encWrap(s *Session, cmd byte, body []byte) ([]byte, error) {
	bs := blockSizeFor(s.authScheme)
	checksumInput := append([]byte{cmd}, body...)

	plain := append([]byte{}, body...)
	if s.authScheme == SchemeAES {
		plain = append(plain, le32(crc32DESFire(checksumInput))...)
		plain = padISO9797M2(plain, bs)
	} else {
		plain = append(plain, crc16LE(crc16DESFire(checksumInput))...)
		plain = padZero(plain, bs)
	}

	ct := cbcEncrypt(s.block, s.iv, plain)
	s.advanceIV(ct[len(ct)-bs:])
	return ct, nil
}

func encUnwrap(s *Session, status byte, cipherBody []byte, expectedLen int) ([]byte, error) {
	bs := blockSizeFor(s.authScheme)
	if len(cipherBody) == 0 || len(cipherBody)%bs != 0 {
		return nil, framingErr("pipe.unwrap", FramingBadLength, nil)
	}
	plain := cbcDecrypt(s.block, s.iv, cipherBody)
	s.advanceIV(cipherBody[len(cipherBody)-bs:])

	if expectedLen < 0 || expectedLen > len(plain) {
		return nil, cryptoErr("pipe.unwrap", CryptoBadResponseSize, nil)
	}
	payload := plain[:expectedLen]
	rest := plain[expectedLen:]

	checksumInput := append([]byte{status}, payload...)
	if s.authScheme == SchemeAES {
		want := le32(crc32DESFire(checksumInput))
		if len(rest) < 4 || !bytes.Equal(rest[:4], want) {
			return payload, cryptoErr("pipe.unwrap", CryptoIntegrityError, nil)
		}
	} else {
		want := crc16LE(crc16DESFire(checksumInput))
		if len(rest) < 2 || !bytes.Equal(rest[:2], want) {
			return payload, cryptoErr("pipe.unwrap", CryptoIntegrityError, nil)
		}
	}
	advanceCmdCounter(s)
	return payload, nil
}

// appendCounter folds the 16-bit command counter into response MAC
// input when the session is configured for CmdCounterPerExchange
// (§ Open Questions: AES CMAC seed policy). Constant-zero mode omits
// it entirely rather than appending two zero bytes, since the card
// variants that don't use a counter don't expect the field at all.
func appendCounter(s *Session, data []byte) []byte {
	if s.cmdCounterMode != CmdCounterPerExchange || s.authScheme != SchemeAES {
		return data
	}
	return append(data, byte(s.cmdCounter), byte(s.cmdCounter>>8))
}

func advanceCmdCounter(s *Session) {
	if s.cmdCounterMode == CmdCounterPerExchange && s.authScheme == SchemeAES {
		s.cmdCounter++
	}
}

// wrapFileWrite protects a file-data command's outgoing cryptogram when
// the protected field (Data) is only part of the request — the header
// (file number, offset, length and similar framing parameters) is
// always sent in the clear, but the checksum/MAC that authenticates the
// exchange covers cmd‖header‖data in full, matching GetKeySettings'
// asymmetric request/response protection (§4.6). Chunked commands
// (WriteData, WriteRecord) call this once over the complete plaintext
// before splitting the result into 0xAF-sized frames, since CBC/CBC-MAC
// computed over the whole message at once is identical to computing it
// incrementally frame by frame.
func wrapFileWrite(s *Session, mode CommMode, cmd byte, header, data []byte) ([]byte, error) {
	if mode == ModeRaw || !s.Authenticated() {
		return data, nil
	}
	full := append(append([]byte{cmd}, header...), data...)
	switch mode {
	case ModePlain:
		tag := s.cmacOver(full)
		s.advanceIV(tag)
		return data, nil
	case ModeMAC:
		tagFull := rawMAC(s, full)
		s.advanceIV(tagFull)
		mac := truncateMAC(tagFull, macLenFor(s.authScheme))
		out := append(append([]byte{}, data...), mac...)
		return out, nil
	case ModeEnc:
		bs := blockSizeFor(s.authScheme)
		plain := append([]byte{}, data...)
		if s.authScheme == SchemeAES {
			plain = append(plain, le32(crc32DESFire(full))...)
			plain = padISO9797M2(plain, bs)
		} else {
			plain = append(plain, crc16LE(crc16DESFire(full))...)
			plain = padZero(plain, bs)
		}
		ct := cbcEncrypt(s.block, s.iv, plain)
		s.advanceIV(ct[len(ct)-bs:])
		return ct, nil
	default:
		return data, nil
	}
}
