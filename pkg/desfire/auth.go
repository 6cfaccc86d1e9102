package desfire

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
)

// authPhase tracks which of the two authenticate passes is next.
type authPhase int

const (
	authPhaseStart authPhase = iota
	authPhaseContinuation
	authPhaseDone
)

func authCommandByte(scheme AuthScheme) byte {
	switch scheme {
	case SchemeLegacyDES:
		return 0x0A
	case SchemeIso3DES:
		return 0x1A
	case SchemeAES:
		return 0xAA
	default:
		return 0x00
	}
}

// cmdAdditionalFrame is the continuation command byte (0xAF), shared
// between the authenticate second pass and chunked data commands.
const cmdAdditionalFrame = 0xAF

func rndSizeFor(scheme AuthScheme, keyLen int) int {
	switch scheme {
	case SchemeAES:
		return 16
	case SchemeIso3DES:
		if keyLen == 24 {
			return 16
		}
		return 8
	default:
		return 8
	}
}

// AuthenticateCommand drives the three-protocol two-pass Authenticate
// exchange (§4.3). It bypasses the secure pipe entirely — C5 never
// sees auth traffic — and, on success, installs the derived session
// key into the Session itself.
type AuthenticateCommand struct {
	Scheme AuthScheme
	KeyNo  byte
	Key    []byte
	// RandSource overrides the RndA source; nil uses crypto/rand.
	RandSource func(n int) ([]byte, error)

	phase      authPhase
	block      cipher.Block
	rndA       []byte
	rndB       []byte
	lastCipher []byte // last cipher block exchanged in either direction
}

func (c *AuthenticateCommand) Name() string { return "Authenticate" }

func (c *AuthenticateCommand) Reset() {
	c.phase = authPhaseStart
	c.block = nil
	c.rndA = nil
	c.rndB = nil
	c.lastCipher = nil
}

func (c *AuthenticateCommand) IsComplete() bool { return c.phase == authPhaseDone }

func (c *AuthenticateCommand) Mode() CommMode { return ModeRaw }

func (c *AuthenticateCommand) ExpectedLen() int { return 0 }

func (c *AuthenticateCommand) randBytes(n int) ([]byte, error) {
	if c.RandSource != nil {
		return c.RandSource(n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, transportErr("Authenticate", TransportReadFailed, err)
	}
	return buf, nil
}

func (c *AuthenticateCommand) BuildRequest(s *Session) (Request, error) {
	switch c.phase {
	case authPhaseStart:
		block, err := newSessionBlockCipher(c.Scheme, c.Key)
		if err != nil {
			return Request{}, err
		}
		c.block = block
		return Request{Cmd: authCommandByte(c.Scheme), Body: []byte{c.KeyNo}}, nil

	case authPhaseContinuation:
		bs := blockSizeFor(c.Scheme)
		rndSize := rndSizeFor(c.Scheme, len(c.Key))
		rndA, err := c.randBytes(rndSize)
		if err != nil {
			return Request{}, err
		}
		c.rndA = rndA

		plain := make([]byte, 0, 2*rndSize)
		plain = append(plain, rndA...)
		plain = append(plain, rotateLeft1(c.rndB)...)

		ct := cbcEncrypt(c.block, c.lastCipher[len(c.lastCipher)-bs:], plain)
		c.lastCipher = ct[len(ct)-bs:]
		return Request{Cmd: cmdAdditionalFrame, Body: ct}, nil

	default:
		return Request{}, protocolErr("Authenticate", StatusIllegalCommand)
	}
}

func (c *AuthenticateCommand) ParseResponse(s *Session, status byte, body []byte) error {
	switch c.phase {
	case authPhaseStart:
		if status != byte(StatusAdditionalFrame) {
			s.reset()
			if e, ok := mapStatus("Authenticate", status); !ok {
				return e
			}
			return protocolErr("Authenticate", StatusIllegalCommand)
		}
		bs := blockSizeFor(c.Scheme)
		rndSize := rndSizeFor(c.Scheme, len(c.Key))
		if len(body) != rndSize {
			s.reset()
			return cryptoErr("Authenticate", CryptoBadResponseSize, nil)
		}
		c.lastCipher = append([]byte(nil), body...)
		if c.Scheme == SchemeLegacyDES {
			s.recordLegacyAuthCipher(body)
		}
		zero := make([]byte, bs)
		c.rndB = cbcDecrypt(c.block, zero, body)
		c.phase = authPhaseContinuation
		return nil

	case authPhaseContinuation:
		if status != byte(StatusOK) {
			s.reset()
			if e, ok := mapStatus("Authenticate", status); !ok {
				return e
			}
			return protocolErr("Authenticate", StatusIllegalCommand)
		}
		bs := blockSizeFor(c.Scheme)
		expected := rotateLeft1(c.rndA)

		var match bool
		if c.Scheme == SchemeLegacyDES {
			enc := ecbEncryptBlock(c.block, body)
			want := make([]byte, bs)
			xorBytes(want, expected, c.lastCipher)
			match = bytes.Equal(enc, want)
		} else {
			plain := cbcDecrypt(c.block, c.lastCipher, body)
			match = bytes.Equal(plain, expected)
		}
		if !match {
			s.reset()
			return cryptoErr("Authenticate", CryptoIntegrityError, nil)
		}

		sessionKey := assembleSessionKey(c.Scheme, c.rndA, c.rndB)
		if err := s.onAuthenticated(c.Scheme, c.KeyNo, sessionKey); err != nil {
			s.reset()
			return err
		}
		c.phase = authPhaseDone
		return nil

	default:
		return protocolErr("Authenticate", StatusIllegalCommand)
	}
}

// assembleSessionKey builds the session key from RndA/RndB per the
// §4.3 table, clearing bit 0 of every byte for the DES-family schemes.
func assembleSessionKey(scheme AuthScheme, rndA, rndB []byte) []byte {
	var raw []byte
	switch scheme {
	case SchemeLegacyDES:
		raw = concatBytes(rndA[0:4], rndB[0:4])
	case SchemeIso3DES:
		if len(rndA) == 16 {
			raw = concatBytes(rndA[0:4], rndB[0:4], rndA[6:10], rndB[6:10], rndA[12:16], rndB[12:16])
		} else {
			raw = concatBytes(rndA[0:4], rndB[0:4], rndA[4:8], rndB[4:8])
		}
	case SchemeAES:
		raw = concatBytes(rndA[0:4], rndB[0:4], rndA[12:16], rndB[12:16])
		return raw
	default:
		return nil
	}
	return clearParityBit0(raw)
}

func concatBytes(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
