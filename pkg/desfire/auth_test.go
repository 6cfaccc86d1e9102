package desfire

import (
	"bytes"
	"crypto/cipher"
	"testing"
	"time"
)

// scriptedAuthCard is a two-step Transceiver that plays the card side
// of one Authenticate exchange for a fixed key, driven through the
// real processor loop (card.Run). It does not model any other
// command; Name-level tests exercise file I/O separately.
type scriptedAuthCard struct {
	scheme AuthScheme
	key    []byte
	rndB   []byte

	block      cipher.Block
	lastCipher []byte
	step       int
}

func (c *scriptedAuthCard) Transceive(apdu []byte, deadline time.Duration) ([]byte, error) {
	if len(apdu) < 1 {
		return nil, framingErr("scriptedAuthCard", FramingShortFrame, nil)
	}
	body := apdu[1:]

	switch c.step {
	case 0:
		block, err := newSessionBlockCipher(c.scheme, c.key)
		if err != nil {
			return nil, err
		}
		c.block = block
		bs := block.BlockSize()
		zero := make([]byte, bs)
		ct := cbcEncrypt(block, zero, c.rndB)
		c.lastCipher = append([]byte{}, ct[len(ct)-bs:]...)
		c.step = 1
		return append([]byte{byte(StatusAdditionalFrame)}, ct...), nil

	case 1:
		bs := c.block.BlockSize()
		rndSize := len(c.rndB)
		plain := cbcDecrypt(c.block, c.lastCipher, body)
		rndA := append([]byte{}, plain[:rndSize]...)
		rndBRot := rotateRight1(plain[rndSize:])
		if !bytes.Equal(rndBRot, c.rndB) {
			return []byte{byte(StatusAuthenticationError)}, nil
		}
		expected := rotateLeft1(rndA)
		ct := append([]byte{}, body[len(body)-bs:]...)

		var reply []byte
		if c.scheme == SchemeLegacyDES {
			want := make([]byte, bs)
			xorBytes(want, expected, ct)
			reply = ecbEncryptBlock(c.block, want)
		} else {
			reply = cbcEncrypt(c.block, ct, expected)
		}
		c.step = 2
		return append([]byte{byte(StatusOK)}, reply...), nil

	default:
		return []byte{byte(StatusIllegalCommand)}, nil
	}
}

func TestAuthenticateAESSucceedsAndInstallsSessionKey(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	rndB := mustHex(t, "00112233445566778899aabbccddeeff")
	tr := &scriptedAuthCard{scheme: SchemeAES, key: key, rndB: rndB}

	card, err := OpenSession(tr, WireNative, ReaderCapabilities{MaxAPDUSize: 64})
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}

	rndA := mustHex(t, "ffeeddccbbaa99887766554433221100")
	auth := &AuthenticateCommand{
		Scheme:     SchemeAES,
		KeyNo:      2,
		Key:        key,
		RandSource: func(n int) ([]byte, error) { return rndA[:n], nil },
	}
	if err := card.Run(auth); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	s := card.Session()
	if !s.Authenticated() {
		t.Fatalf("expected session authenticated")
	}
	if s.AuthScheme() != SchemeAES {
		t.Fatalf("AuthScheme = %v, want AES", s.AuthScheme())
	}
	if s.KeyNo() != 2 {
		t.Fatalf("KeyNo = %d, want 2", s.KeyNo())
	}

	wantKey := assembleSessionKey(SchemeAES, rndA, rndB)
	if !bytes.Equal(s.sessionKey, wantKey) {
		t.Fatalf("session key = %x, want %x", s.sessionKey, wantKey)
	}
	if len(s.iv) != 16 || !bytes.Equal(s.iv, make([]byte, 16)) {
		t.Fatalf("expected zero IV immediately after authenticate, got %x", s.iv)
	}
}

func TestAuthenticateWrongKeyFails(t *testing.T) {
	cardKey := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	wrongKey := mustHex(t, "ffffffffffffffffffffffffffffffff")
	rndB := mustHex(t, "00112233445566778899aabbccddeeff")
	tr := &scriptedAuthCard{scheme: SchemeAES, key: cardKey, rndB: rndB}

	card, err := OpenSession(tr, WireNative, ReaderCapabilities{MaxAPDUSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	auth := &AuthenticateCommand{Scheme: SchemeAES, KeyNo: 0, Key: wrongKey}
	if err := card.Run(auth); err == nil {
		t.Fatalf("expected authenticate to fail with mismatched key")
	}
	if card.Session().Authenticated() {
		t.Fatalf("session must not be authenticated after a failed exchange")
	}
}

func TestAssembleSessionKeyLegacyDESClearsParityBit(t *testing.T) {
	rndA := mustHex(t, "0102030405060708")
	rndB := mustHex(t, "1112131415161718")
	key := assembleSessionKey(SchemeLegacyDES, rndA, rndB)
	if len(key) != 8 {
		t.Fatalf("legacy DES session key length = %d, want 8", len(key))
	}
	for _, b := range key {
		if b&0x01 != 0 {
			t.Fatalf("bit 0 not cleared in session key byte %x", b)
		}
	}
}
