package desfire

import (
	"bytes"
	"testing"
)

func TestSetConfigurationATSLengthIncludedByDefault(t *testing.T) {
	c := &SetConfigurationCommand{Selector: configSelectorATS, Data: []byte{0x01, 0x02, 0x03}}
	req, err := c.BuildRequest(NewSession())
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{configSelectorATS, 0x03, 0x01, 0x02, 0x03}
	if !bytes.Equal(req.Body, want) {
		t.Fatalf("BuildRequest body = %x, want %x", req.Body, want)
	}
}

func TestSetConfigurationATSLengthOmitted(t *testing.T) {
	c := &SetConfigurationCommand{Selector: configSelectorATS, Data: []byte{0x01, 0x02, 0x03}, ATSConvention: ATSLengthOmitted}
	req, err := c.BuildRequest(NewSession())
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{configSelectorATS, 0x01, 0x02, 0x03}
	if !bytes.Equal(req.Body, want) {
		t.Fatalf("BuildRequest body = %x, want %x", req.Body, want)
	}
}

func TestSetConfigurationNonATSSelectorNeverGetsLengthPrefix(t *testing.T) {
	c := &SetConfigurationCommand{Selector: 0x00, Data: []byte{0xFF}}
	req, err := c.BuildRequest(NewSession())
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0xFF}
	if !bytes.Equal(req.Body, want) {
		t.Fatalf("BuildRequest body = %x, want %x", req.Body, want)
	}
}

func TestSetConfigurationModeIsRaw(t *testing.T) {
	c := &SetConfigurationCommand{Selector: 0x00, Data: []byte{0xFF}}
	if c.Mode() != ModeRaw {
		t.Fatalf("Mode() = %v, want ModeRaw", c.Mode())
	}
}

func TestSetConfigurationAuthenticatedEncryptsWholeBodyAndAdvancesIV(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	s := NewSession()
	if err := s.onAuthenticated(SchemeAES, 0, key); err != nil {
		t.Fatal(err)
	}
	ivBefore := append([]byte{}, s.iv...)

	c := &SetConfigurationCommand{Selector: 0x00, Data: []byte{0xFF}}
	req, err := c.BuildRequest(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Body) != 16 {
		t.Fatalf("expected one AES block of ciphertext, got %d bytes", len(req.Body))
	}
	if bytes.Equal(s.iv, ivBefore) {
		t.Fatalf("expected IV to advance after SetConfiguration")
	}

	fresh := NewSession()
	if err := fresh.onAuthenticated(SchemeAES, 0, key); err != nil {
		t.Fatal(err)
	}
	plain := cbcDecrypt(fresh.block, fresh.iv, req.Body)
	if plain[0] != 0x00 || plain[1] != 0xFF {
		t.Fatalf("decrypted selector/data = %x, want [00 FF]", plain[:2])
	}
}

func TestChangeKeySettingsUnauthenticatedIsPlain(t *testing.T) {
	c := &ChangeKeySettingsCommand{NewKeySettings: 0x0F}
	req, err := c.BuildRequest(NewSession())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(req.Body, []byte{0x0F}) {
		t.Fatalf("unauthenticated body = %x, want plain [0F]", req.Body)
	}
}

func TestChangeKeySettingsAuthenticatedEncryptsAndAdvancesIV(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	s := NewSession()
	if err := s.onAuthenticated(SchemeAES, 0, key); err != nil {
		t.Fatal(err)
	}
	ivBefore := append([]byte{}, s.iv...)

	c := &ChangeKeySettingsCommand{NewKeySettings: 0x0F}
	req, err := c.BuildRequest(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Body) != 16 {
		t.Fatalf("expected one AES block of ciphertext, got %d bytes", len(req.Body))
	}
	if bytes.Equal(s.iv, ivBefore) {
		t.Fatalf("expected IV to advance after ChangeKeySettings")
	}
}

func TestChangeKeySameSlotCryptogramRoundTrips(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	s := NewSession()
	if err := s.onAuthenticated(SchemeAES, 0, key); err != nil {
		t.Fatal(err)
	}
	newKey := mustHex(t, "ffeeddccbbaa99887766554433221100")

	c := &ChangeKeyCommand{KeyNo: 0, NewKeyType: KeyTypeAES, NewKey: newKey, NewKeyVersion: 1}
	req, err := c.BuildRequest(s)
	if err != nil {
		t.Fatal(err)
	}
	if req.Body[0] != 0 {
		t.Fatalf("expected key slot byte 0, got %d", req.Body[0])
	}
	ct := req.Body[1:]
	if len(ct)%16 != 0 {
		t.Fatalf("expected AES-block-aligned ciphertext, got %d bytes", len(ct))
	}

	// Decrypting with the session's pre-call IV must recover NewKey‖Version‖CRC32(plaintext).
	fresh := NewSession()
	if err := fresh.onAuthenticated(SchemeAES, 0, key); err != nil {
		t.Fatal(err)
	}
	plain := cbcDecrypt(fresh.block, fresh.iv, ct)
	if !bytes.Equal(plain[:16], newKey) {
		t.Fatalf("decrypted new key = %x, want %x", plain[:16], newKey)
	}
	if plain[16] != 1 {
		t.Fatalf("decrypted key version = %d, want 1", plain[16])
	}
}
