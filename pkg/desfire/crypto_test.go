package desfire

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// NIST SP 800-38B D.2: AES-128 CMAC test vectors.
func TestCMACNISTVectors(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	k1, k2 := cmacSubkeys(block)

	wantK1 := mustHex(t, "fbeed618357133667c85e08f7236a8de")
	wantK2 := mustHex(t, "f7ddac306ae266ccf90bc11ee46d513b")
	if !bytes.Equal(k1, wantK1) {
		t.Fatalf("K1 = %x, want %x", k1, wantK1)
	}
	if !bytes.Equal(k2, wantK2) {
		t.Fatalf("K2 = %x, want %x", k2, wantK2)
	}

	zero := make([]byte, 16)
	cases := []struct {
		msg  []byte
		want []byte
	}{
		{nil, mustHex(t, "bb1d6929e95937287fa37d129b756746")},
		{mustHex(t, "6bc1bee22e409f96e93d7e117393172a"), mustHex(t, "070a16b46b4d4144f79bdd9dd04a287c")},
		{mustHex(t, "6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c9eb76fac45af8e5130c81c46a35ce411"), mustHex(t, "dfa66747de9ae63030ca32611497c827")},
	}
	for i, tc := range cases {
		got := cmac(block, k1, k2, zero, tc.msg)
		if !bytes.Equal(got, tc.want) {
			t.Errorf("case %d: cmac = %x, want %x", i, got, tc.want)
		}
	}
}

func TestCRC16DESFireNonzeroAndDeterministic(t *testing.T) {
	// 0x00 0x00 0x00 over the DESFire CRC16 (poly 0x8408, init 0x6363).
	got := crc16DESFire([]byte{0x00, 0x00, 0x00})
	if got == 0 {
		t.Fatalf("expected nonzero CRC16 over zero bytes with nonzero init")
	}
	// Same input must be deterministic.
	if got2 := crc16DESFire([]byte{0x00, 0x00, 0x00}); got != got2 {
		t.Fatalf("CRC16 not deterministic: %x vs %x", got, got2)
	}
}

func TestCRC32DESFireNonzeroAndDeterministic(t *testing.T) {
	got := crc32DESFire([]byte("123456789"))
	// Standard CRC-32 (poly 0xEDB88320, init 0xFFFFFFFF, no final XOR here
	// since DESFire folds the complement into the checksum bytes directly)
	// check value over the ASCII test string is 0xCBF43926 for the
	// classic CRC-32; DESFire's variant omits the final invert, so just
	// assert determinism and non-triviality here.
	if got == 0 {
		t.Fatalf("expected nonzero CRC32")
	}
	if got2 := crc32DESFire([]byte("123456789")); got != got2 {
		t.Fatalf("CRC32 not deterministic: %x vs %x", got, got2)
	}
}

func TestPadISO9797M2RoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	padded := padISO9797M2(data, 16)
	if len(padded) != 16 {
		t.Fatalf("expected 16-byte padding, got %d", len(padded))
	}
	unpadded, err := unpadISO9797M2(padded)
	if err != nil {
		t.Fatalf("unpad: %v", err)
	}
	if !bytes.Equal(unpadded, data) {
		t.Fatalf("unpad = %x, want %x", unpadded, data)
	}
}

func TestPadISO9797M2ExactBlockAddsFullPadBlock(t *testing.T) {
	data := make([]byte, 16)
	padded := padISO9797M2(data, 16)
	if len(padded) != 32 {
		t.Fatalf("expected 32 bytes (one pad block appended), got %d", len(padded))
	}
}

func TestCBCEncryptDecryptRoundTrip(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	iv := make([]byte, 16)
	plain := mustHex(t, "00112233445566778899aabbccddeeff0123456789abcdeffedcba9876543210")[:32]
	ct := cbcEncrypt(block, iv, plain)
	pt := cbcDecrypt(block, iv, ct)
	if !bytes.Equal(pt, plain) {
		t.Fatalf("round trip mismatch: got %x, want %x", pt, plain)
	}
}

func TestClearParityBit0(t *testing.T) {
	in := []byte{0xFF, 0x01, 0x02}
	out := clearParityBit0(in)
	want := []byte{0xFE, 0x00, 0x02}
	if !bytes.Equal(out, want) {
		t.Fatalf("clearParityBit0 = %x, want %x", out, want)
	}
}

func TestRotateLeftRight1(t *testing.T) {
	in := []byte{1, 2, 3, 4}
	left := rotateLeft1(in)
	if !bytes.Equal(left, []byte{2, 3, 4, 1}) {
		t.Fatalf("rotateLeft1 = %v", left)
	}
	back := rotateRight1(left)
	if !bytes.Equal(back, in) {
		t.Fatalf("rotateRight1(rotateLeft1(x)) = %v, want %v", back, in)
	}
}
