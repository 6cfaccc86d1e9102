package desfire

import (
	"bytes"
	"testing"
)

func TestAccessRightsPackUnpackRoundTrip(t *testing.T) {
	want := AccessRights{RW: 0x1, CAR: 0x2, R: 0x3, W: 0xE}
	got := unpackAccessRights(want.pack())
	if got != want {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
}

func TestCreateStdDataFileBodyShape(t *testing.T) {
	rights := AccessRights{RW: 0, CAR: 0, R: 0xE, W: 0}
	cmd := NewCreateStdDataFileCommand(1, 0x00, rights, 256)
	req, err := cmd.BuildRequest(NewSession())
	if err != nil {
		t.Fatal(err)
	}
	if req.Cmd != cmdCreateStdDataFile {
		t.Fatalf("Cmd = %#x, want %#x", req.Cmd, cmdCreateStdDataFile)
	}
	want := append([]byte{1, 0x00}, rights.pack()...)
	want = append(want, le24(256)...)
	if !bytes.Equal(req.Body, want) {
		t.Fatalf("Body = %x, want %x", req.Body, want)
	}
}

func TestGetFileSettingsParsesStdDataFile(t *testing.T) {
	rights := AccessRights{RW: 1, CAR: 2, R: 3, W: 4}
	body := append([]byte{byte(FileTypeStdData), 0x03}, rights.pack()...)
	body = append(body, le24(512)...)

	c := &GetFileSettingsCommand{FileNo: 1}
	if err := c.ParseResponse(NewSession(), byte(StatusOK), body); err != nil {
		t.Fatal(err)
	}
	if c.Settings.Type != FileTypeStdData || c.Settings.FileSize != 512 || c.Settings.Rights != rights {
		t.Fatalf("Settings = %+v", c.Settings)
	}
}

func TestChangeFileSettingsUnauthenticatedIsPlainWithFileNoClear(t *testing.T) {
	rights := AccessRights{RW: 1, CAR: 2, R: 3, W: 4}
	c := &ChangeFileSettingsCommand{FileNo: 7, CommSettings: 0x03, Rights: rights}
	req, err := c.BuildRequest(NewSession())
	if err != nil {
		t.Fatal(err)
	}
	want := append([]byte{7, 0x03}, rights.pack()...)
	if !bytes.Equal(req.Body, want) {
		t.Fatalf("unauthenticated body = %x, want %x", req.Body, want)
	}
}

func TestChangeFileSettingsAuthenticatedKeepsFileNoClearEncryptsRest(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	s := NewSession()
	if err := s.onAuthenticated(SchemeAES, 0, key); err != nil {
		t.Fatal(err)
	}
	ivBefore := append([]byte{}, s.iv...)

	rights := AccessRights{RW: 1, CAR: 2, R: 3, W: 4}
	c := &ChangeFileSettingsCommand{FileNo: 7, CommSettings: 0x03, Rights: rights}
	req, err := c.BuildRequest(s)
	if err != nil {
		t.Fatal(err)
	}
	if req.Body[0] != 7 {
		t.Fatalf("file number = %d, want 7 (clear)", req.Body[0])
	}
	ct := req.Body[1:]
	if len(ct)%16 != 0 {
		t.Fatalf("expected AES-block-aligned ciphertext, got %d bytes", len(ct))
	}
	if bytes.Equal(s.iv, ivBefore) {
		t.Fatalf("expected IV to advance after ChangeFileSettings")
	}

	fresh := NewSession()
	if err := fresh.onAuthenticated(SchemeAES, 0, key); err != nil {
		t.Fatal(err)
	}
	plain := cbcDecrypt(fresh.block, fresh.iv, ct)
	want := append([]byte{0x03}, rights.pack()...)
	if !bytes.Equal(plain[:3], want) {
		t.Fatalf("decrypted commSettings/rights = %x, want %x", plain[:3], want)
	}
}

func TestGetFileSettingsParsesValueFile(t *testing.T) {
	rights := AccessRights{}
	body := append([]byte{byte(FileTypeValue), 0x00}, rights.pack()...)
	body = append(body, le32Signed(-100)...)
	body = append(body, le32Signed(1000)...)
	body = append(body, le32Signed(50)...)
	body = append(body, 1)

	c := &GetFileSettingsCommand{}
	if err := c.ParseResponse(NewSession(), byte(StatusOK), body); err != nil {
		t.Fatal(err)
	}
	if c.Settings.LowerLimit != -100 || c.Settings.UpperLimit != 1000 || c.Settings.Value != 50 || !c.Settings.LimitedCreditEnabled {
		t.Fatalf("Settings = %+v", c.Settings)
	}
}
