package desfire

import (
	"bytes"
	"testing"
)

func TestWriteDataCommandChunksMatchSingleShotWrap(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	cmdSession, mirror := twoAuthenticatedSessions(t, SchemeAES, key)

	data := bytes.Repeat([]byte{0x42}, 130) // forces several 52-byte frames
	wr := &WriteDataCommand{FileNo: 3, Offset: 10, Data: data, FileMode: ModeMAC, ChunkSize: 52}

	var frames [][]byte
	for {
		req, err := wr.BuildRequest(cmdSession)
		if err != nil {
			t.Fatalf("BuildRequest: %v", err)
		}
		frames = append(frames, req.Body)
		if wr.sent >= len(wr.wrapped) {
			break
		}
	}
	if err := wr.ParseResponse(cmdSession, byte(StatusOK), nil); err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if !wr.IsComplete() {
		t.Fatalf("expected WriteDataCommand to report complete")
	}

	header := append([]byte{wr.FileNo}, le24(wr.Offset)...)
	header = append(header, le24(len(data))...)
	wantWrapped, err := wrapFileWrite(mirror, ModeMAC, cmdWriteData, header, data)
	if err != nil {
		t.Fatalf("wrapFileWrite: %v", err)
	}

	// frames[0] carries header‖firstChunk; every later frame is a bare
	// continuation chunk.
	got := append([]byte{}, frames[0][len(header):]...)
	for _, f := range frames[1:] {
		got = append(got, f...)
	}
	if !bytes.Equal(got, wantWrapped) {
		t.Fatalf("reassembled wrapped data mismatch:\n got  %x\n want %x", got, wantWrapped)
	}
	if !bytes.Equal(cmdSession.iv, mirror.iv) {
		t.Fatalf("IV desynced after write: cmd=%x mirror=%x", cmdSession.iv, mirror.iv)
	}
}

func TestReadDataCommandReassemblesMultiFrameENCResponse(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	card, client := twoAuthenticatedSessions(t, SchemeAES, key)

	payload := bytes.Repeat([]byte{0x7A}, 100)
	wireBytes := wrapResponseForTest(t, card, ModeEnc, byte(StatusOK), payload)

	rd := &ReadDataCommand{FileNo: 2, Offset: 0, Length: len(payload), FileMode: ModeEnc}
	if _, err := rd.BuildRequest(client); err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	const frame = 52
	for off := 0; off < len(wireBytes); off += frame {
		end := off + frame
		if end > len(wireBytes) {
			end = len(wireBytes)
		}
		status := byte(StatusAdditionalFrame)
		if end == len(wireBytes) {
			status = byte(StatusOK)
		}
		if err := rd.ParseResponse(client, status, wireBytes[off:end]); err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
	}
	if !rd.IsComplete() {
		t.Fatalf("expected ReadDataCommand to report complete")
	}
	if !bytes.Equal(rd.Data(), payload) {
		t.Fatalf("Data() = %x, want %x", rd.Data(), payload)
	}
}

func TestReadDataCommandSingleFrameNoChunking(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	card, client := twoAuthenticatedSessions(t, SchemeAES, key)

	payload := []byte("short")
	wireBytes := wrapResponseForTest(t, card, ModePlain, byte(StatusOK), payload)

	rd := &ReadDataCommand{FileNo: 1, Length: len(payload), FileMode: ModePlain}
	if _, err := rd.BuildRequest(client); err != nil {
		t.Fatal(err)
	}
	if err := rd.ParseResponse(client, byte(StatusOK), wireBytes); err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if !bytes.Equal(rd.Data(), payload) {
		t.Fatalf("Data() = %q, want %q", rd.Data(), payload)
	}
}
