package desfire

import (
	"bytes"
	"testing"
)

func TestGetValueCommandParsesSignedBalance(t *testing.T) {
	c := &GetValueCommand{FileNo: 1, FileMode: ModePlain}
	req, err := c.BuildRequest(NewSession())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(req.Body, []byte{1}) {
		t.Fatalf("request body = %x, want [01]", req.Body)
	}

	body := le32Signed(-5)
	if err := c.ParseResponse(NewSession(), byte(StatusOK), body); err != nil {
		t.Fatal(err)
	}
	if c.Value != -5 {
		t.Fatalf("Value = %d, want -5", c.Value)
	}
	if !c.IsComplete() {
		t.Fatalf("expected GetValueCommand complete")
	}
}

func TestCreditDebitLimitedCreditBodyShape(t *testing.T) {
	cases := []struct {
		cmd     Command
		wantCmd byte
		name    string
	}{
		{NewCreditCommand(3, 100, ModeMAC), cmdCredit, "Credit"},
		{NewDebitCommand(3, 100, ModeMAC), cmdDebit, "Debit"},
		{NewLimitedCreditCommand(3, 100, ModeMAC), cmdLimitedCredit, "LimitedCredit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.cmd.Name() != tc.name {
				t.Fatalf("Name() = %q, want %q", tc.cmd.Name(), tc.name)
			}
			req, err := tc.cmd.BuildRequest(NewSession())
			if err != nil {
				t.Fatal(err)
			}
			if req.Cmd != tc.wantCmd {
				t.Fatalf("Cmd = %#x, want %#x", req.Cmd, tc.wantCmd)
			}
			want := append([]byte{3}, le32Signed(100)...)
			if !bytes.Equal(req.Body, want) {
				t.Fatalf("Body = %x, want %x", req.Body, want)
			}
			if tc.cmd.Mode() != ModeMAC {
				t.Fatalf("Mode() = %v, want MAC", tc.cmd.Mode())
			}
		})
	}
}
