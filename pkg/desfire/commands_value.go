package desfire

// GetValueCommand reads a value file's current balance. Single-frame
// and symmetric, so it runs through the generic pipe like the other
// header-level commands rather than needing ModeRaw.
type GetValueCommand struct {
	FileNo   byte
	FileMode CommMode
	Value    int32
	done     bool
}

func (c *GetValueCommand) Name() string      { return "GetValue" }
func (c *GetValueCommand) Mode() CommMode     { return c.FileMode }
func (c *GetValueCommand) ExpectedLen() int   { return 4 }
func (c *GetValueCommand) Reset()             { c.done = false }
func (c *GetValueCommand) IsComplete() bool   { return c.done }

func (c *GetValueCommand) BuildRequest(s *Session) (Request, error) {
	return Request{Cmd: cmdGetValue, Body: []byte{c.FileNo}}, nil
}

func (c *GetValueCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	if status == byte(StatusOK) && len(body) >= 4 {
		c.Value = decodeLE32Signed(body[:4])
	}
	return nil
}

// valueModifyCommand is the shared shape of Credit/Debit/LimitedCredit:
// a file number and a signed little-endian amount (§4.6).
type valueModifyCommand struct {
	cmd      byte
	name     string
	fileNo   byte
	amount   int32
	fileMode CommMode
	done     bool
}

func (c *valueModifyCommand) Name() string      { return c.name }
func (c *valueModifyCommand) Mode() CommMode     { return c.fileMode }
func (c *valueModifyCommand) ExpectedLen() int   { return 0 }
func (c *valueModifyCommand) Reset()             { c.done = false }
func (c *valueModifyCommand) IsComplete() bool   { return c.done }

func (c *valueModifyCommand) BuildRequest(s *Session) (Request, error) {
	body := append([]byte{c.fileNo}, le32Signed(c.amount)...)
	return Request{Cmd: c.cmd, Body: body}, nil
}

func (c *valueModifyCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}

// NewCreditCommand builds Credit (0x0C): adds amount to a value file.
func NewCreditCommand(fileNo byte, amount int32, fileMode CommMode) Command {
	return &valueModifyCommand{cmd: cmdCredit, name: "Credit", fileNo: fileNo, amount: amount, fileMode: fileMode}
}

// NewDebitCommand builds Debit (0xDC): subtracts amount from a value file.
func NewDebitCommand(fileNo byte, amount int32, fileMode CommMode) Command {
	return &valueModifyCommand{cmd: cmdDebit, name: "Debit", fileNo: fileNo, amount: amount, fileMode: fileMode}
}

// NewLimitedCreditCommand builds LimitedCredit (0x1C): a credit that is
// permitted even when the key settings forbid the full Credit command,
// bounded by the file's configured limited-credit allowance.
func NewLimitedCreditCommand(fileNo byte, amount int32, fileMode CommMode) Command {
	return &valueModifyCommand{cmd: cmdLimitedCredit, name: "LimitedCredit", fileNo: fileNo, amount: amount, fileMode: fileMode}
}
