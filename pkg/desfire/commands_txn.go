package desfire

// txnCommand is the shared shape of CommitTransaction/AbortTransaction:
// no parameters, MAC-protected once authenticated (§4.6).
type txnCommand struct {
	cmd  byte
	name string
	done bool
}

func (c *txnCommand) Name() string      { return c.name }
func (c *txnCommand) Mode() CommMode     { return ModeMAC }
func (c *txnCommand) ExpectedLen() int   { return 0 }
func (c *txnCommand) Reset()             { c.done = false }
func (c *txnCommand) IsComplete() bool   { return c.done }

func (c *txnCommand) BuildRequest(s *Session) (Request, error) {
	return Request{Cmd: c.cmd}, nil
}

func (c *txnCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}

// NewCommitTransactionCommand builds CommitTransaction (0xC7), making
// permanent every Write/Credit/Debit issued since the last commit. A
// file with no pending changes legitimately answers StatusNoChanges
// (0x0C) rather than StatusOK; callers that treat a transaction as a
// batch of independent file writes should check for that status
// specifically rather than treating it as failure.
func NewCommitTransactionCommand() Command {
	return &txnCommand{cmd: cmdCommitTransaction, name: "CommitTransaction"}
}

// NewAbortTransactionCommand builds AbortTransaction (0xA7), rolling
// back every Write/Credit/Debit issued since the last commit.
func NewAbortTransactionCommand() Command {
	return &txnCommand{cmd: cmdAbortTransaction, name: "AbortTransaction"}
}
