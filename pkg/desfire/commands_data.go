package desfire

// File-data commands (ReadData/WriteData/ReadRecords/WriteRecord) carry
// their own comm-mode separately from the generic symmetric pipe: a
// file's CommMode is a property set at CreateFile time, not something
// the Session tracks automatically, so every constructor here takes an
// explicit FileMode. They also run multi-frame: reads accumulate raw
// bytes across 0xAF continuations and decrypt/verify once at the end,
// writes protect the whole payload once up front and then chunk the
// already-protected bytes across as many continuation frames as it
// takes (§4.6). Both are mathematically identical to a true
// frame-by-frame streaming cipher, since CBC and CBC-MAC/CMAC computed
// over a complete message equal the same computed incrementally over
// the message split at arbitrary boundaries — only the final block
// needs the checksum/padding/tag treatment either way.
//
// ENC-mode reads need to know the exact plaintext length up front to
// separate payload from checksum/padding; a Length/RecordCount of 0
// ("read to end of file") only works for PLAIN and MAC modes here. A
// caller reading an ENC file with an unknown length must resolve it
// via GetFileSettings first.

// ReadDataCommand reads a slice of a Std/Backup data file.
type ReadDataCommand struct {
	FileNo   byte
	Offset   int
	Length   int // 0 = to end of file; see ENC-mode caveat above
	FileMode CommMode

	chainBuffer
	started bool
	done    bool
	result  []byte
}

func (c *ReadDataCommand) Name() string      { return "ReadData" }
func (c *ReadDataCommand) Mode() CommMode     { return ModeRaw }
func (c *ReadDataCommand) ExpectedLen() int   { return 0 }
func (c *ReadDataCommand) IsComplete() bool   { return c.done }

func (c *ReadDataCommand) Reset() {
	c.chainBuffer.reset()
	c.started = false
	c.done = false
	c.result = nil
}

func (c *ReadDataCommand) BuildRequest(s *Session) (Request, error) {
	if !c.started {
		c.started = true
		body := append([]byte{c.FileNo}, le24(c.Offset)...)
		body = append(body, le24(c.Length)...)
		return Request{Cmd: cmdReadData, Body: body}, nil
	}
	return Request{Cmd: cmdAdditionalFrame}, nil
}

func (c *ReadDataCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.append(body)
	if status != byte(StatusOK) {
		return nil
	}
	c.done = true
	payload, err := PipeUnwrap(s, c.FileMode, status, c.bytes(), c.Length)
	if err != nil {
		return err
	}
	c.result = payload
	return nil
}

// Data returns the bytes read once the command completes.
func (c *ReadDataCommand) Data() []byte { return c.result }

// WriteDataCommand writes a slice of a Std/Backup data file.
type WriteDataCommand struct {
	FileNo    byte
	Offset    int
	Data      []byte
	FileMode  CommMode
	ChunkSize int // bytes per transport frame; <=0 uses defaultDataChunkSize

	wrapped []byte
	sent    int
	started bool
	done    bool
}

func (c *WriteDataCommand) Name() string      { return "WriteData" }
func (c *WriteDataCommand) Mode() CommMode     { return ModeRaw }
func (c *WriteDataCommand) ExpectedLen() int   { return 0 }
func (c *WriteDataCommand) IsComplete() bool   { return c.done }

func (c *WriteDataCommand) Reset() {
	c.wrapped = nil
	c.sent = 0
	c.started = false
	c.done = false
}

func (c *WriteDataCommand) chunkSize() int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	return defaultDataChunkSize
}

func (c *WriteDataCommand) BuildRequest(s *Session) (Request, error) {
	if !c.started {
		c.started = true
		header := append([]byte{c.FileNo}, le24(c.Offset)...)
		header = append(header, le24(len(c.Data))...)
		wrapped, err := wrapFileWrite(s, c.FileMode, cmdWriteData, header, c.Data)
		if err != nil {
			return Request{}, err
		}
		c.wrapped = wrapped
		n := c.chunkSize()
		if n > len(c.wrapped) {
			n = len(c.wrapped)
		}
		c.sent = n
		return Request{Cmd: cmdWriteData, Body: append(header, c.wrapped[:n]...)}, nil
	}
	remaining := c.wrapped[c.sent:]
	n := c.chunkSize()
	if n > len(remaining) {
		n = len(remaining)
	}
	c.sent += n
	return Request{Cmd: cmdAdditionalFrame, Body: remaining[:n]}, nil
}

func (c *WriteDataCommand) ParseResponse(s *Session, status byte, body []byte) error {
	if status == byte(StatusOK) {
		c.done = true
	}
	return nil
}

// ReadRecordsCommand reads RecordCount records starting at RecordNo
// (0 is the most recently written record) from a linear or cyclic
// record file.
type ReadRecordsCommand struct {
	FileNo      byte
	RecordNo    int
	RecordCount int // 0 = all records from RecordNo; see ENC-mode caveat above
	RecordSize  int
	FileMode    CommMode

	chainBuffer
	started bool
	done    bool
	result  []byte
}

func (c *ReadRecordsCommand) Name() string      { return "ReadRecords" }
func (c *ReadRecordsCommand) Mode() CommMode     { return ModeRaw }
func (c *ReadRecordsCommand) ExpectedLen() int   { return 0 }
func (c *ReadRecordsCommand) IsComplete() bool   { return c.done }

func (c *ReadRecordsCommand) Reset() {
	c.chainBuffer.reset()
	c.started = false
	c.done = false
	c.result = nil
}

func (c *ReadRecordsCommand) BuildRequest(s *Session) (Request, error) {
	if !c.started {
		c.started = true
		body := append([]byte{c.FileNo}, le24(c.RecordNo)...)
		body = append(body, le24(c.RecordCount)...)
		return Request{Cmd: cmdReadRecords, Body: body}, nil
	}
	return Request{Cmd: cmdAdditionalFrame}, nil
}

func (c *ReadRecordsCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.append(body)
	if status != byte(StatusOK) {
		return nil
	}
	c.done = true
	expected := c.RecordCount * c.RecordSize
	payload, err := PipeUnwrap(s, c.FileMode, status, c.bytes(), expected)
	if err != nil {
		return err
	}
	c.result = payload
	return nil
}

// Records splits the accumulated payload into RecordSize-sized records.
func (c *ReadRecordsCommand) Records() [][]byte {
	out := make([][]byte, 0, len(c.result)/max1(c.RecordSize))
	for i := 0; i+c.RecordSize <= len(c.result); i += c.RecordSize {
		out = append(out, c.result[i:i+c.RecordSize])
	}
	return out
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// WriteRecordCommand appends or overwrites a record in a linear or
// cyclic record file, at a byte Offset within the next free record slot.
type WriteRecordCommand struct {
	FileNo    byte
	Offset    int
	Data      []byte
	FileMode  CommMode
	ChunkSize int

	wrapped []byte
	sent    int
	started bool
	done    bool
}

func (c *WriteRecordCommand) Name() string      { return "WriteRecord" }
func (c *WriteRecordCommand) Mode() CommMode     { return ModeRaw }
func (c *WriteRecordCommand) ExpectedLen() int   { return 0 }
func (c *WriteRecordCommand) IsComplete() bool   { return c.done }

func (c *WriteRecordCommand) Reset() {
	c.wrapped = nil
	c.sent = 0
	c.started = false
	c.done = false
}

func (c *WriteRecordCommand) chunkSize() int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	return defaultDataChunkSize
}

func (c *WriteRecordCommand) BuildRequest(s *Session) (Request, error) {
	if !c.started {
		c.started = true
		header := append([]byte{c.FileNo}, le24(c.Offset)...)
		header = append(header, le24(len(c.Data))...)
		wrapped, err := wrapFileWrite(s, c.FileMode, cmdWriteRecord, header, c.Data)
		if err != nil {
			return Request{}, err
		}
		c.wrapped = wrapped
		n := c.chunkSize()
		if n > len(c.wrapped) {
			n = len(c.wrapped)
		}
		c.sent = n
		return Request{Cmd: cmdWriteRecord, Body: append(header, c.wrapped[:n]...)}, nil
	}
	remaining := c.wrapped[c.sent:]
	n := c.chunkSize()
	if n > len(remaining) {
		n = len(remaining)
	}
	c.sent += n
	return Request{Cmd: cmdAdditionalFrame, Body: remaining[:n]}, nil
}

func (c *WriteRecordCommand) ParseResponse(s *Session, status byte, body []byte) error {
	if status == byte(StatusOK) {
		c.done = true
	}
	return nil
}
