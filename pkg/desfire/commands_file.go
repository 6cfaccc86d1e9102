package desfire

// AccessRights packs the four permission nibbles (read-write, change-
// access-rights, read, write) into the 16-bit little-endian field
// every file-creation and file-settings command carries (§6).
type AccessRights struct {
	RW  byte
	CAR byte
	R   byte
	W   byte
}

func (a AccessRights) pack() []byte {
	v := uint16(a.RW&0xF)<<12 | uint16(a.CAR&0xF)<<8 | uint16(a.R&0xF)<<4 | uint16(a.W&0xF)
	return []byte{byte(v), byte(v >> 8)}
}

func unpackAccessRights(b []byte) AccessRights {
	v := uint16(b[0]) | uint16(b[1])<<8
	return AccessRights{
		RW:  byte(v>>12) & 0xF,
		CAR: byte(v>>8) & 0xF,
		R:   byte(v>>4) & 0xF,
		W:   byte(v) & 0xF,
	}
}

type createFileCommand struct {
	cmd      byte
	fileNo   byte
	commMode byte
	body     []byte
	done     bool
}

func (c *createFileCommand) Name() string    { return "CreateFile" }
func (c *createFileCommand) Mode() CommMode   { return ModeMAC }
func (c *createFileCommand) ExpectedLen() int { return 0 }
func (c *createFileCommand) Reset()           { c.done = false }
func (c *createFileCommand) IsComplete() bool { return c.done }

func (c *createFileCommand) BuildRequest(s *Session) (Request, error) {
	return Request{Cmd: c.cmd, Body: c.body}, nil
}

func (c *createFileCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}

// NewCreateStdDataFileCommand builds CreateStdDataFile (0xCD).
func NewCreateStdDataFileCommand(fileNo, commSettings byte, rights AccessRights, fileSize int) Command {
	body := append([]byte{fileNo, commSettings}, rights.pack()...)
	body = append(body, le24(fileSize)...)
	return &createFileCommand{cmd: cmdCreateStdDataFile, fileNo: fileNo, body: body}
}

// NewCreateBackupDataFileCommand builds CreateBackupDataFile (0xCB).
func NewCreateBackupDataFileCommand(fileNo, commSettings byte, rights AccessRights, fileSize int) Command {
	body := append([]byte{fileNo, commSettings}, rights.pack()...)
	body = append(body, le24(fileSize)...)
	return &createFileCommand{cmd: cmdCreateBackupDataFile, fileNo: fileNo, body: body}
}

// NewCreateValueFileCommand builds CreateValueFile (0xCC).
func NewCreateValueFileCommand(fileNo, commSettings byte, rights AccessRights, lowerLimit, upperLimit, value int32, limitedCreditEnabled bool) Command {
	body := append([]byte{fileNo, commSettings}, rights.pack()...)
	body = append(body, le32Signed(lowerLimit)...)
	body = append(body, le32Signed(upperLimit)...)
	body = append(body, le32Signed(value)...)
	lc := byte(0)
	if limitedCreditEnabled {
		lc = 1
	}
	body = append(body, lc)
	return &createFileCommand{cmd: cmdCreateValueFile, fileNo: fileNo, body: body}
}

// NewCreateLinearRecordFileCommand builds CreateLinearRecordFile (0xC1).
func NewCreateLinearRecordFileCommand(fileNo, commSettings byte, rights AccessRights, recordSize, maxRecords int) Command {
	body := append([]byte{fileNo, commSettings}, rights.pack()...)
	body = append(body, le24(recordSize)...)
	body = append(body, le24(maxRecords)...)
	return &createFileCommand{cmd: cmdCreateLinearRecordFile, fileNo: fileNo, body: body}
}

// NewCreateCyclicRecordFileCommand builds CreateCyclicRecordFile (0xC0).
func NewCreateCyclicRecordFileCommand(fileNo, commSettings byte, rights AccessRights, recordSize, maxRecords int) Command {
	body := append([]byte{fileNo, commSettings}, rights.pack()...)
	body = append(body, le24(recordSize)...)
	body = append(body, le24(maxRecords)...)
	return &createFileCommand{cmd: cmdCreateCyclicRecordFile, fileNo: fileNo, body: body}
}

// FileSettings is GetFileSettings' decoded result.
type FileSettings struct {
	Type         FileType
	CommSettings byte
	Rights       AccessRights

	FileSize int // Std/Backup

	LowerLimit, UpperLimit, Value int32 // Value files
	LimitedCreditEnabled          bool

	RecordSize, MaxRecords, CurrentRecords int // Record files
}

// GetFileSettingsCommand reads a file's header.
type GetFileSettingsCommand struct {
	FileNo   byte
	Settings FileSettings
	done     bool
}

func (c *GetFileSettingsCommand) Name() string    { return "GetFileSettings" }
func (c *GetFileSettingsCommand) Mode() CommMode   { return ModeMAC }
func (c *GetFileSettingsCommand) ExpectedLen() int { return 0 }
func (c *GetFileSettingsCommand) Reset()           { c.done = false }
func (c *GetFileSettingsCommand) IsComplete() bool { return c.done }

func (c *GetFileSettingsCommand) BuildRequest(s *Session) (Request, error) {
	return Request{Cmd: cmdGetFileSettings, Body: []byte{c.FileNo}}, nil
}

func (c *GetFileSettingsCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	if status != byte(StatusOK) || len(body) < 3 {
		return nil
	}
	c.Settings.Type = FileType(body[0])
	c.Settings.CommSettings = body[1]
	c.Settings.Rights = unpackAccessRights(body[2:4])
	rest := body[4:]
	switch c.Settings.Type {
	case FileTypeStdData, FileTypeBackupData:
		if len(rest) >= 3 {
			c.Settings.FileSize = decodeLE24(rest)
		}
	case FileTypeValue:
		if len(rest) >= 13 {
			c.Settings.LowerLimit = decodeLE32Signed(rest[0:4])
			c.Settings.UpperLimit = decodeLE32Signed(rest[4:8])
			c.Settings.Value = decodeLE32Signed(rest[8:12])
			c.Settings.LimitedCreditEnabled = rest[12] != 0
		}
	case FileTypeLinearRecord, FileTypeCyclicRecord:
		if len(rest) >= 9 {
			c.Settings.RecordSize = decodeLE24(rest[0:3])
			c.Settings.MaxRecords = decodeLE24(rest[3:6])
			c.Settings.CurrentRecords = decodeLE24(rest[6:9])
		}
	}
	return nil
}

// ChangeFileSettingsCommand updates a file's comm-mode and access
// rights. The file number stays in the clear (it's framing, not
// payload) but the new comm-mode/rights are ENC-protected; like
// ChangeKeySettings, the card's acknowledgement carries no encrypted
// payload, so the command manages its own request encryption (ModeRaw)
// via wrapFileWrite rather than running through the generic symmetric
// pipe.
type ChangeFileSettingsCommand struct {
	FileNo       byte
	CommSettings byte
	Rights       AccessRights
	done         bool
}

func (c *ChangeFileSettingsCommand) Name() string    { return "ChangeFileSettings" }
func (c *ChangeFileSettingsCommand) Mode() CommMode   { return ModeRaw }
func (c *ChangeFileSettingsCommand) ExpectedLen() int { return 0 }
func (c *ChangeFileSettingsCommand) Reset()           { c.done = false }
func (c *ChangeFileSettingsCommand) IsComplete() bool { return c.done }

func (c *ChangeFileSettingsCommand) BuildRequest(s *Session) (Request, error) {
	header := []byte{c.FileNo}
	data := append([]byte{c.CommSettings}, c.Rights.pack()...)
	protected, err := wrapFileWrite(s, ModeEnc, cmdChangeFileSettings, header, data)
	if err != nil {
		return Request{}, err
	}
	body := append(append([]byte{}, header...), protected...)
	return Request{Cmd: cmdChangeFileSettings, Body: body}, nil
}

func (c *ChangeFileSettingsCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}

// DeleteFileCommand removes a file.
type DeleteFileCommand struct {
	FileNo byte
	done   bool
}

func (c *DeleteFileCommand) Name() string    { return "DeleteFile" }
func (c *DeleteFileCommand) Mode() CommMode   { return ModeMAC }
func (c *DeleteFileCommand) ExpectedLen() int { return 0 }
func (c *DeleteFileCommand) Reset()           { c.done = false }
func (c *DeleteFileCommand) IsComplete() bool { return c.done }

func (c *DeleteFileCommand) BuildRequest(s *Session) (Request, error) {
	return Request{Cmd: cmdDeleteFile, Body: []byte{c.FileNo}}, nil
}

func (c *DeleteFileCommand) ParseResponse(s *Session, status byte, body []byte) error {
	c.done = true
	return nil
}
