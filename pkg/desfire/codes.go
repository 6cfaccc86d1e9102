package desfire

// DESFire native command codes (§4.6), grounded on the card's own
// command set rather than any particular reader SDK.
const (
	cmdAuthenticateLegacy = 0x0A
	cmdAuthenticateISO    = 0x1A
	cmdAuthenticateAES    = 0xAA

	cmdCreateApplication = 0xCA
	cmdDeleteApplication = 0xDA
	cmdGetApplicationIDs = 0x6A
	cmdSelectApplication = 0x5A
	cmdFormatPICC        = 0xFC
	cmdGetVersion        = 0x60
	cmdGetKeyVersion     = 0x64

	cmdCreateStdDataFile      = 0xCD
	cmdCreateBackupDataFile   = 0xCB
	cmdCreateValueFile        = 0xCC
	cmdCreateLinearRecordFile = 0xC1
	cmdCreateCyclicRecordFile = 0xC0
	cmdDeleteFile             = 0xDF
	cmdGetFileSettings        = 0xF5
	cmdChangeFileSettings     = 0x5F

	cmdReadData          = 0xBD
	cmdWriteData         = 0x3D
	cmdGetValue          = 0x6C
	cmdCredit            = 0x0C
	cmdDebit             = 0xDC
	cmdLimitedCredit     = 0x1C
	cmdReadRecords       = 0xBB
	cmdWriteRecord       = 0x3B
	cmdCommitTransaction = 0xC7
	cmdAbortTransaction  = 0xA7

	cmdChangeKey         = 0xC4
	cmdChangeKeySettings = 0x54
	cmdGetKeySettings    = 0x45
	cmdSetConfiguration  = 0x5C
)

// FileType identifies a DESFire file's storage class.
type FileType byte

const (
	FileTypeStdData FileType = iota
	FileTypeBackupData
	FileTypeValue
	FileTypeLinearRecord
	FileTypeCyclicRecord
)

// KeyType identifies the cipher family a key slot holds, used by
// ChangeKey to size its cryptogram and pick its CRC width.
type KeyType byte

const (
	KeyTypeDES  KeyType = 0x00
	KeyType3K3DES KeyType = 0x40
	KeyTypeAES  KeyType = 0x80
)
