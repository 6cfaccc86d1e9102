package desfire

import "crypto/cipher"

// AuthScheme identifies which DESFire authentication protocol produced
// the current session key, if any.
type AuthScheme int

const (
	SchemeNone AuthScheme = iota
	SchemeLegacyDES
	SchemeIso3DES
	SchemeAES
)

func (s AuthScheme) String() string {
	switch s {
	case SchemeNone:
		return "None"
	case SchemeLegacyDES:
		return "LegacyDES"
	case SchemeIso3DES:
		return "Iso3DES"
	case SchemeAES:
		return "AES"
	default:
		return "Unknown"
	}
}

// CommMode is the traffic-protection mode applied to a command body.
type CommMode int

const (
	ModePlain CommMode = iota
	ModeMAC
	ModeEnc
	// ModeRaw tells the pipe to do nothing at all, in either
	// direction: no wrap/unwrap, no CMAC/IV bookkeeping. Commands
	// whose cryptogram doesn't fit the generic PLAIN/MAC/ENC shapes
	// (Authenticate, ChangeKey, ChangeKeySettings) manage their own
	// encryption and their own IV advancement and use this mode so
	// the generic pipe stays out of the way.
	ModeRaw
)

func (m CommMode) String() string {
	switch m {
	case ModePlain:
		return "Plain"
	case ModeMAC:
		return "Mac"
	case ModeEnc:
		return "Enc"
	case ModeRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// Session is the mutable context for one authenticated card session (C2).
// It is mutated by the Authenticate command (on success), by a
// successful SelectApplication (reset), and by IV/CMAC progression on
// every authenticated exchange, whether that runs through the secure
// pipe or through a ModeRaw command's own cryptogram.
type Session struct {
	authScheme AuthScheme
	keyNo      byte
	sessionKey []byte
	iv         []byte
	cmacK1     []byte
	cmacK2     []byte

	selectedAID    [3]byte
	commMode       CommMode
	cmdCounter     uint16
	cmdCounterMode CmdCounterMode

	// legacyAuthCipher is the raw E_K(RndB) block the card sent in the
	// first pass of a LegacyDES authenticate; recorded so ChangeKey can
	// optionally seed its ENC IV from it instead of the session's
	// current IV (§ Open Questions: legacy ChangeKey IV seed).
	legacyAuthCipher []byte

	block cipher.Block // cached session cipher, nil when authScheme == SchemeNone
}

// recordLegacyAuthCipher stashes the first-pass authenticate cipher
// block. Called only by AuthenticateCommand for SchemeLegacyDES.
func (s *Session) recordLegacyAuthCipher(b []byte) {
	s.legacyAuthCipher = append([]byte(nil), b...)
}

// SetCmdCounterMode selects the AES CMAC seed policy (§ Open
// Questions). It is safe to call at any time; it takes effect on the
// next authenticated exchange.
func (s *Session) SetCmdCounterMode(m CmdCounterMode) { s.cmdCounterMode = m }

// NewSession returns a freshly reset session with the PICC selected and
// no authentication.
func NewSession() *Session {
	s := &Session{}
	s.reset()
	return s
}

// reset clears authentication state and drops to PLAIN comm mode. It does
// NOT change selectedAID; selectApplication sets selectedAID itself and
// then calls reset.
func (s *Session) reset() {
	s.authScheme = SchemeNone
	s.keyNo = 0
	s.sessionKey = nil
	s.iv = nil
	s.cmacK1 = nil
	s.cmacK2 = nil
	s.commMode = ModePlain
	s.cmdCounter = 0
	s.legacyAuthCipher = nil
	s.block = nil
}

// AuthScheme reports the active authentication protocol, or SchemeNone.
func (s *Session) AuthScheme() AuthScheme { return s.authScheme }

// KeyNo reports the key slot last authenticated.
func (s *Session) KeyNo() byte { return s.keyNo }

// SelectedAID reports the currently selected application.
func (s *Session) SelectedAID() [3]byte { return s.selectedAID }

// CommMode reports the default traffic mode for commands that don't pin
// their own mode.
func (s *Session) CommMode() CommMode { return s.commMode }

// Authenticated reports whether a session key is established.
func (s *Session) Authenticated() bool { return s.authScheme != SchemeNone }

// onAuthenticated installs a freshly derived session key after a
// successful Authenticate exchange (§4.3): IV becomes all-zero, CMAC
// subkeys are derived, and the scheme/key slot are recorded. A failed
// authenticate anywhere along the two passes must NOT call this — the
// caller resets instead.
func (s *Session) onAuthenticated(scheme AuthScheme, keyNo byte, sessionKey []byte) error {
	block, err := newSessionBlockCipher(scheme, sessionKey)
	if err != nil {
		return err
	}
	s.authScheme = scheme
	s.keyNo = keyNo
	s.sessionKey = append([]byte(nil), sessionKey...)
	s.iv = make([]byte, blockSizeFor(scheme))
	s.block = block
	s.cmacK1, s.cmacK2 = cmacSubkeys(block)
	s.cmdCounter = 0
	return nil
}

// advanceIV sets the IV to the last cipher block produced by an
// authenticated exchange (P2: IV progression).
func (s *Session) advanceIV(lastCipherBlock []byte) {
	if len(lastCipherBlock) != len(s.iv) {
		panic("desfire: advanceIV block size mismatch")
	}
	copy(s.iv, lastCipherBlock)
}

// cmacOver computes the session CMAC over data, chaining from the
// current IV, and returns the full-width tag. It does not advance IV;
// callers that want IV progression call advanceIV with the tag's final
// block explicitly (kept separate so PLAIN-mode CMAC bookkeeping and
// MAC/ENC mode CMAC-as-tag share one code path).
func (s *Session) cmacOver(data []byte) []byte {
	return cmac(s.block, s.cmacK1, s.cmacK2, s.iv, data)
}

// selectApplication installs a new selected AID and resets all
// authentication state (§3 invariant, P6).
func (s *Session) selectApplication(aid [3]byte) {
	s.selectedAID = aid
	s.reset()
}

// zero overwrites key material in place; called when a session is
// dropped or superseded (§5 shared-resource policy).
func (s *Session) zero() {
	for i := range s.sessionKey {
		s.sessionKey[i] = 0
	}
	for i := range s.iv {
		s.iv[i] = 0
	}
	for i := range s.cmacK1 {
		s.cmacK1[i] = 0
	}
	for i := range s.cmacK2 {
		s.cmacK2[i] = 0
	}
}
