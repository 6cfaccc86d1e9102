// Package desfire implements the MIFARE DESFire EV1-class command
// processor core: wire framing (native and ISO 7816-4), the three
// Authenticate protocols (legacy DES, ISO 2K/3K-3DES, AES) and their
// session-key derivation, the PLAIN/MAC/ENC secure messaging pipe, and
// the application/file/value/record command set built on top of them.
//
// The core never talks to a reader directly; callers supply a
// Transceiver (a PC/SC reader, a USB CCID stack, or a test fixture) and
// drive commands through a Card obtained from OpenSession. Nothing in
// this package performs I/O beyond that one collaborator, and nothing
// here retries, sleeps, or manages reader/session pooling — that is the
// caller's concern.
package desfire
