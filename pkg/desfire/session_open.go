package desfire

import (
	"io"
	"log/slog"
	"time"
)

// Card is the handle returned by OpenSession: a Transceiver, a wire
// framing, reader capabilities, a logger, and the mutable Session
// state, bundled so the typed command entry points never need to
// thread these through by hand.
type Card struct {
	session  *Session
	tr       Transceiver
	wire     Wire
	caps     ReaderCapabilities
	log      *slog.Logger
	deadline time.Duration
}

// Option configures OpenSession.
type Option func(*Card)

// WithLogger installs a structured logger; the core never logs secret
// material (keys, IVs, session keys), only command name/status/direction.
func WithLogger(l *slog.Logger) Option {
	return func(c *Card) { c.log = l }
}

// WithDeadline overrides DefaultDeadline for every Transceive call.
func WithDeadline(d time.Duration) Option {
	return func(c *Card) { c.deadline = d }
}

// WithCmdCounterMode selects the AES CMAC seed policy up front.
func WithCmdCounterMode(m CmdCounterMode) Option {
	return func(c *Card) { c.session.SetCmdCounterMode(m) }
}

// OpenSession builds a Card bound to transceiver, using wireKind
// framing and the given reader capabilities. No transceive happens
// here; callers issue SelectApplication themselves.
func OpenSession(tr Transceiver, wireKind WireKind, caps ReaderCapabilities, opts ...Option) (*Card, error) {
	if caps.MaxAPDUSize < 1 || caps.MaxAPDUSize > 264 {
		return nil, framingErr("OpenSession", FramingBadLength, nil)
	}
	card := &Card{
		session:  NewSession(),
		tr:       tr,
		wire:     wireFor(wireKind),
		caps:     caps,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		deadline: DefaultDeadline,
	}
	for _, opt := range opts {
		opt(card)
	}
	return card, nil
}

// Run drives cmd to completion over this card (C7), looping on 0xAF
// continuations until cmd reports IsComplete or an error ends the
// exchange early.
func (c *Card) Run(cmd Command) error {
	return run(c, cmd)
}

// Session exposes the underlying session context read-only to callers
// that want to inspect auth state between commands.
func (c *Card) Session() *Session { return c.session }

// Capabilities returns the reader capabilities OpenSession was given.
func (c *Card) Capabilities() ReaderCapabilities { return c.caps }

// Close zeroes session key material. It does not touch the Transceiver.
func (c *Card) Close() {
	c.session.zero()
}
