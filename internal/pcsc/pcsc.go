// Package pcsc adapts a PC/SC smart-card reader to desfire.Transceiver.
package pcsc

import (
	"context"
	"fmt"
	"time"

	"github.com/ebfe/scard"

	"github.com/nfc-go/desfire/pkg/desfire"
)

// Reader wraps one PC/SC card connection and implements
// desfire.Transceiver over it.
type Reader struct {
	ctx    *scard.Context
	card   *scard.Card
	Name   string
	Index  int
}

// ListReaders returns the names of every PC/SC reader the local
// subsystem currently sees attached.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("pcsc: establish context: %w", err)
	}
	defer ctx.Release()
	return ctx.ListReaders()
}

// Open connects to the reader at readerIndex and waits up to timeout
// for a card to be present.
func Open(readerIndex int, timeout time.Duration) (*Reader, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("pcsc: establish context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		ctx.Release()
		return nil, fmt.Errorf("pcsc: no readers found: %v", err)
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		ctx.Release()
		return nil, fmt.Errorf("pcsc: reader index out of range (0..%d)", len(readers)-1)
	}
	name := readers[readerIndex]

	deadline := time.Now().Add(timeout)
	var card *scard.Card
	for {
		card, err = ctx.Connect(name, scard.ShareShared, scard.ProtocolAny)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			ctx.Release()
			return nil, fmt.Errorf("pcsc: connect to %q: %w", name, err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	return &Reader{ctx: ctx, card: card, Name: name, Index: readerIndex}, nil
}

// Close disconnects the card and releases the PC/SC context.
func (r *Reader) Close() error {
	if r == nil {
		return nil
	}
	var err error
	if r.card != nil {
		err = r.card.Disconnect(scard.LeaveCard)
	}
	if r.ctx != nil {
		if rErr := r.ctx.Release(); err == nil {
			err = rErr
		}
	}
	return err
}

// Transceive implements desfire.Transceiver. PC/SC has no per-call
// context, so deadline is applied as a local wall-clock timeout around
// the blocking Transmit call; a reader wedged mid-transaction still
// returns control to the caller instead of hanging forever.
func (r *Reader) Transceive(apdu []byte, deadline time.Duration) ([]byte, error) {
	type result struct {
		resp []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := r.card.Transmit(apdu)
		done <- result{resp, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("pcsc: transmit: %w", res.err)
		}
		return res.resp, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("pcsc: transmit timed out after %s", deadline)
	}
}

var _ desfire.Transceiver = (*Reader)(nil)
