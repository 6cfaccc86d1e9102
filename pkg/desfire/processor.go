package desfire

import "log/slog"

// run drives a Command to completion (C7), following §4.7's loop
// literally: build a request, apply the command's comm mode through
// the secure pipe, wrap onto the wire, transceive, unwrap, reverse the
// pipe, hand the plain body to the command, then let the status byte
// and the command's own completion signal decide whether to loop
// again.
func run(card *Card, cmd Command) error {
	cmd.Reset()
	s := card.session

	for {
		req, err := cmd.BuildRequest(s)
		if err != nil {
			return err
		}

		wrappedBody, err := PipeWrap(s, cmd.Mode(), req.Cmd, req.Body)
		if err != nil {
			return err
		}
		apdu := card.wire.Wrap(Request{Cmd: req.Cmd, Body: wrappedBody})

		card.log.Debug("desfire tx", slog.String("command", cmd.Name()), slog.Int("cmd", int(req.Cmd)), slog.Int("bodyLen", len(req.Body)))

		raw, err := card.tr.Transceive(apdu, card.deadline)
		if err != nil {
			return transportErr(cmd.Name(), TransportReadFailed, err)
		}

		resp, err := card.wire.Unwrap(raw)
		if err != nil {
			return err
		}

		card.log.Debug("desfire rx", slog.String("command", cmd.Name()), slog.Int("status", int(resp.Status)), slog.Int("bodyLen", len(resp.Body)))

		// A non-control status means the card rejected the command outright
		// and its body carries no protected payload, often none at all, so
		// it must be mapped before PipeUnwrap ever sees it (P7). Otherwise a
		// short or empty error body trips the MAC/ENC layer's own length
		// checks and masks the real protocol status behind a spurious
		// Crypto error.
		if e, ok := mapStatus(cmd.Name(), resp.Status); !ok {
			return e
		}

		unwrappedBody, err := PipeUnwrap(s, cmd.Mode(), resp.Status, resp.Body, cmd.ExpectedLen())
		if err != nil {
			return err
		}

		if err := cmd.ParseResponse(s, resp.Status, unwrappedBody); err != nil {
			return err
		}
		if cmd.IsComplete() {
			card.log.Debug("desfire done", slog.String("command", cmd.Name()))
			return nil
		}
	}
}
