package link

import (
	"context"
	"errors"
	"fmt"

	"github.com/binarycable/hdlcftp/hdlc"
)

// Read waits for the next I-frame, acknowledges it, and returns its
// payload. A duplicate I-frame (the peer retransmitted because our RR was
// lost) is re-acknowledged without being redelivered and without
// toggling Nr; a BCC2 failure draws a REJ(Nr) and keeps waiting. See
// spec.md §4.3.3.
func (e *Endpoint) Read(ctx context.Context) ([]byte, error) {
	if e.role != RoleRX {
		return nil, fmt.Errorf("link: Read called on a %v endpoint", e.role)
	}

	scanner := hdlc.NewScanner(hdlc.CtrlI0, hdlc.CtrlI1)
	// A conservative guard against a stalled peer (spec.md §4.3.3); it is
	// not required for correctness against a well-behaved transmitter,
	// which never needs Read to retransmit anything on its behalf.
	d := &deadline{}
	d.arm(e.cfg.Timeout)

	onDiscard := func(ferr error) error {
		// Only a BCC2 (payload) failure draws a REJ. A BCC1 (header)
		// failure carries no trustworthy sequence number to REJ against,
		// so it is silently dropped, per spec.md §4.2/§4.3.3.
		if errors.Is(ferr, hdlc.ErrBCCMismatch) {
			rej := hdlc.Build(hdlc.REJControl(e.nr), nil)
			if err := e.writeFrame(rej); err != nil {
				return err
			}
			e.log.WithField("nr", e.nr).Debug("BCC2 mismatch, sent REJ")
		}
		return nil
	}

	for {
		frame, err := e.awaitFrame(ctx, scanner, d, func() error {
			return nil // no retransmission to perform; just re-arm and keep counting
		}, onDiscard)
		if err != nil {
			return nil, err
		}

		n := seqNum(frame.Control)
		if n == e.nr {
			ack := hdlc.Build(hdlc.RRControl(1-e.nr), nil)
			if err := e.writeFrame(ack); err != nil {
				return nil, err
			}
			e.nr = 1 - e.nr
			return frame.Payload, nil
		}

		// Duplicate: the transmitter never saw our RR. Re-ack without
		// delivering or advancing Nr.
		e.log.WithField("n", n).WithField("nr", e.nr).Debug("duplicate I-frame, re-acking")
		ack := hdlc.Build(hdlc.RRControl(1-n), nil)
		if err := e.writeFrame(ack); err != nil {
			return nil, err
		}
	}
}
