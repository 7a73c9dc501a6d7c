package link

import (
	"context"
	"errors"
	"fmt"

	"github.com/binarycable/hdlcftp/hdlc"
)

// Write sends payload as I(Ns), retransmitting on timeout, and blocks
// until it is acknowledged (returning its length), rejected (returning a
// REJECTED_ERROR the caller may retry with the same payload unchanged),
// or the retry budget is exhausted (TIMEOUT_ERROR). At most one I-frame
// is ever outstanding. See spec.md §4.3.2.
func (e *Endpoint) Write(ctx context.Context, payload []byte) (int, error) {
	if e.role != RoleTX {
		return 0, fmt.Errorf("link: Write called on a %v endpoint", e.role)
	}
	if len(payload) > hdlc.MaxPayload {
		return 0, fmt.Errorf("link: payload of %d bytes exceeds max %d", len(payload), hdlc.MaxPayload)
	}

	frame := hdlc.Build(hdlc.IControl(e.ns), payload)
	if err := e.writeFrame(frame); err != nil {
		return 0, err
	}

	d := &deadline{}
	d.arm(e.cfg.Timeout)
	scanner := hdlc.NewScanner(hdlc.CtrlRR0, hdlc.CtrlRR1, hdlc.CtrlREJ0, hdlc.CtrlREJ1)

	for {
		resp, err := e.awaitFrame(ctx, scanner, d, func() error {
			e.log.WithField("ns", e.ns).Debug("I-frame timed out, retransmitting")
			return e.writeFrame(frame)
		}, nil)
		if err != nil {
			return 0, err
		}

		switch {
		case resp.Control == hdlc.RRControl(1-e.ns):
			e.ns = 1 - e.ns
			return len(payload), nil
		case resp.Control == hdlc.REJControl(e.ns):
			e.log.WithField("ns", e.ns).Debug("peer rejected frame")
			return 0, newError(KindRejected, errors.New("peer sent REJ"))
		case resp.Control == hdlc.RRControl(e.ns):
			// Duplicate ack for the previous frame (the peer's RR for
			// our last successful write arrived again, e.g. after its
			// own retransmission); benign, keep waiting.
			e.log.WithField("ns", e.ns).Debug("duplicate RR ignored")
			continue
		default:
			continue
		}
	}
}
