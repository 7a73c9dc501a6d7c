package link

import (
	"context"
	"fmt"

	"github.com/binarycable/hdlcftp/hdlc"
)

// Open establishes the connection: the TX role sends SET and waits for UA,
// retransmitting on timeout; the RX role waits indefinitely for a valid
// SET and replies with UA once. See spec.md §4.3.1.
func (e *Endpoint) Open(ctx context.Context) error {
	switch e.role {
	case RoleTX:
		return e.openTX(ctx)
	case RoleRX:
		return e.openRX(ctx)
	default:
		return fmt.Errorf("link: unknown role %v", e.role)
	}
}

func (e *Endpoint) openTX(ctx context.Context) error {
	set := hdlc.Build(hdlc.CtrlSET, nil)
	if err := e.writeFrame(set); err != nil {
		return err
	}

	d := &deadline{}
	d.arm(e.cfg.Timeout)
	scanner := hdlc.NewScanner(hdlc.CtrlUA)
	_, err := e.awaitFrame(ctx, scanner, d, func() error {
		e.log.Debug("SET timed out, retransmitting")
		return e.writeFrame(set)
	}, nil)
	if err != nil {
		return err
	}

	e.ns = 0
	e.log.Info("connection established")
	return nil
}

func (e *Endpoint) openRX(ctx context.Context) error {
	scanner := hdlc.NewScanner(hdlc.CtrlSET)
	if _, err := e.awaitFrame(ctx, scanner, nil, nil, nil); err != nil {
		return err
	}

	ua := hdlc.Build(hdlc.CtrlUA, nil)
	if err := e.writeFrame(ua); err != nil {
		return err
	}

	e.nr = 0
	e.log.Info("connection established")
	return nil
}
