package link

import (
	"context"
	"fmt"
	"time"

	"github.com/binarycable/hdlcftp/hdlc"
)

// Close runs the teardown phase and always releases the underlying port,
// even when the DISC/UA exchange fails or times out. See spec.md §4.3.4.
func (e *Endpoint) Close(ctx context.Context) error {
	var err error
	switch e.role {
	case RoleTX:
		err = e.closeTX(ctx)
	case RoleRX:
		err = e.closeRX(ctx)
	default:
		err = fmt.Errorf("link: Close called on a %v endpoint", e.role)
	}

	if cerr := e.closePort(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (e *Endpoint) closePort() error {
	type closer interface{ Close() error }
	if c, ok := e.port.(closer); ok {
		return c.Close()
	}
	return nil
}

func (e *Endpoint) closeTX(ctx context.Context) error {
	disc := hdlc.Build(hdlc.CtrlDISC, nil)
	if err := e.writeFrame(disc); err != nil {
		return err
	}

	d := &deadline{}
	d.arm(e.cfg.Timeout)
	scanner := hdlc.NewScanner(hdlc.CtrlDISC, hdlc.CtrlUA)

	frame, err := e.awaitFrame(ctx, scanner, d, func() error {
		e.log.Debug("DISC timed out, retransmitting")
		return e.writeFrame(disc)
	}, nil)
	if err != nil {
		return err
	}

	switch frame.Control {
	case hdlc.CtrlUA:
		e.log.Debug("connection torn down")
	case hdlc.CtrlDISC:
		// The peer answered our DISC with its own DISC; ack it with the
		// final UA and finish.
		ua := hdlc.Build(hdlc.CtrlUA, nil)
		if err := e.writeFrame(ua); err != nil {
			return err
		}
	}

	// The final UA is not itself acknowledged; wait for it to drain
	// before the port (and its termios) go away, per spec.md §4.3.4.
	time.Sleep(e.cfg.DrainDelay)
	return nil
}

func (e *Endpoint) closeRX(ctx context.Context) error {
	scanner := hdlc.NewScanner(hdlc.CtrlDISC)
	// RX waits for teardown indefinitely, same as Open's RX side.
	if _, err := e.awaitFrame(ctx, scanner, nil, nil, nil); err != nil {
		return err
	}

	disc := hdlc.Build(hdlc.CtrlDISC, nil)
	if err := e.writeFrame(disc); err != nil {
		return err
	}

	d := &deadline{}
	d.arm(e.cfg.Timeout)
	uaScanner := hdlc.NewScanner(hdlc.CtrlUA)
	_, err := e.awaitFrame(ctx, uaScanner, d, func() error {
		e.log.Debug("DISC timed out, retransmitting")
		return e.writeFrame(disc)
	}, nil)
	if err != nil {
		return err
	}

	time.Sleep(e.cfg.DrainDelay)
	return nil
}
