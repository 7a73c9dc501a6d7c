package link

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/binarycable/hdlcftp/hdlc"
)

// Role distinguishes the connection initiator (TX) from the responder
// (RX); see spec.md §4.3.
type Role int

const (
	RoleTX Role = iota
	RoleRX
)

func (r Role) String() string {
	if r == RoleTX {
		return "TX"
	}
	return "RX"
}

// Port is the byte-moving surface Endpoint needs from its serial port
// (satisfied by *serial.Port). It is an interface, rather than a direct
// dependency on the serial package, so tests can drive an Endpoint over a
// byte-dropping or corrupting fake instead of a real character device.
type Port interface {
	Read([]byte) (int, error)
	Write([]byte) (int, error)
	WaitReadable(timeout time.Duration) error
}

// Endpoint is one side of a link connection: it owns the port, the
// sequence bit for its role, and all retransmission policy. Open, Write,
// Read, and Close are not safe to call concurrently, nor is one of them
// safe to call concurrently with itself — exactly one call is in flight
// on a given Endpoint at a time, matching spec.md §5's reentrancy rule.
type Endpoint struct {
	port Port
	role Role
	cfg  Config
	log  *logrus.Entry

	ns int // TX: next send sequence number
	nr int // RX: next expected sequence number
}

// New returns an Endpoint for the given role, communicating over port.
func New(port Port, role Role, cfg Config) *Endpoint {
	return &Endpoint{
		port: port,
		role: role,
		cfg:  cfg,
		log:  logrus.WithField("role", role.String()),
	}
}

func seqNum(c hdlc.Control) int {
	if c == hdlc.CtrlI1 {
		return 1
	}
	return 0
}

func (e *Endpoint) writeFrame(frame []byte) error {
	if _, err := e.port.Write(frame); err != nil {
		return newError(KindOS, err)
	}
	return nil
}

// awaitFrame drives scanner over bytes read from the port until a frame
// completes, the context is cancelled, or (when d is non-nil) the
// deadline expires more than cfg.MaxRetries times.
//
// onExpire is called once per timer expiry (typically: retransmit the
// last frame); a non-nil return aborts the wait. onDiscard is called once
// per byte-sequence the scanner rejected (BCC mismatch, unexpected
// control, truncation); a non-nil return aborts the wait, a nil return
// keeps scanning. Either callback may be nil.
func (e *Endpoint) awaitFrame(
	ctx context.Context,
	scanner *hdlc.Scanner,
	d *deadline,
	onExpire func() error,
	onDiscard func(error) error,
) (*hdlc.Frame, error) {
	var b [1]byte
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if d != nil && d.poll() {
			if d.retryCount() > e.cfg.MaxRetries {
				return nil, newError(KindTimeout, errors.New("max retries exceeded"))
			}
			if onExpire != nil {
				if err := onExpire(); err != nil {
					return nil, err
				}
			}
			d.arm(e.cfg.Timeout)
		}

		n, err := e.port.Read(b[:])
		if err != nil {
			return nil, newError(KindOS, err)
		}
		if n == 0 {
			_ = e.port.WaitReadable(e.cfg.PollInterval)
			continue
		}

		frame, ferr := scanner.Feed(b[0])
		if frame != nil {
			// d is not cancelled here: a caller that loops back into
			// awaitFrame on a non-terminal frame (a benign duplicate ack,
			// a duplicate I-frame) must keep counting toward the same
			// deadline, or a lost real response after that point would
			// retransmit nothing and hang. A caller for which the frame
			// *is* terminal simply lets d be discarded with it.
			return frame, nil
		}
		if ferr != nil {
			e.log.WithError(ferr).Debug("discarded byte sequence")
			if onDiscard != nil {
				if err := onDiscard(ferr); err != nil {
					return nil, err
				}
			}
		}
	}
}
