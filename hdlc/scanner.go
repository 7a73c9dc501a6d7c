package hdlc

import "errors"

var (
	// ErrBCC1Mismatch is returned when the header checksum (A XOR C)
	// fails to verify. A corrupt header carries no reliable sequence
	// number, so unlike ErrBCCMismatch this is never grounds for a REJ.
	ErrBCC1Mismatch = errors.New("hdlc: bcc1 mismatch")
	// ErrBCCMismatch is returned when an I-frame's BCC2 (payload
	// checksum) fails to verify.
	ErrBCCMismatch = errors.New("hdlc: bcc2 mismatch")
	// ErrTruncated is returned when a trailing escape byte is immediately
	// followed by the closing flag, i.e. the escaped byte never arrived.
	ErrTruncated = errors.New("hdlc: truncated frame")
	// ErrUnexpectedControl is returned when a structurally valid header
	// carries a control byte the scanner wasn't told to accept.
	ErrUnexpectedControl = errors.New("hdlc: unexpected control byte")
)

// Frame is a successfully decoded frame: Payload is nil for supervisory
// and unnumbered frames, and the destuffed payload (BCC2 already
// verified) for I-frames.
type Frame struct {
	Control Control
	Payload []byte
}

type scanState int

const (
	stateStart scanState = iota
	stateFlagRcv
	stateARcv
	stateCRcv
	stateBCCOk
)

// Scanner drives the five-state receive scanner from spec.md §4.2,
// parameterised by the set of control bytes it will accept in A_RCV. This
// lets a single implementation serve the three receive contexts the link
// layer needs (unnumbered SET/UA/DISC at connect/teardown, supervisory
// RR/REJ while a transmitter awaits an ack, I-frames while a receiver
// awaits data) instead of three copies of the same switch statement.
type Scanner struct {
	accept map[Control]bool

	state         scanState
	control       Control
	isInformation bool
	payload       []byte
	pendingEscape bool
}

// NewScanner returns a Scanner that accepts exactly the given control
// bytes.
func NewScanner(accept ...Control) *Scanner {
	m := make(map[Control]bool, len(accept))
	for _, c := range accept {
		m[c] = true
	}
	return &Scanner{accept: m}
}

// Feed processes one received byte. It returns a non-nil *Frame once a
// complete, valid frame has been scanned; (nil, nil) while a frame is
// still in progress; and a non-nil error for a frame that was discarded
// (a BCC1 or BCC2 mismatch, truncation, or an unexpected control byte) —
// the error is informational, the scanner has already reset itself and
// is ready for
// the next byte.
func (s *Scanner) Feed(b byte) (*Frame, error) {
	if s.state != stateBCCOk && b == Flag {
		s.state = stateFlagRcv
		return nil, nil
	}

	switch s.state {
	case stateStart:
		// Noise before the first flag; stay put.
	case stateFlagRcv:
		switch {
		case b == Address:
			s.state = stateARcv
		default:
			s.state = stateStart
		}
	case stateARcv:
		c := Control(b)
		if s.accept[c] {
			s.control = c
			s.isInformation = isInformation(c)
			s.state = stateCRcv
			return nil, nil
		}
		s.state = stateStart
		return nil, ErrUnexpectedControl
	case stateCRcv:
		if b == BCC1(s.control) {
			s.state = stateBCCOk
			s.payload = s.payload[:0]
			s.pendingEscape = false
			if !s.isInformation {
				// Supervisory/unnumbered frames carry no payload; the
				// next byte must be the closing flag, which feedBody
				// handles.
			}
			return nil, nil
		}
		s.state = stateStart
		return nil, ErrBCC1Mismatch
	case stateBCCOk:
		return s.feedBody(b)
	}
	return nil, nil
}

func (s *Scanner) feedBody(b byte) (*Frame, error) {
	if b == Flag {
		if s.pendingEscape {
			s.state = stateStart
			return nil, ErrTruncated
		}
		if !s.isInformation {
			s.state = stateStart
			return &Frame{Control: s.control}, nil
		}
		if len(s.payload) == 0 {
			s.state = stateStart
			return nil, ErrBCCMismatch
		}
		data := s.payload[:len(s.payload)-1]
		bcc2 := s.payload[len(s.payload)-1]
		s.state = stateStart
		if FoldXOR(data) != bcc2 {
			return nil, ErrBCCMismatch
		}
		out := make([]byte, len(data))
		copy(out, data)
		return &Frame{Control: s.control, Payload: out}, nil
	}
	if !s.isInformation {
		// Anything other than the terminating flag in a supervisory or
		// unnumbered frame body is malformed; discard and resync.
		s.state = stateStart
		return nil, ErrBCCMismatch
	}
	if s.pendingEscape {
		s.payload = append(s.payload, b^EscXor)
		s.pendingEscape = false
		return nil, nil
	}
	if b == Escape {
		s.pendingEscape = true
		return nil, nil
	}
	s.payload = append(s.payload, b)
	return nil, nil
}
