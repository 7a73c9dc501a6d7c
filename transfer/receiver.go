package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/binarycable/hdlcftp/link"
	"github.com/binarycable/hdlcftp/transfer/packet"
)

// ErrAppProtocol is returned when a packet arrives out of sequence or
// with an unrecognised type tag (spec.md §7's APP_PROTOCOL_ERROR).
var ErrAppProtocol = errors.New("transfer: unexpected packet")

// Receiver drives one inbound file transfer over an already-open
// link.Endpoint (role RX).
type Receiver struct {
	ep  *link.Endpoint
	log *logrus.Entry
}

// NewReceiver returns a Receiver driving ep, which must have already
// completed Open.
func NewReceiver(ep *link.Endpoint) *Receiver {
	return &Receiver{ep: ep, log: logrus.WithField("component", "receiver")}
}

// Receive reads the START packet, opens the destination via dst (given
// the transmitted file name), then loops on DATA/END, writing each
// chunk and reporting progress, until END or an error. ep is always
// closed before Receive returns. A final byte-count mismatch against the
// size declared in START is logged as a warning, not returned as an
// error, per spec.md §4.4.
func (r *Receiver) Receive(ctx context.Context, dst func(name string) (io.WriteCloser, error), progress func(received, total uint64)) error {
	recvErr := r.run(ctx, dst, progress)
	closeErr := r.ep.Close(ctx)
	if recvErr != nil {
		return recvErr
	}
	return closeErr
}

func (r *Receiver) run(ctx context.Context, dst func(name string) (io.WriteCloser, error), progress func(received, total uint64)) error {
	first, err := r.ep.Read(ctx)
	if err != nil {
		return err
	}
	typ, err := packet.DecodeType(first)
	if err != nil {
		return err
	}
	if typ != packet.TypeStart {
		return fmt.Errorf("%w: first packet is %v, want START", ErrAppProtocol, typ)
	}
	size, name, err := packet.DecodeStart(first)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAppProtocol, err)
	}
	r.log.WithField("name", name).WithField("size", size).Info("received START")

	w, err := dst(name)
	if err != nil {
		return err
	}
	defer w.Close()

	var received uint64
	for {
		pkt, err := r.ep.Read(ctx)
		if err != nil {
			return err
		}
		typ, err := packet.DecodeType(pkt)
		if err != nil {
			return err
		}
		switch typ {
		case packet.TypeData:
			chunk, err := packet.DecodeData(pkt)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrAppProtocol, err)
			}
			if _, err := w.Write(chunk); err != nil {
				return err
			}
			received += uint64(len(chunk))
			if progress != nil {
				progress(received, size)
			}
		case packet.TypeEnd:
			if received != size {
				r.log.WithField("received", received).WithField("declared", size).
					Warn("byte count mismatch against declared size")
			}
			return nil
		default:
			return fmt.Errorf("%w: got %v mid-transfer", ErrAppProtocol, typ)
		}
	}
}
