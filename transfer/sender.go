// Package transfer implements the application-layer driver (C4): it
// sequences START/DATA/END packets over a link.Endpoint. See spec.md §4.4.
package transfer

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/binarycable/hdlcftp/link"
	"github.com/binarycable/hdlcftp/transfer/packet"
)

// Sender drives one outbound file transfer over an already-open
// link.Endpoint (role TX).
type Sender struct {
	ep  *link.Endpoint
	log *logrus.Entry
}

// NewSender returns a Sender driving ep, which must have already
// completed Open.
func NewSender(ep *link.Endpoint) *Sender {
	return &Sender{ep: ep, log: logrus.WithField("component", "sender")}
}

// Send transmits src (size bytes, reported to the receiver as name) as
// START, chunked DATA, END, then closes ep. progress is called after
// every successfully acknowledged chunk; it may be nil.
//
// A REJECTED_ERROR from Endpoint.Write resubmits the same chunk
// unchanged, per spec.md §4.3.2 step 5; any other error aborts the
// transfer (but Close is still attempted).
func (s *Sender) Send(ctx context.Context, size uint64, name string, src io.Reader, progress func(sent, total uint64)) error {
	sendErr := s.run(ctx, size, name, src, progress)
	closeErr := s.ep.Close(ctx)
	if sendErr != nil {
		return sendErr
	}
	return closeErr
}

func (s *Sender) run(ctx context.Context, size uint64, name string, src io.Reader, progress func(sent, total uint64)) error {
	if err := s.writeWithRetry(ctx, packet.EncodeStart(size, name)); err != nil {
		return err
	}
	s.log.WithField("name", name).WithField("size", size).Info("sent START")

	var sent uint64
	buf := make([]byte, packet.MaxChunkSize)
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			chunk, encErr := packet.EncodeData(buf[:n])
			if encErr != nil {
				return encErr
			}
			if werr := s.writeWithRetry(ctx, chunk); werr != nil {
				return werr
			}
			sent += uint64(n)
			if progress != nil {
				progress(sent, size)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return err
		}
	}

	if err := s.writeWithRetry(ctx, packet.EncodeEnd()); err != nil {
		return err
	}
	s.log.Info("sent END")
	return nil
}

// writeWithRetry calls Endpoint.Write, resubmitting the same payload on
// REJECTED_ERROR until the endpoint itself gives up (TIMEOUT_ERROR) or
// the write succeeds. Endpoint.Write already retransmits the I-frame on
// a lost RR/ack internally; this loop only handles the REJ case that
// Write surfaces to its caller.
func (s *Sender) writeWithRetry(ctx context.Context, payload []byte) error {
	for {
		_, err := s.ep.Write(ctx, payload)
		if err == nil {
			return nil
		}
		var lerr *link.Error
		if errors.As(err, &lerr) && lerr.Kind == link.KindRejected {
			s.log.Debug("packet rejected, resubmitting")
			continue
		}
		return err
	}
}
