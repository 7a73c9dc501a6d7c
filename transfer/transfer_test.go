package transfer

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/binarycable/hdlcftp/link"
	"github.com/binarycable/hdlcftp/serial"
)

func testConfig() link.Config {
	cfg := link.DefaultConfig()
	cfg.Timeout = 150 * time.Millisecond
	cfg.PollInterval = 2 * time.Millisecond
	cfg.MaxRetries = 5
	cfg.DrainDelay = 5 * time.Millisecond
	return cfg
}

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func TestSendReceiveRoundTrip(t *testing.T) {
	txPort, rxPort, err := serial.OpenPTY()
	require.NoError(t, err)
	t.Cleanup(func() {
		txPort.Close()
		rxPort.Close()
	})

	txEp := link.New(txPort, link.RoleTX, testConfig())
	rxEp := link.New(rxPort, link.RoleRX, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	openErr := make(chan error, 2)
	go func() { openErr <- rxEp.Open(ctx) }()
	go func() { openErr <- txEp.Open(ctx) }()
	require.NoError(t, <-openErr)
	require.NoError(t, <-openErr)

	content := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 40)
	src := bytes.NewReader(content)

	var dstBuf bytes.Buffer
	var gotName string
	dst := func(name string) (io.WriteCloser, error) {
		gotName = name
		return nopWriteCloser{&dstBuf}, nil
	}

	sender := NewSender(txEp)
	receiver := NewReceiver(rxEp)

	var sentProgress, recvProgress uint64
	sendErr := make(chan error, 1)
	go func() {
		sendErr <- sender.Send(ctx, uint64(len(content)), "fox.txt", src, func(sent, total uint64) {
			sentProgress = sent
		})
	}()

	recvErr := receiver.Receive(ctx, dst, func(received, total uint64) {
		recvProgress = received
	})

	require.NoError(t, recvErr)
	require.NoError(t, <-sendErr)
	require.Equal(t, "fox.txt", gotName)
	require.Equal(t, content, dstBuf.Bytes())
	require.Equal(t, uint64(len(content)), sentProgress)
	require.Equal(t, uint64(len(content)), recvProgress)
}

func TestReceiveRejectsNonStartFirstPacket(t *testing.T) {
	txPort, rxPort, err := serial.OpenPTY()
	require.NoError(t, err)
	t.Cleanup(func() {
		txPort.Close()
		rxPort.Close()
	})

	txEp := link.New(txPort, link.RoleTX, testConfig())
	rxEp := link.New(rxPort, link.RoleRX, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	openErr := make(chan error, 2)
	go func() { openErr <- rxEp.Open(ctx) }()
	go func() { openErr <- txEp.Open(ctx) }()
	require.NoError(t, <-openErr)
	require.NoError(t, <-openErr)

	writeErr := make(chan error, 1)
	go func() {
		_, err := txEp.Write(ctx, []byte{0x01, 0x00, 0x00}) // a DATA packet, not START
		writeErr <- err
	}()

	// Receive's internal Close would otherwise block waiting for a DISC
	// the tx side (which never closes in this test) never sends; give
	// Receive a short-lived context, which also bounds its first Read.
	closeCtx, closeCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer closeCancel()

	receiver := NewReceiver(rxEp)
	err = receiver.Receive(closeCtx, func(name string) (io.WriteCloser, error) {
		return nopWriteCloser{&bytes.Buffer{}}, nil
	}, nil)
	require.ErrorIs(t, err, ErrAppProtocol)
	require.NoError(t, <-writeErr)
}
