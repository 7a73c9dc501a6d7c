// Command hdlcftp-receive receives a file over a serial link using the
// hdlcftp stop-and-wait protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/binarycable/hdlcftp/internal/progressbar"
	"github.com/binarycable/hdlcftp/link"
	"github.com/binarycable/hdlcftp/serial"
	"github.com/binarycable/hdlcftp/transfer"
)

func main() {
	timeout := flag.Duration("timeout", link.DefaultConfig().Timeout, "per-frame retransmission timeout")
	retries := flag.Int("retries", link.DefaultConfig().MaxRetries, "max consecutive retransmissions before aborting")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <port-number> <dest-path>\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(flag.Arg(0), flag.Arg(1), *timeout, *retries); err != nil {
		logrus.WithError(err).Error("transfer failed")
		os.Exit(1)
	}
}

func run(portNumber, destPath string, timeout time.Duration, retries int) error {
	devicePath := fmt.Sprintf("/dev/ttyS%s", portNumber)
	port, err := serial.Open(devicePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", devicePath, err)
	}

	if info, statErr := os.Stat(destPath); statErr == nil && info.IsDir() {
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			port.Close()
			return err
		}
	} else if statErr != nil {
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			port.Close()
			return err
		}
	}

	cfg := link.DefaultConfig()
	cfg.Timeout = timeout
	cfg.MaxRetries = retries

	ep := link.New(port, link.RoleRX, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), timeout*time.Duration(retries+2))
	defer cancel()
	if err := ep.Open(ctx); err != nil {
		port.Close()
		return fmt.Errorf("open connection: %w", err)
	}

	var bar *progressbar.Bar
	receiver := transfer.NewReceiver(ep)

	recvCtx, recvCancel := context.WithCancel(context.Background())
	defer recvCancel()

	var outPath string
	dst := func(name string) (io.WriteCloser, error) {
		if fi, statErr := os.Stat(destPath); statErr == nil && fi.IsDir() {
			outPath = filepath.Join(destPath, filepath.Base(name))
		} else {
			outPath = destPath
		}
		f, err := os.Create(outPath)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	err = receiver.Receive(recvCtx, dst, func(received, total uint64) {
		if bar == nil {
			bar = progressbar.New(os.Stdout, total)
		}
		bar.Update(received)
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	return nil
}
