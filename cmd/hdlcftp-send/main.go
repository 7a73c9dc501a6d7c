// Command hdlcftp-send transmits a file over a serial link using the
// hdlcftp stop-and-wait protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
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
		fmt.Fprintf(os.Stderr, "usage: %s <port-number> <source-path>\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(flag.Arg(0), flag.Arg(1), *timeout, *retries); err != nil {
		logrus.WithError(err).Error("transfer failed")
		os.Exit(1)
	}
}

func run(portNumber, sourcePath string, timeout time.Duration, retries int) error {
	devicePath := fmt.Sprintf("/dev/ttyS%s", portNumber)
	port, err := serial.Open(devicePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", devicePath, err)
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		port.Close()
		return fmt.Errorf("open %s: %w", sourcePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		port.Close()
		return err
	}

	cfg := link.DefaultConfig()
	cfg.Timeout = timeout
	cfg.MaxRetries = retries

	ep := link.New(port, link.RoleTX, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), timeout*time.Duration(retries+2))
	defer cancel()
	if err := ep.Open(ctx); err != nil {
		port.Close()
		return fmt.Errorf("open connection: %w", err)
	}

	bar := progressbar.New(os.Stdout, uint64(info.Size()))
	sender := transfer.NewSender(ep)

	sendCtx, sendCancel := context.WithCancel(context.Background())
	defer sendCancel()
	err = sender.Send(sendCtx, uint64(info.Size()), info.Name(), f, func(sent, total uint64) {
		bar.Update(sent)
	})
	bar.Finish()
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
