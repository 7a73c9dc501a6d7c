package serial

import (
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/daedaluz/fdev/poll"
	ioctl "github.com/daedaluz/goioctl"
)

// Port is a character device opened and configured for the stop-and-wait
// link protocol: raw mode, 38400-8N1, non-blocking byte-granular reads
// (VMIN=0, VTIME=0). It owns the fd exclusively from Open until Close.
type Port struct {
	fd      int
	closed  atomic.Bool
	oldtio  Termios
	restore bool
}

// Open opens name (e.g. "/dev/ttyS1") for read/write without acquiring it
// as a controlling terminal, captures the current termios settings, and
// applies the fixed raw configuration required by the link layer. Any
// previously queued input/output is discarded before the new settings take
// effect, matching spec.md §4.1's "input-output flush" requirement.
func Open(name string) (*Port, error) {
	fd, err := syscall.Open(name, syscall.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, wrapErr("open "+name, err)
	}
	p := &Port{fd: fd}

	if err := p.getAttr(&p.oldtio); err != nil {
		syscall.Close(fd)
		return nil, wrapErr("tcgetattr", err)
	}
	p.restore = true

	newtio := rawConfig()
	if err := ioctl.Ioctl(uintptr(fd), tcflsh, uintptr(TCIOFLUSH)); err != nil {
		syscall.Close(fd)
		return nil, wrapErr("tcflush", err)
	}
	if err := p.setAttr(TCSANOW, &newtio); err != nil {
		syscall.Close(fd)
		return nil, wrapErr("tcsetattr", err)
	}
	return p, nil
}

// Write writes data to the port. Writes are strictly in call order.
func (p *Port) Write(data []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	n, err := syscall.Write(p.fd, data)
	if err != nil {
		return n, wrapErr("write", err)
	}
	return n, nil
}

// Read reads at most len(data) bytes without blocking: because the port is
// configured with VMIN=0, VTIME=0, a Read with nothing queued returns
// (0, nil) immediately rather than blocking.
func (p *Port) Read(data []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	n, err := syscall.Read(p.fd, data)
	if err != nil {
		return n, wrapErr("read", err)
	}
	return n, nil
}

// WaitReadable blocks up to timeout for the port to become readable. It is
// a throttle for the link layer's byte-at-a-time scan loop: instead of
// busy-spinning on a Read that returns 0 bytes, the scan loop can wait
// here between reads and still observe an expired deadline promptly.
func (p *Port) WaitReadable(timeout time.Duration) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := poll.WaitInput(p.fd, timeout); err != nil {
		return wrapErr("poll", err)
	}
	return nil
}

// Fd returns the underlying file descriptor, or -1 if the port is closed.
func (p *Port) Fd() int {
	if p.closed.Load() {
		return -1
	}
	return p.fd
}

// Close restores the termios settings captured at Open and releases the
// file descriptor. Safe to call exactly once; a second call returns
// ErrClosed. Close is reached on every exit path, including error paths
// that bypass a normal teardown, so the restore always happens before the
// fd is released.
func (p *Port) Close() error {
	if p.closed.Swap(true) {
		return ErrClosed
	}
	var restoreErr error
	if p.restore {
		restoreErr = p.setAttr(TCSANOW, &p.oldtio)
	}
	fd := p.fd
	p.fd = -1
	closeErr := syscall.Close(fd)
	if restoreErr != nil {
		return wrapErr("tcsetattr restore", restoreErr)
	}
	if closeErr != nil {
		return wrapErr("close", closeErr)
	}
	return nil
}

func (p *Port) getAttr(t *Termios) error {
	return ioctl.Ioctl(uintptr(p.fd), tcgets, uintptr(unsafe.Pointer(t)))
}

func (p *Port) setAttr(when Action, t *Termios) error {
	return ioctl.Ioctl(uintptr(p.fd), tcsets+uintptr(when), uintptr(unsafe.Pointer(t)))
}
