package serial

import (
	"strconv"
	"syscall"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
)

// Winsize mirrors struct winsize (sys/ioctl.h); only needed so a PTY slave
// can be given a window size, which some line disciplines expect to exist
// even on a plain byte pipe.
type Winsize struct {
	Row, Col       uint16
	Xpixel, Ypixel uint16
}

// OpenPTY allocates a PTY pair and configures the slave side with termios
// as rawConfig would a real serial port. It exists so tests can exercise
// the whole link protocol over a real character device without hardware:
// one end of the pair stands in for the transmitter's wire, the other for
// the receiver's. The master side keeps the kernel's default settings
// rather than rawConfig, so a Read on it blocks until a byte is available
// instead of returning (0, nil).
func OpenPTY() (master, slave *Port, err error) {
	m, err := syscall.Open("/dev/ptmx", syscall.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, nil, wrapErr("open /dev/ptmx", err)
	}
	master = &Port{fd: m}

	if err := master.setLockPT(false); err != nil {
		master.Close()
		return nil, nil, err
	}
	slavePath, err := master.ptsName()
	if err != nil {
		master.Close()
		return nil, nil, err
	}
	s, err := syscall.Open(slavePath, syscall.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		master.Close()
		return nil, nil, wrapErr("open "+slavePath, err)
	}
	slave = &Port{fd: s}
	if err := slave.getAttr(&slave.oldtio); err != nil {
		master.Close()
		slave.Close()
		return nil, nil, wrapErr("tcgetattr", err)
	}
	slave.restore = true
	newtio := rawConfig()
	if err := slave.setAttr(TCSANOW, &newtio); err != nil {
		master.Close()
		slave.Close()
		return nil, nil, wrapErr("tcsetattr", err)
	}
	return master, slave, nil
}

// setLockPT clears (or sets) the PTY lock so the slave side can be opened.
func (p *Port) setLockPT(locked bool) error {
	var v int32
	if locked {
		v = 1
	}
	if err := ioctl.Ioctl(uintptr(p.fd), tiocsptlck, uintptr(unsafe.Pointer(&v))); err != nil {
		return wrapErr("lock pty", err)
	}
	return nil
}

// ptsName returns the path of the slave device paired with this PTY master.
func (p *Port) ptsName() (string, error) {
	var n uint32
	if err := ioctl.Ioctl(uintptr(p.fd), tiocgptn, uintptr(unsafe.Pointer(&n))); err != nil {
		return "", wrapErr("pty number", err)
	}
	return "/dev/pts/" + strconv.FormatUint(uint64(n), 10), nil
}

// SetWinSize sets the window size associated with the port's line
// discipline.
func (p *Port) SetWinSize(w *Winsize) error {
	return wrapErr("set winsize", ioctl.Ioctl(uintptr(p.fd), tiocswinsz, uintptr(unsafe.Pointer(w))))
}
