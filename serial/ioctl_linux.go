package serial

import (
	ioctl "github.com/daedaluz/goioctl"
	"unsafe"
)

// ioctl request numbers, trimmed from the teacher's much larger table to
// exactly the ones this package issues: termios get/set, input/output
// flush, and the handful needed to open a PTY pair for loopback testing.
var (
	tcgets = uintptr(0x5401)
	tcsets = uintptr(0x5402)

	tcflsh = uintptr(0x540B)

	tiocgptn   = ioctl.IOR('T', 0x30, unsafe.Sizeof(uint32(0)))
	tiocsptlck = ioctl.IOW('T', 0x31, unsafe.Sizeof(int32(0)))

	tiocswinsz = uintptr(0x5414)
)
