// Package progressbar renders a redrawing 50-cell progress bar to a
// terminal, falling back to periodic plain-text percentage lines when
// the output isn't a TTY. It is CLI-only scaffolding, not part of the
// link or transfer protocol.
package progressbar

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const cells = 50

// Bar renders progress of a single known-total operation to an
// *os.File. Create one with New and call Update as the operation
// advances.
type Bar struct {
	out      *os.File
	isTTY    bool
	total    uint64
	lastCell int
	lastPct  int
}

// New returns a Bar writing to out. If out is not a terminal, Update
// instead prints one line per whole-percent advance instead of
// redrawing in place.
func New(out *os.File, total uint64) *Bar {
	return &Bar{
		out:      out,
		isTTY:    term.IsTerminal(int(out.Fd())),
		total:    total,
		lastCell: -1,
		lastPct:  -1,
	}
}

// Update redraws the bar (or prints the next percentage line) for the
// given count of bytes transferred out of Bar's total.
func (b *Bar) Update(done uint64) {
	pct := 100
	if b.total > 0 {
		pct = int(done * 100 / b.total)
	}
	filled := cells
	if b.total > 0 {
		filled = int(done * cells / b.total)
	}

	if b.isTTY {
		if filled == b.lastCell && pct == b.lastPct {
			return
		}
		b.lastCell, b.lastPct = filled, pct
		bar := make([]byte, cells)
		for i := range bar {
			if i < filled {
				bar[i] = '#'
			} else {
				bar[i] = '.'
			}
		}
		fmt.Fprintf(b.out, "\r[%s] %3d%%", bar, pct)
		return
	}

	if pct == b.lastPct {
		return
	}
	b.lastPct = pct
	fmt.Fprintf(b.out, "%3d%%\n", pct)
}

// Finish completes the bar, moving to a fresh line on a TTY.
func (b *Bar) Finish() {
	if b.isTTY {
		fmt.Fprintln(b.out)
	}
}
