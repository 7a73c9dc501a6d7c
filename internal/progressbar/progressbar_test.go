package progressbar

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateNonTTYPrintsPercentLines(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	bar := New(w, 100)
	require.False(t, bar.isTTY)

	bar.Update(0)
	bar.Update(50)
	bar.Update(100)
	bar.Finish()

	w.Close()
	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	out := string(buf[:n])
	require.Contains(t, out, "  0%")
	require.Contains(t, out, " 50%")
	require.Contains(t, out, "100%")
}

func TestUpdateZeroTotalReportsComplete(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	bar := New(w, 0)
	bar.Update(0)
	w.Close()
	buf := make([]byte, 64)
	n, _ := r.Read(buf)
	require.Contains(t, string(buf[:n]), "100%")
}
