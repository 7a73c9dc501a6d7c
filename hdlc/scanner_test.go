package hdlc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, s *Scanner, bytes []byte) (*Frame, error) {
	t.Helper()
	for i, b := range bytes {
		f, err := s.Feed(b)
		if f != nil || err != nil {
			require.Equal(t, len(bytes)-1, i, "frame/error surfaced before the final byte")
			return f, err
		}
	}
	return nil, nil
}

func TestScannerUnnumberedFrame(t *testing.T) {
	s := NewScanner(CtrlSET)
	frame := Build(CtrlSET, nil)
	f, err := feedAll(t, s, frame)
	require.NoError(t, err)
	require.Equal(t, CtrlSET, f.Control)
	require.Nil(t, f.Payload)
}

func TestScannerUnexpectedControl(t *testing.T) {
	s := NewScanner(CtrlUA)
	frame := Build(CtrlSET, nil)
	// The scanner reports the mismatch on the control byte itself.
	f, err := feedAll(t, s, frame[:3])
	require.Nil(t, f)
	require.ErrorIs(t, err, ErrUnexpectedControl)
}

func TestScannerBCC1Mismatch(t *testing.T) {
	s := NewScanner(CtrlSET)
	frame := Build(CtrlSET, nil)
	frame[3] ^= 0xFF // corrupt BCC1
	// The scanner reports the mismatch on the BCC1 byte itself.
	f, err := feedAll(t, s, frame[:4])
	require.Nil(t, f)
	require.ErrorIs(t, err, ErrBCC1Mismatch)
}

func TestScannerBCC2Mismatch(t *testing.T) {
	s := NewScanner(CtrlI0)
	frame := Build(CtrlI0, []byte{0x11, 0x22})
	frame[len(frame)-2] ^= 0xFF // corrupt the stuffed BCC2 byte
	f, err := feedAll(t, s, frame)
	require.Nil(t, f)
	require.ErrorIs(t, err, ErrBCCMismatch)
}

func TestScannerTruncatedEscape(t *testing.T) {
	s := NewScanner(CtrlI0)
	frame := []byte{Flag, Address, byte(CtrlI0), BCC1(CtrlI0), Escape, Flag}
	f, err := feedAll(t, s, frame)
	require.Nil(t, f)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestScannerResyncsAfterGarbage(t *testing.T) {
	s := NewScanner(CtrlSET)
	garbage := []byte{0x01, 0x02, 0x03}
	for _, b := range garbage {
		f, err := s.Feed(b)
		require.Nil(t, f)
		require.NoError(t, err)
	}
	frame := Build(CtrlSET, nil)
	f, err := feedAll(t, s, frame)
	require.NoError(t, err)
	require.Equal(t, CtrlSET, f.Control)
}

func TestScannerSkipsFlagFill(t *testing.T) {
	s := NewScanner(CtrlSET)
	frame := Build(CtrlSET, nil)
	// Duplicate the opening flag, as a transmitter idling on flags before
	// a frame would produce.
	padded := append([]byte{Flag, Flag}, frame...)
	f, err := feedAll(t, s, padded)
	require.NoError(t, err)
	require.Equal(t, CtrlSET, f.Control)
}
