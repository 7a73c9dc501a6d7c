package hdlc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPlainPayload(t *testing.T) {
	got := Build(IControl(0), []byte{0x41})
	want := []byte{Flag, Address, 0x00, BCC1(CtrlI0), 0x41, 0x41, Flag}
	require.Equal(t, want, got)
}

func TestBuildStuffedPayload(t *testing.T) {
	got := Build(IControl(0), []byte{0x7E})
	want := []byte{Flag, Address, 0x00, BCC1(CtrlI0), Escape, 0x7E ^ EscXor, Escape, 0x7E ^ EscXor, Flag}
	require.Equal(t, want, got)
}

func TestBuildEscapeByteInPayload(t *testing.T) {
	got := Build(IControl(1), []byte{Escape})
	want := []byte{Flag, Address, byte(CtrlI1), BCC1(CtrlI1), Escape, Escape ^ EscXor, Escape, Escape ^ EscXor, Flag}
	require.Equal(t, want, got)
}

func TestBuildSupervisoryFrameHasNoPayloadRegion(t *testing.T) {
	got := Build(CtrlRR0, nil)
	want := []byte{Flag, Address, byte(CtrlRR0), BCC1(CtrlRR0), Flag}
	require.Equal(t, want, got)
}

func TestBuildEmptyIFramePayloadStillCarriesBCC2(t *testing.T) {
	got := Build(CtrlI0, nil)
	want := []byte{Flag, Address, byte(CtrlI0), BCC1(CtrlI0), 0x00, Flag}
	require.Equal(t, want, got)
}

func TestFoldXOR(t *testing.T) {
	require.Equal(t, byte(0), FoldXOR(nil))
	require.Equal(t, byte(0x41), FoldXOR([]byte{0x41}))
	require.Equal(t, byte(0x41^0x42), FoldXOR([]byte{0x41, 0x42}))
}

func TestBCC1(t *testing.T) {
	require.Equal(t, Address^byte(CtrlSET), BCC1(CtrlSET))
}

func TestRoundTripManyPayloads(t *testing.T) {
	payloads := [][]byte{
		{}, // an empty I-frame payload decodes to an empty, non-nil slice
		{0x01, 0x02, 0x03},
		{Flag},
		{Escape},
		{Flag, Escape, Flag},
		bytes.Repeat([]byte{0xAA}, 250),
	}
	for _, p := range payloads {
		for n := 0; n < 2; n++ {
			frame := Build(IControl(n), p)
			scanner := NewScanner(CtrlI0, CtrlI1)
			var out *Frame
			for _, b := range frame {
				f, err := scanner.Feed(b)
				require.NoError(t, err)
				if f != nil {
					out = f
				}
			}
			require.NotNil(t, out)
			require.Equal(t, IControl(n), out.Control)
			require.Equal(t, p, out.Payload)
		}
	}
}
