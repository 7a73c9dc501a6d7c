package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenPTYWriteRead(t *testing.T) {
	master, slave, err := OpenPTY()
	require.NoError(t, err)
	defer master.Close()
	defer slave.Close()

	n, err := master.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	require.NoError(t, slave.WaitReadable(time.Second))
	buf := make([]byte, 16)
	n, err = slave.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), buf[:n])
}

func TestPortReadNonBlockingWhenIdle(t *testing.T) {
	_, slave, err := OpenPTY()
	require.NoError(t, err)
	defer slave.Close()

	buf := make([]byte, 16)
	n, err := slave.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestPortDoubleCloseReturnsErrClosed(t *testing.T) {
	_, slave, err := OpenPTY()
	require.NoError(t, err)
	require.NoError(t, slave.Close())
	require.ErrorIs(t, slave.Close(), ErrClosed)
}

func TestPortOperationsAfterCloseReturnErrClosed(t *testing.T) {
	_, slave, err := OpenPTY()
	require.NoError(t, err)
	require.NoError(t, slave.Close())

	_, err = slave.Write([]byte("x"))
	require.ErrorIs(t, err, ErrClosed)

	_, err = slave.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrClosed)

	err = slave.WaitReadable(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrClosed)

	require.Equal(t, -1, slave.Fd())
}
