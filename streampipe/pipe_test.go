package streampipe

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRawPipe_FIFOOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	r, w := newRawPipePair(4)
	defer r.Close()
	defer w.Close()

	go func() {
		_, _ = w.Write([]byte{1, 2, 3})
	}()

	got := make([]byte, 3)
	n, err := io.ReadFull(r, got)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestRawPipe_CloseReadEndUnblocksWriter(t *testing.T) {
	defer goleak.VerifyNone(t)
	r, w := newRawPipePair(0)

	writeErr := make(chan error, 1)
	go func() {
		_, err := w.Write([]byte{1, 2, 3})
		writeErr <- err
	}()

	require.NoError(t, r.Close())
	err := <-writeErr
	require.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestRawPipe_CloseWriteEndUnblocksReader(t *testing.T) {
	defer goleak.VerifyNone(t)
	r, w := newRawPipePair(0)

	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		_, err := r.Read(buf)
		readErr <- err
	}()

	require.NoError(t, w.Close())
	err := <-readErr
	require.ErrorIs(t, err, io.EOF)
}

func TestNewPipe_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)
	in, out := NewPipe(newTestLogger(), "p", 4)
	defer in.Close()
	defer out.Close()

	go func() {
		_, _ = out.Write([]byte("ping"))
		_ = out.Flush()
	}()

	got := make([]byte, 4)
	_, err := io.ReadFull(in, got)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(got))
}
