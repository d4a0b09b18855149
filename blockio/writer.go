// Package blockio implements a length-prefixed deflate block codec: data
// is buffered up to a configurable block size, compressed, and written as
// a self-describing block (magic, compressed length, uncompressed length,
// payload). Unlike compress/flate used directly, Flush forces whatever is
// currently buffered out as a short block instead of doing nothing, which
// is the entire reason this wrapper exists.
package blockio

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic is written at the start of every block. For reference, gzip uses
// 0x1F 0x8B.
var Magic = [2]byte{0x1F, 0x8F}

const (
	// DefaultBlockSize is used by NewWriter when blockSize <= 0.
	DefaultBlockSize = 32 * 1024
	// MaxBlockSize bounds both the compressed and uncompressed length a
	// Reader will allocate for, guarding against a malicious or corrupt
	// header requesting an absurd buffer.
	MaxBlockSize = 1 << 20
)

var (
	// ErrBadMagic is returned when a block's header does not start with
	// Magic.
	ErrBadMagic = errors.New("blockio: wrong magic number, incoming data was not written by blockio.Writer")
	// ErrBlockTooLarge is returned when a block's declared compressed or
	// uncompressed length exceeds the Reader's configured maximum.
	ErrBlockTooLarge = errors.New("blockio: block size exceeds maximum")
)

type flusher interface {
	Flush() error
}

// Writer buffers plaintext up to blockSize bytes, compresses it with
// compress/flate at the given level, and writes it to the underlying
// io.Writer as one block once full or once Flush is called.
type Writer struct {
	w     io.Writer
	level int
	buf   []byte
	len   int
}

// NewWriter returns a Writer over w. blockSize <= 0 defaults to
// DefaultBlockSize. level is a compress/flate level; 0 defaults to
// flate.DefaultCompression.
func NewWriter(w io.Writer, blockSize, level int) *Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if level == 0 {
		level = flate.DefaultCompression
	}
	return &Writer{w: w, level: level, buf: make([]byte, blockSize)}
}

// Write buffers p, sending a block to the underlying writer each time the
// buffer fills.
func (cw *Writer) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n := copy(cw.buf[cw.len:], p)
		cw.len += n
		p = p[n:]
		written += n
		if cw.len == len(cw.buf) {
			if err := cw.compressAndSend(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (cw *Writer) compressAndSend() error {
	if cw.len == 0 {
		return nil
	}
	var compressed bytes.Buffer
	fw, err := flate.NewWriter(&compressed, cw.level)
	if err != nil {
		return err
	}
	if _, err := fw.Write(cw.buf[:cw.len]); err != nil {
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}

	var header [10]byte
	header[0], header[1] = Magic[0], Magic[1]
	binary.BigEndian.PutUint32(header[2:6], uint32(compressed.Len()))
	binary.BigEndian.PutUint32(header[6:10], uint32(cw.len))

	if _, err := cw.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := cw.w.Write(compressed.Bytes()); err != nil {
		return err
	}
	if f, ok := cw.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}

	cw.len = 0
	return nil
}

// Flush compresses and sends whatever is currently buffered, even if the
// block isn't full, then flushes the underlying writer if it supports it.
func (cw *Writer) Flush() error {
	return cw.compressAndSend()
}

// Close flushes any buffered data and closes the underlying writer if it
// implements io.Closer.
func (cw *Writer) Close() error {
	if err := cw.compressAndSend(); err != nil {
		return err
	}
	if c, ok := cw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ io.WriteCloser = (*Writer)(nil)

func blockTooLarge(n, max int) error {
	return fmt.Errorf("%w: %d exceeds %d", ErrBlockTooLarge, n, max)
}
