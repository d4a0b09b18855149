package blockio

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
)

// Reader reads blocks written by a Writer and serves their decompressed
// content through Read, one block's worth at a time.
type Reader struct {
	r            io.Reader
	maxBlockSize int

	out    []byte
	outOff int

	eofReached bool
	stickyErr  error
}

// NewReader returns a Reader over r with MaxBlockSize as its per-block
// allocation cap.
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, MaxBlockSize)
}

// NewReaderSize is NewReader with an explicit cap on the compressed and
// uncompressed length a single block may declare. maxBlockSize <= 0
// defaults to MaxBlockSize.
func NewReaderSize(r io.Reader, maxBlockSize int) *Reader {
	if maxBlockSize <= 0 {
		maxBlockSize = MaxBlockSize
	}
	return &Reader{r: r, maxBlockSize: maxBlockSize}
}

// Read fills p from the current block, pulling and decompressing the next
// block as needed. Once a read fails, every later call returns the same
// error without touching the underlying reader again.
func (cr *Reader) Read(p []byte) (int, error) {
	if cr.stickyErr != nil {
		return 0, cr.stickyErr
	}
	count := 0
	for count < len(p) {
		if cr.outOff >= len(cr.out) {
			if err := cr.readAndDecompress(); err != nil {
				if err == io.EOF {
					if count > 0 {
						return count, nil
					}
					return 0, io.EOF
				}
				cr.stickyErr = err
				return count, err
			}
		}
		n := copy(p[count:], cr.out[cr.outOff:])
		cr.outOff += n
		count += n
	}
	return count, nil
}

func (cr *Reader) readAndDecompress() error {
	if cr.eofReached {
		return io.EOF
	}

	var header [2]byte
	if _, err := io.ReadFull(cr.r, header[:]); err != nil {
		cr.eofReached = true
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return io.EOF
		}
		return err
	}
	if header != Magic {
		return fmt.Errorf("%w: got %x, want %x", ErrBadMagic, header, Magic)
	}

	var lens [8]byte
	if _, err := io.ReadFull(cr.r, lens[:]); err != nil {
		return io.ErrUnexpectedEOF
	}
	compLen := int(binary.BigEndian.Uint32(lens[0:4]))
	rawLen := int(binary.BigEndian.Uint32(lens[4:8]))
	if compLen > cr.maxBlockSize {
		return blockTooLarge(compLen, cr.maxBlockSize)
	}
	if rawLen > cr.maxBlockSize {
		return blockTooLarge(rawLen, cr.maxBlockSize)
	}

	compressed := make([]byte, compLen)
	if _, err := io.ReadFull(cr.r, compressed); err != nil {
		return io.ErrUnexpectedEOF
	}

	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()
	out := make([]byte, rawLen)
	if _, err := io.ReadFull(fr, out); err != nil {
		return fmt.Errorf("blockio: corrupt block: %w", err)
	}

	cr.out = out
	cr.outOff = 0
	return nil
}

var _ io.Reader = (*Reader)(nil)
