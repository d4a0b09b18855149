package safeio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/dolmen-go/contextio"

	"github.com/gorevive/gorevive/commonerrors"
	"github.com/gorevive/gorevive/parallelisation"
)

// ReadAll reads the whole content of src similarly to io.ReadAll but with context control to stop when asked to.
func ReadAll(ctx context.Context, src io.Reader) ([]byte, error) {
	return ReadAtMost(ctx, src, -1, -1)
}

// ReadAtMost reads the content of src and at most max bytes. It provides a functionality close to io.ReadAtLeast but with a different goal.
// if bufferCapacity is not set i.e. set to a negative value, it will be set by default to max
// if max is set to a negative value, the entirety of the reader will be read
func ReadAtMost(ctx context.Context, src io.Reader, max int64, bufferCapacity int64) (content []byte, err error) {
	if bufferCapacity < 0 {
		if max < 0 {
			bufferCapacity = bytes.MinRead
		} else {
			bufferCapacity = max
		}
	}
	err = parallelisation.DetermineContextError(ctx)
	if err != nil {
		return
	}

	buf := bytes.NewBuffer(make([]byte, 0, bufferCapacity))
	// If the buffer overflows, we will get bytes.ErrTooLarge.
	// Return that as an error. Any other panic remains.
	defer func() {
		e := recover()
		if e == nil {
			return
		}
		if panicErr, ok := e.(error); ok && panicErr == bytes.ErrTooLarge {
			err = fmt.Errorf("%w: %v", commonerrors.ErrTooLarge, panicErr.Error())
		} else {
			panic(e)
		}
	}()
	var reader io.Reader
	if max >= 0 {
		reader = io.LimitReader(src, max)
	} else {
		reader = src
	}
	read, err := buf.ReadFrom(contextio.NewReader(ctx, reader))
	err = ConvertIOError(err)
	if err != nil {
		return
	}
	if read == int64(0) {
		err = fmt.Errorf("%w: no bytes were read", commonerrors.ErrEmpty)
	}
	content = buf.Bytes()
	return
}

// NewByteReader returns a context-aware reader over b.
func NewByteReader(ctx context.Context, b []byte) io.Reader {
	return NewContextualReader(ctx, bytes.NewReader(b))
}

// NewContextualReader returns a reader which is context aware. Context
// state is checked BEFORE every Read, using
// github.com/dolmen-go/contextio.
func NewContextualReader(ctx context.Context, reader io.Reader) io.Reader {
	return &contextualReader{r: contextio.NewReader(ctx, reader)}
}

// NewContextualReadCloser is like NewContextualReader but preserves Close.
// Unlike a plain NewContextualReader, this unblocks a Read stuck in a
// kernel read(2): contextio.NewReadCloser closes the underlying
// descriptor as soon as ctx is done, rather than only checking ctx before
// starting the next Read.
func NewContextualReadCloser(ctx context.Context, reader io.ReadCloser) io.ReadCloser {
	return &contextualReadCloser{contextualReader: contextualReader{r: contextio.NewReadCloser(ctx, reader)}}
}

// NewContextualMultipleReader concatenates several readers, similarly to
// io.MultiReader, but checks ctx before every Read.
func NewContextualMultipleReader(ctx context.Context, readers ...io.Reader) io.Reader {
	wrapped := make([]io.Reader, 0, len(readers))
	for _, r := range readers {
		wrapped = append(wrapped, NewContextualReader(ctx, r))
	}
	return io.MultiReader(wrapped...)
}

type contextualReader struct {
	r io.Reader
}

func (r *contextualReader) Read(p []byte) (n int, err error) {
	n, err = r.r.Read(p)
	err = ConvertIOError(err)
	return
}

type contextualReadCloser struct {
	contextualReader
}

func (r *contextualReadCloser) Close() error {
	return r.r.(io.Closer).Close()
}
