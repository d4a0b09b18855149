package streampipe

import (
	"context"
	"io"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/atomic"

	"github.com/gorevive/gorevive/collection/queue"
	"github.com/gorevive/gorevive/commonerrors"
	"github.com/gorevive/gorevive/logs"
	"github.com/gorevive/gorevive/parallelisation"
	"github.com/gorevive/gorevive/safeio"
)

type controlMarker int

const controlFlush controlMarker = 1

type transferItem struct {
	b       byte
	control controlMarker
}

type flushResult struct {
	wake bool
	err  error
}

// flusher is implemented by underlying sinks that need their own Flush
// invoked once the worker has delivered every batched byte, e.g. a
// bufio.Writer. Sinks without it (e.g. the raw pipe) treat Flush as a
// no-op, since every accepted byte is already delivered synchronously.
type flusher interface {
	Flush() error
}

// OutputStream wraps a blocking byte sink with kill/revive and
// queue-exception fault injection, plus a background worker that batches
// writes so Write returns promptly even when the sink is slow.
type OutputStream struct {
	name   string
	logger logs.Loggers

	sink       io.Writer
	workerSink io.Writer

	bufferSize int

	killed             atomic.Bool
	closed             atomic.Bool
	decorateExceptions atomic.Bool

	killException     errorHolder
	transferException errorHolder
	exceptionQueue    queue.IQueue[error]

	transferQueue      chan transferItem
	availabilitySignal chan struct{}
	flushResponses     chan flushResult
	interrupted        chan struct{}

	flushMu deadlock.Mutex

	ctx         context.Context
	cancel      context.CancelFunc
	cancelStore *parallelisation.CancelFunctionStore
}

// NewOutputStream wraps sink with fault-injection controls and starts its
// background worker. bufferSize bounds both the transfer queue depth and
// the worker's write batch size. If logger is nil, a no-op logger is used.
func NewOutputStream(logger logs.Loggers, name string, sink io.Writer, bufferSize int) *OutputStream {
	if logger == nil {
		logger, _ = logs.NewNoopLogger(name)
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &OutputStream{
		name:               name,
		logger:             logger,
		sink:               sink,
		bufferSize:         bufferSize,
		exceptionQueue:     queue.NewThreadSafeQueue[error](),
		transferQueue:      make(chan transferItem, bufferSize),
		availabilitySignal: make(chan struct{}, 1),
		flushResponses:     make(chan flushResult, 1),
		interrupted:        make(chan struct{}, 1),
		ctx:                ctx,
		cancel:             cancel,
		cancelStore:        parallelisation.NewCancelFunctionsStore(),
	}
	s.cancelStore.RegisterCancelFunction(cancel)
	s.decorateExceptions.Store(true)
	s.workerSink = safeio.ContextualWriter(ctx, sink)
	id := nextWorkerID()
	go s.runWorker(id)
	return s
}

func (s *OutputStream) runWorker(id int64) {
	s.logger.Log("output worker starting", "stream", s.name, "worker", id)
	defer s.logger.Log("output worker exiting", "stream", s.name, "worker", id)

	batch := make([]byte, 0, s.bufferSize)
	flushBatch := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := s.workerSink.Write(batch)
		batch = batch[:0]
		return err
	}
	fail := func(err error) {
		s.transferException.Set(err)
		select {
		case s.flushResponses <- flushResult{err: err}:
		default:
		}
		select {
		case s.availabilitySignal <- struct{}{}:
		default:
		}
	}
	respondFlush := func() {
		select {
		case s.flushResponses <- flushResult{}:
		default:
		}
	}

	for {
		select {
		case s.availabilitySignal <- struct{}{}:
		default:
		}

		select {
		case item := <-s.transferQueue:
			if item.control == controlFlush {
				if err := flushBatch(); err != nil {
					fail(err)
					return
				}
				respondFlush()
				continue
			}
			batch = append(batch, item.b)
		drain:
			for len(batch) < s.bufferSize {
				select {
				case next := <-s.transferQueue:
					if next.control == controlFlush {
						if err := flushBatch(); err != nil {
							fail(err)
							return
						}
						respondFlush()
						continue
					}
					batch = append(batch, next.b)
				default:
					break drain
				}
			}
			if err := flushBatch(); err != nil {
				fail(err)
				return
			}
		case <-s.ctx.Done():
			_ = flushBatch()
			return
		}
	}
}

type writeOutcome struct {
	err error
}

func (s *OutputStream) checkWritePrecedence() (o writeOutcome, matched bool) {
	if s.closed.Load() {
		return writeOutcome{err: commonerrors.ErrStreamClosed}, true
	}
	if err := s.transferException.Get(); err != nil {
		return writeOutcome{err: s.decorateIfEnabled(err)}, true
	}
	if s.killed.Load() {
		if err := s.killException.Get(); err != nil {
			return writeOutcome{err: s.decorateIfEnabled(err)}, true
		}
		return writeOutcome{err: commonerrors.ErrStreamKilled}, true
	}
	if err, ok := s.exceptionQueue.Dequeue(); ok {
		return writeOutcome{err: s.decorateIfEnabled(err)}, true
	}
	return writeOutcome{}, false
}

func (s *OutputStream) decorateIfEnabled(err error) error {
	if err == nil || !s.decorateExceptions.Load() {
		return err
	}
	return decorate(err)
}

func (s *OutputStream) enqueue(item transferItem) error {
	for {
		if o, matched := s.checkWritePrecedence(); matched {
			return o.err
		}
		select {
		case s.transferQueue <- item:
			return nil
		case <-s.availabilitySignal:
			continue
		case <-s.interrupted:
			return s.decorateIfEnabled(commonerrors.ErrInterrupted)
		case <-s.ctx.Done():
			return s.decorateIfEnabled(commonerrors.ErrInterrupted)
		}
	}
}

// Write implements io.Writer, submitting bytes to the transfer queue one
// at a time so precedence (kill/queued-exception/closed) is re-checked
// between every byte.
func (s *OutputStream) Write(p []byte) (n int, err error) {
	for _, b := range p {
		if writeErr := s.enqueue(transferItem{b: b}); writeErr != nil {
			return n, writeErr
		}
		n++
	}
	return n, nil
}

// WriteByte accepts a single byte, blocking only while the transfer queue
// is full.
func (s *OutputStream) WriteByte(b byte) error {
	return s.enqueue(transferItem{b: b})
}

// Flush blocks until every byte accepted by a prior Write has been
// delivered to the underlying sink and the sink's own Flush (if any) has
// completed.
func (s *OutputStream) Flush() error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	select {
	case <-s.flushResponses:
	default:
	}
	if err := s.enqueue(transferItem{control: controlFlush}); err != nil {
		return err
	}
	for {
		if o, matched := s.checkWritePrecedence(); matched {
			return o.err
		}
		select {
		case res := <-s.flushResponses:
			switch {
			case res.wake:
				continue
			case res.err != nil:
				return s.decorateIfEnabled(res.err)
			default:
				if f, ok := s.sink.(flusher); ok {
					return f.Flush()
				}
				return nil
			}
		case <-s.interrupted:
			return s.decorateIfEnabled(commonerrors.ErrInterrupted)
		case <-s.ctx.Done():
			return s.decorateIfEnabled(commonerrors.ErrInterrupted)
		}
	}
}

func (s *OutputStream) wakeWaiters() {
	select {
	case s.availabilitySignal <- struct{}{}:
	default:
	}
	select {
	case s.flushResponses <- flushResult{wake: true}:
	default:
	}
}

// SetDecorateExceptions toggles whether raised faults are wrapped with the
// caller's stack. Enabled by default.
func (s *OutputStream) SetDecorateExceptions(enabled bool) {
	s.decorateExceptions.Store(enabled)
}

// InterruptBlocked delivers a one-shot, Java-style async interrupt to
// whichever Write/Flush call is currently blocked, or the next one to
// block if none currently is, without killing or closing the stream: the
// call after that behaves normally again. Distinct from Close, which tears
// the stream down permanently.
func (s *OutputStream) InterruptBlocked() {
	select {
	case s.interrupted <- struct{}{}:
	default:
	}
}

// Kill marks the stream killed with no sticky exception: subsequent writes
// raise ErrStreamKilled until Revive is called.
func (s *OutputStream) Kill() {
	s.killException.Set(nil)
	s.killed.Store(true)
	s.wakeWaiters()
}

// KillWithError marks the stream killed with a sticky exception:
// subsequent writes raise err until Revive is called. A later
// KillWithError call replaces the sticky exception.
func (s *OutputStream) KillWithError(err error) {
	s.killException.Set(err)
	s.killed.Store(true)
	s.wakeWaiters()
}

// Revive clears kill state; subsequent writes resume delivering to the
// underlying sink.
func (s *OutputStream) Revive() {
	s.killed.Store(false)
	s.killException.Set(nil)
	s.wakeWaiters()
}

// QueueWriteError schedules err to be raised, once, by the next write that
// would otherwise have been accepted. Kill state pre-empts a queued error.
func (s *OutputStream) QueueWriteError(err error) {
	s.exceptionQueue.Enqueue(err)
	s.wakeWaiters()
}

// Close flushes every previously accepted byte, terminates the background
// worker, and closes the underlying sink if it implements io.Closer.
// Idempotent; after Close, Write and Flush both fail with ErrStreamClosed.
func (s *OutputStream) Close() error {
	if s.closed.Load() {
		return nil
	}
	flushErr := s.Flush()
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.cancelStore.Cancel()
	var sinkErr error
	if c, ok := s.sink.(io.Closer); ok {
		sinkErr = c.Close()
	}
	if flushErr != nil {
		return flushErr
	}
	return sinkErr
}
