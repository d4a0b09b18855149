package mocksocket

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/gorevive/gorevive/collection/queue"
	"github.com/gorevive/gorevive/commonerrors"
	"github.com/gorevive/gorevive/logs"
	"github.com/gorevive/gorevive/parallelisation"
)

var surrogateCounter atomic.Int64

func nextSurrogateName() string {
	return "mocksocket-" + strconv.FormatInt(surrogateCounter.Inc(), 10)
}

// MockSocketService hands out MockSocketSurrogate connections and lets a
// test drain the resulting registry afterwards, in connection order.
// Connections are never implicitly removed; a test must explicitly clear
// or wait for them.
type MockSocketService struct {
	bufferSize int
	logger     logs.Loggers
	connected  *queue.BlockingDeque[*MockSocketSurrogate]
}

// NewMockSocketService returns an empty service whose surrogates use
// bufferSize-byte pipes. If logger is nil, a no-op logger is used.
func NewMockSocketService(logger logs.Loggers, bufferSize int) *MockSocketService {
	if logger == nil {
		logger, _ = logs.NewNoopLogger("mocksocket")
	}
	return &MockSocketService{
		bufferSize: bufferSize,
		logger:     logger,
		connected:  queue.NewBlockingDeque[*MockSocketSurrogate](),
	}
}

// ConnectSocket creates a surrogate, calls Connect(addr, port, 0) on its
// facade, appends it to the registry, and returns the facade. It never
// fails: the surrogate is ready the moment this call returns.
func (s *MockSocketService) ConnectSocket(addr string, port int) *SocketFacade {
	return s.ConnectSocketWithTimeout(addr, port, 0)
}

// ConnectSocketWithTimeout is ConnectSocket with an explicit connect
// timeout recorded on the facade for later assertion; the mock never
// actually waits on it.
func (s *MockSocketService) ConnectSocketWithTimeout(addr string, port, timeoutMs int) *SocketFacade {
	surrogate := newMockSocketSurrogate(s.logger, nextSurrogateName(), s.bufferSize)
	surrogate.Facade.Connect(addr, port, timeoutMs)
	s.connected.PushBack(surrogate)
	return surrogate.Facade
}

// GetAllConnectedSocketMocks returns every surrogate currently registered,
// in connection order. The returned slice is a snapshot; surrogates
// connecting afterwards are not reflected in it, a necessary departure
// from a live-view collection (see DESIGN.md).
func (s *MockSocketService) GetAllConnectedSocketMocks() []*MockSocketSurrogate {
	return s.connected.PopFrontClone()
}

// GetAllConnectedSocketMocksClone is GetAllConnectedSocketMocks under a
// name that makes the snapshot explicit.
func (s *MockSocketService) GetAllConnectedSocketMocksClone() []*MockSocketSurrogate {
	return s.connected.PopFrontClone()
}

// GetAndClearAllConnectedSocketMocks atomically drains the registry and
// returns everything that was in it, in order.
func (s *MockSocketService) GetAndClearAllConnectedSocketMocks() []*MockSocketSurrogate {
	return s.connected.Drain()
}

// GetLastConnectedSocketMock returns the most recently connected
// surrogate, or ErrNotFound if the registry is empty.
func (s *MockSocketService) GetLastConnectedSocketMock() (*MockSocketSurrogate, error) {
	all := s.connected.PopFrontClone()
	if len(all) == 0 {
		return nil, commonerrors.New(commonerrors.ErrNotFound, "no connected mock sockets")
	}
	return all[len(all)-1], nil
}

// GetTheOnlyConnectedSocketMock returns the sole registered surrogate. It
// raises ErrNotFound if the registry is empty, and ErrInvalid if more than
// one is registered.
func (s *MockSocketService) GetTheOnlyConnectedSocketMock() (*MockSocketSurrogate, error) {
	all := s.connected.PopFrontClone()
	switch len(all) {
	case 0:
		return nil, commonerrors.New(commonerrors.ErrNotFound, "no connected mock sockets")
	case 1:
		return all[0], nil
	default:
		return nil, commonerrors.Newf(commonerrors.ErrInvalid, "[%d] connected mock sockets instead of exactly one.", len(all))
	}
}

// GetAndClearTheOnlyConnectedSocketMock pops the front of the registry. If
// that was the only entry, it is returned. If more remained, ErrInvalid is
// raised and the popped entry is still removed (the registry has already
// been partially drained).
func (s *MockSocketService) GetAndClearTheOnlyConnectedSocketMock() (*MockSocketSurrogate, error) {
	before := s.connected.Len()
	front, ok := s.connected.PopFront()
	if !ok {
		return nil, commonerrors.New(commonerrors.ErrNotFound, "no connected mock sockets")
	}
	if before > 1 {
		return nil, commonerrors.Newf(commonerrors.ErrInvalid, "[%d] connected mock sockets instead of exactly one.", before)
	}
	return front, nil
}

// WaitForAndClearTheOnlyConnectedSocketMock blocks up to timeout for a
// registry entry, popping and returning it on success. It raises
// ErrInvalid immediately if more than one entry is already registered,
// ErrTimeout if nothing arrives in time, and whatever ctx.Err() maps to if
// ctx is done first.
func (s *MockSocketService) WaitForAndClearTheOnlyConnectedSocketMock(ctx context.Context, timeout time.Duration) (*MockSocketSurrogate, error) {
	if n := s.connected.Len(); n > 1 {
		return nil, commonerrors.Newf(commonerrors.ErrInvalid, "[%d] connected mock sockets instead of one or none.", n)
	}
	return s.connected.WaitPopFront(ctx, timeout)
}

// AssertNoConnectedSocketMocks raises ErrAssertion if the registry is
// non-empty.
func (s *MockSocketService) AssertNoConnectedSocketMocks() error {
	if n := s.connected.Len(); n > 0 {
		return commonerrors.Newf(commonerrors.ErrAssertion, "there are %d connected socket mocks instead of none", n)
	}
	return nil
}

// CloseAll drains the registry and closes every surrogate concurrently,
// joining the first error, bounded by ctx. Not part of the original
// service surface, but needed so a test suite can tear down between cases
// without leaking goroutines.
func (s *MockSocketService) CloseAll(ctx context.Context) error {
	var g errgroup.Group
	for _, surrogate := range s.connected.Drain() {
		g.Go(surrogate.Close)
	}
	return parallelisation.WaitWithContext(ctx, &g)
}
