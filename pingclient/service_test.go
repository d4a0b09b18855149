package pingclient

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gorevive/gorevive/commonerrors"
	"github.com/gorevive/gorevive/mocksocket"
	"github.com/gorevive/gorevive/retry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// serveOnce reads one line off the surrogate's InputStream and, if it's the
// expected ping, writes back the expected reply.
func serveOnce(t *testing.T, surrogate *mocksocket.MockSocketSurrogate) {
	t.Helper()
	line, err := bufio.NewReader(surrogate.InputStream()).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, pingMessage, line)
	_, err = surrogate.OutputStream().Write([]byte(expectedReply + "\n"))
	require.NoError(t, err)
	require.NoError(t, surrogate.OutputStream().Flush())
}

func newMockDial(svc *mocksocket.MockSocketService) DialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return svc.ConnectSocket("mock", 4242), nil
	}
}

func TestService_CheckRemoteIsAlive_Success(t *testing.T) {
	defer goleak.VerifyNone(t)
	svc := mocksocket.NewMockSocketService(nil, 64)
	defer func() { require.NoError(t, svc.CloseAll(context.Background())) }()

	s := NewService("mock", 4242)
	s.Dial = newMockDial(svc)

	done := make(chan struct{})
	go func() {
		defer close(done)
		surrogate, err := svc.WaitForAndClearTheOnlyConnectedSocketMock(context.Background(), time.Second)
		if !assert.NoError(t, err) {
			return
		}
		serveOnce(t, surrogate)
	}()

	require.NoError(t, s.CheckRemoteIsAlive(context.Background()))
	<-done
}

func TestService_CheckRemoteIsAlive_UnexpectedReply(t *testing.T) {
	defer goleak.VerifyNone(t)
	svc := mocksocket.NewMockSocketService(nil, 64)
	defer func() { require.NoError(t, svc.CloseAll(context.Background())) }()

	s := NewService("mock", 4242)
	s.Dial = newMockDial(svc)

	done := make(chan struct{})
	go func() {
		defer close(done)
		surrogate, err := svc.WaitForAndClearTheOnlyConnectedSocketMock(context.Background(), time.Second)
		if !assert.NoError(t, err) {
			return
		}
		_, _ = bufio.NewReader(surrogate.InputStream()).ReadString('\n')
		_, err = surrogate.OutputStream().Write([]byte("NACK\n"))
		assert.NoError(t, err)
		assert.NoError(t, surrogate.OutputStream().Flush())
	}()

	err := s.CheckRemoteIsAlive(context.Background())
	require.ErrorIs(t, err, commonerrors.ErrInvalid)
	<-done
}

func TestService_CheckRemoteIsAliveWithRetry_RecoversAfterKilledSocket(t *testing.T) {
	defer goleak.VerifyNone(t)
	svc := mocksocket.NewMockSocketService(nil, 64)
	defer func() { require.NoError(t, svc.CloseAll(context.Background())) }()

	attempt := 0
	s := NewService("mock", 4242)
	s.Dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		attempt++
		facade := svc.ConnectSocket("mock", 4242)
		if attempt == 1 {
			require.NoError(t, facade.Close())
		}
		return facade, nil
	}

	go func() {
		for i := 0; i < 5; i++ {
			surrogate, err := svc.WaitForAndClearTheOnlyConnectedSocketMock(context.Background(), time.Second)
			if err != nil {
				return
			}
			if i == 0 {
				continue
			}
			serveOnce(t, surrogate)
			return
		}
	}()

	policy := &retry.RetryPolicyConfiguration{
		Enabled:      true,
		RetryMax:     3,
		RetryWaitMin: 5 * time.Millisecond,
		RetryWaitMax: 20 * time.Millisecond,
	}
	err := s.CheckRemoteIsAliveWithRetry(context.Background(), policy)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, attempt, 2)
}
