// Package pingclient is a minimal TCP-ping client: dial a remote, send a
// single line, require a one-word reply. It exists primarily to exercise
// mocksocket end-to-end — its Dial seam lets a test substitute a
// MockSocketSurrogate's facade for a real net.Conn.
package pingclient

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/gorevive/gorevive/commonerrors"
	"github.com/gorevive/gorevive/retry"
)

const (
	pingMessage    = "PING\n"
	expectedReply  = "ACK"
	defaultNetwork = "tcp"
)

// DialFunc opens a connection to addr. Defaults to net.Dialer.DialContext;
// overridden in tests to hand back a mock socket facade instead.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Service pings a single remote address and checks it replies correctly.
type Service struct {
	RemoteAddr     string
	RemotePort     int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	Dial   DialFunc
	Logger logr.Logger
}

// NewService returns a Service with sane defaults (5s connect timeout, 5s
// read timeout, real TCP dialing, discarded logging).
func NewService(remoteAddr string, remotePort int) *Service {
	return &Service{
		RemoteAddr:     remoteAddr,
		RemotePort:     remotePort,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		Logger:         logr.Discard(),
	}
}

func (s *Service) dial(ctx context.Context) (net.Conn, error) {
	if s.Dial != nil {
		return s.Dial(ctx, defaultNetwork, s.address())
	}
	d := net.Dialer{Timeout: s.ConnectTimeout}
	return d.DialContext(ctx, defaultNetwork, s.address())
}

func (s *Service) address() string {
	return fmt.Sprintf("%s:%d", s.RemoteAddr, s.RemotePort)
}

// CheckRemoteIsAlive dials the remote, sends a ping line, and requires the
// reply's first word to equal "ACK". Connection and read deadlines both
// come from the Service's configured timeouts.
func (s *Service) CheckRemoteIsAlive(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, s.ConnectTimeout)
	defer cancel()

	conn, err := s.dial(connectCtx)
	if err != nil {
		return commonerrors.WrapError(commonerrors.ErrUndefined, err, "dialing "+s.address())
	}
	defer conn.Close() //nolint:errcheck

	if s.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			return commonerrors.WrapError(commonerrors.ErrUndefined, err, "setting read deadline")
		}
	}

	if _, err := conn.Write([]byte(pingMessage)); err != nil {
		return commonerrors.WrapError(commonerrors.ErrUndefined, err, "writing ping")
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return commonerrors.WrapError(commonerrors.ErrUndefined, err, "reading ping reply")
	}
	reply = strings.TrimSpace(reply)
	if reply != expectedReply {
		return commonerrors.Newf(commonerrors.ErrInvalid, "unexpected ping reply %q from %s", reply, s.address())
	}
	return nil
}

// CheckRemoteIsAliveWithRetry retries CheckRemoteIsAlive under policy,
// logging each failed attempt. A nil policy disables retrying and is
// equivalent to calling CheckRemoteIsAlive directly.
func (s *Service) CheckRemoteIsAliveWithRetry(ctx context.Context, policy *retry.RetryPolicyConfiguration) error {
	return retry.RetryOnError(ctx, s.Logger, policy, func() error {
		return s.CheckRemoteIsAlive(ctx)
	}, "ping check failed against "+s.address(), commonerrors.ErrUndefined, commonerrors.ErrInvalid)
}
