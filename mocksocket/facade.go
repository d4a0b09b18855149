// Package mocksocket assembles streampipe's revivable streams into a
// net.Conn-shaped stand-in a system under test can dial into, plus a
// registry a test drains to get hold of whatever connected.
package mocksocket

import (
	"net"
	"sync"
	"time"

	"github.com/gorevive/gorevive/streampipe"
)

// remoteIP is the fixed address every mock socket facade reports itself
// connected to.
var remoteIP = net.IPv4(98, 76, 54, 32)

// SocketFacade is the net.Conn-shaped object a system under test dials
// into. Read and Write delegate to the revivable streams a test controls
// through the owning MockSocketSurrogate; Connect only records its
// arguments for later assertion.
type SocketFacade struct {
	in  *streampipe.InputStream
	out *streampipe.OutputStream

	mu               sync.Mutex
	remoteAddr       *net.TCPAddr
	connectedAddr    string
	connectTimeoutMs int
	connected        bool
}

func newSocketFacade(in *streampipe.InputStream, out *streampipe.OutputStream) *SocketFacade {
	return &SocketFacade{in: in, out: out}
}

// Connect records addr/port/timeoutMs for later inspection by the test. It
// never blocks and never fails: the surrogate backing it is already wired
// and ready the moment the service creates it.
func (f *SocketFacade) Connect(addr string, port int, timeoutMs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remoteAddr = &net.TCPAddr{IP: remoteIP, Port: port}
	f.connectedAddr = addr
	f.connectTimeoutMs = timeoutMs
	f.connected = true
}

// ConnectTimeoutMs returns the timeoutMs passed to Connect.
func (f *SocketFacade) ConnectTimeoutMs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectTimeoutMs
}

// ConnectedAddr returns the host string passed to Connect, for a test that
// wants to assert exactly what the system under test dialed, independent of
// RemoteAddr's fixed synthetic IP.
func (f *SocketFacade) ConnectedAddr() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectedAddr
}

// Connected reports whether Connect has been called.
func (f *SocketFacade) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *SocketFacade) Read(p []byte) (int, error)  { return f.in.Read(p) }
func (f *SocketFacade) Write(p []byte) (int, error) { return f.out.Write(p) }

// Close closes both the read and write sides. Idempotent.
func (f *SocketFacade) Close() error {
	inErr := f.in.Close()
	outErr := f.out.Close()
	if inErr != nil {
		return inErr
	}
	return outErr
}

// LocalAddr is unspecified by the mock contract; it returns a zero-value
// TCPAddr so SocketFacade satisfies net.Conn.
func (f *SocketFacade) LocalAddr() net.Addr { return &net.TCPAddr{} }

// RemoteAddr always reports the fixed 98.76.54.32 literal, with the port
// last passed to Connect.
func (f *SocketFacade) RemoteAddr() net.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remoteAddr != nil {
		return f.remoteAddr
	}
	return &net.TCPAddr{IP: remoteIP}
}

// SetDeadline and its Read/Write variants are accepted for net.Conn
// compatibility but not enforced: the mock streams have no wall-clock
// deadline, only kill/revive/queue-exception fault injection.
func (f *SocketFacade) SetDeadline(time.Time) error      { return nil }
func (f *SocketFacade) SetReadDeadline(time.Time) error  { return nil }
func (f *SocketFacade) SetWriteDeadline(time.Time) error { return nil }

var _ net.Conn = (*SocketFacade)(nil)
