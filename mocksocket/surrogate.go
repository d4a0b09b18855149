package mocksocket

import (
	"golang.org/x/sync/errgroup"

	"github.com/gorevive/gorevive/logs"
	"github.com/gorevive/gorevive/streampipe"
)

// MockSocketSurrogate bundles a SocketFacade with independent fault-
// injection control over both directions of traffic. Two pipes back it:
// an ingress pipe (the test writes, the facade's Read side consumes) and
// an egress pipe (the facade's Write side produces, the test reads). Each
// pipe contributes an InputStream and an OutputStream, so one surrogate
// owns four background workers.
type MockSocketSurrogate struct {
	Facade *SocketFacade

	inputStream  *streampipe.InputStream
	outputStream *streampipe.OutputStream

	controlForSocketInput  *streampipe.InputStream
	controlForSocketOutput *streampipe.OutputStream
}

func newMockSocketSurrogate(logger logs.Loggers, name string, bufferSize int) *MockSocketSurrogate {
	ingressIn, ingressOut := streampipe.NewPipe(logger, name+"-ingress", bufferSize)
	egressIn, egressOut := streampipe.NewPipe(logger, name+"-egress", bufferSize)

	return &MockSocketSurrogate{
		Facade:                 newSocketFacade(ingressIn, egressOut),
		inputStream:            egressIn,
		outputStream:           ingressOut,
		controlForSocketInput:  ingressIn,
		controlForSocketOutput: egressOut,
	}
}

// InputStream is the test-side read end: it reads whatever the system
// under test writes through the facade.
func (s *MockSocketSurrogate) InputStream() *streampipe.InputStream { return s.inputStream }

// OutputStream is the test-side write end: bytes written here are what the
// system under test will read through the facade.
func (s *MockSocketSurrogate) OutputStream() *streampipe.OutputStream { return s.outputStream }

// ControlForSocketInput is the same InputStream the facade's Read
// delegates to, exposed so a test can kill/queue-exception on reads the
// system under test is performing.
func (s *MockSocketSurrogate) ControlForSocketInput() *streampipe.InputStream {
	return s.controlForSocketInput
}

// ControlForSocketOutput is the same OutputStream the facade's Write
// delegates to, symmetric with ControlForSocketInput.
func (s *MockSocketSurrogate) ControlForSocketOutput() *streampipe.OutputStream {
	return s.controlForSocketOutput
}

// Close releases all four background workers backing this surrogate
// concurrently, joining the first error. Idempotent, since every
// underlying Close is.
func (s *MockSocketSurrogate) Close() error {
	var g errgroup.Group
	for _, closeFn := range []func() error{
		s.inputStream.Close,
		s.outputStream.Close,
		s.controlForSocketInput.Close,
		s.controlForSocketOutput.Close,
	} {
		g.Go(closeFn)
	}
	return g.Wait()
}
