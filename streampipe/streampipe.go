package streampipe

import "github.com/gorevive/gorevive/logs"

// NewPipe builds a killable byte pipe of bufferSize bytes and wraps its
// two raw ends in a revivable InputStream/OutputStream pair, giving each
// side independent kill/revive/queue-exception control while preserving
// FIFO byte order end to end.
func NewPipe(logger logs.Loggers, name string, bufferSize int) (*InputStream, *OutputStream) {
	readEnd, writeEnd := newRawPipePair(bufferSize)
	in := NewInputStream(logger, name+"-read", readEnd)
	out := NewOutputStream(logger, name+"-write", writeEnd, bufferSize)
	return in, out
}
