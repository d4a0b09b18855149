package streampipe

import (
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/atomic"
)

// workerCounter disambiguates worker goroutine names across the whole
// process, mirroring the teacher's subprocess.messaging pid counter.
var workerCounter atomic.Int64

func nextWorkerID() int64 {
	return workerCounter.Inc()
}

// errorHolder guards a single sticky error (killException/workerException/
// transferException), published with a lock rather than sync/atomic.Value
// since the concrete error type varies from one Set to the next and
// atomic.Value panics on inconsistent concrete types.
type errorHolder struct {
	mu  deadlock.Mutex
	err error
}

func (h *errorHolder) Get() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *errorHolder) Set(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}
