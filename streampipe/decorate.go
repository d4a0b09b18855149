package streampipe

import (
	"fmt"
	"runtime"
)

// DecoratedError wraps a fault raised by a killed/queued-exception stream
// with the caller's stack at the point of decoration. Its message always
// carries the literal substring cloneThrowableAddCurrentStack, and
// errors.Is/errors.As see through it to the original cause via Unwrap.
type DecoratedError struct {
	cause error
	frame string
}

func decorate(err error) error {
	if err == nil {
		return nil
	}
	pc, file, line, ok := runtime.Caller(2)
	frame := "unknown"
	if ok {
		fn := runtime.FuncForPC(pc)
		name := "unknown"
		if fn != nil {
			name = fn.Name()
		}
		frame = fmt.Sprintf("%s (%s:%d)", name, file, line)
	}
	return &DecoratedError{cause: err, frame: frame}
}

func (e *DecoratedError) Error() string {
	return fmt.Sprintf("%s [cloneThrowableAddCurrentStack: %s]", e.cause.Error(), e.frame)
}

func (e *DecoratedError) Unwrap() error {
	return e.cause
}
