package commonerrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoLogger     = errors.New("missing logger")
	ErrNoLoggerSource = errors.New("missing logger source")
	ErrNoLogSource  = errors.New("missing log source")
	ErrUndefined    = errors.New("undefined")
	ErrTimeout      = errors.New("timeout")
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrCancelled    = errors.New("cancelled")
	ErrEmpty        = errors.New("empty")
	ErrTooLarge     = errors.New("too large")
	ErrEOF          = errors.New("EOF")
	ErrAssertion    = errors.New("assertion failed")

	// ErrStreamClosed is returned by operations attempted on a closed
	// OutputStream. Its message carries the literal substring
	// "Stream Closed" so callers pattern-matching on message text still
	// see it.
	ErrStreamClosed = errors.New("Stream Closed")

	// ErrStreamKilled is returned by a write on a killed stream that has no
	// sticky kill error set. Message carries the literal substring
	// "Stream [temporarily] killed".
	ErrStreamKilled = errors.New("Stream [temporarily] killed")

	// ErrWorkerFault wraps the first terminal failure reported by a
	// stream's background worker.
	ErrWorkerFault = errors.New("worker fault")

	// ErrInterrupted is raised when a blocking wait is cancelled out of
	// band.
	ErrInterrupted = errors.New("interrupted")
)

// Any reports whether target matches (via errors.Is in either direction)
// any of err.
func Any(target error, err ...error) bool {
	for _, e := range err {
		if e == nil || target == nil {
			continue
		}
		if errors.Is(e, target) || errors.Is(target, e) {
			return true
		}
	}
	return false
}

// None is the negation of Any.
func None(target error, err ...error) bool {
	return !Any(target, err...)
}

// New wraps sentinel with msg, preserving errors.Is(result, sentinel).
func New(sentinel error, msg string) error {
	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// Newf is the formatted variant of New.
func Newf(sentinel error, format string, args ...interface{}) error {
	return New(sentinel, fmt.Sprintf(format, args...))
}

// WrapError chains cause under sentinel, keeping both reachable via
// errors.Is/errors.As.
func WrapError(sentinel, cause error, msg string) error {
	if cause == nil {
		return New(sentinel, msg)
	}
	if msg == "" {
		return fmt.Errorf("%w: %w", sentinel, cause)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, msg, cause)
}

// Ignore returns nil if err matches one of ignorable, otherwise err.
func Ignore(err error, ignorable ...error) error {
	if err == nil {
		return nil
	}
	if Any(err, ignorable...) {
		return nil
	}
	return err
}

// ConvertContextError maps context package sentinels onto this package's
// cancellation/timeout sentinels; any other error passes through
// unchanged.
func ConvertContextError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return WrapError(ErrCancelled, err, "")
	case errors.Is(err, context.DeadlineExceeded):
		return WrapError(ErrTimeout, err, "")
	default:
		return err
	}
}

// ErrFromContext returns ConvertContextError(ctx.Err()).
func ErrFromContext(ctx context.Context) error {
	return ConvertContextError(ctx.Err())
}

// CorrespondTo reports whether err's message contains substr. Used to
// recognise platform-specific error strings that do not have a stable
// sentinel to compare against (e.g. sync(2) returning EINVAL on some
// terminals, see https://github.com/uber-go/zap/issues/328).
func CorrespondTo(err error, substr string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), substr)
}
