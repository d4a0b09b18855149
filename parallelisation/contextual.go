package parallelisation

import (
	"context"

	"github.com/gorevive/gorevive/commonerrors"
)

// DetermineContextError determines what the context error is, if any,
// wrapping the underlying cancellation cause when one was set via
// context.WithCancelCause.
func DetermineContextError(ctx context.Context) error {
	err := commonerrors.ErrFromContext(ctx)
	if err == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil && cause != ctx.Err() {
		return commonerrors.WrapError(err, cause, "")
	}
	return err
}

// ContextualFunc is a function that can be cancelled via a context.
type ContextualFunc func(ctx context.Context) error
