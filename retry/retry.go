// Package retry provides retry helpers for flaky operations, e.g.
// pingclient reconnecting a killed stream pipe.
package retry

import (
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/go-logr/logr"

	"github.com/gorevive/gorevive/commonerrors"
)

// RetryPolicyConfiguration configures how RetryIf/RetryOnError back off
// between attempts.
type RetryPolicyConfiguration struct {
	Enabled              bool
	LinearBackOffEnabled bool
	BackOffEnabled       bool
	RetryMax             int
	RetryWaitMin         time.Duration
	RetryWaitMax         time.Duration
}

// DefaultRetryPolicyConfiguration returns a policy suitable for
// reconnecting a pingclient socket: exponential backoff, five attempts.
func DefaultRetryPolicyConfiguration() *RetryPolicyConfiguration {
	return &RetryPolicyConfiguration{
		Enabled:        true,
		BackOffEnabled: true,
		RetryMax:       5,
		RetryWaitMin:   100 * time.Millisecond,
		RetryWaitMax:   5 * time.Second,
	}
}

// RetryIf will retry fn when the value returned from retryConditionFn is true.
func RetryIf(ctx context.Context, logger logr.Logger, retryPolicy *RetryPolicyConfiguration, fn func() error, msgOnRetry string, retryConditionFn func(err error) bool) error {
	if retryPolicy == nil {
		return fmt.Errorf("%w: missing retry policy configuration", commonerrors.ErrUndefined)
	}
	if !retryPolicy.Enabled {
		return fn()
	}
	var retryType retry.DelayTypeFunc
	switch {
	case retryPolicy.LinearBackOffEnabled:
		retryType = retry.CombineDelay(retry.FixedDelay, retry.RandomDelay)
	case retryPolicy.BackOffEnabled:
		retryType = retry.BackOffDelay
	default:
		retryType = retry.FixedDelay
	}

	retryMax := retryPolicy.RetryMax
	if retryMax < 0 {
		retryMax = 0
	}

	return commonerrors.ConvertContextError(
		retry.Do(
			fn,
			retry.OnRetry(func(n uint, err error) {
				logger.Error(err, fmt.Sprintf("%v (attempt #%v)", msgOnRetry, n+1), "attempt", n+1)
			}),
			retry.Delay(retryPolicy.RetryWaitMin),
			retry.MaxDelay(retryPolicy.RetryWaitMax),
			retry.MaxJitter(25*time.Millisecond),
			retry.DelayType(retryType),
			retry.Attempts(uint(retryMax)),
			retry.RetryIf(retryConditionFn),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
		),
	)
}

// RetryOnError allows the caller to retry fn when the error returned by fn
// matches one of retriableErr. retryPolicy defines the maximum retries and
// the wait interval between two attempts.
func RetryOnError(ctx context.Context, logger logr.Logger, retryPolicy *RetryPolicyConfiguration, fn func() error, msgOnRetry string, retriableErr ...error) error {
	return RetryIf(ctx, logger, retryPolicy, fn, msgOnRetry, func(err error) bool {
		return commonerrors.Any(err, retriableErr...)
	})
}
