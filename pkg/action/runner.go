package action

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"
)

// FailedError is the generic action failure: the action label plus its cause.
type FailedError struct {
	Label string
	Err   error
}

func (e *FailedError) Error() string {
	if e.Err == nil {
		return e.Label
	}
	return e.Label + ": " + e.Err.Error()
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// Func is one attempt of an action.
type Func func(ctx context.Context) (Result, error)

// Policy parameterizes the retry behaviour of a Runner.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts uint

	// BackoffBase is the delay before the second attempt; it doubles each attempt
	BackoffBase time.Duration

	// MaxJitter bounds the random delay added on top of the backoff
	MaxJitter time.Duration

	// NonRetryable selects errors that are returned as is without another attempt
	NonRetryable func(error) bool
}

// DefaultPolicy is 5 attempts, 1.5s doubling backoff and up to 1s of jitter.
func DefaultPolicy(nonRetryable func(error) bool) Policy {
	return Policy{
		MaxAttempts:  5,
		BackoffBase:  1500 * time.Millisecond,
		MaxJitter:    time.Second,
		NonRetryable: nonRetryable,
	}
}

// Runner applies a Policy to action attempts.
type Runner struct {
	policy Policy
	log    *logrus.Logger
}

// NewRunner creates a runner for policy.
func NewRunner(log *logrus.Logger, policy Policy) *Runner {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Runner{policy: policy, log: log}
}

// Run executes fn until it returns a result, a non-retryable error, or the attempts
// run out. Retryable errors are wrapped in *FailedError labelled with label; when
// attempts are exhausted the last *FailedError is returned. Pending and already
// results are values, so they are never retried.
func (r *Runner) Run(ctx context.Context, label string, fn Func) (Result, error) {
	attempt := func() (Result, error) {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		if r.policy.NonRetryable != nil && r.policy.NonRetryable(err) {
			return Result{}, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		var failed *FailedError
		if errors.As(err, &failed) && failed.Label == label {
			return Result{}, failed
		}
		return Result{}, &FailedError{Label: label, Err: err}
	}

	return retry.DoWithData(attempt, r.options(ctx, label)...)
}

func (r *Runner) options(ctx context.Context, label string) []retry.Option {
	delayType := retry.BackOffDelay
	if r.policy.MaxJitter > 0 {
		delayType = retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)
	}

	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(r.policy.MaxAttempts),
		retry.Delay(r.policy.BackoffBase),
		retry.MaxJitter(r.policy.MaxJitter),
		retry.DelayType(delayType),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var failed *FailedError
			return errors.As(err, &failed)
		}),
		retry.OnRetry(func(n uint, err error) {
			r.log.WithFields(logrus.Fields{
				"action":  label,
				"attempt": n + 1,
				"error":   err,
			}).Warn("Action attempt failed, retrying")
		}),
	}
}
