package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often and how fast an operation is retried
type RetryPolicy struct {
	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// OnRetry is called before every re-attempt with the attempt that failed
	OnRetry func(attempt int, err error)
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = 200 * time.Millisecond
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	return p
}

func (p RetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.Attempts-1)), ctx)
}

// Retry runs fn until it succeeds, returns a permanent error, the attempts
// are exhausted or ctx is done. The last error is returned unwrapped.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	policy = policy.withDefaults()

	attempt := 0
	operation := func() error {
		attempt++
		return fn(ctx)
	}

	notify := func(err error, _ time.Duration) {
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}
	}

	err := backoff.RetryNotify(operation, policy.newBackOff(ctx), notify)
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}

// RetryValue is Retry for operations that produce a value
func RetryValue[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Retry(ctx, policy, func(ctx context.Context) error {
		value, err := fn(ctx)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	return result, err
}
