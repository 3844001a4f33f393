package uow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"formcfg/internal/bootstrap/logging"
	"formcfg/internal/errs"
	"formcfg/internal/ports"
)

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingUnitOfWork re-runs the outermost transaction when it fails with a
// transient store error. Nested calls pass straight through so a savepoint
// is never retried on its own.
type RetryingUnitOfWork struct {
	next   ports.UnitOfWork
	policy RetryPolicy
}

var _ ports.UnitOfWork = (*RetryingUnitOfWork)(nil)

func NewRetryingUnitOfWork(next ports.UnitOfWork, policy RetryPolicy) *RetryingUnitOfWork {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryingUnitOfWork{next: next, policy: policy}
}

func (u *RetryingUnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if ports.InTx(ctx) || u.policy.MaxAttempts == 1 {
		return u.next.WithTx(ctx, fn)
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := u.next.WithTx(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if !errs.IsTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		logging.Warn(
			ctx,
			"transient store failure, retrying transaction",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", u.policy.MaxAttempts),
			slog.Any("err", errs.Loggable(err)),
		)
		return struct{}{}, err
	},
		backoff.WithBackOff(u.exponential()),
		backoff.WithMaxTries(uint(u.policy.MaxAttempts)),
	)
	return err
}

func (u *RetryingUnitOfWork) exponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.policy.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	if u.policy.MaxDelay > 0 {
		b.MaxInterval = u.policy.MaxDelay
	}
	return b
}
