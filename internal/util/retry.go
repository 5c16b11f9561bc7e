package util

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy 返回每次重试前的等待策略
type RetryPolicy func() backoff.BackOff

// ConstantPolicy 固定间隔重试
func ConstantPolicy(delay time.Duration) RetryPolicy {
	return func() backoff.BackOff {
		return backoff.NewConstantBackOff(delay)
	}
}

// ExponentialPolicy 指数退避重试
func ExponentialPolicy(initial, max time.Duration) RetryPolicy {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = max
		return b
	}
}

// Permanent 标记不可重试的错误
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Retry 最多执行 maxAttempts 次 op，返回最后一次的结果或错误
func Retry[T any](ctx context.Context, maxAttempts int, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if policy == nil {
		policy = ConstantPolicy(0)
	}

	result, err := backoff.Retry(ctx, func() (T, error) {
		return op(ctx)
	},
		backoff.WithBackOff(policy()),
		backoff.WithMaxTries(uint(maxAttempts)),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return result, perm.Err
		}
	}
	return result, err
}
