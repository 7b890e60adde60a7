package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/metrics"
	"github.com/cenkalti/backoff/v4"
)

var ErrExhausted = errors.New("retry attempts exhausted")

// Exhausted 重试耗尽后发出的对账信号
type Exhausted struct {
	Operation string
	Attempts  int
	Err       error
}

// Policy 有界指数退避重试策略
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NewPolicy 从配置创建重试策略
func NewPolicy(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
	}
}

// Permanent 标记不可重试的错误
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// Do 按策略执行 fn，重试耗尽时调用 onExhausted 并返回包装了 ErrExhausted 的错误
func (p Policy) Do(ctx context.Context, operation string, fn func() error, onExhausted func(Exhausted)) error {
	attempts := 0
	permanent := false
	op := func() error {
		attempts++
		err := fn()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			permanent = true
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		logger.Warn("%s failed (attempt %d), retrying in %s: %v", operation, attempts, next, err)
	}

	err := backoff.RetryNotify(op, p.backOff(ctx), notify)
	if err == nil {
		return nil
	}
	if permanent {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %v", ctxErr, err)
	}

	logger.Error("%s exhausted after %d attempts, needs reconciliation: %v", operation, attempts, err)
	metrics.RetryExhaustedTotal.WithLabelValues(operation).Inc()
	if onExhausted != nil {
		onExhausted(Exhausted{Operation: operation, Attempts: attempts, Err: err})
	}

	return fmt.Errorf("%w: %s after %d attempts: %w", ErrExhausted, operation, attempts, err)
}
