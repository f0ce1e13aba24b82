// Package retry 提供指数退避重试机制，供取数操作在单次尝试内部使用.
// 守护层自身从不重试，重试属于协作方（各取数客户端）的职责.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Func 定义可被重试执行的函数原型.
type Func func() error

// Config 封装重试策略参数.
type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64
	MaxRetries     int
}

// DefaultConfig 返回通用的默认重试配置.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     2,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.1,
	}
}

// Do 按配置策略执行 fn，任何错误都触发重试.
func Do(ctx context.Context, fn Func, cfg Config) error {
	return DoIf(ctx, fn, func(error) bool { return true }, cfg)
}

// DoIf 仅在 shouldRetry 返回 true 时重试.
func DoIf(ctx context.Context, fn Func, shouldRetry func(error) bool, cfg Config) error {
	if cfg.MaxRetries <= 0 {
		return fn()
	}

	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxRetries || !shouldRetry(lastErr) {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(jittered(backoff, cfg.Jitter)):
		}

		backoff = min(time.Duration(float64(backoff)*cfg.Multiplier), cfg.MaxBackoff)
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

// jittered 为退避时长加入随机抖动，避免重试风暴同相位.
func jittered(backoff time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return backoff
	}
	delta := (rand.Float64()*2 - 1) * jitter * float64(backoff)
	return time.Duration(float64(backoff) + delta)
}
