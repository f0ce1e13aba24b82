package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, fastConfig(5))
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts: got %d, want 3", attempts)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	wantErr := errors.New("permanent")
	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		return wantErr
	}, fastConfig(2))
	if !errors.Is(err, wantErr) {
		t.Errorf("error chain: got %v, want wrap of %v", err, wantErr)
	}
	if attempts != 3 {
		t.Errorf("attempts: got %d, want 3 (initial + 2 retries)", attempts)
	}
}

func TestDoIfStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	attempts := 0
	err := DoIf(context.Background(), func() error {
		attempts++
		return fatal
	}, func(err error) bool { return !errors.Is(err, fatal) }, fastConfig(5))
	if err == nil {
		t.Fatal("want error")
	}
	if attempts != 1 {
		t.Errorf("non-retryable error: got %d attempts, want 1", attempts)
	}
}

func TestDoRespectsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func() error { return errors.New("always") }, Config{
		MaxRetries:     5,
		InitialBackoff: time.Hour, // 取消必须先于退避
		Multiplier:     2,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled retry: got %v, want context.Canceled", err)
	}
}

func TestZeroRetriesRunsOnce(t *testing.T) {
	attempts := 0
	_ = Do(context.Background(), func() error {
		attempts++
		return errors.New("x")
	}, Config{})
	if attempts != 1 {
		t.Errorf("zero config: got %d attempts, want 1", attempts)
	}
}
