// Package guard 提供了"熔断 + 缓存兜底"的守护取数原语。
// 每个命名的 Breaker 包装一个不可靠的上游操作：缓存新鲜时直接命中缓存；
// 缓存失效时通过熔断器发起上游调用，并发调用合并为单次飞行；
// 上游失败时依次降级为过期缓存、静态兜底值，绝不向调用方返回错误。
package guard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/pulseboard/pkg/logging"
	"github.com/pulseboard/pkg/store"
)

const (
	// DefaultFailureThreshold 连续失败多少次后打开熔断。
	DefaultFailureThreshold uint32 = 3
	// DefaultOpenDuration 熔断打开后等待多久进入半开探测。
	DefaultOpenDuration = 30 * time.Second

	// storeTimeout 持久层读写的最长等待时间，持久层只是尽力而为。
	storeTimeout = 2 * time.Second
)

// Operation 定义被守护的上游操作原型。操作自身必须携带上游超时，
// 永不 settle 的操作会长期占用单飞槽位。
type Operation[T any] func(ctx context.Context) (T, error)

// Config 定义单个命名 Breaker 的初始化参数，注册后不可变更。
type Config struct {
	// Name 是注册表内的唯一键，同时作为持久缓存的存储键。
	Name string
	// CacheTTL 为缓存的新鲜期；0 表示永不新鲜，每次调用都尝试刷新。
	CacheTTL time.Duration
	// Persist 为 true 时成功结果镜像到持久层，进程重启后即刻热启动。
	Persist bool
	// FailureThreshold 连续失败阈值，0 时取 DefaultFailureThreshold。
	FailureThreshold uint32
	// OpenDuration 熔断打开时长，0 时取 DefaultOpenDuration。
	OpenDuration time.Duration
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.OpenDuration <= 0 {
		c.OpenDuration = DefaultOpenDuration
	}
	return c
}

// cacheEntry 为内存缓存项，成功时整体替换，从不部分更新。
type cacheEntry[T any] struct {
	value    T
	storedAt time.Time
}

// persistedEntry 为持久层的序列化形态。
type persistedEntry[T any] struct {
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Breaker 是守护取数原语的单个实例，拥有自己的状态机、缓存与单飞槽。
// 实例应通过 Registry 的 GetOrCreate 获取，保证同名调用点共享状态。
type Breaker[T any] struct {
	cfg     Config
	cb      *gobreaker.CircuitBreaker
	group   singleflight.Group
	store   store.Store // nil 表示不持久化
	logger  *logging.Logger
	tracer  trace.Tracer
	metrics *guardMetrics

	// now 可注入时钟，仅影响缓存新鲜度判定。
	now func() time.Time

	mu    sync.RWMutex
	entry *cacheEntry[T]

	// failures 是诊断用连续失败计数，成功清零；
	// 状态转移本身由熔断器内部计数驱动。
	failures atomic.Uint32
}

func newBreaker[T any](cfg Config, st store.Store, logger *logging.Logger, gm *guardMetrics) *Breaker[T] {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.Default()
	}

	b := &Breaker[T]{
		cfg:     cfg,
		logger:  logger,
		tracer:  otel.Tracer("github.com/pulseboard/pkg/guard"),
		metrics: gm,
		now:     time.Now,
	}
	if cfg.Persist {
		b.store = st
	}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1, // 半开态只放行一次探测
		Interval:    0, // 闭合态计数不清零，阈值按连续失败计
		Timeout:     cfg.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			gm.setState(name, to)
		},
	})

	b.restore()

	return b
}

// Execute 执行受守护的上游操作，永不返回错误。
// 取值顺序：新鲜缓存 → 上游调用（单飞合并、熔断管控）→ 任意年龄的过期缓存 → fallback。
func (b *Breaker[T]) Execute(ctx context.Context, op Operation[T], fallback T) T {
	if v, ok := b.freshValue(); ok {
		b.metrics.observeServe(b.cfg.Name, serveFresh)
		return v
	}

	// 同名并发调用共享同一次上游飞行，结果各自按降级序映射。
	res, err, _ := b.group.Do(b.cfg.Name, func() (any, error) {
		return b.refresh(ctx, op)
	})
	if err == nil {
		b.metrics.observeServe(b.cfg.Name, serveLive)
		return res.(T)
	}

	if v, ok := b.lastValue(); ok {
		b.metrics.observeServe(b.cfg.Name, serveStale)
		return v
	}

	b.metrics.observeServe(b.cfg.Name, serveFallback)
	return fallback
}

// refresh 在单飞槽内发起一次上游调用并记账。
func (b *Breaker[T]) refresh(ctx context.Context, op Operation[T]) (any, error) {
	ctx, span := b.tracer.Start(ctx, "guard.refresh", trace.WithAttributes(
		attribute.String("guard.name", b.cfg.Name),
	))
	defer span.End()

	start := time.Now()
	res, err := b.cb.Execute(func() (any, error) {
		v, err := invoke(ctx, op)
		if err != nil {
			return nil, err
		}
		b.storeValue(ctx, v)
		return v, nil
	})
	b.metrics.observeRefresh(b.cfg.Name, time.Since(start))

	switch {
	case err == nil:
		b.failures.Store(0)
		span.SetAttributes(attribute.String("guard.outcome", "ok"))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		// 熔断器拒绝，未触达上游，不计入失败。
		span.SetAttributes(attribute.String("guard.outcome", "rejected"))
		b.logger.Debug("breaker rejected upstream call", "name", b.cfg.Name, "state", b.cb.State().String())
	default:
		b.failures.Add(1)
		span.SetAttributes(attribute.String("guard.outcome", "failed"))
		span.RecordError(err)
		b.logger.Warn("upstream call failed",
			"name", b.cfg.Name,
			"failures", b.failures.Load(),
			"error", err,
		)
	}

	return res, err
}

// invoke 调用上游操作并把 panic 吸收为普通失败。
func invoke[T any](ctx context.Context, op Operation[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panic: %v", r)
		}
	}()
	return op(ctx)
}

// storeValue 原子替换内存缓存，并尽力镜像到持久层。
func (b *Breaker[T]) storeValue(ctx context.Context, v T) {
	at := b.now()

	b.mu.Lock()
	b.entry = &cacheEntry[T]{value: v, storedAt: at}
	b.mu.Unlock()

	if b.store == nil {
		return
	}

	raw, err := json.Marshal(persistedEntry[T]{Value: v, StoredAt: at})
	if err != nil {
		b.logger.Warn("persistent cache marshal failed", "name", b.cfg.Name, "error", err)
		return
	}

	// 写持久层不受上游调用取消的影响，失败只记日志。
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := b.store.Set(pctx, b.cfg.Name, raw); err != nil {
		b.logger.Warn("persistent cache write failed", "name", b.cfg.Name, "error", err)
	}
}

// restore 在构造时读一次持久层，预热内存缓存。
func (b *Breaker[T]) restore() {
	if b.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	raw, err := b.store.Get(ctx, b.cfg.Name)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			b.logger.Warn("persistent cache read failed", "name", b.cfg.Name, "error", err)
		}
		return
	}

	var pe persistedEntry[T]
	if err := json.Unmarshal(raw, &pe); err != nil {
		b.logger.Warn("persistent cache entry corrupt", "name", b.cfg.Name, "error", err)
		return
	}

	b.mu.Lock()
	b.entry = &cacheEntry[T]{value: pe.Value, storedAt: pe.StoredAt}
	b.mu.Unlock()

	b.logger.Info("cache warmed from persistent store",
		"name", b.cfg.Name,
		"age", b.now().Sub(pe.StoredAt),
	)
}

// freshValue 返回未过期的缓存值。TTL 为 0 时缓存永不新鲜。
func (b *Breaker[T]) freshValue() (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.entry != nil && b.cfg.CacheTTL > 0 && b.now().Sub(b.entry.storedAt) < b.cfg.CacheTTL {
		return b.entry.value, true
	}

	var zero T
	return zero, false
}

// lastValue 返回任意年龄的缓存值，作为熔断期间的降级数据。
func (b *Breaker[T]) lastValue() (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.entry != nil {
		return b.entry.value, true
	}

	var zero T
	return zero, false
}

// Status 返回当前诊断快照，仅用于运维展示，不应参与调用方控制流。
func (b *Breaker[T]) Status() Status {
	s := Status{
		Name:                b.cfg.Name,
		State:               b.cb.State().String(),
		ConsecutiveFailures: b.failures.Load(),
	}

	b.mu.RLock()
	if b.entry != nil {
		s.HasCache = true
		s.CacheAge = b.now().Sub(b.entry.storedAt)
		s.CacheFresh = b.cfg.CacheTTL > 0 && s.CacheAge < b.cfg.CacheTTL
	}
	b.mu.RUnlock()

	return s
}

// Config 返回注册时生效的配置（含默认值）。
func (b *Breaker[T]) Config() Config {
	return b.cfg
}
