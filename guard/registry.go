package guard

import (
	"sort"
	"sync"

	"github.com/pulseboard/pkg/logging"
	"github.com/pulseboard/pkg/metrics"
	"github.com/pulseboard/pkg/store"
)

// Registry 维护 name → Breaker 的进程级映射。
// 实例由应用启动时显式创建并传递，便于测试隔离；条目首用即建，进程存活期内不回收。
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*registration

	store   store.Store
	logger  *logging.Logger
	metrics *guardMetrics
}

// registration 以非泛型形态持有 Breaker，让注册表可以跨类型枚举状态。
type registration struct {
	breaker any
	status  func() Status
}

// Option 配置 Registry 的可选依赖。
type Option func(*Registry)

// WithStore 注入持久缓存后端；未注入时 Persist 配置静默退化为仅内存缓存。
func WithStore(st store.Store) Option {
	return func(r *Registry) { r.store = st }
}

// WithLogger 注入日志器。
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics 注入指标采集器，注册熔断状态、取数来源与刷新耗时指标。
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = newGuardMetrics(m) }
}

// NewRegistry 创建一个空注册表。
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		breakers: make(map[string]*registration),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Default()
	}
	return r
}

// GetOrCreate 返回指定名称的 Breaker，不存在时创建并注册。
// 同名的后续注册沿用首次配置，传入的 cfg 其余字段被忽略（首注册生效）。
func GetOrCreate[T any](r *Registry, cfg Config) *Breaker[T] {
	r.mu.RLock()
	reg, ok := r.breakers[cfg.Name]
	r.mu.RUnlock()
	if ok {
		return sameType[T](r, reg, cfg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// double check，避免并发首用时重复创建
	if reg, ok := r.breakers[cfg.Name]; ok {
		return sameType[T](r, reg, cfg)
	}

	b := newBreaker[T](cfg, r.store, r.logger, r.metrics)
	r.breakers[cfg.Name] = &registration{breaker: b, status: b.Status}

	return b
}

// sameType 校验已注册实例的值类型。类型不符属于编码错误，
// 为维持"永不硬失败"的契约，返回一个不入册、不持久化的独立实例并记录错误。
func sameType[T any](r *Registry, reg *registration, cfg Config) *Breaker[T] {
	if b, ok := reg.breaker.(*Breaker[T]); ok {
		return b
	}

	r.logger.Error("breaker already registered with a different value type, returning detached instance",
		"name", cfg.Name,
	)
	detached := cfg
	detached.Persist = false
	return newBreaker[T](detached, nil, r.logger, nil)
}

// Status 返回指定名称的诊断快照。
func (r *Registry) Status(name string) (Status, bool) {
	r.mu.RLock()
	reg, ok := r.breakers[name]
	r.mu.RUnlock()
	if !ok {
		return Status{}, false
	}
	return reg.status(), true
}

// Snapshot 返回全部已注册 Breaker 的诊断快照，按名称排序。
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	statuses := make([]Status, 0, len(r.breakers))
	for _, reg := range r.breakers {
		statuses = append(statuses, reg.status())
	}
	r.mu.RUnlock()

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// Names 返回全部已注册的名称，按字典序。
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}
