// Package config 提供统一的配置加载与管理能力.
// 基于 viper 支持 TOML/YAML 配置文件、结构校验与热更新通知.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 全局顶级配置结构.
type Config struct {
	Service string        `mapstructure:"service" toml:"service" validate:"required"`
	Version string        `mapstructure:"version" toml:"version"`
	Log     LogConfig     `mapstructure:"log"     toml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" toml:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing" toml:"tracing"`
	Status  StatusConfig  `mapstructure:"status"  toml:"status"`
	Store   StoreConfig   `mapstructure:"store"   toml:"store"`
	Guard   GuardConfig   `mapstructure:"guard"   toml:"guard"`
	Feeds   []FeedConfig  `mapstructure:"feeds"   toml:"feeds" validate:"dive"`
}

// LogConfig 定义日志输出参数.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"`
	File       string `mapstructure:"file"        toml:"file"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

// MetricsConfig 定义指标暴露参数.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Port    string `mapstructure:"port"    toml:"port"`
}

// TracingConfig 定义追踪上报参数.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"  toml:"sample_ratio"`
}

// StatusConfig 定义运维状态页监听参数.
type StatusConfig struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

// StoreConfig 定义持久缓存层后端.
type StoreConfig struct {
	Backend string `mapstructure:"backend" toml:"backend" validate:"omitempty,oneof=badger redis memory"`
	// Dir 为 badger 后端的数据目录.
	Dir   string      `mapstructure:"dir"   toml:"dir"`
	Redis RedisConfig `mapstructure:"redis" toml:"redis"`
}

// RedisConfig 定义 redis 后端连接参数.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"     toml:"addr"`
	Password string        `mapstructure:"password" toml:"password"`
	DB       int           `mapstructure:"db"       toml:"db"`
	Prefix   string        `mapstructure:"prefix"   toml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"      toml:"ttl"`
}

// GuardConfig 定义守护取数的全局默认参数，单条 feed 可覆盖.
type GuardConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold" toml:"failure_threshold"`
	OpenDuration     time.Duration `mapstructure:"open_duration"     toml:"open_duration"`
}

// FeedConfig 定义单个上游数据源.
type FeedConfig struct {
	Name string `mapstructure:"name" toml:"name" validate:"required"`
	Kind string `mapstructure:"kind" toml:"kind" validate:"required,oneof=rss quotes quakes"`
	URL  string `mapstructure:"url"  toml:"url"  validate:"required,url"`
	// Every 为轮询间隔，空值沿用 poller 的全局间隔.
	Every    time.Duration `mapstructure:"every"     toml:"every"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" toml:"cache_ttl"`
	Persist  bool          `mapstructure:"persist"   toml:"persist"`
	// MinMagnitude 仅 quakes 类数据源生效.
	MinMagnitude float64 `mapstructure:"min_magnitude" toml:"min_magnitude"`
	// Symbols 仅 quotes 类数据源生效.
	Symbols []string `mapstructure:"symbols" toml:"symbols"`
}

var validate = validator.New()

// Load 从指定路径读取并校验配置.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	cfg, err := read(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAndWatch 读取配置并监听文件变化，变更通过校验后回调 onChange.
// 校验失败的变更被丢弃并记录日志，进程继续使用旧配置.
func LoadAndWatch(path string, onChange func(*Config)) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	cfg, err := read(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := read(v)
		if err != nil {
			slog.Error("config reload rejected", "file", e.Name, "error", err)
			return
		}
		slog.Info("config reloaded", "file", e.Name)
		onChange(next)
	})
	v.WatchConfig()

	return cfg, nil
}

func read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置结构约束.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}
