// Package httpclient 提供面向上游数据源的治理型 HTTP 客户端封装.
// 每次请求自带超时与限流，幂等 GET 在瞬时错误（网络错误、429、5xx）时按退避重试，
// 保证被守护的取数操作一定在有界时间内 settle.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/pulseboard/pkg/logging"
	"github.com/pulseboard/pkg/metrics"
	"github.com/pulseboard/pkg/retry"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "pulseboard/1.0"

	// maxBodyBytes 限制单次响应体大小，避免异常上游拖垮进程内存.
	maxBodyBytes = 10 << 20
)

// errRetryableStatus 标记可重试的 HTTP 状态码错误.
type errRetryableStatus struct {
	code int
	url  string
}

func (e *errRetryableStatus) Error() string {
	return fmt.Sprintf("retryable status %d from %s", e.code, e.url)
}

// Config 定义客户端治理参数.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// RateLimit 为每秒请求数上限，0 表示不限流.
	RateLimit float64
	RateBurst int
	Retry     retry.Config
}

// Client 封装标准 http.Client.
type Client struct {
	hc      *http.Client
	limiter *rate.Limiter
	cfg     Config
	logger  *logging.Logger

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New 创建客户端，metricsInstance 可为 nil（不采集指标）.
func New(cfg Config, logger *logging.Logger, metricsInstance *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = logging.Default()
	}

	c := &Client{
		hc:     &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if metricsInstance != nil {
		c.requestsTotal = metricsInstance.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pkg",
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "HTTP client request count",
		}, []string{"host", "status"})
		c.requestDuration = metricsInstance.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pkg",
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "HTTP client request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"})
	}

	return c
}

// GetBytes 发起 GET 请求并返回响应体，瞬时错误按配置重试.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := retry.DoIf(ctx, func() error {
		var err error
		body, err = c.get(ctx, url)
		return err
	}, retryable, c.cfg.Retry)
	if err != nil {
		c.logger.DebugContext(ctx, "http get failed", "url", url, "error", err)
	}
	return body, err
}

// GetJSON 发起 GET 请求并将响应体反序列化到 out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.GetBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.observe(req.URL.Host, "error", start)
		return nil, err
	}
	defer resp.Body.Close()

	c.observe(req.URL.Host, fmt.Sprintf("%d", resp.StatusCode), start)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, &errRetryableStatus{code: resp.StatusCode, url: url}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	return body, nil
}

func (c *Client) observe(host, status string, start time.Time) {
	if c.requestsTotal == nil {
		return
	}
	c.requestsTotal.WithLabelValues(host, status).Inc()
	c.requestDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
}

// retryable 判定是否为值得重试的瞬时错误：传输层错误或显式标记的状态码.
func retryable(err error) bool {
	var rs *errRetryableStatus
	if errors.As(err, &rs) {
		return true
	}
	// 调用方 context 结束时交由上层处理，不再重试.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
