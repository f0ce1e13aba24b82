// Package feeds 实现面向若干真实上游的数据源客户端.
// 每个数据源把自己的拉取操作注册为一个命名的守护取数 Breaker：
// 访问器永不失败，上游故障时自动降级为缓存或空结果.
package feeds

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pulseboard/pkg/guard"
)

// Headline 表示一条新闻标题.
type Headline struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at,omitzero"`
}

// Quote 表示一条行情报价.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	ChangePct decimal.Decimal `json:"change_pct"`
	At        time.Time       `json:"at"`
}

// Quake 表示一次地震事件.
type Quake struct {
	ID        string    `json:"id"`
	Magnitude float64   `json:"magnitude"`
	Place     string    `json:"place"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	DepthKm   float64   `json:"depth_km"`
	At        time.Time `json:"at"`
}

// Config 定义单个数据源的守护参数.
type Config struct {
	Name             string
	URL              string
	CacheTTL         time.Duration
	Persist          bool
	FailureThreshold uint32
	OpenDuration     time.Duration
}

func (c Config) guardConfig() guard.Config {
	return guard.Config{
		Name:             c.Name,
		CacheTTL:         c.CacheTTL,
		Persist:          c.Persist,
		FailureThreshold: c.FailureThreshold,
		OpenDuration:     c.OpenDuration,
	}
}

// Refresher 是 poller 驱动的最小刷新接口.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context)
}
