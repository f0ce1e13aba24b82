package feeds

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pulseboard/pkg/guard"
	"github.com/pulseboard/pkg/httpclient"
)

// QuoteFeed 从 JSON 行情接口拉取报价.
// 接口契约: GET {url}?symbols=A,B,C →
//
//	{"quotes":[{"symbol":"EURUSD","price":"1.0832","change_pct":"-0.12","ts":1724630400}]}
//
// 价格以字符串传输并用 decimal 承载，避免二进制浮点误差进入财务展示.
type QuoteFeed struct {
	name    string
	url     string
	symbols []string
	client  *httpclient.Client
	breaker *guard.Breaker[[]Quote]
}

type quoteDoc struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		Price     string `json:"price"`
		ChangePct string `json:"change_pct"`
		TS        int64  `json:"ts"`
	} `json:"quotes"`
}

// NewQuoteFeed 注册并返回一个受守护的行情源.
func NewQuoteFeed(reg *guard.Registry, client *httpclient.Client, cfg Config, symbols []string) *QuoteFeed {
	return &QuoteFeed{
		name:    cfg.Name,
		url:     cfg.URL,
		symbols: symbols,
		client:  client,
		breaker: guard.GetOrCreate[[]Quote](reg, cfg.guardConfig()),
	}
}

// Name 返回数据源名称.
func (f *QuoteFeed) Name() string { return f.name }

// Latest 返回最近一批报价，上游故障时降级为缓存或空切片.
func (f *QuoteFeed) Latest(ctx context.Context) []Quote {
	return f.breaker.Execute(ctx, f.fetch, nil)
}

// Refresh 实现 Refresher.
func (f *QuoteFeed) Refresh(ctx context.Context) {
	f.Latest(ctx)
}

// Status 返回守护诊断快照.
func (f *QuoteFeed) Status() guard.Status {
	return f.breaker.Status()
}

func (f *QuoteFeed) fetch(ctx context.Context) ([]Quote, error) {
	target := f.url
	if len(f.symbols) > 0 {
		target = fmt.Sprintf("%s?symbols=%s", f.url, url.QueryEscape(strings.Join(f.symbols, ",")))
	}

	var doc quoteDoc
	if err := f.client.GetJSON(ctx, target, &doc); err != nil {
		return nil, err
	}

	quotes := make([]Quote, 0, len(doc.Quotes))
	for _, q := range doc.Quotes {
		price, err := decimal.NewFromString(q.Price)
		if err != nil {
			return nil, fmt.Errorf("quote %s: bad price %q: %w", q.Symbol, q.Price, err)
		}
		change := decimal.Zero
		if q.ChangePct != "" {
			change, err = decimal.NewFromString(q.ChangePct)
			if err != nil {
				return nil, fmt.Errorf("quote %s: bad change %q: %w", q.Symbol, q.ChangePct, err)
			}
		}
		quotes = append(quotes, Quote{
			Symbol:    q.Symbol,
			Price:     price,
			ChangePct: change,
			At:        time.Unix(q.TS, 0).UTC(),
		})
	}
	return quotes, nil
}
