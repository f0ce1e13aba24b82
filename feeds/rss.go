package feeds

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/pulseboard/pkg/guard"
	"github.com/pulseboard/pkg/httpclient"
)

// HeadlineFeed 从一个 RSS/Atom 源拉取新闻标题.
type HeadlineFeed struct {
	name    string
	url     string
	client  *httpclient.Client
	parser  *gofeed.Parser
	breaker *guard.Breaker[[]Headline]
}

// NewHeadlineFeed 注册并返回一个受守护的新闻源.
func NewHeadlineFeed(reg *guard.Registry, client *httpclient.Client, cfg Config) *HeadlineFeed {
	return &HeadlineFeed{
		name:    cfg.Name,
		url:     cfg.URL,
		client:  client,
		parser:  gofeed.NewParser(),
		breaker: guard.GetOrCreate[[]Headline](reg, cfg.guardConfig()),
	}
}

// Name 返回数据源名称.
func (f *HeadlineFeed) Name() string { return f.name }

// Latest 返回最近一批标题，上游故障时降级为缓存或空切片.
func (f *HeadlineFeed) Latest(ctx context.Context) []Headline {
	return f.breaker.Execute(ctx, f.fetch, nil)
}

// Refresh 实现 Refresher，由 poller 周期驱动.
func (f *HeadlineFeed) Refresh(ctx context.Context) {
	f.Latest(ctx)
}

// Status 返回守护诊断快照，供 UI 标注"数据可能过期".
func (f *HeadlineFeed) Status() guard.Status {
	return f.breaker.Status()
}

func (f *HeadlineFeed) fetch(ctx context.Context) ([]Headline, error) {
	// 通过治理客户端取原始文档，让限流/重试/超时对 RSS 源同样生效.
	raw, err := f.client.GetBytes(ctx, f.url)
	if err != nil {
		return nil, err
	}

	doc, err := f.parser.ParseString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.url, err)
	}

	headlines := make([]Headline, 0, len(doc.Items))
	for _, item := range doc.Items {
		if item == nil || item.Title == "" {
			continue
		}
		h := Headline{
			Source: f.name,
			Title:  item.Title,
			Link:   item.Link,
		}
		if item.PublishedParsed != nil {
			h.PublishedAt = *item.PublishedParsed
		}
		headlines = append(headlines, h)
	}
	return headlines, nil
}
