package feeds

import (
	"context"
	"time"

	"github.com/pulseboard/pkg/guard"
	"github.com/pulseboard/pkg/httpclient"
)

// QuakeFeed 从 USGS 风格的 GeoJSON 接口拉取地震事件.
type QuakeFeed struct {
	name         string
	url          string
	minMagnitude float64
	client       *httpclient.Client
	breaker      *guard.Breaker[[]Quake]
}

// GeoJSON 要素集，只映射用到的字段.
type quakeDoc struct {
	Features []struct {
		ID         string `json:"id"`
		Properties struct {
			Mag   float64 `json:"mag"`
			Place string  `json:"place"`
			Time  int64   `json:"time"` // epoch 毫秒
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat, depth_km]
		} `json:"geometry"`
	} `json:"features"`
}

// NewQuakeFeed 注册并返回一个受守护的地震源，minMagnitude 以下的事件被过滤.
func NewQuakeFeed(reg *guard.Registry, client *httpclient.Client, cfg Config, minMagnitude float64) *QuakeFeed {
	return &QuakeFeed{
		name:         cfg.Name,
		url:          cfg.URL,
		minMagnitude: minMagnitude,
		client:       client,
		breaker:      guard.GetOrCreate[[]Quake](reg, cfg.guardConfig()),
	}
}

// Name 返回数据源名称.
func (f *QuakeFeed) Name() string { return f.name }

// Latest 返回最近一批地震事件，上游故障时降级为缓存或空切片.
func (f *QuakeFeed) Latest(ctx context.Context) []Quake {
	return f.breaker.Execute(ctx, f.fetch, nil)
}

// Refresh 实现 Refresher.
func (f *QuakeFeed) Refresh(ctx context.Context) {
	f.Latest(ctx)
}

// Status 返回守护诊断快照.
func (f *QuakeFeed) Status() guard.Status {
	return f.breaker.Status()
}

func (f *QuakeFeed) fetch(ctx context.Context) ([]Quake, error) {
	var doc quakeDoc
	if err := f.client.GetJSON(ctx, f.url, &doc); err != nil {
		return nil, err
	}

	quakes := make([]Quake, 0, len(doc.Features))
	for _, feat := range doc.Features {
		if feat.Properties.Mag < f.minMagnitude {
			continue
		}
		q := Quake{
			ID:        feat.ID,
			Magnitude: feat.Properties.Mag,
			Place:     feat.Properties.Place,
			At:        time.UnixMilli(feat.Properties.Time).UTC(),
		}
		if len(feat.Geometry.Coordinates) >= 2 {
			q.Lon = feat.Geometry.Coordinates[0]
			q.Lat = feat.Geometry.Coordinates[1]
		}
		if len(feat.Geometry.Coordinates) >= 3 {
			q.DepthKm = feat.Geometry.Coordinates[2]
		}
		quakes = append(quakes, q)
	}
	return quakes, nil
}
