package feeds

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/pulseboard/pkg/logging"
)

const defaultPollInterval = time.Minute

// Poller 按固定间隔并发刷新全部注册的数据源.
// 刷新走各源的守护 Execute，重复并发刷新被单飞槽合并，失败被降级吸收，
// 因此 poller 本身没有错误路径.
type Poller struct {
	every  time.Duration
	feeds  []Refresher
	logger *logging.Logger
}

// NewPoller 创建轮询器；every <= 0 时取默认间隔.
func NewPoller(every time.Duration, logger *logging.Logger, feeds ...Refresher) *Poller {
	if every <= 0 {
		every = defaultPollInterval
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Poller{
		every:  every,
		feeds:  feeds,
		logger: logger,
	}
}

// Run 阻塞运行，立即执行首轮刷新，直到 ctx 结束.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started", "feeds", len(p.feeds), "every", p.every)

	p.refreshAll(ctx)

	ticker := time.NewTicker(p.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return
		case <-ticker.C:
			p.refreshAll(ctx)
		}
	}
}

func (p *Poller) refreshAll(ctx context.Context) {
	start := time.Now()

	var wg conc.WaitGroup
	for _, f := range p.feeds {
		wg.Go(func() {
			f.Refresh(ctx)
		})
	}
	wg.Wait()

	p.logger.Debug("refresh round finished", "feeds", len(p.feeds), "elapsed", time.Since(start))
}
