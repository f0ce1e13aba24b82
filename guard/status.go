package guard

import (
	"fmt"
	"time"
)

// Status 是单个 Breaker 的诊断快照。
type Status struct {
	Name                string        `json:"name"`
	State               string        `json:"state"`
	ConsecutiveFailures uint32        `json:"consecutive_failures"`
	HasCache            bool          `json:"has_cache"`
	CacheFresh          bool          `json:"cache_fresh"`
	CacheAge            time.Duration `json:"cache_age_ns,omitempty"`
}

// String 输出面向运维的一行摘要。
func (s Status) String() string {
	if !s.HasCache {
		return fmt.Sprintf("%s: state=%s failures=%d cache=none", s.Name, s.State, s.ConsecutiveFailures)
	}

	freshness := "stale"
	if s.CacheFresh {
		freshness = "fresh"
	}
	return fmt.Sprintf("%s: state=%s failures=%d cache=%s age=%s",
		s.Name, s.State, s.ConsecutiveFailures, freshness, s.CacheAge.Round(time.Millisecond))
}
