// Package scoring 提供仪表盘面板用到的无状态评分函数.
// 这些纯函数本身不访问上游，通常作为守护取数结果的后处理出现.
package scoring

import "math"

// HHI 计算赫芬达尔-赫希曼指数，输入为各参与方的规模（市值、产量等，非负）.
// 返回值区间 [0, 10000]，10000 表示完全垄断；输入总和为 0 时返回 0.
func HHI(sizes []float64) float64 {
	var total float64
	for _, s := range sizes {
		if s > 0 {
			total += s
		}
	}
	if total == 0 {
		return 0
	}

	var hhi float64
	for _, s := range sizes {
		if s <= 0 {
			continue
		}
		share := s / total * 100
		hhi += share * share
	}
	return hhi
}

// DisruptionScore 计算加权扰动分，components 为各维度的 0–100 严重度，
// weights 为对应权重；缺失权重的维度按权重 1 计.
// 返回值截断到 [0, 100].
func DisruptionScore(components map[string]float64, weights map[string]float64) float64 {
	if len(components) == 0 {
		return 0
	}

	var weighted, total float64
	for name, severity := range components {
		w, ok := weights[name]
		if !ok || w <= 0 {
			w = 1
		}
		weighted += clamp(severity, 0, 100) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return clamp(weighted/total, 0, 100)
}

// ZScore 返回 value 相对 history 的标准分；样本不足或方差为 0 时返回 0.
func ZScore(history []float64, value float64) float64 {
	if len(history) < 2 {
		return 0
	}

	var sum float64
	for _, v := range history {
		sum += v
	}
	mean := sum / float64(len(history))

	var variance float64
	for _, v := range history {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(history) - 1)
	if variance == 0 {
		return 0
	}

	return (value - mean) / math.Sqrt(variance)
}

// IsSpike 判断 value 相对历史窗口是否构成尖峰.
// threshold 为标准分阈值，非正值时取 3.
func IsSpike(history []float64, value float64, threshold float64) bool {
	if threshold <= 0 {
		threshold = 3
	}
	return ZScore(history, value) >= threshold
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
