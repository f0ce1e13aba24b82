package scoring

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestHHI(t *testing.T) {
	tests := []struct {
		name  string
		sizes []float64
		want  float64
	}{
		{"monopoly", []float64{100}, 10000},
		{"duopoly", []float64{50, 50}, 5000},
		{"four equal", []float64{1, 1, 1, 1}, 2500},
		{"empty", nil, 0},
		{"all zero", []float64{0, 0}, 0},
		{"negative ignored", []float64{-5, 100}, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HHI(tt.sizes); !almostEqual(got, tt.want) {
				t.Errorf("HHI(%v) = %v, want %v", tt.sizes, got, tt.want)
			}
		})
	}
}

func TestHHIScaleInvariant(t *testing.T) {
	a := HHI([]float64{3, 1})
	b := HHI([]float64{300, 100})
	if !almostEqual(a, b) {
		t.Errorf("HHI must depend on shares, not absolute sizes: %v vs %v", a, b)
	}
}

func TestDisruptionScore(t *testing.T) {
	components := map[string]float64{"gps": 80, "cables": 20}

	// 等权重 → 均值
	if got := DisruptionScore(components, nil); !almostEqual(got, 50) {
		t.Errorf("unweighted: got %v, want 50", got)
	}

	// gps 权重 3 → (80*3 + 20*1) / 4 = 65
	weighted := DisruptionScore(components, map[string]float64{"gps": 3})
	if !almostEqual(weighted, 65) {
		t.Errorf("weighted: got %v, want 65", weighted)
	}

	if got := DisruptionScore(nil, nil); got != 0 {
		t.Errorf("empty: got %v, want 0", got)
	}

	// 越界严重度被截断
	if got := DisruptionScore(map[string]float64{"x": 500}, nil); !almostEqual(got, 100) {
		t.Errorf("clamped: got %v, want 100", got)
	}
}

func TestZScore(t *testing.T) {
	history := []float64{10, 10, 10, 10}
	if got := ZScore(history, 50); got != 0 {
		t.Errorf("zero variance: got %v, want 0", got)
	}
	if got := ZScore([]float64{1}, 5); got != 0 {
		t.Errorf("insufficient history: got %v, want 0", got)
	}

	// history={8,10,12}: mean=10, 样本标准差=2 → z(16)=3
	if got := ZScore([]float64{8, 10, 12}, 16); !almostEqual(got, 3) {
		t.Errorf("z-score: got %v, want 3", got)
	}
}

func TestIsSpike(t *testing.T) {
	history := []float64{8, 10, 12}

	if !IsSpike(history, 16, 3) {
		t.Error("z=3 at threshold 3 must be a spike")
	}
	if IsSpike(history, 14, 3) {
		t.Error("z=2 at threshold 3 must not be a spike")
	}
	// threshold<=0 时取默认阈值 3
	if !IsSpike(history, 16, 0) {
		t.Error("default threshold must flag z=3")
	}
}
