package pipeline

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at       time.Time
	micros   int64
	fill     float64 // share of the article that fit in the slots
	overflow bool
}

// StatsSnapshot aggregates the segmentation runs inside the window.
// Latencies are in microseconds; a single run rarely takes a millisecond.
type StatsSnapshot struct {
	Count        int     `json:"count"`
	MinUs        int64   `json:"min_us"`
	MaxUs        int64   `json:"max_us"`
	AvgUs        float64 `json:"avg_us"`
	P50Us        float64 `json:"p50_us"`
	P95Us        float64 `json:"p95_us"`
	P99Us        float64 `json:"p99_us"`
	AvgFill      float64 `json:"avg_fill"`
	OverflowRate float64 `json:"overflow_rate"`
}

// RenderStats tracks recent segmentation runs within a rolling window.
type RenderStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewRenderStats(window time.Duration) *RenderStats {
	if window <= 0 {
		window = time.Hour
	}
	return &RenderStats{
		samples: make([]sample, 0, 256),
		window:  window,
	}
}

// Record adds one run. used and total are the consumed and flattened
// character counts; an empty article counts as fully placed.
func (s *RenderStats) Record(d time.Duration, used, total int) {
	sm := sample{at: time.Now(), micros: max(d.Microseconds(), 0), fill: 1}
	if total > 0 {
		sm.fill = float64(used) / float64(total)
		sm.overflow = used < total
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(sm.at)
	s.samples = append(s.samples, sm)
}

func (s *RenderStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	n := len(s.samples)
	if n == 0 {
		return StatsSnapshot{}
	}

	latencies := make([]int64, 0, n)
	var sum int64
	var fill float64
	overflowed := 0
	for _, sm := range s.samples {
		latencies = append(latencies, sm.micros)
		sum += sm.micros
		fill += sm.fill
		if sm.overflow {
			overflowed++
		}
	}
	slices.Sort(latencies)

	return StatsSnapshot{
		Count:        n,
		MinUs:        latencies[0],
		MaxUs:        latencies[n-1],
		AvgUs:        float64(sum) / float64(n),
		P50Us:        percentile(latencies, 50),
		P95Us:        percentile(latencies, 95),
		P99Us:        percentile(latencies, 99),
		AvgFill:      fill / float64(n),
		OverflowRate: float64(overflowed) / float64(n),
	}
}

func (s *RenderStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	w := rank - float64(lo)
	return float64(sorted[lo]) + w*float64(sorted[lo+1]-sorted[lo])
}
