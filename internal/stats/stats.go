package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp time.Time
	strategy  string
	micros    int64
	records   int
}

// Snapshot is a point-in-time aggregate of flatten timings.
type Snapshot struct {
	Count   int     `json:"count"`
	Records int     `json:"records"`
	MinUs   int64   `json:"min_us"`
	MaxUs   int64   `json:"max_us"`
	AvgUs   float64 `json:"avg_us"`
	P50Us   float64 `json:"p50_us"`
	P95Us   float64 `json:"p95_us"`
	P99Us   float64 `json:"p99_us"`
}

// FlattenStats tracks recent flatten timings within a rolling window.
type FlattenStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewFlattenStats(maxAge time.Duration) *FlattenStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &FlattenStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one flatten run that produced records entries.
func (s *FlattenStats) Record(strategy string, d time.Duration, records int) {
	micros := d.Microseconds()
	if micros < 0 {
		micros = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp: now,
		strategy:  strategy,
		micros:    micros,
		records:   records,
	})
}

// Snapshot aggregates every live sample.
func (s *FlattenStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	return aggregate(s.samples)
}

// ByStrategy aggregates live samples per strategy name.
func (s *FlattenStats) ByStrategy() map[string]Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())

	groups := make(map[string][]sample)
	for _, sm := range s.samples {
		groups[sm.strategy] = append(groups[sm.strategy], sm)
	}
	out := make(map[string]Snapshot, len(groups))
	for name, g := range groups {
		out[name] = aggregate(g)
	}
	return out
}

func aggregate(samples []sample) Snapshot {
	if len(samples) == 0 {
		return Snapshot{}
	}

	values := make([]int64, 0, len(samples))
	var sum int64
	records := 0
	for _, sm := range samples {
		values = append(values, sm.micros)
		sum += sm.micros
		records += sm.records
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return Snapshot{
		Count:   len(values),
		Records: records,
		MinUs:   values[0],
		MaxUs:   values[len(values)-1],
		AvgUs:   float64(sum) / float64(len(values)),
		P50Us:   percentile(values, 50),
		P95Us:   percentile(values, 95),
		P99Us:   percentile(values, 99),
	}
}

func (s *FlattenStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
