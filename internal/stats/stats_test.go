package stats

import (
	"testing"
	"time"
)

func TestFlattenStatsSnapshotPercentiles(t *testing.T) {
	stats := NewFlattenStats(time.Hour)
	for _, us := range []int64{100, 200, 300, 400, 500} {
		stats.Record("stack", time.Duration(us)*time.Microsecond, 10)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Records != 50 {
		t.Fatalf("expected records=50, got %d", snap.Records)
	}
	if snap.MinUs != 100 || snap.MaxUs != 500 {
		t.Fatalf("expected min=100 max=500, got %d %d", snap.MinUs, snap.MaxUs)
	}
	if snap.AvgUs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgUs)
	}
	if snap.P50Us != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Us)
	}
	if snap.P95Us != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Us)
	}
	if snap.P99Us != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Us)
	}
}

func TestFlattenStatsPrunesExpiredSamples(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := NewFlattenStats(10 * time.Minute)
	stats.now = func() time.Time { return clock }

	stats.Record("stack", 100*time.Microsecond, 1)
	clock = clock.Add(15 * time.Minute)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record("stack", 200*time.Microsecond, 1)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinUs != 200 || snap.MaxUs != 200 {
		t.Fatalf("expected a single fresh sample of 200us, got %+v", snap)
	}
}

func TestFlattenStatsByStrategy(t *testing.T) {
	stats := NewFlattenStats(time.Hour)
	stats.Record("stack", 10*time.Microsecond, 5)
	stats.Record("stack", 30*time.Microsecond, 5)
	stats.Record("recursive", 50*time.Microsecond, 5)

	by := stats.ByStrategy()
	if len(by) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(by))
	}
	if by["stack"].Count != 2 || by["stack"].AvgUs != 20 {
		t.Errorf("unexpected stack snapshot %+v", by["stack"])
	}
	if by["recursive"].MaxUs != 50 {
		t.Errorf("unexpected recursive snapshot %+v", by["recursive"])
	}
}

func TestFlattenStatsClampsNegativeDuration(t *testing.T) {
	stats := NewFlattenStats(time.Hour)
	stats.Record("stack", -time.Millisecond, 0)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinUs != 0 || snap.MaxUs != 0 {
		t.Fatalf("expected clamped duration=0, got %+v", snap)
	}
}

func TestFlattenStatsEmpty(t *testing.T) {
	if snap := NewFlattenStats(0).Snapshot(); snap != (Snapshot{}) {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}
