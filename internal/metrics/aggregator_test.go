package metrics

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestUpdateRunningStat(t *testing.T) {
	var rs RunningStat
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		updateRunningStat(&rs, v)
	}
	if rs.Count != 8 || rs.Mean != 5 || rs.Min != 2 || rs.Max != 9 {
		t.Fatalf("unexpected running stat: %+v", rs)
	}
	if got, want := rs.StdDev(), math.Sqrt(32.0/7.0); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected stddev %f, got %f", want, got)
	}
	if (RunningStat{Count: 1}).StdDev() != 0 {
		t.Fatal("expected zero stddev for a single value")
	}
}

func TestGetBucket(t *testing.T) {
	cases := map[float64]string{
		0:     "0-100",
		100:   "0-100",
		100.5: "101-1000",
		1000:  "101-1000",
		5000:  "1001-10000",
		20000: "10000+",
	}
	for ms, want := range cases {
		if got := getBucket(ms); got != want {
			t.Fatalf("getBucket(%v) = %q, want %q", ms, got, want)
		}
	}
}

func TestAggregatorRecord(t *testing.T) {
	agg := NewAggregator()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	agg.now = func() time.Time { return fixed }

	agg.Record("/api/v1/ask", 200, 50*time.Millisecond)
	agg.Record("/api/v1/ask", 502, 2*time.Second)
	agg.Record("/api/v1/ask", 400, 10*time.Millisecond)
	agg.Record("", 404, time.Millisecond)

	snap := agg.Snapshot()
	if len(snap) != 2 || snap[0].Route != "/api/v1/ask" || snap[1].Route != "unmatched" {
		t.Fatalf("unexpected routes: %+v", snap)
	}
	ask := snap[0]
	if ask.OverallStats.TotalRequests != 3 || ask.OverallStats.ClientErrors != 1 || ask.OverallStats.ServerErrors != 1 {
		t.Fatalf("unexpected overall stats: %+v", ask.OverallStats)
	}
	if ask.OverallStats.DurationMillis.Max != 2000 || ask.OverallStats.DurationMillis.Min != 10 {
		t.Fatalf("unexpected duration stats: %+v", ask.OverallStats.DurationMillis)
	}
	if len(ask.PerformanceBuckets) != 2 {
		t.Fatalf("expected two latency buckets, got %+v", ask.PerformanceBuckets)
	}
	if !ask.LastUpdatedUTC.Equal(fixed) {
		t.Fatalf("unexpected update time %v", ask.LastUpdatedUTC)
	}
}

func TestAggregatorSnapshotIsCopy(t *testing.T) {
	agg := NewAggregator()
	agg.Record("/healthz", 200, time.Millisecond)
	snap := agg.Snapshot()
	snap[0].PerformanceBuckets[0].Stats.TotalRequests = 99

	if got := agg.Snapshot()[0].PerformanceBuckets[0].Stats.TotalRequests; got != 1 {
		t.Fatalf("snapshot mutation leaked into aggregator: %d", got)
	}
}

func TestAggregatorConcurrentRecord(t *testing.T) {
	agg := NewAggregator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Record("/api/v1/retrieve", 200, time.Millisecond)
		}()
	}
	wg.Wait()
	if got := agg.Snapshot()[0].OverallStats.TotalRequests; got != 50 {
		t.Fatalf("expected 50 requests, got %d", got)
	}
}
