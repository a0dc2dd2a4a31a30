// internal/metrics/aggregator.go
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Aggregator collects request latency per route. It is safe for concurrent use.
type Aggregator struct {
	mutex   sync.Mutex
	metrics map[string]*RouteMetrics
	now     func() time.Time
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		metrics: make(map[string]*RouteMetrics),
		now:     time.Now,
	}
}

// Record adds one completed request to the stats for route.
func (a *Aggregator) Record(route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()

	routeMetrics, exists := a.metrics[route]
	if !exists {
		routeMetrics = &RouteMetrics{Route: route}
		a.metrics[route] = routeMetrics
	}
	routeMetrics.LastUpdatedUTC = a.now().UTC()

	ms := float64(duration) / float64(time.Millisecond)
	updateStats(&routeMetrics.OverallStats, status, ms)

	bucket := getBucket(ms)
	for i := range routeMetrics.PerformanceBuckets {
		if routeMetrics.PerformanceBuckets[i].Bucket == bucket {
			updateStats(&routeMetrics.PerformanceBuckets[i].Stats, status, ms)
			return
		}
	}
	newBucket := PerformanceBucket{Dimension: "duration_ms", Bucket: bucket}
	updateStats(&newBucket.Stats, status, ms)
	routeMetrics.PerformanceBuckets = append(routeMetrics.PerformanceBuckets, newBucket)
}

// Snapshot returns a copy of all route metrics sorted by route.
func (a *Aggregator) Snapshot() []RouteMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make([]RouteMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		c := *m
		c.PerformanceBuckets = append([]PerformanceBucket(nil), m.PerformanceBuckets...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

func updateStats(stats *RunningAggregatedStats, status int, ms float64) {
	stats.TotalRequests++
	switch {
	case status >= 500:
		stats.ServerErrors++
	case status >= 400:
		stats.ClientErrors++
	}
	updateRunningStat(&stats.DurationMillis, ms)
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// getBucket places a request duration in a latency band. Retrieval alone is
// usually fast; answers that call a hosted model land in the upper bands.
func getBucket(ms float64) string {
	switch {
	case ms <= 100:
		return "0-100"
	case ms <= 1000:
		return "101-1000"
	case ms <= 10000:
		return "1001-10000"
	default:
		return "10000+"
	}
}
