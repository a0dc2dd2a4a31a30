// internal/metrics/types.go
package metrics

import (
	"math"
	"time"
)

// RouteMetrics is the aggregated data for a single API route.
type RouteMetrics struct {
	Route              string                 `json:"route"`
	LastUpdatedUTC     time.Time              `json:"last_updated_utc"`
	OverallStats       RunningAggregatedStats `json:"overall_stats"`
	PerformanceBuckets []PerformanceBucket    `json:"performance_buckets"`
}

// PerformanceBucket holds aggregated stats for one latency band.
type PerformanceBucket struct {
	Dimension string                 `json:"dimension"`
	Bucket    string                 `json:"bucket"`
	Stats     RunningAggregatedStats `json:"stats"`
}

// RunningAggregatedStats stores running values for a set of requests.
// It uses Welford's online algorithm for mean and standard deviation.
type RunningAggregatedStats struct {
	TotalRequests  int64       `json:"total_requests"`
	ClientErrors   int64       `json:"client_errors"`
	ServerErrors   int64       `json:"server_errors"`
	DurationMillis RunningStat `json:"duration_ms"`
}

// RunningStat holds the values needed for online mean, variance and stddev.
type RunningStat struct {
	Count int64   `json:"-"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"-"` // sum of squared differences from the mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// StdDev returns the sample standard deviation, or 0 with fewer than two values.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count-1))
}
