package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	analysisSubmittedTotal  atomic.Uint64
	analysisSucceededTotal  atomic.Uint64
	analysisFailedTotal     atomic.Uint64
	analysisSupersededTotal atomic.Uint64
	cacheHitsTotal          atomic.Uint64
	cacheMissesTotal        atomic.Uint64

	analysisDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncAnalysisSubmitted counts a submission entering in_flight.
func IncAnalysisSubmitted() {
	analysisSubmittedTotal.Add(1)
}

// IncAnalysisSucceeded counts a current submission resolving with a report.
func IncAnalysisSucceeded() {
	analysisSucceededTotal.Add(1)
}

// IncAnalysisFailed counts a current submission resolving with an error.
func IncAnalysisFailed() {
	analysisFailedTotal.Add(1)
}

// IncAnalysisSuperseded counts a completion discarded because a newer
// submission or a reset replaced it.
func IncAnalysisSuperseded() {
	analysisSupersededTotal.Add(1)
}

// IncCacheHit counts a report served from the result cache.
func IncCacheHit() {
	cacheHitsTotal.Add(1)
}

// IncCacheMiss counts a cache lookup that fell through to the provider.
func IncCacheMiss() {
	cacheMissesTotal.Add(1)
}

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "analysis_submitted_total", "Total analyses submitted", analysisSubmittedTotal.Load())
	writeCounter(&buf, "analysis_succeeded_total", "Total analyses succeeded", analysisSucceededTotal.Load())
	writeCounter(&buf, "analysis_failed_total", "Total analyses failed", analysisFailedTotal.Load())
	writeCounter(&buf, "analysis_superseded_total", "Total analysis completions discarded as stale", analysisSupersededTotal.Load())
	writeCounter(&buf, "report_cache_hits_total", "Total reports served from cache", cacheHitsTotal.Load())
	writeCounter(&buf, "report_cache_misses_total", "Total report cache misses", cacheMissesTotal.Load())
	writeHistogram(&buf, "analysis_duration_ms", "Analysis duration in milliseconds", analysisDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
