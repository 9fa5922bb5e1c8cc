package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// responseTimeWindow bounds the latency sample buffer used for
// percentile estimates.
const responseTimeWindow = 1000

// Metrics aggregates runtime counters for the /metrics endpoint: request
// volume, latency, cache effectiveness, GitHub API call outcomes, and
// rate limiter activity.
type Metrics struct {
	requestCount  int64
	errorCount    int64
	cacheHits     int64
	cacheMisses   int64
	forgeAPICalls int64
	avgRespNanos  int64

	startTime time.Time

	respMu        sync.RWMutex
	responseTimes []time.Duration

	statusMu      sync.RWMutex
	countByStatus map[int]int64

	apiMu     sync.RWMutex
	apiCalls  map[string]int64
	apiErrors map[string]int64

	rlIPBlocks       int64
	rlRedisErrors    int64
	rlFallbackCount  int64
	rlMu             sync.RWMutex
	rlEndpointBlocks map[string]int64
}

// NewMetrics returns a zeroed metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime:        time.Now(),
		responseTimes:    make([]time.Duration, 0, responseTimeWindow),
		countByStatus:    make(map[int]int64),
		apiCalls:         make(map[string]int64),
		apiErrors:        make(map[string]int64),
		rlEndpointBlocks: make(map[string]int64),
	}
}

func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.requestCount, 1)
}

func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.errorCount, 1)
}

func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.cacheHits, 1)
}

func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.cacheMisses, 1)
}

func (m *Metrics) IncrementForgeCalls() {
	atomic.AddInt64(&m.forgeAPICalls, 1)
}

// RecordResponseTime folds duration into the running average and the
// sliding latency window.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.avgRespNanos)
	atomic.StoreInt64(&m.avgRespNanos, (current+duration.Nanoseconds())/2)

	m.respMu.Lock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > responseTimeWindow {
		m.responseTimes = m.responseTimes[1:]
	}
	m.respMu.Unlock()
}

// RecordRequestByStatus tallies one response under its HTTP status code.
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusMu.Lock()
	m.countByStatus[statusCode]++
	m.statusMu.Unlock()
}

// RecordExternalAPIRequest tallies one upstream call and, on failure,
// its error.
func (m *Metrics) RecordExternalAPIRequest(apiName string, success bool) {
	m.apiMu.Lock()
	m.apiCalls[apiName]++
	if !success {
		m.apiErrors[apiName]++
	}
	m.apiMu.Unlock()
}

// GetPercentileResponseTime estimates the given latency percentile over
// the sample window. Returns 0 with no samples.
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.respMu.RLock()
	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	m.respMu.RUnlock()

	if len(times) == 0 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	idx := int(float64(len(times)-1) * percentile / 100.0)
	if idx >= len(times) {
		idx = len(times) - 1
	}
	return times[idx]
}

// GetStatusCodeDistribution copies the per-status request counts.
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()

	out := make(map[int]int64, len(m.countByStatus))
	for code, count := range m.countByStatus {
		out[code] = count
	}
	return out
}

// GetExternalAPIStats reports per-API call volume and error rate.
func (m *Metrics) GetExternalAPIStats() map[string]interface{} {
	m.apiMu.RLock()
	defer m.apiMu.RUnlock()

	stats := make(map[string]interface{}, len(m.apiCalls))
	for api, calls := range m.apiCalls {
		failures := m.apiErrors[api]
		stats[api] = map[string]interface{}{
			"requests":   calls,
			"errors":     failures,
			"error_rate": ratePercent(failures, calls),
		}
	}
	return stats
}

// GetStats assembles the full metrics payload.
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.requestCount)
	errorTotal := atomic.LoadInt64(&m.errorCount)
	hits := atomic.LoadInt64(&m.cacheHits)
	misses := atomic.LoadInt64(&m.cacheMisses)

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.startTime).Seconds(),
		"total_requests":         requests,
		"error_count":            errorTotal,
		"error_rate_percent":     ratePercent(errorTotal, requests),
		"cache_hits":             hits,
		"cache_misses":           misses,
		"cache_hit_rate_percent": ratePercent(hits, hits+misses),
		"forge_api_calls":        atomic.LoadInt64(&m.forgeAPICalls),
		"avg_response_time_ms":   float64(atomic.LoadInt64(&m.avgRespNanos)) / 1e6,
		"start_time":             m.startTime.Format(time.RFC3339),

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1e6,
		"status_code_distribution": m.GetStatusCodeDistribution(),
		"external_api_stats":       m.GetExternalAPIStats(),

		"rate_limit": m.GetRateLimitStats(),
	}
}

// Reset zeroes every counter. Test helper.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.requestCount, 0)
	atomic.StoreInt64(&m.errorCount, 0)
	atomic.StoreInt64(&m.cacheHits, 0)
	atomic.StoreInt64(&m.cacheMisses, 0)
	atomic.StoreInt64(&m.forgeAPICalls, 0)
	atomic.StoreInt64(&m.avgRespNanos, 0)
	atomic.StoreInt64(&m.rlIPBlocks, 0)
	atomic.StoreInt64(&m.rlRedisErrors, 0)
	atomic.StoreInt64(&m.rlFallbackCount, 0)

	m.respMu.Lock()
	m.responseTimes = m.responseTimes[:0]
	m.respMu.Unlock()

	m.statusMu.Lock()
	m.countByStatus = make(map[int]int64)
	m.statusMu.Unlock()

	m.apiMu.Lock()
	m.apiCalls = make(map[string]int64)
	m.apiErrors = make(map[string]int64)
	m.apiMu.Unlock()

	m.rlMu.Lock()
	m.rlEndpointBlocks = make(map[string]int64)
	m.rlMu.Unlock()

	m.startTime = time.Now()
}

func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.rlIPBlocks, 1)
}

func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.rlRedisErrors, 1)
}

func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.rlFallbackCount, 1)
}

func (m *Metrics) IncrementRateLimitEndpoint(endpoint string) {
	m.rlMu.Lock()
	m.rlEndpointBlocks[endpoint]++
	m.rlMu.Unlock()
}

// GetRateLimitStats reports limiter activity counters.
func (m *Metrics) GetRateLimitStats() map[string]interface{} {
	m.rlMu.RLock()
	endpointBlocks := make(map[string]int64, len(m.rlEndpointBlocks))
	for endpoint, count := range m.rlEndpointBlocks {
		endpointBlocks[endpoint] = count
	}
	m.rlMu.RUnlock()

	return map[string]interface{}{
		"ip_blocks":       atomic.LoadInt64(&m.rlIPBlocks),
		"redis_errors":    atomic.LoadInt64(&m.rlRedisErrors),
		"fallback_count":  atomic.LoadInt64(&m.rlFallbackCount),
		"endpoint_blocks": endpointBlocks,
	}
}

func ratePercent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
