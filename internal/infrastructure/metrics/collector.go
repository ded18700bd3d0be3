package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/mizuhara/dyntraits/pkg/cache"
	"github.com/mizuhara/dyntraits/pkg/cache/memorycache"
)

// Collector collects and aggregates metrics for the trait service.
type Collector struct {
	// Per-operation counters (SetTrait, GetTraitValue, ...)
	requests sync.Map // map[string]*uint64 - operation -> count
	errors   sync.Map // map[string]*uint64 - operation -> error count
	duration sync.Map // map[string]*durationValue - operation -> total duration in seconds

	// Cache reference (optional, for querying read-cache metrics)
	cache cache.Cache
}

// durationValue holds duration with mutex for thread-safe updates.
type durationValue struct {
	mu           sync.Mutex
	totalSeconds float64
}

// CacheMetrics holds read-cache performance metrics.
type CacheMetrics struct {
	Hits        uint64
	Misses      uint64
	HitRate     float64
	KeysCurrent int64
	MemoryBytes int64
	Evictions   uint64
}

// OperationMetrics holds request metrics per operation.
type OperationMetrics struct {
	RequestCounts        map[string]uint64
	ErrorCounts          map[string]uint64
	TotalDurationSeconds map[string]float64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// SetCache sets the cache instance for collecting cache metrics.
func (c *Collector) SetCache(cache cache.Cache) {
	c.cache = cache
}

// RecordRequest records a request for the operation.
func (c *Collector) RecordRequest(operation string) {
	counter := c.getOrCreateCounter(&c.requests, operation)
	atomic.AddUint64(counter, 1)
}

// RecordError records a failed request for the operation.
func (c *Collector) RecordError(operation string) {
	counter := c.getOrCreateCounter(&c.errors, operation)
	atomic.AddUint64(counter, 1)
}

// RecordDuration records the duration of an operation in seconds.
func (c *Collector) RecordDuration(operation string, durationSeconds float64) {
	val, _ := c.duration.LoadOrStore(operation, &durationValue{})
	dv := val.(*durationValue)

	dv.mu.Lock()
	dv.totalSeconds += durationSeconds
	dv.mu.Unlock()
}

// GetCacheMetrics returns current read-cache metrics.
func (c *Collector) GetCacheMetrics() *CacheMetrics {
	if c.cache == nil {
		return &CacheMetrics{}
	}

	metrics := c.cache.Metrics()
	if metrics == nil {
		return &CacheMetrics{}
	}

	result := &CacheMetrics{
		Hits:      metrics.Hits,
		Misses:    metrics.Misses,
		HitRate:   metrics.HitRate(),
		Evictions: metrics.KeysEvicted,
	}

	if memCache, ok := c.cache.(*memorycache.Cache); ok {
		result.KeysCurrent = int64(memCache.Len())
		result.MemoryBytes = memCache.Size()
	}

	return result
}

// GetOperationMetrics returns current per-operation metrics.
func (c *Collector) GetOperationMetrics() *OperationMetrics {
	result := &OperationMetrics{
		RequestCounts:        make(map[string]uint64),
		ErrorCounts:          make(map[string]uint64),
		TotalDurationSeconds: make(map[string]float64),
	}

	c.requests.Range(func(key, value interface{}) bool {
		operation := key.(string)
		count := atomic.LoadUint64(value.(*uint64))
		result.RequestCounts[operation] = count
		return true
	})

	c.errors.Range(func(key, value interface{}) bool {
		operation := key.(string)
		count := atomic.LoadUint64(value.(*uint64))
		result.ErrorCounts[operation] = count
		return true
	})

	c.duration.Range(func(key, value interface{}) bool {
		operation := key.(string)
		dv := value.(*durationValue)
		dv.mu.Lock()
		result.TotalDurationSeconds[operation] = dv.totalSeconds
		dv.mu.Unlock()
		return true
	})

	return result
}

// getOrCreateCounter gets or creates a counter for the given key.
func (c *Collector) getOrCreateCounter(m *sync.Map, key string) *uint64 {
	val, _ := m.LoadOrStore(key, new(uint64))
	return val.(*uint64)
}
