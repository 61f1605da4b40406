package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CacheMetrics 追踪进程内缓存（战斗规则等）的核心指标。
type CacheMetrics struct {
	LoadDuration *prometheus.HistogramVec
	CacheHit     *prometheus.CounterVec
	CacheMiss    *prometheus.CounterVec
	CacheEvict   *prometheus.CounterVec
}

var (
	// DefaultCacheMetrics 全局共享实例。
	DefaultCacheMetrics *CacheMetrics

	cacheLoadBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.5, 1, 2}
)

func init() {
	DefaultCacheMetrics = NewCacheMetrics("monstro")
}

// NewCacheMetricsWithRegistry 创建 CacheMetrics,允许 tests 注入自定义 registry。
func NewCacheMetricsWithRegistry(namespace string, reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		reg = GetRegisterer()
	}
	factory := promauto.With(reg)

	return &CacheMetrics{
		LoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cache_load_duration_seconds",
				Help:      "Latency histogram for loading values on cache miss",
				Buckets:   cacheLoadBuckets,
			},
			[]string{"service", "cache"},
		),

		CacheHit: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Count of in-process cache hits by cache name",
			},
			[]string{"service", "cache"},
		),

		CacheMiss: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_miss_total",
				Help:      "Count of in-process cache misses by cache name",
			},
			[]string{"service", "cache"},
		),

		CacheEvict: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_evict_total",
				Help:      "Count of cache evictions grouped by cache name and reason",
			},
			[]string{"service", "cache", "reason"},
		),
	}
}

// NewCacheMetrics 创建默认 registry 的 CacheMetrics。
func NewCacheMetrics(namespace string) *CacheMetrics {
	return NewCacheMetricsWithRegistry(namespace, GetRegisterer())
}

// ObserveLoadDuration 记录缓存未命中后的加载耗时。
func (m *CacheMetrics) ObserveLoadDuration(service, cache string, duration time.Duration) {
	if m == nil {
		return
	}
	service = normalizeServiceName(service)
	m.LoadDuration.WithLabelValues(service, cache).Observe(duration.Seconds())
}

// IncCacheHit 增加缓存命中次数。
func (m *CacheMetrics) IncCacheHit(service, cache string) {
	if m == nil {
		return
	}
	m.CacheHit.WithLabelValues(normalizeServiceName(service), cache).Inc()
}

// IncCacheMiss 增加缓存未命中次数。
func (m *CacheMetrics) IncCacheMiss(service, cache string) {
	if m == nil {
		return
	}
	m.CacheMiss.WithLabelValues(normalizeServiceName(service), cache).Inc()
}

// IncCacheEvicted 记录缓存剔除次数。
func (m *CacheMetrics) IncCacheEvicted(service, cache, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.CacheEvict.WithLabelValues(normalizeServiceName(service), cache, reason).Inc()
}
