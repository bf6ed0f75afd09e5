// Package stats define una interfaz común para recoger métricas del backend.
package stats

// Nombres de métricas.
const (
	MetricLoads              = "rediscache_loads_total"
	MetricHits               = "rediscache_hits_total"
	MetricMisses             = "rediscache_misses_total"
	MetricSaves              = "rediscache_saves_total"
	MetricRemoves            = "rediscache_removes_total"
	MetricTouches            = "rediscache_touches_total"
	MetricTouchRefused       = "rediscache_touch_refused_total"
	MetricFlushes            = "rediscache_flushes_total"
	MetricConnects           = "rediscache_connects_total"
	MetricConnectFailures    = "rediscache_connect_failures_total"
	MetricUnsupported        = "rediscache_unsupported_total"
	MetricInvalidations      = "rediscache_invalidations_total"
	MetricOperationSeconds   = "rediscache_operation_seconds"
	MetricPayloadBytes       = "rediscache_payload_bytes"
	MetricNotificationErrors = "rediscache_notification_errors_total"
)

// Collector define cómo se registran las métricas.
type Collector interface {
	IncCounter(name string, delta int64)
	SetGauge(name string, value int64)
	ObserveHistogram(name string, value float64)
}
