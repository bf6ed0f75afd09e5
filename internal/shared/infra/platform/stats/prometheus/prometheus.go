// Package prometheus implementa stats.Collector sobre client_golang.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/davicafu/rediscache/internal/shared/infra/platform/stats"
)

// Collector crea las métricas bajo demanda y las registra en el Registerer.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

var _ stats.Collector = (*Collector)(nil)

// New crea el collector. Con registry nil se usa prometheus.DefaultRegisterer.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	m := getOrRegister(c.registry, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: name})
	})
	c.mu.Unlock()
	m.Add(float64(delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	m := getOrRegister(c.registry, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: name})
	})
	c.mu.Unlock()
	m.Set(float64(value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.mu.Lock()
	m := getOrRegister(c.registry, c.histograms, name, func() prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    name,
			Buckets: prometheus.DefBuckets,
		})
	})
	c.mu.Unlock()
	m.Observe(value)
}

// getOrRegister devuelve la métrica cacheada o la registra. Si ya existía una
// con el mismo nombre en el registry, se reutiliza la existente.
// Se llama con c.mu tomado.
func getOrRegister[T prometheus.Collector](reg prometheus.Registerer, cache map[string]T, name string, build func() T) T {
	if m, ok := cache[name]; ok {
		return m
	}

	m := build()
	if err := reg.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				m = existing
			}
		}
	}
	cache[name] = m
	return m
}
