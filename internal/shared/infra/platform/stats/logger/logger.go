// Package logger implementa stats.Collector escribiendo las métricas con zap.
package logger

import (
	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/shared/infra/platform/stats"
)

type Collector struct {
	log *zap.Logger
}

var _ stats.Collector = (*Collector)(nil)

// New crea el collector. Con log nil se usa un logger no-op.
func New(log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{log: log}
}

func (c *Collector) IncCounter(name string, delta int64) {
	c.log.Debug("counter", zap.String("metric", name), zap.Int64("delta", delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	c.log.Debug("gauge", zap.String("metric", name), zap.Int64("value", value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.log.Debug("histogram", zap.String("metric", name), zap.Float64("value", value))
}
