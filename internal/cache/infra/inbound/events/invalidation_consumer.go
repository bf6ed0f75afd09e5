package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/cache/domain"
	sharedEvents "github.com/davicafu/rediscache/internal/shared/infra/events"
	"github.com/davicafu/rediscache/internal/shared/infra/platform/stats"
)

// Operaciones de invalidación admitidas.
const (
	OpRemove = "remove"
	OpClean  = "clean"
)

// Command es el mensaje de invalidación que llega por Kafka.
//
//	{"op":"remove","id":"user_42"}
//	{"op":"clean","mode":"all"}
type Command struct {
	Op   string              `json:"op"`
	ID   string              `json:"id,omitempty"`
	Mode domain.CleaningMode `json:"mode,omitempty"`
	Tags []string            `json:"tags,omitempty"`
}

// Invalidator es la parte del backend que necesita el consumidor.
type Invalidator interface {
	Remove(ctx context.Context, id string) (bool, error)
	Clean(ctx context.Context, mode domain.CleaningMode, tags []string) (bool, error)
}

// InvalidationConsumer aplica al backend local las invalidaciones publicadas por otros procesos.
type InvalidationConsumer struct {
	backend Invalidator
	log     *zap.Logger
	stats   stats.Collector
	timeout time.Duration
}

var _ sharedEvents.MessageHandler = (*InvalidationConsumer)(nil)

func NewInvalidationConsumer(backend Invalidator, log *zap.Logger, collector stats.Collector) *InvalidationConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &InvalidationConsumer{
		backend: backend,
		log:     log,
		stats:   collector,
		timeout: 2 * time.Second,
	}
}

func (c *InvalidationConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		c.log.Warn("Failed to unmarshal invalidation command", zap.String("key", key), zap.Error(err))
		return
	}

	switch cmd.Op {
	case OpRemove:
		if cmd.ID == "" {
			c.log.Warn("Invalidation command without id", zap.String("key", key))
			return
		}
		c.withTimeout(ctx, cmd, func(ctx context.Context) error {
			_, err := c.backend.Remove(ctx, cmd.ID)
			return err
		})

	case OpClean:
		mode := cmd.Mode
		if mode == "" {
			mode = domain.ModeAll
		}
		c.withTimeout(ctx, cmd, func(ctx context.Context) error {
			_, err := c.backend.Clean(ctx, mode, cmd.Tags)
			return err
		})

	default:
		c.log.Warn("Unknown invalidation op", zap.String("op", cmd.Op), zap.String("key", key))
	}
}

// Helper para ejecutar la acción con contexto limitado y log
func (c *InvalidationConsumer) withTimeout(ctx context.Context, cmd Command, action func(ctx context.Context) error) {
	ctxOp, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := action(ctxOp); err != nil {
		c.log.Warn("Failed to apply invalidation",
			zap.String("op", cmd.Op),
			zap.String("id", cmd.ID),
			zap.Error(err),
		)
		return
	}
	c.stats.IncCounter(stats.MetricInvalidations, 1)
	c.log.Debug("Invalidation applied", zap.String("op", cmd.Op), zap.String("id", cmd.ID))
}
