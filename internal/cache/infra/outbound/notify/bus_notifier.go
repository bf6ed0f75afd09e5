package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/cache/domain"
	sharedEvents "github.com/davicafu/rediscache/internal/shared/events"
	sharedBus "github.com/davicafu/rediscache/internal/shared/infra/platform/bus"
	"github.com/davicafu/rediscache/internal/shared/infra/platform/stats"
)

// BusNotifier publica las notificaciones del backend como eventos de integración.
// Un fallo al publicar se registra y se cuenta, nunca se propaga a la operación de caché.
type BusNotifier struct {
	bus   sharedBus.EventBus
	log   *zap.Logger
	stats stats.Collector
}

var _ domain.Notifier = (*BusNotifier)(nil)

func NewBusNotifier(bus sharedBus.EventBus, log *zap.Logger, collector stats.Collector) *BusNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &BusNotifier{bus: bus, log: log, stats: collector}
}

func (n *BusNotifier) Notify(ctx context.Context, evt domain.Notification) {
	event, err := sharedEvents.NewIntegrationEvent(sharedEvents.CacheUnsupportedFeature, evt.PartitionKey(), evt.Timestamp, evt)
	if err != nil {
		n.failed(evt, err)
		return
	}
	if err := n.bus.Publish(ctx, event); err != nil {
		n.failed(evt, err)
	}
}

func (n *BusNotifier) failed(evt domain.Notification, err error) {
	n.stats.IncCounter(stats.MetricNotificationErrors, 1)
	n.log.Error("no se pudo publicar la notificación",
		zap.String("notification_id", evt.ID.String()),
		zap.String("feature", string(evt.Feature)),
		zap.Error(err),
	)
}

// Multi reparte cada notificación entre varios notifiers, en orden.
type Multi []domain.Notifier

var _ domain.Notifier = Multi(nil)

func (m Multi) Notify(ctx context.Context, evt domain.Notification) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, evt)
		}
	}
}
