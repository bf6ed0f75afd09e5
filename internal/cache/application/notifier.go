package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/cache/domain"
)

// LogNotifier escribe las notificaciones en el logger. Es el notifier por defecto del backend.
type LogNotifier struct {
	log *zap.Logger
}

var _ domain.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, evt domain.Notification) {
	n.log.Warn(evt.Message,
		zap.String("feature", string(evt.Feature)),
		zap.String("operation", evt.Operation),
		zap.String("notification_id", evt.ID.String()),
	)
}
