// Package notify delivers free-text save outcome messages. The current sink
// writes to the structured log; the order service only sees the interface.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/salesdesk/order-engine/internal/domain/order"
)

var _ order.Notifier = (*LogNotifier)(nil)

// LogNotifier publishes notifications to the service log.
type LogNotifier struct {
	lg *zap.Logger
}

// NewLogNotifier creates a LogNotifier on the given logger.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	return &LogNotifier{lg: lg.Named("notify")}
}

// Notify records the message.
func (n *LogNotifier) Notify(_ context.Context, message string) {
	n.lg.Info("notification", zap.String("message", message))
}
