package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Notifier is told which order changed after a mutation commits so staff dashboards can refresh
type Notifier interface {
	OrderChanged(ctx context.Context, orderID uint) error
}

// OrderEvent is the payload published to dashboard subscribers
type OrderEvent struct {
	Type      string    `json:"type"`
	OrderID   uint      `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

func newOrderEvent(orderID uint) OrderEvent {
	return OrderEvent{Type: "order_changed", OrderID: orderID, Timestamp: time.Now().UTC()}
}

// dispatcher delivers notifications off the request path. Failures are logged only.
type dispatcher struct {
	sink    Notifier
	log     *zap.Logger
	timeout time.Duration
}

func (d *dispatcher) orderChanged(orderIDs ...uint) {
	if len(orderIDs) == 0 {
		return
	}
	ids := append([]uint(nil), orderIDs...)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		for _, id := range ids {
			if err := d.sink.OrderChanged(ctx, id); err != nil {
				d.log.Warn("Failed to publish order notification", zap.Uint("order_id", id), zap.Error(err))
			}
		}
	}()
}

// LogNotifier writes notifications to the log; used when no broker is configured
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// OrderChanged implements Notifier
func (n *LogNotifier) OrderChanged(_ context.Context, orderID uint) error {
	n.log.Debug("Order changed", zap.Uint("order_id", orderID))
	return nil
}
