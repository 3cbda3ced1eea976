package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// NotificationsExchange is the fanout exchange dashboard consumers bind to
const NotificationsExchange = "notifications_fanout"

// RabbitMQNotifier publishes order events to a fanout exchange
type RabbitMQNotifier struct {
	url  string
	log  *zap.Logger
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitMQNotifier dials the broker and declares the exchange
func NewRabbitMQNotifier(url string, log *zap.Logger) (*RabbitMQNotifier, error) {
	n := &RabbitMQNotifier{url: url, log: log}
	if err := n.connect(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *RabbitMQNotifier) connect() error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(NotificationsExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", NotificationsExchange, err)
	}
	n.conn, n.ch = conn, ch
	return nil
}

// OrderChanged implements Notifier
func (n *RabbitMQNotifier) OrderChanged(ctx context.Context, orderID uint) error {
	body, err := json.Marshal(newOrderEvent(orderID))
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil || n.conn.IsClosed() {
		n.log.Info("Reconnecting to RabbitMQ")
		if err := n.connect(); err != nil {
			return err
		}
	}

	err = n.ch.PublishWithContext(ctx, NotificationsExchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

// Close closes the channel and connection
func (n *RabbitMQNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
