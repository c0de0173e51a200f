package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"campus-dispatch-service/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DispatchExchange = "dispatch"
)

// RoutingKey maps an event type to its topic, e.g. "mission.route.planned".
func RoutingKey(eventType string) string {
	return "mission." + strings.TrimPrefix(eventType, "mission.")
}

// AMQPPublisher sends mission events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPPublisher(uri string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		DispatchExchange, // name
		"topic",          // type
		true,             // durable
		false,            // auto-deleted
		false,            // internal
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", DispatchExchange, err)
	}

	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

// Publish is serialized because amqp channels are not safe for concurrent
// publishing.
func (p *AMQPPublisher) Publish(ctx context.Context, event domain.MissionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx,
		DispatchExchange,       // exchange
		RoutingKey(event.Type), // routing key
		false,                  // mandatory
		false,                  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.At,
			MessageId:    event.MissionID,
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
