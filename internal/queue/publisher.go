package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/booking"
)

// Publisher sends reservation events to a durable RabbitMQ queue.  A
// connection is dialled per event; volume is one message per committed
// mutation.
type Publisher struct {
	url     string
	queue   string
	timeout time.Duration
	log     *zap.Logger
}

// NewPublisher returns a publisher for the given broker URL and queue.
func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, queue: queue, timeout: 5 * time.Second, log: log}
}

// Publish implements booking.Publisher.  Messages are persistent.  Errors
// are returned with the failing step attached and left to the caller to
// log; the booking core never fails a committed operation because of them.
func (p *Publisher) Publish(ctx context.Context, ev booking.Event) error {
	msg := NewMessage(ev)
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode reservation event: %w", err)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, p.queue); err != nil {
		return fmt.Errorf("rabbitmq declare %s: %w", p.queue, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.EventID,
		Type:         msg.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", p.queue, err)
	}
	p.log.Debug("reservation event published",
		zap.String("event_id", msg.EventID),
		zap.String("type", msg.Type),
		zap.Uint64("reservation_id", msg.ReservationID),
	)
	return nil
}

// declare makes sure the durable queue exists.  It is idempotent.
func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	return err
}
