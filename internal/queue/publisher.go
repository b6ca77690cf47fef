package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends AuthEvents to a durable queue.  Each Publish dials the
// broker, so a broker outage only costs the events published during it.
type Publisher struct {
	URL   string
	Queue string
}

func NewPublisher(url, queue string) *Publisher {
	return &Publisher{URL: url, Queue: queue}
}

// Publish marshals ev and publishes it as a persistent message.  Errors are
// returned so the caller can log and move on.
func (p *Publisher) Publish(ctx context.Context, ev AuthEvent) error {
	msg, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: defaultHeartbeat,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout(ctx)),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		msg,
	); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

const (
	defaultHeartbeat   = 10 * time.Second
	defaultDialTimeout = 30 * time.Second
)

// dialTimeout bounds the TCP connect and AMQP handshake by the context
// deadline, since amqp.Dial does not take a context.
func dialTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout
	}
	if d := time.Until(deadline); d > 0 {
		return d
	}
	return time.Millisecond
}

// encodeEvent fills in the id and timestamp when missing and builds the
// AMQP message.
func encodeEvent(ev AuthEvent) (amqp.Publishing, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	}, nil
}
