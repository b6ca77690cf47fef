package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const auditFileName = "auth.log"

// AuditConsumer drains the auth events queue into <Dir>/auth.log, one line
// per event.
type AuditConsumer struct {
	URL   string
	Queue string
	Dir   string
	Log   *slog.Logger
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s).  Undecodable
// messages are rejected without requeue so they cannot loop.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("audit consumer: dial failed", "error", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("audit consumer: consume loop ended, reconnecting", "error", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("audit consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := appendAuditLine(c.Dir, d.Body); err != nil {
				c.Log.Error("audit consumer: handle message failed", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// appendAuditLine decodes one event and appends it to the audit file.
func appendAuditLine(dir string, body []byte) error {
	var ev AuthEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, auditFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s | event_id=%s | user_id=%d | email=%q | role=%s\n",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ID, ev.UserID, ev.Email, ev.Role)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
