package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditConsumer drains the reservation queues and appends one line per
// event to an audit log file.  Divergence lines give operators a durable
// trail of writes that still need reconciling.
type AuditConsumer struct {
	URL     string
	LogPath string
	Logger  *log.Logger
}

// Run connects to the broker and consumes until ctx is cancelled.  It
// reconnects with exponential backoff (capped at 30s) whenever the
// connection drops.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warnf("failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warnf("consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
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
		c.Logger.Warnf("set QoS failed: %v", err)
	}

	merged := make(chan amqp.Delivery)
	for _, t := range EventTypes {
		if _, err := ch.QueueDeclare(string(t), true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", t, err)
		}
		msgs, err := ch.Consume(string(t), "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", t, err)
		}
		go func(msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- d:
				case <-ctx.Done():
					return
				}
			}
		}(msgs)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return amqpErr
			}
			return errors.New("connection closed")
		case d := <-merged:
			if err := c.handleMessage(d.Body); err != nil {
				c.Logger.Errorf("handle message failed: %v", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *AuditConsumer) handleMessage(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders an event as a single human-friendly line.
func FormatAuditLine(ev ReservationEvent) string {
	seats := "[]"
	if len(ev.SeatLabels) > 0 {
		seats = fmt.Sprintf("[%s]", strings.Join(ev.SeatLabels, ","))
	}
	line := fmt.Sprintf("[%s] %s | reservation_id=%s | screening_id=%d | customer=%q | email=%s | status=%s | total=%.2f | seats=%s",
		ev.OccurredAt, ev.Type, ev.ReservationID, ev.ScreeningID, ev.CustomerName, ev.CustomerEmail, ev.Status, ev.TotalPrice, seats)
	if ev.Error != "" {
		line += fmt.Sprintf(" | error=%q", ev.Error)
	}
	return line + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
