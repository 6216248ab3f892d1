package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes reservation events to durable queues named after
// the event type.  The broker connection is opened lazily and reopened
// after a failure, so a broker outage only costs the events published
// while it lasts; the caller decides what to do with the returned error.
type Publisher struct {
	url    string
	logger *log.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher for the broker at url.  No connection
// is made until the first Publish.
func NewPublisher(url string, logger *log.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// Publish sends ev as a persistent JSON message to the queue ev.Type.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channelLocked()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.ReservationID,
		Type:         string(ev.Type),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", string(ev.Type), false, false, pub); err != nil {
		p.resetLocked()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// channelLocked returns an open channel, dialing and declaring the event
// queues when needed.
func (p *Publisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	for _, t := range EventTypes {
		if _, err := ch.QueueDeclare(string(t), true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("queue declare %s: %w", t, err)
		}
	}
	p.conn, p.ch = conn, ch
	p.logger.Infof("connected to broker, declared %d queues", len(EventTypes))
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
