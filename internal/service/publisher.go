package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/beach-lounger-reservation/internal/queue"
)

// Publisher fans lounger status changes out to connected viewers.
// Delivery is at most once: callers log a failed publish and move on.
type Publisher interface {
	Publish(ctx context.Context, ev queue.LoungerStatusChanged) error
}

// DiscardPublisher drops every event.  Used when no broker is configured.
type DiscardPublisher struct{}

func (DiscardPublisher) Publish(context.Context, queue.LoungerStatusChanged) error { return nil }

// AMQPPublisher publishes events to the lounger topic exchange.  The
// connection is dialled lazily and re-dialled after the broker drops it.
type AMQPPublisher struct {
	url string
	log *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher returns a publisher for the broker at url.  No
// connection is made until the first Publish.
func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log}
}

// channel returns an open channel, dialling and declaring the exchange
// when needed.  Callers hold p.mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel open: %w", err)
	}
	if err := queue.DeclareTopology(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

// Publish sends ev on the lounger's topic as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.LoungerStatusChanged) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, queue.Exchange, queue.Topic(ev.LoungerID), false, false, pub); err != nil {
		// force a fresh channel on the next publish
		_ = ch.Close()
		p.ch = nil
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.log.Debug("event published",
		zap.String("event_id", ev.ID),
		zap.String("routing_key", queue.Topic(ev.LoungerID)),
		zap.Bool("available", ev.Available))
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
