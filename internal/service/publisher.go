// Package service publishes guestlist domain events to RabbitMQ once the
// change behind them has been committed.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/guestlist/internal/queue"
)

// Publisher sends one event to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

const (
	dialTimeout = 3 * time.Second
	redialDelay = 5 * time.Second
)

// ErrBrokerUnavailable is returned while another dial is in flight or a
// recent one failed.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// AMQPPublisher publishes persistent JSON messages to queue.QueueName.  The
// connection is opened on first use and reopened after it drops.  Only one
// caller dials at a time; the others fail fast instead of queueing behind
// an unreachable broker.
type AMQPPublisher struct {
	url  string
	dial func(url string) (*amqp.Connection, error)

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	dialing bool
	retryAt time.Time

	sendMu sync.Mutex
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, dial: dialBroker}
}

func dialBroker(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Dial:      amqp.DefaultDial(dialTimeout),
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
}

// Publish marshals ev and publishes it as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}

	p.sendMu.Lock()
	err = ch.PublishWithContext(ctx, "", queue.QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	p.sendMu.Unlock()
	if err != nil {
		p.drop(ch)
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// channel returns an open channel, dialing when needed.  The dial runs
// without mu held.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	if p.dialing || time.Now().Before(p.retryAt) {
		p.mu.Unlock()
		return nil, ErrBrokerUnavailable
	}
	p.dialing = true
	p.reset()
	p.mu.Unlock()

	conn, ch, err := p.connect()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		p.retryAt = time.Now().Add(redialDelay)
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) connect() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := p.dial(p.url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue.QueueName, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue declare: %w", err)
	}
	return conn, ch, nil
}

// drop forgets ch after a failed publish so the next call redials.
func (p *AMQPPublisher) drop(ch *amqp.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == ch {
		p.reset()
	}
}

// reset closes the current connection.  Callers hold mu.
func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
