package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLog appends one line per event to a file, creating its directory
// on first use.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

// NewAuditLog returns an AuditLog writing to path.
func NewAuditLog(path string) *AuditLog { return &AuditLog{path: path} }

// Append writes ev as a single line.
func (a *AuditLog) Append(ev Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("mkdir audit dir: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func formatLine(ev Event) string {
	line := fmt.Sprintf("[%s] %s | event_id=%d", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.EventID)
	if ev.VenueID != 0 {
		line += fmt.Sprintf(" | venue_id=%d", ev.VenueID)
	}
	if ev.ReservationID != 0 {
		line += fmt.Sprintf(" | reservation_id=%d", ev.ReservationID)
	}
	if ev.PatronID != 0 {
		line += fmt.Sprintf(" | patron_id=%d", ev.PatronID)
	}
	if ev.GuestUnits != 0 {
		line += fmt.Sprintf(" | guest_units=%d", ev.GuestUnits)
	}
	if ev.Previous != "" {
		line += fmt.Sprintf(" | from=%s", ev.Previous)
	}
	if ev.Status != "" {
		line += fmt.Sprintf(" | status=%s", ev.Status)
	}
	if ev.Remaining != nil {
		line += fmt.Sprintf(" | remaining=%d", *ev.Remaining)
	}
	return line + "\n"
}

// Consumer drains QueueName into an AuditLog.
type Consumer struct {
	url   string
	audit *AuditLog
	log   *slog.Logger
}

// NewConsumer returns a Consumer for the broker at url.
func NewConsumer(url string, audit *AuditLog, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{url: url, audit: audit, log: log}
}

// Run connects, consumes and reconnects with backoff until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial broker failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set qos failed", "err", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
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
			if err := c.handle(d.Body); err != nil {
				c.log.Error("handle message failed", "err", err)
				_ = d.Nack(false, false) // do not requeue poison messages
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	return c.audit.Append(ev)
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
