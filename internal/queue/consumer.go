package queue

// The audit consumer listens to lounger status events and writes one
// line per event to a log file.

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

const auditQueueName = "lounger.events.audit"

// DeclareTopology declares the topic exchange lounger events go to.  It
// is shared by the publisher and the consumer and is idempotent.
func DeclareTopology(ch *amqp.Channel) error {
    return ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
}

// AuditConsumer appends every lounger event to a log file.
type AuditConsumer struct {
    URL     string
    LogPath string
    Logger  *zap.Logger
}

// Run connects to RabbitMQ, binds the durable audit queue to every
// lounger topic and consumes until ctx is cancelled.  Broker failures
// trigger a reconnect with exponential backoff capped at 30s; a message
// that cannot be handled is rejected without requeue so the loop keeps
// going.
func (c *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Logger.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return nil
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
            return nil
        }
        c.Logger.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return nil
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
        c.Logger.Warn("audit consumer: set QoS failed", zap.Error(err))
    }
    if err := DeclareTopology(ch); err != nil {
        return fmt.Errorf("exchange declare: %w", err)
    }
    if _, err := ch.QueueDeclare(auditQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    if err := ch.QueueBind(auditQueueName, "#", Exchange, false, nil); err != nil {
        return fmt.Errorf("queue bind: %w", err)
    }

    msgs, err := ch.Consume(auditQueueName, "", false, false, false, false, nil)
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
                c.Logger.Error("audit consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *AuditConsumer) handle(body []byte) error {
    line, err := FormatAuditLine(body)
    if err != nil {
        return err
    }
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatAuditLine renders one event as a single human readable line.
func FormatAuditLine(body []byte) (string, error) {
    var ev LoungerStatusChanged
    if err := json.Unmarshal(body, &ev); err != nil {
        return "", fmt.Errorf("unmarshal: %w", err)
    }
    state := "occupied"
    if ev.Available {
        state = "available"
    }
    line := fmt.Sprintf("[%s] Lounger %s | lounger_id=%d | beach_id=%d | reservation_id=%d | number=%q",
        ev.OccurredAt, state, ev.LoungerID, ev.BeachID, ev.ReservationID, ev.Number)
    if ev.Until != "" {
        line += " | until=" + ev.Until
    }
    return line + "\n", nil
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
