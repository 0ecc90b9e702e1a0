package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/labstack/echo/v4"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/config"
)

// Consumer listens on the notification queue and appends one confirmation
// line per event to <LogDir>/notifications.log.  Sending the actual email
// is left to whatever tails that file.
type Consumer struct {
    cfg config.MessagingConfig
    log echo.Logger
}

// NewConsumer returns a Consumer for cfg.
func NewConsumer(cfg config.MessagingConfig, logger echo.Logger) *Consumer {
    return &Consumer{cfg: cfg, log: logger}
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are re-dialled with a doubling backoff capped at 30s.
// Messages that cannot be handled are rejected without requeue so a
// poison message cannot loop.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.cfg.URL)
        if err != nil {
            c.log.Warnf("notify-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleepCtx(ctx, backoff) {
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
        c.log.Warnf("notify-consumer: consume loop ended: %v; reconnecting", err)
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warnf("notify-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
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
            if err := c.handleMessage(d.Body); err != nil {
                c.log.Errorf("notify-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    line, err := renderNotification(ev)
    if err != nil {
        return err
    }
    if err := os.MkdirAll(c.cfg.LogDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", c.cfg.LogDir, err)
    }
    f, err := os.OpenFile(filepath.Join(c.cfg.LogDir, "notifications.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func renderNotification(ev BookingEvent) (string, error) {
    var verb string
    switch ev.Type {
    case EventBookingConfirmed:
        verb = "Booking confirmed"
    case EventBookingCancelled:
        verb = "Booking cancelled"
    default:
        return "", fmt.Errorf("unknown event type %q", ev.Type)
    }
    if ev.BookingID == "" || ev.RequesterEmail == "" {
        return "", errors.New("event without booking id or recipient")
    }
    return fmt.Sprintf("[%s] %s | to=%s | booking_id=%s | travel_unit_id=%s | seats=%d | seats_left=%d\n",
        ev.OccurredAt.UTC().Format(time.RFC3339), verb, ev.RequesterEmail, ev.BookingID, ev.TravelUnitID, ev.Seats, ev.AvailableSeats), nil
}

// sleepCtx waits for d or until ctx is done.  It reports whether the full
// duration elapsed.
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
