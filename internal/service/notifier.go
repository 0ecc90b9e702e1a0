package service

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/config"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/queue"
)

// Notifier hands booking events to the notification service.  Callers
// treat it as fire-and-forget: errors are logged, never returned to clients.
type Notifier interface {
    Publish(ctx context.Context, ev queue.BookingEvent) error
}

// AMQPPublisher publishes events as persistent JSON messages on a durable
// queue.  A connection is dialled per publish; bookings are infrequent
// enough that holding a channel open is not worth the reconnect handling.
type AMQPPublisher struct {
    url   string
    queue string
}

// NewAMQPPublisher returns a publisher for cfg.URL and cfg.Queue.
func NewAMQPPublisher(cfg config.MessagingConfig) *AMQPPublisher {
    return &AMQPPublisher{url: cfg.URL, queue: cfg.Queue}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
    msg, err := newPublishing(ev)
    if err != nil {
        return err
    }
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Durable so queued notifications survive broker restarts.
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("rabbitmq queue declare: %w", err)
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    return nil
}

func newPublishing(ev queue.BookingEvent) (amqp.Publishing, error) {
    body, err := json.Marshal(ev)
    if err != nil {
        return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
    }
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.BookingID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }, nil
}
