package service

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/venue-admin/internal/metrics"
    q "github.com/iliyamo/venue-admin/internal/queue"
)

// AMQPPublisher publishes domain events to RabbitMQ, one short-lived
// connection per event.  Errors are logged and returned so callers can
// ignore them without interrupting the main request flow.
type AMQPPublisher struct {
    URL string
    Log logrus.FieldLogger
}

func NewAMQPPublisher(url string, log logrus.FieldLogger) *AMQPPublisher {
    return &AMQPPublisher{URL: url, Log: log.WithField("component", "publisher")}
}

// PublishMatchFinished publishes ev to the "match.finished" queue as a
// persistent message.
func (p *AMQPPublisher) PublishMatchFinished(ctx context.Context, ev q.MatchFinishedEvent) (err error) {
    log := p.Log.WithField("match_id", ev.MatchID)
    defer func() {
        outcome := "ok"
        if err != nil {
            outcome = "error"
            log.WithError(err).Warn("publish match.finished failed")
        }
        metrics.EventsPublishedTotal.WithLabelValues(q.MatchFinishedQueue, outcome).Inc()
    }()

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        q.MatchFinishedQueue, // name
        true,                 // durable
        false,                // autoDelete
        false,                // exclusive
        false,                // noWait
        nil,                  // args
    ); err != nil {
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    return ch.PublishWithContext(ctx,
        "",                   // default exchange
        q.MatchFinishedQueue, // routing key = queue name
        false,                // mandatory
        false,                // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        })
}
