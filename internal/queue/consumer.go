package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// MatchLogDir is where the consumer appends matches.log.
var MatchLogDir = "logs"

// StartMatchConsumer connects to RabbitMQ, declares the match.finished queue
// (durable), and appends every message to logs/matches.log as a single line.
// It reconnects with exponential backoff and returns only when ctx is done.
// Malformed messages are rejected without requeue so the loop keeps going.
func StartMatchConsumer(ctx context.Context, log logrus.FieldLogger) {
    log = log.WithField("component", "match-consumer")
    url := BrokerURL()

    backoff := time.Second
    for ctx.Err() == nil {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.WithError(err).Warnf("dial broker failed; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return
        }
        log.WithError(err).Warn("consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return
        }
    }
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

func consumeLoop(ctx context.Context, conn *amqp.Connection, log logrus.FieldLogger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.WithError(err).Warn("set QoS failed")
    }

    if _, err := ch.QueueDeclare(MatchFinishedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(MatchFinishedQueue, "", false, false, false, false, nil)
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
            if err := HandleMatchFinished(d.Body); err != nil {
                log.WithError(err).Error("handle message failed")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMatchFinished decodes one event and appends it to matches.log.
func HandleMatchFinished(body []byte) error {
    var ev MatchFinishedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.MatchID == 0 {
        return errors.New("event without match_id")
    }
    if err := os.MkdirAll(MatchLogDir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(MatchLogDir, "matches.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    result := ev.Result
    if result == "" {
        result = "-"
    }
    line := fmt.Sprintf("[%s] Match finished | match_id=%d | team1=%q | team2=%q | result=%s | scored=%d\n",
        ev.FinishedAt, ev.MatchID, ev.Team1, ev.Team2, result, ev.Scored)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
