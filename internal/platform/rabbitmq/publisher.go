// Package rabbitmq publishes ledger events to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

type Config struct {
	URL        string
	Exchange   string
	MaxRetries int
}

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func newPublisher(ch channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// Dial connects with exponential backoff and declares a durable topic
// exchange.
func Dial(ctx context.Context, cfg Config, log zerolog.Logger) (*Publisher, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}

	var (
		conn *amqp.Connection
		err  error
		wait = time.Second
	)
	for i := 0; i < cfg.MaxRetries; i++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Dur("retry_in", wait).Msg("rabbitmq dial failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	p := newPublisher(ch, cfg.Exchange)
	p.conn = conn
	return p, nil
}

// RoutingKey is "access.<event_type>", so consumers can bind to
// "access.granted" or "access.#".
func RoutingKey(ev types.AccessEvent) string {
	return "access." + string(ev.EventType)
}

func (p *Publisher) Publish(ctx context.Context, ev types.AccessEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.ch.PublishWithContext(ctx,
		p.exchange,
		RoutingKey(ev),
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    fmt.Sprintf("%d", ev.Sequence),
			Body:         body,
			Timestamp:    ev.OccurredAt,
			DeliveryMode: amqp.Persistent,
		},
	)
}

func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
