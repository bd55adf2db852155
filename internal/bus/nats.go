package bus

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBus implements Bus over a NATS connection, for deployments where
// escalation and notification events fan out to other services.
type NATSBus struct {
	conn *nats.Conn
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string
	Token         string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NewNATSBus connects to NATS with reconnect handling.
func NewNATSBus(cfg NATSConfig) (*NATSBus, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected to %s", nc.ConnectedUrl())
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", cfg.URL, err)
	}

	return &NATSBus{conn: conn}, nil
}

func (b *NATSBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.conn.Publish(topic, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(topic string, h Handler) (func(), error) {
	sub, err := b.conn.Subscribe(topic, func(msg *nats.Msg) {
		h(context.Background(), Event{
			Topic:     msg.Subject,
			Payload:   msg.Data,
			Timestamp: time.Now().UnixMilli(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("nats unsubscribe from %s: %v", topic, err)
		}
	}, nil
}

func (b *NATSBus) Close() error {
	b.conn.Drain()
	b.conn.Close()
	return nil
}
