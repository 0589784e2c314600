// Package messaging carries theme events between tabs over a RabbitMQ
// topic exchange, for shells where tabs live in separate processes.
package messaging

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
	"github.com/matst80/slask-theme/pkg/events"
)

type RabbitConfig struct {
	Url    string
	VHost  string
	Prefix string
}

// RabbitTransport implements events.Transport on the <prefix>_theme_event
// exchange. Every subscriber gets its own exclusive queue.
type RabbitTransport struct {
	conn     *amqp.Connection
	exchange string
	log      *zap.Logger
	mu       sync.Mutex
	chans    []*amqp.Channel
}

func Connect(cfg RabbitConfig, log *zap.Logger) (*RabbitTransport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := amqp.DialConfig(cfg.Url, amqp.Config{
		Vhost:      cfg.VHost,
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	defer ch.Close()
	exchange := exchangeName(cfg.Prefix, ThemeEvents)
	if err := declareExchange(ch, exchange); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &RabbitTransport{conn: conn, exchange: exchange, log: log}, nil
}

func (t *RabbitTransport) Publish(ctx context.Context, msg events.Message) error {
	return publishJSON(ctx, t.conn, t.exchange, msg)
}

func (t *RabbitTransport) Subscribe(fn func(events.Message)) error {
	ch, err := t.conn.Channel()
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.chans = append(t.chans, ch)
	t.mu.Unlock()
	return consume(ch, t.exchange, t.log, func(d amqp.Delivery) error {
		msg, err := decodeMessage(d.Body)
		if err != nil {
			return err
		}
		fn(msg)
		return nil
	})
}

func decodeMessage(body []byte) (events.Message, error) {
	var msg events.Message
	err := jsoncompat.Unmarshal(body, &msg)
	return msg, err
}

func (t *RabbitTransport) Close() error {
	t.mu.Lock()
	for _, ch := range t.chans {
		_ = ch.Close()
	}
	t.chans = nil
	t.mu.Unlock()
	return t.conn.Close()
}
