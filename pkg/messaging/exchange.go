package messaging

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
)

// Topic names one exchange below the configured prefix.
type Topic string

const ThemeEvents Topic = "theme_event"

func exchangeName(prefix string, topic Topic) string {
	if prefix == "" {
		return string(topic)
	}
	return prefix + "_" + string(topic)
}

func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(name, "topic", true, false, false, false, nil)
}

func publishJSON(ctx context.Context, conn *amqp.Connection, name string, v any) error {
	body, err := jsoncompat.Marshal(v)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return ch.PublishWithContext(ctx, name, name, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// consume binds an exclusive auto-deleted queue to the exchange and hands
// every delivery to handle until the channel closes. A delivery handle
// rejects is logged and dropped.
func consume(ch *amqp.Channel, name string, log *zap.Logger, handle func(amqp.Delivery) error) error {
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(q.Name, name, name, false, nil); err != nil {
		return err
	}
	deliveries, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return err
	}
	go func() {
		defer ch.Close()
		for d := range deliveries {
			if err := handle(d); err != nil {
				log.Warn("dropping message", zap.String("exchange", name), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}()
	return nil
}
