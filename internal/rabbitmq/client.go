package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/Pereval/internal/config"
	"github.com/GoArmGo/Pereval/internal/messaging/payloads"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client клиент RabbitMQ: публикует события о заявках и раздаёт их воркеру
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
}

// NewClient подключается к RabbitMQ и объявляет очередь событий
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// Идемпотентно: очередь создаётся, только если её ещё нет
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName, // name
		true,                           // durable
		false,                          // delete when unused
		false,                          // exclusive
		false,                          // no-wait
		nil,                            // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	// воркер берёт по одному сообщению: архивация идёт последовательно
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	logger.Info("RabbitMQ connected", "queue", q.Name, "messages", q.Messages)
	return &Client{conn: conn, channel: ch, queue: q, logger: logger}, nil
}

// Close закрывает канал и соединение RabbitMQ
func (c *Client) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error("error closing RabbitMQ channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	c.logger.Info("RabbitMQ connection closed")
	return nil
}

// PublishPerevalEvent публикует событие в очередь, реализует ports.PerevalEventPublisher
func (c *Client) PublishPerevalEvent(ctx context.Context, event payloads.PerevalEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID.String(),
			Type:         event.Type,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventID, err)
	}

	c.logger.Debug("event published",
		"queue", c.queue.Name,
		"event_id", event.EventID,
		"type", event.Type,
		"pereval_id", event.PerevalID,
	)
	return nil
}

// StartConsumingPerevalEvents начинает потребление событий, реализует ports.PerevalEventConsumer.
// Возвращается сразу, сообщения обрабатываются в отдельной горутине до отмены ctx.
// done закрывается после выхода горутины, до этого канал RabbitMQ закрывать нельзя.
func (c *Client) StartConsumingPerevalEvents(ctx context.Context, handler func(context.Context, payloads.PerevalEvent) error) (<-chan struct{}, error) {
	msgs, err := c.channel.ConsumeWithContext(
		ctx,
		c.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack, подтверждаем вручную
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered, waiting for events", "queue", c.queue.Name)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Info("RabbitMQ delivery channel closed, stopping consumer")
					return
				}
				handleDelivery(ctx, msg, handler, c.logger)
			case <-ctx.Done():
				c.logger.Info("context cancelled, stopping RabbitMQ consumer")
				return
			}
		}
	}()

	return done, nil
}

// handleDelivery подтверждает успешно обработанное сообщение.
// Битое сообщение отбрасывается. Ошибка обработки возвращает его в очередь один раз,
// повторная ошибка на уже переданном сообщении отбрасывает его.
func handleDelivery(ctx context.Context, msg amqp.Delivery, handler func(context.Context, payloads.PerevalEvent) error, logger *slog.Logger) {
	var event payloads.PerevalEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.PerevalID <= 0 {
		logger.Error("malformed event, dropping", "error", err, "body", string(msg.Body))
		if err := msg.Nack(false, false); err != nil {
			logger.Error("error NACKing malformed message", "error", err)
		}
		return
	}

	if err := handler(ctx, event); err != nil {
		requeue := !msg.Redelivered
		logger.Error("error processing event",
			"event_id", event.EventID,
			"pereval_id", event.PerevalID,
			"redelivered", msg.Redelivered,
			"requeue", requeue,
			"error", err,
		)
		if err := msg.Nack(false, requeue); err != nil {
			logger.Error("error NACKing message after processing failure", "error", err)
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("error ACKing message", "event_id", event.EventID, "error", err)
	}
}

// NoopPublisher используется, когда RabbitMQ не настроен
type NoopPublisher struct{}

func (NoopPublisher) PublishPerevalEvent(context.Context, payloads.PerevalEvent) error {
	return nil
}
