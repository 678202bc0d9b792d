package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"productdesk/internal/models"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the durable event queue.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", cfg.Queue, err)
	}

	logger = logger.Named("rabbitmq")
	logger.Info("RabbitMQ client connected", zap.String("queue", cfg.Queue))

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		logger:  logger,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing RabbitMQ client: %v", errs)
	}
	return nil
}

// PublishProductEvent publishes a persistent JSON message to the event queue.
func (c *Client) PublishProductEvent(_ context.Context, event models.ProductEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal product event: %w", err)
	}

	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("product event published", zap.String("type", event.Type), zap.Uint("product_id", event.ProductID))
	return nil
}

// ConsumeProductEvents starts a goroutine that hands every delivery on the event queue to handler.
// Deliveries are acked when handler returns nil and nacked without requeue otherwise.
func (c *Client) ConsumeProductEvents(handler func(event models.ProductEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := HandleDelivery(msg.Body, handler); err != nil {
				c.logger.Warn("product event rejected", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
				if nackErr := msg.Nack(false, false); nackErr != nil {
					c.logger.Error("nack failed", zap.Error(nackErr))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				c.logger.Error("ack failed", zap.Error(ackErr))
			}
		}
	}()

	return nil
}

// HandleDelivery decodes a message body and passes the event to handler.
func HandleDelivery(body []byte, handler func(event models.ProductEvent) error) error {
	var event models.ProductEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode product event: %w", err)
	}
	return handler(event)
}
