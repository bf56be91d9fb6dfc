// Package consumer provides RabbitMQ consumer functionality for handling message queues
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/pkg/config"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"github.com/Koyo-os/questionnaire-service/pkg/retrier"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// EXCHANGE_TYPE routes messages to queues by routing key patterns
	EXCHANGE_TYPE = "topic"

	DEFAULT_RECONNECT_DELAY = 5 * time.Second
)

// BindingKeys are the routing patterns the cache listener subscribes to
var BindingKeys = []string{"form.*", "response.*"}

// Consumer represents a RabbitMQ consumer client
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	logger      *logger.Logger
	url         string
	exchange    string
	queue       string
	retry       retrier.Opts
	mu          sync.RWMutex
	isConnected bool
}

// Init creates a Consumer on conn and declares its exchange, queue and bindings
func Init(cfg *config.Config, logger *logger.Logger, conn *amqp.Connection) (*Consumer, error) {
	if cfg == nil || logger == nil || conn == nil {
		return nil, fmt.Errorf("invalid parameters: cfg, logger, and conn cannot be nil")
	}

	consumer := &Consumer{
		conn:     conn,
		logger:   logger,
		url:      cfg.Urls.Rabbitmq,
		exchange: cfg.Exchange.Output,
		queue:    cfg.Queue.Events,
		retry:    retrier.Opts{Count: cfg.Retry.Count, Interval: cfg.Retry.Interval},
	}

	if err := consumer.setup(); err != nil {
		consumer.cleanup()
		return nil, err
	}

	return consumer, nil
}

// setup opens a channel and declares the topology
func (c *Consumer) setup() error {
	channel, err := c.conn.Channel()
	if err != nil {
		c.logger.Error("failed to open channel", zap.Error(err))
		return err
	}
	c.channel = channel

	if err := c.channel.ExchangeDeclare(
		c.exchange,
		EXCHANGE_TYPE,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		c.logger.Error("failed to declare exchange",
			zap.String("exchange", c.exchange),
			zap.Error(err))
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := c.channel.QueueDeclare(
		c.queue,
		true,  // durable: queue survives broker restart
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		c.logger.Error("failed to declare queue",
			zap.String("queue", c.queue),
			zap.Error(err))
		return fmt.Errorf("failed to declare queue %s: %w", c.queue, err)
	}

	for _, key := range BindingKeys {
		if err := c.channel.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
			c.logger.Error("failed to bind queue to exchange",
				zap.String("queue", c.queue),
				zap.String("exchange", c.exchange),
				zap.String("routing_key", key),
				zap.Error(err))
			return fmt.Errorf("failed to bind queue %s to exchange %s: %w", c.queue, c.exchange, err)
		}
	}

	c.isConnected = true
	return nil
}

// Close gracefully closes the consumer connection and channel
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isConnected = false

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Error("error closing channel", zap.Error(err))
			errs = append(errs, fmt.Errorf("channel close error: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Error("error closing connection", zap.Error(err))
			errs = append(errs, fmt.Errorf("connection close error: %w", err))
		}
	}

	return errors.Join(errs...)
}

// IsHealthy checks if the consumer connection is healthy
func (c *Consumer) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.isConnected && c.conn != nil && !c.conn.IsClosed()
}

// ConsumeMessages consumes until ctx is done, reconnecting when the broker
// drops the connection. Decoded events are sent to out.
func (c *Consumer) ConsumeMessages(ctx context.Context, out chan<- entity.Event) error {
	if out == nil {
		return errors.New("output channel cannot be nil")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		if !c.IsHealthy() {
			c.logger.Warn("connection is unhealthy, attempting to reconnect...")
			if err := c.reconnect(ctx); err != nil {
				c.logger.Error("failed to reconnect", zap.Error(err))
				if !sleep(ctx, DEFAULT_RECONNECT_DELAY) {
					return nil
				}
				continue
			}
		}

		if err := c.startConsuming(ctx, out); err != nil {
			c.logger.Error("consuming stopped with error", zap.Error(err))
			c.mu.Lock()
			c.isConnected = false
			c.mu.Unlock()
		}
	}
}

func (c *Consumer) startConsuming(ctx context.Context, out chan<- entity.Event) error {
	c.mu.RLock()
	channel := c.channel
	c.mu.RUnlock()

	msgs, err := channel.Consume(
		c.queue, // queue to consume from
		"",      // consumer identifier
		true,    // auto-acknowledge messages
		false,   // exclusive consumer
		false,   // no-local flag
		false,   // no-wait flag
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("successfully connected to RabbitMQ, waiting for messages...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			if err := c.processMessage(ctx, msg.Body, out); err != nil {
				c.logger.Error("failed to process message", zap.Error(err))
			}
		}
	}
}

// processMessage decodes one delivery body and forwards it
func (c *Consumer) processMessage(ctx context.Context, body []byte, out chan<- entity.Event) error {
	event := new(entity.Event)
	if err := json.Unmarshal(body, event); err != nil {
		c.logger.Error("failed to unmarshal event",
			zap.Error(err),
			zap.ByteString("body", body))
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	c.logger.Debug("received new event",
		zap.String("event_id", event.ID),
		zap.String("routing_key", event.Type),
		zap.Time("timestamp", event.Timestamp))

	select {
	case out <- *event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reconnect re-dials the broker and redeclares the topology
func (c *Consumer) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanup()

	conn, err := retrier.Connect(ctx, c.retry, func() (*amqp.Connection, error) {
		return amqp.Dial(c.url)
	})
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	c.conn = conn

	if err := c.setup(); err != nil {
		c.cleanup()
		return err
	}

	c.logger.Info("successfully reconnected to RabbitMQ")
	return nil
}

// cleanup closes existing connections and channels
func (c *Consumer) cleanup() {
	c.isConnected = false

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
