// Package publisher emits domain events to a RabbitMQ topic exchange
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/pkg/config"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EXCHANGE_TYPE routes events by dotted routing key patterns
const EXCHANGE_TYPE = "topic"

const publishTimeout = 5 * time.Second

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp.Connection
	channel  channel
	logger   *logger.Logger
	exchange string
}

// Init opens a channel on conn and declares the output exchange
func Init(cfg *config.Config, logger *logger.Logger, conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("error opening channel", zap.Error(err))
		conn.Close()
		return nil, err
	}

	p, err := newPublisher(cfg.Exchange.Output, logger, conn, ch)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(exchange string, logger *logger.Logger, conn *amqp.Connection, ch channel) (*Publisher, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		EXCHANGE_TYPE,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		logger.Error("error declare exchange",
			zap.String("exchange", exchange),
			zap.Error(err))
		ch.Close()
		return nil, err
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		logger:   logger,
		exchange: exchange,
	}, nil
}

func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.logger.Error("error closing channel", zap.Error(err))
	}
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func (p *Publisher) IsHealthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

// Publish wraps payload into an entity.Event and sends it under routingKey
func (p *Publisher) Publish(payload any, routingKey string) error {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("error encode payload for publish", zap.Error(err))
		return err
	}

	event := entity.NewEvent(routingKey, payloadJson)

	eventJson, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("error encode event for publish",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Body:         eventJson,
			Timestamp:    event.Timestamp,
		},
	)
	if err != nil {
		p.logger.Error("error publishing event",
			zap.String("event_id", event.ID),
			zap.String("routing_key", routingKey),
			zap.Error(err))
		return err
	}

	p.logger.Debug("successfully published event",
		zap.String("event_id", event.ID),
		zap.String("routing_key", routingKey),
	)

	return nil
}
