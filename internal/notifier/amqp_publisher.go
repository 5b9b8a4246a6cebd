package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/giobyte8/gallery-thumbnailer/internal/models"
)

var ErrNotStarted = errors.New("AMQP publisher not started")

// Holds the config params for the publisher
type AMQPConfig struct {
	AMQPUri    string
	Exchange   string
	RoutingKey string
}

type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  AMQPConfig
}

// Creates a new AMQPPublisher instance ready to connect to broker
func NewAMQPPublisher(config AMQPConfig) (*AMQPPublisher, error) {
	if config.AMQPUri == "" {
		return nil, fmt.Errorf("AMQP URI cannot be empty in config")
	}
	if config.Exchange == "" {
		return nil, fmt.Errorf("AMQP exchange cannot be empty in config")
	}
	if config.RoutingKey == "" {
		return nil, fmt.Errorf("AMQP routing key cannot be empty in config")
	}

	return &AMQPPublisher{
		config: config,
	}, nil
}

// Connects to AMQP broker and declares the exchange events are
// published to
func (p *AMQPPublisher) Start(ctx context.Context) error {
	slog.Debug("AMQP - Initializing AMQP Publisher")

	var err error
	p.conn, err = amqp.Dial(p.config.AMQPUri)
	if err != nil {
		return fmt.Errorf("AMQP - Connection to broker failed: %w", err)
	}

	p.channel, err = p.conn.Channel()
	if err != nil {
		p.conn.Close()
		p.conn = nil
		return fmt.Errorf("AMQP - Failed to open channel: %w", err)
	}

	err = p.channel.ExchangeDeclare(
		p.config.Exchange,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		p.channel.Close()
		p.conn.Close()
		p.channel = nil
		p.conn = nil
		return fmt.Errorf("AMQP - Failed to declare exchange: %w", err)
	}

	return nil
}

func (p *AMQPPublisher) Publish(
	ctx context.Context,
	evt models.ThumbnailEvent,
) error {
	if p.channel == nil {
		return ErrNotStarted
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("AMQP - Failed to marshal thumbnail event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.config.Exchange,
		p.config.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: evt.RunID.String(),
			Timestamp:     evt.CreatedAt,
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf(
			"AMQP - Failed to publish thumbnail event for %s: %w",
			evt.ThumbPath,
			err,
		)
	}

	return nil
}

// Gracefully stops the AMQP publisher
func (p *AMQPPublisher) Stop() {
	slog.Info("AMQP - Stopping AMQP Publisher...")

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			slog.Error("AMQP - Failed to close channel", "error", err)
		} else {
			slog.Debug("AMQP - Channel closed")
		}
		p.channel = nil
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			slog.Error("AMQP - Failed to close connection", "error", err)
		} else {
			slog.Debug("AMQP - Connection closed")
		}
		p.conn = nil
	}

	slog.Info("AMQP - AMQP Publisher stopped")
}
