package rabbitmq

import (
	"fmt"
	"log"

	"github.com/streadway/amqp"

	"salgados/internal/audit"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp.Connection
	channel  Channel
	exchange string
}

// NewPublisher dials amqpURL and declares a durable topic exchange.
func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func NewPublisherFrom(channel Channel, exchange string) *Publisher {
	return &Publisher{channel: channel, exchange: exchange}
}

// Process publishes each record with routing key "audit.<action>".
func (p *Publisher) Process(batch []audit.Record) error {
	for _, rec := range batch {
		body, err := audit.Encode(rec)
		if err != nil {
			return err
		}
		err = p.channel.Publish(
			p.exchange,
			RoutingKey(rec),
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    rec.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to publish message: %w", err)
		}
	}
	log.Printf("Published %d audit records to exchange '%s'", len(batch), p.exchange)
	return nil
}

func RoutingKey(rec audit.Record) string {
	return "audit." + rec.Action
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
