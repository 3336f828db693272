package events

import (
	"context"
	"fmt"
	"time"

	"certregistry/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is the part of *amqp.Channel used by RabbitPublisher.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes envelopes to a durable direct exchange.
type RabbitPublisher struct {
	conn       *amqp.Connection
	channel    amqpChannel
	exchange   string
	routingKey string
	timeout    time.Duration
}

// NewRabbitPublisher dials amqpURL and declares the exchange.
func NewRabbitPublisher(amqpURL, exchange, routingKey string, timeout time.Duration) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchange, err)
	}
	p := newRabbitPublisher(ch, exchange, routingKey, timeout)
	p.conn = conn
	return p, nil
}

func newRabbitPublisher(ch amqpChannel, exchange, routingKey string, timeout time.Duration) *RabbitPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RabbitPublisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		timeout:    timeout,
	}
}

func (r *RabbitPublisher) Publish(event model.Event) {
	env, body, ok := encode("RabbitPublisher", event)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := r.channel.PublishWithContext(ctx, r.exchange, r.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    env.ID,
		Type:         env.Name,
		Timestamp:    env.EmittedAt,
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"event": env.Name},
		Body:         body,
	})
	if err != nil {
		logger.Warningf("RabbitPublisher: failed to publish %s [%s] to exchange '%s': %v", env.Name, env.ID, r.exchange, err)
	}
}

// Close closes the channel and the connection.
func (r *RabbitPublisher) Close() error {
	err := r.channel.Close()
	if r.conn != nil {
		if cerr := r.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
