package main

import (
	"context"
	"fmt"
	"io"

	"certregistry/events"
	"certregistry/internal/platform/config"
	"certregistry/registry"
)

// buildSinks connects every configured event sink. On error the sinks opened so far are closed.
func buildSinks(ctx context.Context, cfg config.Server) ([]registry.Publisher, []io.Closer, error) {
	var (
		sinks   []registry.Publisher
		closers []io.Closer
	)
	fail := func(err error) ([]registry.Publisher, []io.Closer, error) {
		closeAll(closers)
		return nil, nil, err
	}

	if cfg.HasSink(config.SinkLog) {
		sinks = append(sinks, events.LogPublisher{})
	}
	if cfg.HasSink(config.SinkRabbitMQ) {
		p, err := events.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, cfg.PublishTimeout)
		if err != nil {
			return fail(fmt.Errorf("rabbitmq sink: %w", err))
		}
		sinks, closers = append(sinks, p), append(closers, p)
	}
	if cfg.HasSink(config.SinkRedis) {
		p, err := events.NewRedisPublisher(ctx, cfg.RedisURL, cfg.RedisChannel, cfg.PublishTimeout)
		if err != nil {
			return fail(fmt.Errorf("redis sink: %w", err))
		}
		sinks, closers = append(sinks, p), append(closers, p)
	}
	if cfg.HasSink(config.SinkKafka) {
		p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.PublishTimeout)
		if err != nil {
			return fail(fmt.Errorf("kafka sink: %w", err))
		}
		sinks, closers = append(sinks, p), append(closers, p)
	}
	return sinks, closers, nil
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Warningf("failed to close event sink: %v", err)
		}
	}
}
