package events

import (
	"context"
	"fmt"
	"time"

	"certregistry/model"

	"github.com/twmb/franz-go/pkg/kgo"
)

// kafkaProducer is the part of *kgo.Client used by KafkaPublisher.
type kafkaProducer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// KafkaPublisher appends envelopes to a Kafka topic keyed by event name. Records are
// produced asynchronously; delivery failures are logged from the produce callback.
type KafkaPublisher struct {
	client  kafkaProducer
	topic   string
	timeout time.Duration
}

// NewKafkaPublisher creates a producer for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher needs at least one broker")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return newKafkaPublisher(client, topic, timeout), nil
}

func newKafkaPublisher(client kafkaProducer, topic string, timeout time.Duration) *KafkaPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaPublisher{client: client, topic: topic, timeout: timeout}
}

func (k *KafkaPublisher) Publish(event model.Event) {
	env, body, ok := encode("KafkaPublisher", event)
	if !ok {
		return
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(env.Name),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: "event-id", Value: []byte(env.ID)},
		},
		Timestamp: env.EmittedAt,
	}
	k.client.Produce(context.Background(), record, func(r *kgo.Record, err error) {
		if err != nil {
			logger.Warningf("KafkaPublisher: failed to produce %s [%s] to topic '%s': %v", env.Name, env.ID, k.topic, err)
		}
	})
}

// Close flushes buffered records and closes the client.
func (k *KafkaPublisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	err := k.client.Flush(ctx)
	k.client.Close()
	return err
}
