package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"certregistry/model"
	"certregistry/registry"
)

var posted = model.CertificatePosted{
	Hash:              "h1",
	InstituteIdentity: "x509::CN=mit",
	StudentName:       "Alice",
	IssuerName:        "MIT",
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(posted)
	require.NoError(t, err)
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, model.EventCertificatePosted, env.Name)
	assert.False(t, env.EmittedAt.IsZero())

	var decoded model.CertificatePosted
	require.NoError(t, json.Unmarshal(env.Payload, &decoded))
	assert.Equal(t, posted, decoded)

	body, err := env.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"name":"CertificatePosted"`)
}

func TestFanoutPublishesInOrder(t *testing.T) {
	var got []string
	sink := func(tag string) registry.Publisher {
		return registry.PublisherFunc(func(e model.Event) { got = append(got, tag+":"+e.EventName()) })
	}
	Fanout{sink("a"), nil, sink("b")}.Publish(posted)
	assert.Equal(t, []string{"a:CertificatePosted", "b:CertificatePosted"}, got)
}

func TestRecorderKeepsMostRecent(t *testing.T) {
	r := NewRecorder(2)
	r.Publish(model.BulkUploadFailed{FailedUploads: []string{"first"}, FailedCount: 1})
	r.Publish(posted)
	r.Publish(model.InstitutesListed{Institutes: []model.Institute{}})

	recent := r.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, model.EventCertificatePosted, recent[0].Name)
	assert.Equal(t, model.EventInstitutesListed, recent[1].Name)

	assert.Equal(t, DefaultRecorderCapacity, NewRecorder(0).capacity)
}

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := newRabbitPublisher(ch, "registry.events", "certificates", 0)
	p.Publish(posted)

	require.Len(t, ch.msgs, 1)
	msg := ch.msgs[0]
	assert.Equal(t, "registry.events", ch.exchange)
	assert.Equal(t, "certificates", ch.key)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.Equal(t, model.EventCertificatePosted, msg.Type)
	assert.Equal(t, model.EventCertificatePosted, msg.Headers["event"])

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Body, &env))
	assert.Equal(t, msg.MessageId, env.ID)

	ch.err = errors.New("channel closed")
	assert.NotPanics(t, func() { p.Publish(posted) })

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

type fakeRedis struct {
	channel  string
	messages []string
	err      error
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.messages = append(f.messages, string(message.([]byte)))
	return redis.NewIntResult(1, f.err)
}

func (f *fakeRedis) Close() error { return nil }

func TestRedisPublisher(t *testing.T) {
	client := &fakeRedis{}
	p := newRedisPublisher(client, "registry-events", time.Second)
	p.Publish(posted)

	require.Len(t, client.messages, 1)
	assert.Equal(t, "registry-events", client.channel)
	assert.Contains(t, client.messages[0], `"hash":"h1"`)

	client.err = errors.New("connection reset")
	assert.NotPanics(t, func() { p.Publish(posted) })
	assert.Len(t, client.messages, 2)
}

type fakeProducer struct {
	records []*kgo.Record
	err     error
	flushed bool
	closed  bool
}

func (f *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.records = append(f.records, r)
	promise(r, f.err)
}

func (f *fakeProducer) Flush(context.Context) error {
	f.flushed = true
	return nil
}

func (f *fakeProducer) Close() { f.closed = true }

func TestKafkaPublisher(t *testing.T) {
	client := &fakeProducer{}
	p := newKafkaPublisher(client, "registry-events", time.Second)
	p.Publish(posted)

	require.Len(t, client.records, 1)
	rec := client.records[0]
	assert.Equal(t, "registry-events", rec.Topic)
	assert.Equal(t, []byte(model.EventCertificatePosted), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event-id", rec.Headers[0].Key)

	client.err = errors.New("broker unavailable")
	assert.NotPanics(t, func() { p.Publish(posted) })

	require.NoError(t, p.Close())
	assert.True(t, client.flushed)
	assert.True(t, client.closed)
}

func TestNewKafkaPublisherRequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "registry-events", time.Second)
	require.Error(t, err)
}
