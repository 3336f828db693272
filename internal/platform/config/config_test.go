package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "X-Registry-Identity", cfg.IdentityHeader)
	assert.Equal(t, "X-Registry-Admin-Identity", cfg.AdminHeader)
	assert.Equal(t, []string{SinkLog}, cfg.EventSinks)
	assert.Equal(t, 5*time.Second, cfg.PublishTimeout)
	assert.True(t, cfg.HasSink(SinkLog))
	assert.False(t, cfg.HasSink(SinkKafka))
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REGISTRY_GATEWAY_ADDR", ":9090")
	t.Setenv("REGISTRY_ADMIN_IDENTITY", "x509::CN=admin")
	t.Setenv("REGISTRY_EVENT_SINKS", "log, kafka ,redis")
	t.Setenv("REGISTRY_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REGISTRY_PUBLISH_TIMEOUT", "750ms")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "x509::CN=admin", cfg.AdminIdentity)
	assert.Equal(t, []string{SinkLog, SinkKafka, SinkRedis}, cfg.EventSinks)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 750*time.Millisecond, cfg.PublishTimeout)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	t.Run("unknown sink", func(t *testing.T) {
		t.Setenv("REGISTRY_EVENT_SINKS", "log,carrier-pigeon")
		_, err := FromEnv()
		require.Error(t, err)
	})
	t.Run("bad timeout", func(t *testing.T) {
		t.Setenv("REGISTRY_PUBLISH_TIMEOUT", "soon")
		_, err := FromEnv()
		require.Error(t, err)
	})
	t.Run("non-positive timeout", func(t *testing.T) {
		t.Setenv("REGISTRY_PUBLISH_TIMEOUT", "0s")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
