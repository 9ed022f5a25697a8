package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, TransportLog, cfg.Notification.Transport)
	assert.Equal(t, 100, cfg.Notification.SubscriberCap)
	assert.Equal(t, 2, cfg.Notification.WorkerCap)
	assert.Equal(t, "symptom.reports", cfg.Kafka.TopicReports)
	assert.Equal(t, ":8080", cfg.Server.Addr())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("OUTBREAK_BACKEND", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_INGEST_ENABLED", "true")
	t.Setenv("NOTIFY_SEND_TIMEOUT", "250ms")
	t.Setenv("HTTP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, BackendRedis, cfg.Store.OutbreakBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.IngestEnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Notification.SendTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"STORE_BACKEND": "mongo"}},
		{"unknown transport", map[string]string{"NOTIFY_TRANSPORT": "pigeon"}},
		{"zero cap", map[string]string{"NOTIFY_SUBSCRIBER_CAP": "0"}},
		{"sms without credentials", map[string]string{"NOTIFY_TRANSPORT": "sms"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
