package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygateway/internal/payment"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY", "k")
	t.Setenv("DB_NAME", "payments")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Processor.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, "0 */5 * * * *", cfg.Cron.StaleAuditSpec)
	assert.Equal(t, 15*time.Minute, cfg.Cron.StaleAfter)
	assert.Equal(t, "^/api/(payments|lookups)/transactions/", cfg.Wiretap.DefaultTap)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Processor.Endpoints)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROCESSOR_TIMEOUT", "15s")
	t.Setenv("IDEMPOTENCY_TTL", "not-a-duration")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("PROCESSOR_STRIPE_TEST_URL", "http://stripe-mock:12111/v1")
	t.Setenv("PROCESSOR_CHASE_LIVE_URL", "https://orbital.internal/gw")
	t.Setenv("PROCESSOR_CONVENIENT_PAYMENTS_TEST_URL", "http://cpteller-mock/webapi.cfc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.Processor.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL, "invalid durations fall back")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, map[string]payment.Endpoints{
		"stripe":              {Test: "http://stripe-mock:12111/v1"},
		"chase":               {Live: "https://orbital.internal/gw"},
		"convenient_payments": {Test: "http://cpteller-mock/webapi.cfc"},
	}, cfg.Processor.Endpoints)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "3306", Name: "payments", User: "gw", Pass: "pw", Charset: "utf8mb4"}
	assert.Equal(t, "gw:pw@tcp(db:3306)/payments?charset=utf8mb4&parseTime=True&loc=Local", d.DSN())
}
