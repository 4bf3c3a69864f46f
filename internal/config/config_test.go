package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("MIN_WITHDRAWAL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("APP_TIMEZONE", "UTC")

	cfg := FromEnv()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.Store)
	assert.False(t, cfg.Migrate)
	assert.Equal(t, "100", cfg.MinWithdrawal.String())
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_STORE", "memory")
	t.Setenv("APP_MIGRATE", "true")
	t.Setenv("MIN_WITHDRAWAL", "250.50")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("JWT_ACCESS_TTL", "1h")
	t.Setenv("RATE_RPS", "not-a-number")
	t.Setenv("APP_TIMEZONE", "Not/AZone")

	cfg := FromEnv()
	assert.Equal(t, "memory", cfg.Store)
	assert.True(t, cfg.Migrate)
	assert.Equal(t, "250.5", cfg.MinWithdrawal.String())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Hour, cfg.JWTAccessTTL)
	assert.Equal(t, 100, cfg.RateRPS)
	assert.Equal(t, time.UTC, cfg.Location)
}
