package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"GRPC_PORT", "HTTP_PORT", "STORAGE", "DB_PASSWORD", "KAFKA_BROKERS",
		"IDEMPOTENCY_TTL", "CURRENCY", "REDIS_ADDR", "JWT_SECRET", "JWT_PUBLIC_KEY",
		"JWT_PUBLIC_KEY_FILE", "TLS_CERT_FILE", "TLS_KEY_FILE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 9095, cfg.GRPCPort)
	assert.Equal(t, 8095, cfg.HTTPPort)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "loanbook.events", cfg.Kafka.Topic)
	assert.Equal(t, ":9095", cfg.GRPCAddr())
	assert.Equal(t, ":8095", cfg.HTTPAddr())
	assert.False(t, cfg.Auth.Enabled())
	assert.False(t, cfg.TLS.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GRPC_PORT", "7000")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("IDEMPOTENCY_TTL", "90m")
	t.Setenv("CURRENCY", "eur")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 7000, cfg.GRPCPort)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 90*time.Minute, cfg.IdempotencyTTL)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, 10, cfg.DB.MaxConns, "unparsable values fall back to the default")
}

func TestKafkaConfig_Producer(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9093")
	t.Setenv("KAFKA_TLS", "true")
	t.Setenv("KAFKA_SASL_MECHANISM", "scram-sha-512")
	t.Setenv("KAFKA_SASL_USERNAME", "loanbook")
	t.Setenv("KAFKA_SASL_PASSWORD", "pw")

	pc := Load().Kafka.Producer()

	assert.Equal(t, []string{"k1:9093"}, pc.Brokers)
	assert.True(t, pc.TLS)
	assert.True(t, pc.SASLEnabled)
	assert.Equal(t, "SCRAM-SHA-512", pc.SASLMechanism)

	assert.False(t, KafkaConfig{}.Producer().SASLEnabled)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Storage:        StoragePostgres,
		DB:             DatabaseConfig{Password: "pw"},
		Auth:           AuthConfig{JWTSecret: "secret"},
		GRPCPort:       9095,
		HTTPPort:       8095,
		IdempotencyTTL: time.Hour,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid postgres", mutate: func(*Config) {}},
		{name: "memory needs no password", mutate: func(c *Config) {
			c.Storage = StorageMemory
			c.DB.Password = ""
		}},
		{name: "missing password", mutate: func(c *Config) { c.DB.Password = "" }, wantErr: "DB_PASSWORD"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage = "sqlite" }, wantErr: "STORAGE"},
		{name: "half tls", mutate: func(c *Config) { c.TLS.CertFile = "cert.pem" }, wantErr: "TLS_CERT_FILE"},
		{name: "no jwt key", mutate: func(c *Config) { c.Auth = AuthConfig{} }, wantErr: "JWT_SECRET"},
		{name: "zero ttl", mutate: func(c *Config) { c.IdempotencyTTL = 0 }, wantErr: "IDEMPOTENCY_TTL"},
		{name: "port clash", mutate: func(c *Config) { c.HTTPPort = c.GRPCPort }, wantErr: "must differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateReportsAllProblems(t *testing.T) {
	cfg := Config{Storage: StoragePostgres, GRPCPort: 1, HTTPPort: 2}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "IDEMPOTENCY_TTL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
