package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fintrack/loanbook/pkg/kafka"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Port     int
	MaxConns int
}

type KafkaConfig struct {
	Topic         string
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
	Brokers       []string
	TLS           bool
}

// Producer converts the settings into the shared producer config. SASL is on
// whenever a username is given.
func (k KafkaConfig) Producer() kafka.Config {
	return kafka.Config{
		Brokers:       k.Brokers,
		TLS:           k.TLS,
		SASLEnabled:   k.SASLUsername != "",
		SASLMechanism: k.SASLMechanism,
		SASLUsername:  k.SASLUsername,
		SASLPassword:  k.SASLPassword,
	}
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret        string
	JWTPublicKey     string
	JWTPublicKeyFile string
	Issuer           string
}

// Enabled reports whether any verification key is configured.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || a.JWTPublicKey != "" || a.JWTPublicKeyFile != ""
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// Enabled reports whether both halves of the key pair are set.
func (t TLSConfig) Enabled() bool { return t.CertFile != "" && t.KeyFile != "" }

type Config struct {
	Kafka          KafkaConfig
	Auth           AuthConfig
	TLS            TLSConfig
	Redis          RedisConfig
	DB             DatabaseConfig
	ServiceName    string
	Storage        string
	Currency       string
	LogLevel       string
	LogFormat      string
	OTLPEndpoint   string
	MigrationsDir  string
	GRPCPort       int
	HTTPPort       int
	IdempotencyTTL time.Duration
	GRPCReflection bool
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage {
	case StoragePostgres:
		if c.DB.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage))
	}
	if !c.Auth.Enabled() {
		errs = append(errs, errors.New("one of JWT_SECRET, JWT_PUBLIC_KEY or JWT_PUBLIC_KEY_FILE is required"))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	if c.GRPCPort == c.HTTPPort {
		errs = append(errs, fmt.Errorf("GRPC_PORT and HTTP_PORT must differ, both are %d", c.GRPCPort))
	}
	return errors.Join(errs...)
}

func Load() Config {
	return Config{
		GRPCPort: getEnvInt("GRPC_PORT", 9095),
		HTTPPort: getEnvInt("HTTP_PORT", 8095),
		Storage:  strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "loanbook"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "loanbook"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Kafka: KafkaConfig{
			Brokers:       kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "")),
			Topic:         getEnv("KAFKA_TOPIC", "loanbook.events"),
			TLS:           getEnv("KAFKA_TLS", "") == "true",
			SASLMechanism: strings.ToUpper(getEnv("KAFKA_SASL_MECHANISM", "")),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			JWTPublicKey:     getEnv("JWT_PUBLIC_KEY", ""),
			JWTPublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			Issuer:           getEnv("JWT_ISSUER", ""),
		},
		TLS: TLSConfig{
			CertFile: getEnv("TLS_CERT_FILE", ""),
			KeyFile:  getEnv("TLS_KEY_FILE", ""),
		},
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		Currency:       strings.ToUpper(getEnv("CURRENCY", "USD")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "internal/infrastructure/postgres/migrations"),
		ServiceName:    "loanbook",
		GRPCReflection: getEnv("GRPC_REFLECTION", "") == "true",
	}
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
