// Package config loads and validates the settings of both register binaries.
// Values come from defaults, an optional .env file and the environment, in
// that order of precedence.
package config

import (
	"errors"
	"strings"
	"time"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds the complete application configuration
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Register    RegisterConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Metrics     MetricsConfig
}

type ApplicationConfig struct {
	Env  string
	Name string
}

type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// RegisterConfig identifies the register this process drives
type RegisterConfig struct {
	ID              int
	StoreID         string
	BaseCurrency    string
	StorageDriver   string        // postgres or memory
	CatalogFile     string        // JSON snapshot used by the memory driver
	CatalogCacheTTL time.Duration // lifetime of the cached snapshot in Redis
}

type KafkaConfig struct {
	Brokers           string
	EventTopic        string // promoted documents and closed periods
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

type WorkerPoolConfig struct {
	Size int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// UsesPostgres reports whether the register keeps its state in Postgres
func (c *Config) UsesPostgres() bool {
	return c.Register.StorageDriver == StorageDriverPostgres
}

// validate collects every invalid value so a bad deployment fails with one message
func (c *Config) validate() error {
	var validationErrors []string
	fail := func(msg string) { validationErrors = append(validationErrors, msg) }

	if c.Server.Port <= 0 {
		fail("SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		fail("SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		fail("SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		fail("SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		fail("SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	if c.Register.ID <= 0 {
		fail("REGISTER_ID must be greater than 0")
	}
	if c.Register.StoreID == "" {
		fail("REGISTER_STORE_ID is required")
	}
	if len(c.Register.BaseCurrency) != 3 {
		fail("REGISTER_BASE_CURRENCY must be a 3-letter currency code")
	}
	switch c.Register.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		fail("REGISTER_STORAGE_DRIVER must be postgres or memory")
	}

	if len(c.Kafka.Brokers) == 0 {
		fail("KAFKA_BROKERS is required")
	}
	if c.Kafka.EventTopic == "" {
		fail("KAFKA_EVENT_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		fail("KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		fail("KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		fail("KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		fail("KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		fail("KAFKA_DLQ_TOPIC is required")
	}

	if c.UsesPostgres() {
		if c.Postgres.URL == "" {
			fail("POSTGRES_URL is required")
		}
		if c.Postgres.MaxConns <= 0 {
			fail("POSTGRES_MAX_CONNS must be greater than 0")
		}
		if c.Postgres.MinConns <= 0 {
			fail("POSTGRES_MIN_CONNS must be greater than 0")
		}
		if c.Postgres.ConnMaxLifetime <= 0 {
			fail("POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
		}
		if c.Postgres.ConnMaxIdleTime <= 0 {
			fail("POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
		}
	}

	if c.MongoDB.URI == "" {
		fail("MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		fail("MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		fail("MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		fail("MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		fail("MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		fail("MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		fail("REDIS_ADDR is required when REDIS_ENABLED is set")
	}

	if c.Outbox.PollingInterval <= 0 {
		fail("OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		fail("OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		fail("OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		fail("WORKER_POOL_SIZE must be greater than 0")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		fail("METRICS_PATH must start with /")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
