// Package config loads process configuration from defaults, an optional
// YAML file and FOLIO_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"folio/pkg/domain"
	fstrings "folio/pkg/platform/strings"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Audit sinks.
const (
	AuditMemory   = "memory"
	AuditPostgres = "postgres"
	AuditKafka    = "kafka"
)

type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	AdminToken      string
}

type Log struct {
	Level  string
	Format string
}

// RedisConfig configures the Redis substrate client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	Partitions    int32
	ConsumerGroup string
}

type Registry struct {
	// ProgramID scopes every derived address. The zero address is a valid
	// program id for local development.
	ProgramID        domain.Address
	ProofAudience    string
	ProofMaxLifetime time.Duration
}

type Config struct {
	Server      Server
	Log         Log
	Registry    Registry
	Backend     string
	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	AuditSink   string
	AuditBuffer int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_body_bytes", 64<<10)
	v.SetDefault("server.admin_token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("registry.program_id", "")
	v.SetDefault("registry.proof_audience", "folio")
	v.SetDefault("registry.proof_max_lifetime", 5*time.Minute)
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("database.url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.audit_topic", "folio.audit")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.consumer_group", "folio-audit-archiver")
	v.SetDefault("audit.sink", AuditMemory)
	v.SetDefault("audit.buffer", 1024)
}

// Load reads configuration. When FOLIO_CONFIG names a file it must exist.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: Server{
			Addr:            v.GetString("server.addr"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			MaxBodyBytes:    v.GetInt64("server.max_body_bytes"),
			AdminToken:      v.GetString("server.admin_token"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Registry: Registry{
			ProofAudience:    v.GetString("registry.proof_audience"),
			ProofMaxLifetime: v.GetDuration("registry.proof_max_lifetime"),
		},
		Backend:     strings.ToLower(v.GetString("store.backend")),
		DatabaseURL: v.GetString("database.url"),
		Redis: RedisConfig{
			URL:          v.GetString("redis.url"),
			PoolSize:     v.GetInt("redis.pool_size"),
			MinIdleConns: v.GetInt("redis.min_idle_conns"),
			DialTimeout:  v.GetDuration("redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("redis.read_timeout"),
			WriteTimeout: v.GetDuration("redis.write_timeout"),
		},
		Kafka: KafkaConfig{
			Brokers:       fstrings.SplitList(v.GetStringSlice("kafka.brokers"), ","),
			AuditTopic:    v.GetString("kafka.audit_topic"),
			Partitions:    v.GetInt32("kafka.partitions"),
			ConsumerGroup: v.GetString("kafka.consumer_group"),
		},
		AuditSink:   strings.ToLower(v.GetString("audit.sink")),
		AuditBuffer: v.GetInt("audit.buffer"),
	}

	if raw := v.GetString("registry.program_id"); raw != "" {
		id, err := domain.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("registry.program_id: %w", err)
		}
		cfg.Registry.ProgramID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres backend"))
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Backend))
	}

	switch c.AuditSink {
	case AuditMemory:
	case AuditPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres audit sink"))
		}
	case AuditKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required for the kafka audit sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown audit sink %q", c.AuditSink))
	}

	if c.Registry.ProofMaxLifetime <= 0 {
		errs = append(errs, errors.New("registry.proof_max_lifetime must be positive"))
	}
	return errors.Join(errs...)
}
