package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Log      LogConfig      `yaml:"log"`
	Seed     SeedConfig     `yaml:"seed"`
}

type HTTPConfig struct {
	Address         string   `yaml:"address"`
	CORSOrigins     []string `yaml:"cors_origins"`
	ShutdownSeconds int      `yaml:"shutdown_seconds"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
	// Isolation is read_committed or serializable.
	Isolation     string `yaml:"isolation"`
	LockTimeoutMs int    `yaml:"lock_timeout_ms"`
	Migrate       bool   `yaml:"migrate"`
}

// DSN prefers an explicit URL and otherwise builds one from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

func (d DatabaseConfig) LockTimeout() time.Duration {
	return time.Duration(d.LockTimeoutMs) * time.Millisecond
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	PaymentFailureRate     float64 `yaml:"payment_failure_rate"`
	TxTimeoutMs            int     `yaml:"tx_timeout_ms"`
	CatalogCacheTTLSeconds int     `yaml:"catalog_cache_ttl_seconds"`
	DefaultUserID          string  `yaml:"default_user_id"`
}

func (b BookingConfig) TxTimeout() time.Duration {
	return time.Duration(b.TxTimeoutMs) * time.Millisecond
}

func (b BookingConfig) CatalogCacheTTL() time.Duration {
	return time.Duration(b.CatalogCacheTTLSeconds) * time.Second
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type SeedConfig struct {
	Enabled bool              `yaml:"enabled"`
	Tiers   []domain.TierSeed `yaml:"tiers"`
}

// Default returns a config that runs entirely in memory.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			CORSOrigins:     []string{"http://localhost:3000"},
			ShutdownSeconds: 10,
		},
		GRPC: GRPCConfig{Address: ":9090"},
		Database: DatabaseConfig{
			Driver:        DriverMemory,
			Host:          "localhost",
			Port:          5432,
			User:          "tickets",
			Password:      "tickets",
			Name:          "tickets",
			SSLMode:       "disable",
			MaxConns:      10,
			Isolation:     "read_committed",
			LockTimeoutMs: 2000,
			Migrate:       true,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			Brokers:            []string{"localhost:9092"},
			BookingTopic:       "booking-events",
			NotificationsTopic: "booking-notifications",
			GroupID:            "ticket-notifier",
		},
		Booking: BookingConfig{
			PaymentFailureRate:     0.1,
			TxTimeoutMs:            5000,
			CatalogCacheTTLSeconds: 5,
			DefaultUserID:          domain.DefaultUserID,
		},
		Log:  LogConfig{Level: "info"},
		Seed: SeedConfig{Enabled: true, Tiers: domain.DefaultSeed()},
	}
}

// LoadConfig reads .env (if present), then the YAML file at path on top of
// the defaults, then environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("HTTP_ADDRESS"); ok {
		cfg.HTTP.Address = v
	}
	if v, ok := lookup("GRPC_ADDRESS"); ok {
		cfg.GRPC.Address = v
	}
	if v, ok := lookup("DATABASE_URL"); ok {
		cfg.Database.URL = v
		if v != "" {
			cfg.Database.Driver = DriverPostgres
		}
	}
	if v, ok := lookup("DATABASE_DRIVER"); ok {
		cfg.Database.Driver = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = v != ""
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok {
		cfg.Kafka.Brokers = splitList(v)
		cfg.Kafka.Enabled = len(cfg.Kafka.Brokers) > 0
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup("PAYMENT_FAILURE_RATE"); ok {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PAYMENT_FAILURE_RATE: %w", err)
		}
		cfg.Booking.PaymentFailureRate = rate
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver))
	}
	switch c.Database.Isolation {
	case "", "read_committed", "serializable":
	default:
		errs = append(errs, fmt.Errorf("database.isolation: unknown level %q", c.Database.Isolation))
	}
	if c.Database.LockTimeoutMs < 0 {
		errs = append(errs, errors.New("database.lock_timeout_ms must not be negative"))
	}
	if r := c.Booking.PaymentFailureRate; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("booking.payment_failure_rate %v outside [0,1]", r))
	}
	if c.Booking.TxTimeoutMs <= 0 {
		errs = append(errs, errors.New("booking.tx_timeout_ms must be positive"))
	}
	if c.Booking.CatalogCacheTTLSeconds < 0 {
		errs = append(errs, errors.New("booking.catalog_cache_ttl_seconds must not be negative"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	seen := make(map[domain.TierName]bool)
	for _, s := range c.Seed.Tiers {
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("seed.tiers %q: %w", s.Name, err))
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("seed.tiers %q: duplicate", s.Name))
		}
		seen[s.Name] = true
	}

	return errors.Join(errs...)
}
