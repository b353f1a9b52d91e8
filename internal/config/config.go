package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/revenue-scorer/internal/models"
)

// Config is the service configuration. Zero values are filled by Default.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	DB      DBConfig      `yaml:"db"`
	Scoring ScoringConfig `yaml:"scoring"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr        string  `yaml:"addr"`
	BodyLimitMB int     `yaml:"body_limit_mb"`
	AnalyzeQPS  float64 `yaml:"analyze_qps"`
	AllowOrigin string  `yaml:"allow_origin"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// KafkaConfig points the oracle publisher at a broker. Empty brokers
// means updates are only logged.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// DBConfig selects the KYC submission store. Empty DSN means in-memory.
type DBConfig struct {
	DSN string `yaml:"dsn"`
}

// ScoringConfig holds scoring inputs not present in statements.
type ScoringConfig struct {
	DefaultCustomers int `yaml:"default_customers"`
}

const envPrefix = "REVENUE_SCORER_"

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			BodyLimitMB: 32,
			AnalyzeQPS:  2,
			AllowOrigin: "*",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Kafka: KafkaConfig{
			Topic: "revenue-oracle-updates",
		},
		Scoring: ScoringConfig{
			DefaultCustomers: models.DefaultCustomers,
		},
	}
}

// Load reads the YAML file at path (if non-empty) over the defaults, then
// applies REVENUE_SCORER_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
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

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.BodyLimitMB <= 0 {
		return fmt.Errorf("server.body_limit_mb must be positive, got %d", c.Server.BodyLimitMB)
	}
	if c.Server.AnalyzeQPS <= 0 {
		return fmt.Errorf("server.analyze_qps must be positive, got %v", c.Server.AnalyzeQPS)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when brokers are set")
	}
	if c.Scoring.DefaultCustomers < 0 {
		return fmt.Errorf("scoring.default_customers must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := get("BODY_LIMIT_MB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBODY_LIMIT_MB: %w", envPrefix, err)
		}
		cfg.Server.BodyLimitMB = n
	}
	if v, ok := get("ANALYZE_QPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sANALYZE_QPS: %w", envPrefix, err)
		}
		cfg.Server.AnalyzeQPS = f
	}
	if v, ok := get("ALLOW_ORIGIN"); ok {
		cfg.Server.AllowOrigin = v
	}
	if v, ok := get("DEFAULT_CUSTOMERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sDEFAULT_CUSTOMERS: %w", envPrefix, err)
		}
		cfg.Scoring.DefaultCustomers = n
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := get("KAFKA_BROKERS"); ok {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v, ok := get("KAFKA_TOPIC"); ok {
		cfg.Kafka.Topic = v
	}
	if v, ok := get("DB_DSN"); ok {
		cfg.DB.DSN = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
