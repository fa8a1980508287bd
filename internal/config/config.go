package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers accepted by APP_STORE_DRIVER.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StorePGX      = "pgx"
	StoreMySQL    = "mysql"
	StoreRedis    = "redis"
	StoreS3       = "s3"
)

type Config struct {
	StoreDriver    string
	StorePath      string
	DSN            string
	RedisAddr      string
	S3             S3Config
	StrictVersions bool

	HTTPPort   string
	GRPCPort   string
	FilterWord string

	KafkaBrokers []string
	KafkaGroupID string
	KafkaTopic   string

	RabbitMQURL      string
	RabbitMQExchange string

	TelegramToken  string
	TelegramChatID int64

	AuditBatchSize   int
	AuditTimeout     time.Duration
	AuditWorkers     int
	AuditChannelSize int
}

type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// LoadConfig reads the environment. When APP_CONFIG_FILE names a YAML file of
// KEY: value pairs, its entries fill in keys missing from the environment.
func LoadConfig() (*Config, error) {
	l := &loader{}
	if path, ok := os.LookupEnv("APP_CONFIG_FILE"); ok && path != "" {
		overlay, err := readOverlay(path)
		if err != nil {
			return nil, err
		}
		l.overlay = overlay
	}

	brokersStr := l.getEnv("KAFKA_BROKERS", "")
	cfg := &Config{
		StoreDriver:    strings.ToLower(l.getEnv("APP_STORE_DRIVER", StoreFile)),
		StorePath:      l.getEnv("APP_STORE_PATH", "data/salgados.json"),
		DSN:            l.getEnv("APP_DSN", ""),
		RedisAddr:      l.getEnv("APP_REDIS_ADDR", "localhost:6379"),
		StrictVersions: l.getBool("APP_STRICT_VERSIONS", false),
		S3: S3Config{
			Bucket:          l.getEnv("APP_S3_BUCKET", ""),
			Prefix:          l.getEnv("APP_S3_PREFIX", "salgados/"),
			Region:          l.getEnv("APP_S3_REGION", "us-east-1"),
			Endpoint:        l.getEnv("APP_S3_ENDPOINT", ""),
			AccessKeyID:     l.getEnv("APP_S3_ACCESS_KEY", ""),
			SecretAccessKey: l.getEnv("APP_S3_SECRET_KEY", ""),
			PathStyle:       l.getBool("APP_S3_PATH_STYLE", false),
		},

		HTTPPort:   l.getEnv("APP_PORT", "9000"),
		GRPCPort:   l.getEnv("APP_GRPC_PORT", "9001"),
		FilterWord: l.getEnv("APP_FILTER", ""),

		KafkaBrokers: splitList(brokersStr),
		KafkaGroupID: l.getEnv("KAFKA_GROUP_ID", "audit-group"),
		KafkaTopic:   l.getEnv("KAFKA_TOPIC", "salgados-audit"),

		RabbitMQURL:      l.getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: l.getEnv("RABBITMQ_EXCHANGE", "salgados.audit"),

		TelegramToken:  l.getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID: l.getInt64("TELEGRAM_CHAT_ID", 0),

		AuditBatchSize:   l.getInt("AUDIT_BATCH_SIZE", 10),
		AuditTimeout:     l.getDuration("AUDIT_TIMEOUT", 2*time.Second),
		AuditWorkers:     l.getInt("AUDIT_WORKERS", 2),
		AuditChannelSize: l.getInt("AUDIT_CHANNEL_SIZE", 100),
	}
	if err := cfg.validate(); err != nil {
		l.errs = append(l.errs, err)
	}
	if err := errors.Join(l.errs...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

func (c *Config) GRPCAddr() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

func (c *Config) validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreFile, StoreMemory, StoreSQLite, StoreRedis:
	case StorePostgres, StorePGX, StoreMySQL:
		if c.DSN == "" {
			errs = append(errs, fmt.Errorf("APP_DSN is required for store driver %q", c.StoreDriver))
		}
	case StoreS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("APP_S3_BUCKET is required for store driver \"s3\""))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	if c.AuditBatchSize <= 0 {
		errs = append(errs, errors.New("AUDIT_BATCH_SIZE must be positive"))
	}
	if c.AuditWorkers <= 0 {
		errs = append(errs, errors.New("AUDIT_WORKERS must be positive"))
	}
	if c.AuditTimeout <= 0 {
		errs = append(errs, errors.New("AUDIT_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func readOverlay(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	overlay := make(map[string]string)
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return overlay, nil
}

type loader struct {
	overlay map[string]string
	errs    []error
}

func (l *loader) getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if value, exists := l.overlay[key]; exists {
		return value
	}
	return defaultVal
}

func (l *loader) getBool(key string, defaultVal bool) bool {
	raw := l.getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return v
}

func (l *loader) getInt(key string, defaultVal int) int {
	raw := l.getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return v
}

func (l *loader) getInt64(key string, defaultVal int64) int64 {
	raw := l.getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return v
}

func (l *loader) getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := l.getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return v
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
