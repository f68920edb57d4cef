package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"paygateway/internal/models"
	"paygateway/internal/payment"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	API         APIConfig
	Processor   ProcessorConfig
	Idempotency IdempotencyConfig
	Kafka       KafkaConfig
	Cron        CronConfig
	Wiretap     WiretapConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type APIConfig struct {
	Key      string
	HashFile string
}

// ProcessorConfig tunes outbound processor calls. Endpoints holds URL
// overrides keyed by processor name.
type ProcessorConfig struct {
	Timeout   time.Duration
	Endpoints map[string]payment.Endpoints
}

type IdempotencyConfig struct {
	TTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type CronConfig struct {
	StaleAuditSpec string
	StaleAfter     time.Duration
}

type WiretapConfig struct {
	DefaultTap string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("API_HASH_FILE", "hash.txt")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PROCESSOR_TIMEOUT", "60s")
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("KAFKA_TOPIC", "payments.transactions")
	viper.SetDefault("CRON_STALE_AUDIT_SPEC", "0 */5 * * * *")
	viper.SetDefault("STALE_AUDIT_AFTER", "15m")
	viper.SetDefault("WIRETAP_DEFAULT_TAP", models.DefaultTapPattern)
	setDatabaseDefaults()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: loadDatabase(),
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		API: APIConfig{
			Key:      viper.GetString("API_KEY"),
			HashFile: viper.GetString("API_HASH_FILE"),
		},
		Processor: ProcessorConfig{
			Timeout:   duration("PROCESSOR_TIMEOUT", 60*time.Second),
			Endpoints: endpointOverrides(),
		},
		Idempotency: IdempotencyConfig{
			TTL: duration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(viper.GetString("KAFKA_BROKERS")),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
		Cron: CronConfig{
			StaleAuditSpec: viper.GetString("CRON_STALE_AUDIT_SPEC"),
			StaleAfter:     duration("STALE_AUDIT_AFTER", 15*time.Minute),
		},
		Wiretap: WiretapConfig{
			DefaultTap: viper.GetString("WIRETAP_DEFAULT_TAP"),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.API.Key == "" {
		log.Println("WARNING: API_KEY is not set")
	}

	return cfg, nil
}

// LoadDatabaseOnly reads just the database settings, for schema bootstrap.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	setDatabaseDefaults()

	cfg := loadDatabase()
	return &cfg, nil
}

func setDatabaseDefaults() {
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:    viper.GetString("DB_HOST"),
		Port:    viper.GetString("DB_PORT"),
		Name:    viper.GetString("DB_NAME"),
		User:    viper.GetString("DB_USER"),
		Pass:    viper.GetString("DB_PASS"),
		Charset: viper.GetString("DB_CHARSET"),
	}
}

// endpointOverrides reads PROCESSOR_<NAME>_LIVE_URL and _TEST_URL for
// payment and lookup processors.
func endpointOverrides() map[string]payment.Endpoints {
	out := make(map[string]payment.Endpoints)
	names := append(append([]string{}, models.Processors...), models.LookupProcessors...)
	for _, name := range names {
		prefix := "PROCESSOR_" + strings.ToUpper(name)
		ep := payment.Endpoints{
			Live: viper.GetString(prefix + "_LIVE_URL"),
			Test: viper.GetString(prefix + "_TEST_URL"),
		}
		if ep.Live != "" || ep.Test != "" {
			out[name] = ep
		}
	}
	return out
}

func duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
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

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
