package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	SnowflakeNode int64

	Weighing  WeighingConfig
	Facility  FacilityConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Kafka     KafkaConfig
}

// WeighingConfig points at the external weighing service.
type WeighingConfig struct {
	BaseURL      string
	MaxBodyBytes int64
}

// FacilityConfig describes where the scales are.
type FacilityConfig struct {
	Name     string
	Timezone string
}

// TelemetryConfig drives the zap logger and the otel exporters.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OTLPEnabled   bool
	OTLPEndpoint  string
	OTLPProtocol  string
	SamplingRatio float64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	Backend string
	TTL     time.Duration
}

type RateLimitConfig struct {
	Enabled           bool
	BillRatePerSecond float64
	BillBurst         int
}

type KafkaConfig struct {
	Brokers   []string
	BillTopic string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "weighbill"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(getenv("LOG_LEVEL", "info")),
			LogFormat:     strings.ToLower(getenv("LOG_FORMAT", "json")),
			OTLPEnabled:   getenvBool("OTEL_ENABLED", true),
			OTLPEndpoint:  getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			OTLPProtocol:  strings.ToLower(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		DBType:            getenv("DATABASE_TYPE", "mysql"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "3306"),
		DBName:            getenv("DATABASE_NAME", "billdb"),
		DBUser:            getenv("DATABASE_USER", "root"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		SnowflakeNode: getenvInt64("SNOWFLAKE_NODE", 1),

		Weighing: WeighingConfig{
			BaseURL:      strings.TrimRight(getenv("WEIGHING_BASE_URL", "http://localhost:8081"), "/"),
			MaxBodyBytes: getenvInt64("WEIGHING_MAX_BODY_BYTES", 8<<20),
		},
		Facility: FacilityConfig{
			Name:     getenv("FACILITY_NAME", ""),
			Timezone: getenv("FACILITY_TIMEZONE", "Asia/Jerusalem"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(getenv("CACHE_BACKEND", "memory")),
			TTL:     time.Duration(getenvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           getenvBool("RATE_LIMIT_ENABLED", false),
			BillRatePerSecond: getenvFloat("BILL_RATE_PER_SECOND", 2),
			BillBurst:         getenvInt("BILL_BURST", 5),
		},
		Kafka: KafkaConfig{
			Brokers:   splitList(getenv("KAFKA_BROKERS", "")),
			BillTopic: getenv("KAFKA_BILL_TOPIC", "bill.generated"),
		},
	}

	return cfg
}

// Location resolves the facility timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	name := strings.TrimSpace(c.Facility.Timezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
