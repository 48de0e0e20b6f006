package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	Storage     string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	PaymentsBase          string
	PaymentsKey           string
	PaymentsRPS           float64
	PaymentsWebhookSecret string

	ReconcileWorkers int

	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
}

// Load reads the process environment, after merging an optional .env file from the
// working directory. Variables already set take precedence over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		}
		return def
	}
	c := Config{
		AppEnv:                env("APP_ENV", "prod"),
		LogLevel:              env("LOG_LEVEL", "info"),
		HTTPAddr:              env("HTTP_ADDR", ":8080"),
		MetricsAddr:           env("METRICS_ADDR", ":9100"),
		Storage:               strings.ToLower(env("STORAGE", StorageMySQL)),
		MySQLDSN:              env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel_booking?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:             env("REDIS_ADDR", "localhost:6379"),
		RedisPass:             env("REDIS_PASSWORD", ""),
		RedisDB:               atoi("REDIS_DB", 0),
		CacheTTL:              time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		PaymentsBase:          env("PAYMENTS_BASE_URL", "http://localhost:8090/v1"),
		PaymentsKey:           env("PAYMENTS_API_KEY", ""),
		PaymentsRPS:           atof("PAYMENTS_RPS", 5),
		PaymentsWebhookSecret: env("PAYMENTS_WEBHOOK_SECRET", ""),
		ReconcileWorkers:      atoi("RECONCILE_WORKERS", 8),
		RateLimitRPS:          atof("RATE_LIMIT_RPS", 20),
		RateLimitBurst:        atoi("RATE_LIMIT_BURST", 40),
		RequestTimeout:        time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}
	if c.Storage != StorageMySQL && c.Storage != StorageMemory {
		log.Warn().Str("storage", c.Storage).Msg("unknown STORAGE, falling back to mysql")
		c.Storage = StorageMySQL
	}
	if c.PaymentsKey == "" {
		log.Warn().Msg("PAYMENTS_API_KEY is empty")
	}
	if c.PaymentsWebhookSecret == "" {
		log.Warn().Msg("PAYMENTS_WEBHOOK_SECRET is empty, payment events will be refused")
	}
	return c
}

func (c Config) Dev() bool { return c.AppEnv == "dev" }

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
