package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultTossSecretKey = "test_sk_change_me"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string
	// CORSOrigins extends the built-in localhost origins.
	CORSOrigins []string

	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RoomLockTTL   time.Duration

	KafkaBrokers      []string
	KafkaBookingTopic string
	KafkaGroupID      string

	TossSecretKey string
	TossBaseURL   string
	TossTimeout   time.Duration

	BookingHoldTTL time.Duration
	WorkerInterval time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:            strings.ToLower(strings.TrimSpace(v.GetString("app_env"))),
		LogLevel:          strings.TrimSpace(v.GetString("log_level")),
		HTTPAddr:          strings.TrimSpace(v.GetString("http_addr")),
		CORSOrigins:       splitList(v.GetString("cors_origins")),
		DatabaseURL:       strings.TrimSpace(v.GetString("database_url")),
		JWTSecret:         strings.TrimSpace(v.GetString("jwt_secret")),
		JWTTTL:            v.GetDuration("jwt_ttl"),
		RedisAddr:         strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword:     v.GetString("redis_password"),
		RedisDB:           v.GetInt("redis_db"),
		RoomLockTTL:       v.GetDuration("room_lock_ttl"),
		KafkaBrokers:      splitList(v.GetString("kafka_brokers")),
		KafkaBookingTopic: strings.TrimSpace(v.GetString("kafka_booking_topic")),
		KafkaGroupID:      strings.TrimSpace(v.GetString("kafka_group_id")),
		TossSecretKey:     strings.TrimSpace(v.GetString("toss_secret_key")),
		TossBaseURL:       strings.TrimSpace(v.GetString("toss_base_url")),
		TossTimeout:       v.GetDuration("toss_timeout"),
		BookingHoldTTL:    v.GetDuration("booking_hold_ttl"),
		WorkerInterval:    v.GetDuration("worker_interval"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("cors_origins", "")
	v.SetDefault("database_url", "hotelbooking.db")
	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("room_lock_ttl", "5s")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_booking_topic", "booking-events")
	v.SetDefault("kafka_group_id", "hotelbooking-notifier")
	v.SetDefault("toss_secret_key", defaultTossSecretKey)
	v.SetDefault("toss_base_url", "https://api.tosspayments.com")
	v.SetDefault("toss_timeout", "10s")
	v.SetDefault("booking_hold_ttl", "30m")
	v.SetDefault("worker_interval", "1m")
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be > 0")
	}
	if cfg.RoomLockTTL <= 0 {
		return errors.New("ROOM_LOCK_TTL must be > 0")
	}
	if cfg.TossTimeout <= 0 {
		return errors.New("TOSS_TIMEOUT must be > 0")
	}
	if cfg.BookingHoldTTL <= 0 {
		return errors.New("BOOKING_HOLD_TTL must be > 0")
	}
	if cfg.WorkerInterval <= 0 {
		return errors.New("WORKER_INTERVAL must be > 0")
	}
	if cfg.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must be >= 0, got %d", cfg.RedisDB)
	}

	if cfg.IsProdLike() {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return errors.New("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.TossSecretKey, defaultTossSecretKey) {
			return errors.New("in prod/release TOSS_SECRET_KEY must be set and not default")
		}
	}
	return nil
}

func (c *Config) IsProdLike() bool {
	env := strings.ToLower(strings.TrimSpace(c.AppEnv))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
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
