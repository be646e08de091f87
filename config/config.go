package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration, read from the environment (and .env when present).
type Config struct {
	Port     int
	AppEnv   string
	LogLevel string

	DatabaseURL string
	PGNotify    bool

	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptRounds int

	MongoURL string
	MongoDB  string

	RedisURL string

	NATSURL     string
	NATSSubject string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	PlanRefreshCron    string
	AuditRetentionDays int

	QueryTimeout time.Duration
	JobTimeout   time.Duration

	CORSOrigins []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 4000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "turbineops")
	v.SetDefault("PG_NOTIFY", true)
	v.SetDefault("JWT_EXPIRES_IN", "24h")
	v.SetDefault("BCRYPT_ROUNDS", 12)
	v.SetDefault("MONGO_DB", "turbineops")
	v.SetDefault("NATS_SUBJECT", "turbineops.repair_plans")
	v.SetDefault("MINIO_BUCKET", "inspection-packages")
	v.SetDefault("PLAN_REFRESH_CRON", "*/15 * * * *")
	v.SetDefault("AUDIT_RETENTION_DAYS", 90)
	v.SetDefault("QUERY_TIMEOUT", "10s")
	v.SetDefault("JOB_TIMEOUT", "2m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	ttl, err := ParseTTL(v.GetString("JWT_EXPIRES_IN"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}

	cfg := &Config{
		Port:               v.GetInt("PORT"),
		AppEnv:             v.GetString("APP_ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		PGNotify:           v.GetBool("PG_NOTIFY"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTExpiresIn:       ttl,
		BcryptRounds:       v.GetInt("BCRYPT_ROUNDS"),
		MongoURL:           v.GetString("MONGO_URL"),
		MongoDB:            v.GetString("MONGO_DB"),
		RedisURL:           v.GetString("REDIS_URL"),
		NATSURL:            v.GetString("NATS_URL"),
		NATSSubject:        v.GetString("NATS_SUBJECT"),
		MinioEndpoint:      v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:     v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:     v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:        v.GetString("MINIO_BUCKET"),
		MinioUseSSL:        v.GetBool("MINIO_USE_SSL"),
		PlanRefreshCron:    v.GetString("PLAN_REFRESH_CRON"),
		AuditRetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		QueryTimeout:       v.GetDuration("QUERY_TIMEOUT"),
		JobTimeout:         v.GetDuration("JOB_TIMEOUT"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			v.GetString("DB_HOST"), v.GetString("DB_USER"), v.GetString("DB_PASSWORD"),
			v.GetString("DB_NAME"), v.GetString("DB_PORT"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have a fixed legal range.
func (c *Config) Validate() error {
	if c.BcryptRounds < 4 || c.BcryptRounds > 15 {
		return fmt.Errorf("BCRYPT_ROUNDS must be between 4 and 15, got %d", c.BcryptRounds)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.AuditRetentionDays < 0 {
		return errors.New("AUDIT_RETENTION_DAYS must not be negative")
	}
	if c.QueryTimeout <= 0 || c.JobTimeout <= 0 {
		return errors.New("QUERY_TIMEOUT and JOB_TIMEOUT must be positive durations")
	}
	return nil
}

// RequireSecret fails when no JWT secret is configured. Only the server needs one.
func (c *Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// ParseTTL accepts Go durations ("24h", "90m") plus whole days ("7d").
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		if days <= 0 {
			return 0, fmt.Errorf("non-positive duration %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %q", s)
	}
	return d, nil
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
