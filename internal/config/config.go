package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port       string
	UploadsDir string

	DB    DB
	Auth  Auth
	Redis Redis
	Log   Log

	CancellationFee decimal.Decimal
	CORSOrigins     string
}

type DB struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Auth struct {
	JWTSecret    string
	TokenTTL     time.Duration // 0 means tokens never expire
	CookieSecure bool
}

type Redis struct {
	Addr     string // empty disables the catalog cache
	Password string
	DB       int
	CacheTTL time.Duration
}

type Log struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("DB_DSN", "grocerly.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("TOKEN_TTL", "0s")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CANCELLATION_FEE", "50")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "./grocerly.log")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	fee, err := decimal.NewFromString(strings.TrimSpace(v.GetString("CANCELLATION_FEE")))
	if err != nil || fee.IsNegative() {
		fee = decimal.NewFromInt(50)
	}
	return Config{
		Port:       v.GetString("PORT"),
		UploadsDir: v.GetString("UPLOADS_DIR"),
		DB: DB{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: Auth{
			JWTSecret:    v.GetString("JWT_SECRET"),
			TokenTTL:     v.GetDuration("TOKEN_TTL"),
			CookieSecure: v.GetBool("COOKIE_SECURE"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CacheTTL: v.GetDuration("CACHE_TTL"),
		},
		Log: Log{
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		CancellationFee: fee,
		CORSOrigins:     v.GetString("CORS_ORIGINS"),
	}
}

// Test returns a config suitable for in-memory tests.
func Test() Config {
	v := viper.New()
	defaults(v)
	v.Set("DB_DSN", ":memory:")
	v.Set("LOG_FILE", "")
	v.Set("JWT_SECRET", "test-secret")
	return fromViper(v)
}
