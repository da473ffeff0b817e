package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Port                    string
	AllowedOrigin           string
	DatabaseURL             string
	MigrateOnStart          bool
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	SnapshotCacheTTLMinutes int
	AuthSecret              string
	AccessTokenTTLMinutes   int
	SettlementTimezone      string
	LogLevel                string
	Currency                string
}

// Load reads an optional .env file, then the environment. Environment values win.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SNAPSHOT_CACHE_TTL_MINUTES", 60)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("SETTLEMENT_TIMEZONE", "Local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CURRENCY_DENOMINATIONS", "INR")
	for _, key := range []string{"DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "AUTH_SECRET"} {
		v.SetDefault(key, "")
	}

	v.SetConfigFile(envFile())
	v.SetConfigType("env")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil && !missingConfig(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Config{
		Port:                    v.GetString("PORT"),
		AllowedOrigin:           v.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:             strings.TrimSpace(v.GetString("DATABASE_URL")),
		MigrateOnStart:          v.GetBool("MIGRATE_ON_START"),
		RedisAddr:               strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		SnapshotCacheTTLMinutes: positiveOr(v.GetInt("SNAPSHOT_CACHE_TTL_MINUTES"), 60),
		AuthSecret:              strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes:   positiveOr(v.GetInt("ACCESS_TOKEN_TTL_MINUTES"), 480),
		SettlementTimezone:      strings.TrimSpace(v.GetString("SETTLEMENT_TIMEZONE")),
		LogLevel:                strings.TrimSpace(v.GetString("LOG_LEVEL")),
		Currency:                strings.ToUpper(strings.TrimSpace(v.GetString("CURRENCY_DENOMINATIONS"))),
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves SETTLEMENT_TIMEZONE. "Local" and empty mean the process zone.
func (c Config) Location() (*time.Location, error) {
	if c.SettlementTimezone == "" || strings.EqualFold(c.SettlementTimezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.SettlementTimezone)
}

func (c Config) SnapshotCacheTTL() time.Duration {
	return time.Duration(c.SnapshotCacheTTLMinutes) * time.Minute
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// NewLogger returns a JSON logrus logger on stdout at LOG_LEVEL, falling back to info.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
		if level != "" {
			logger.WithField("log_level", level).Warn("unknown LOG_LEVEL, using info")
		}
	}
	logger.SetLevel(parsed)
	return logger
}

func envFile() string {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return path
	}
	return ".env"
}

func missingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

func positiveOr(val int, fallback int) int {
	if val < 1 {
		return fallback
	}
	return val
}
