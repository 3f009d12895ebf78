package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

type Config struct {
	JWTSecret      string        `mapstructure:"JWT_SECRET" validate:"required,min=16"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL" validate:"gt=0"`
	RedisAddress   string        `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword  string        `mapstructure:"REDIS_PW"`
	Port           string        `mapstructure:"PORT" validate:"required,number"`
	AllowedOrigins []string      `mapstructure:"ALLOWED_ORIGINS" validate:"dive,required"`
	LogLevel       string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogPretty      bool          `mapstructure:"LOG_PRETTY"`
	WordsFile      string        `mapstructure:"WORDS_FILE" validate:"omitempty,file"`
	EventRate      float64       `mapstructure:"EVENT_RATE" validate:"gt=0"`
	EventBurst     int           `mapstructure:"EVENT_BURST" validate:"gte=1"`
}

// Defaults for the optional settings.
const (
	DefaultTokenTTL   = 24 * time.Hour
	DefaultLogLevel   = "info"
	DefaultOrigins    = "http://localhost:8080"
	DefaultEventRate  = 40
	DefaultEventBurst = 80
	defaultEnvFile    = ".env"
	allowedOriginsSep = ","
)

// LoadConfig reads the environment, after loading a .env file when one is
// present, and validates the result.
func LoadConfig() (*Config, error) {
	// a missing .env is fine, the environment may be set directly
	_ = godotenv.Load(defaultEnvFile)

	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from getenv.
func ConfigFromEnv(getenv func(string) string) (*Config, error) {
	config := &Config{
		JWTSecret:      getenv("JWT_SECRET"),
		RedisAddress:   getenv("REDIS_ADDR"),
		Port:           getenv("PORT"),
		RedisPassword:  getenv("REDIS_PW"),
		LogLevel:       withDefault(getenv("LOG_LEVEL"), DefaultLogLevel),
		WordsFile:      getenv("WORDS_FILE"),
		AllowedOrigins: splitList(withDefault(getenv("ALLOWED_ORIGINS"), DefaultOrigins)),
	}

	var err error

	if config.TokenTTL, err = parseEnv(getenv, "TOKEN_TTL", DefaultTokenTTL, time.ParseDuration); err != nil {
		return nil, err
	}

	if config.LogPretty, err = parseEnv(getenv, "LOG_PRETTY", false, strconv.ParseBool); err != nil {
		return nil, err
	}

	if config.EventRate, err = parseEnv(getenv, "EVENT_RATE", DefaultEventRate, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}); err != nil {
		return nil, err
	}

	if config.EventBurst, err = parseEnv(getenv, "EVENT_BURST", DefaultEventBurst, strconv.Atoi); err != nil {
		return nil, err
	}

	if err := Validate.Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ArchiveEnabled reports whether round results should be stored in redis.
func (c *Config) ArchiveEnabled() bool {
	return c.RedisAddress != ""
}

func parseEnv[T any](getenv func(string) string, key string, fallback T, parse func(string) (T, error)) (T, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return fallback, nil
	}

	v, err := parse(raw)
	if err != nil {
		return fallback, fmt.Errorf("parsing %s: %w", key, err)
	}
	return v, nil
}

func withDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	items := lo.Map(strings.Split(s, allowedOriginsSep), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Filter(items, func(item string, _ int) bool {
		return item != ""
	})
}
