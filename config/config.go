package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config carries every tunable the service reads at startup. It is built
// once in main, validated, and never mutated afterwards; adapters receive
// their slice of it through constructors.
type Config struct {
	ListenAddr string `validate:"required"`
	LogLevel   string

	SafeBrowsingAPIKey   string        `validate:"required"`
	SafeBrowsingEndpoint string        `validate:"omitempty,url"`
	SafeBrowsingTimeout  time.Duration `validate:"gt=0"`

	ClassifierEndpoint string `validate:"required,url"`
	ClassifierToken    string
	ClassifierTimeout  time.Duration `validate:"gt=0"`

	WhoisServer  string
	WhoisTimeout time.Duration `validate:"gt=0"`
}

// Load reads .env when present, then the environment, then validates the
// result.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:           ":" + getenv("PORT", "8080"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		SafeBrowsingAPIKey:   os.Getenv("GOOGLE_SAFE_BROWSING_KEY"),
		SafeBrowsingEndpoint: os.Getenv("SAFE_BROWSING_ENDPOINT"),
		SafeBrowsingTimeout:  getenvDuration("SAFE_BROWSING_TIMEOUT", 5*time.Second),
		ClassifierEndpoint:   os.Getenv("CLASSIFIER_ENDPOINT"),
		ClassifierToken:      os.Getenv("CLASSIFIER_TOKEN"),
		ClassifierTimeout:    getenvDuration("CLASSIFIER_TIMEOUT", 15*time.Second),
		WhoisServer:          os.Getenv("WHOIS_SERVER"),
		WhoisTimeout:         getenvDuration("WHOIS_TIMEOUT", 10*time.Second),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
