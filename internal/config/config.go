package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const defaultChromeBin = "/usr/bin/google-chrome"

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env       string
	HTTPPort  string
	PublicDir string
	LogLevel  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioJoinCode   string
	TwilioAPIURL     string

	ChromeBin           string
	ChromeRemoteURL     string
	ScrapeTimeout       time.Duration
	MaxConcurrentScrape int

	RateLimitPerMin  int
	RateLimitBackend string
	RedisAddr        string
	RedisPassword    string

	APISigningKey  string
	APITokenIssuer string

	OTLPEndpoint string
}

// Load reads an optional .env file and returns application config populated
// from environment variables with sensible defaults.
func Load() App {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env file")
	}

	env := getEnv("APP_ENV", getEnv("NODE_ENV", "dev"))
	cfg := App{
		Env:       env,
		HTTPPort:  getEnv("PORT", "10000"),
		PublicDir: getEnv("PUBLIC_DIR", "public"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		TwilioJoinCode:   os.Getenv("TWILIO_JOIN_CODE"),
		TwilioAPIURL:     getEnv("TWILIO_API_URL", "https://api.twilio.com"),

		ChromeRemoteURL:     os.Getenv("CHROME_REMOTE_URL"),
		ScrapeTimeout:       durationEnv("SCRAPE_TIMEOUT", 3*time.Minute),
		MaxConcurrentScrape: intEnv("MAX_CONCURRENT_SCRAPES", 0),

		RateLimitPerMin:  intEnv("RATE_LIMIT_PER_MIN", 0),
		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),

		APISigningKey:  os.Getenv("API_SIGNING_KEY"),
		APITokenIssuer: getEnv("API_TOKEN_ISSUER", "attendbot"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	// Locally chromedp finds Chrome on its own.
	if cfg.IsProduction() {
		cfg.ChromeBin = getEnv("CHROME_BIN", defaultChromeBin)
	} else {
		cfg.ChromeBin = os.Getenv("CHROME_BIN")
	}
	return cfg
}

// IsProduction reports whether the process runs in a deployed environment.
func (a App) IsProduction() bool {
	switch strings.ToLower(a.Env) {
	case "production", "prod":
		return true
	}
	return false
}

// TwilioConfigured reports whether messaging credentials are present.
func (a App) TwilioConfigured() bool {
	return a.TwilioAccountSID != "" && a.TwilioAuthToken != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Dur("fallback", fallback).Msg("invalid duration, using fallback")
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Int("fallback", fallback).Msg("invalid int, using fallback")
	}
	return fallback
}
