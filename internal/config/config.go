package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreBadger   = "badger"
)

// insecureJWTSecret is the placeholder shipped in old example env files.
const insecureJWTSecret = "dev-only-change-me"

type Config struct {
	// Discord Bot
	DiscordToken string

	// Mint
	DefaultMintURL string
	CashuAPIURL    string
	MintTimeout    time.Duration

	// Storage
	StoreBackend string
	DatabaseURL  string
	BadgerPath   string

	// Discord OAuth2
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Session
	JWTSecret string

	// Logging
	LogLevel string
	LogJSON  bool
	LogFile  string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DefaultMintURL:      os.Getenv("DEFAULT_MINT_URL"),
		CashuAPIURL:         os.Getenv("CASHU_API_URL"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		BadgerPath:          getEnvDefault("BADGER_PATH", "./data"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		LogLevel:            getEnvDefault("LOG_LEVEL", "info"),
		LogFile:             os.Getenv("LOG_FILE"),
	}

	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	cfg.StoreBackend = os.Getenv("STORE_BACKEND")
	if cfg.StoreBackend == "" {
		if cfg.DatabaseURL != "" {
			cfg.StoreBackend = StorePostgres
		} else {
			cfg.StoreBackend = StoreBadger
		}
	}

	var err error
	if cfg.MintTimeout, err = time.ParseDuration(getEnvDefault("MINT_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("MINT_TIMEOUT is invalid: %w", err)
	}
	if cfg.LogJSON, err = strconv.ParseBool(getEnvDefault("LOG_JSON", "false")); err != nil {
		return nil, fmt.Errorf("LOG_JSON is invalid: %w", err)
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.DefaultMintURL == "" {
		return nil, fmt.Errorf("DEFAULT_MINT_URL is required")
	}
	if !isHTTPURL(cfg.DefaultMintURL) {
		return nil, fmt.Errorf("DEFAULT_MINT_URL must be an http(s) URL")
	}

	if cfg.OAuthEnabled() && (cfg.JWTSecret == "" || cfg.JWTSecret == insecureJWTSecret) {
		return nil, fmt.Errorf("JWT_SECRET is required when DISCORD_CLIENT_ID and DISCORD_CLIENT_SECRET are set")
	}

	switch cfg.StoreBackend {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case StoreBadger:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q", StorePostgres, StoreBadger)
	}

	return cfg, nil
}

// OAuthEnabled reports whether web login through Discord is configured.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
