package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OAuthProviderConfig holds client credentials for one external identity provider.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Config contains runtime configuration values.
type Config struct {
	Environment        string
	HTTPPort           string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	JWTSecret          string
	JWTRefreshSecret   string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	TokenHorizon       time.Duration
	ServiceName        string
	RateLimitRPM       int
	TelemetryEndpoint  string
	TelemetryInsecure  bool
	CORSAllowedOrigins []string
	OAuthGoogle        OAuthProviderConfig
	OAuthGitHub        OAuthProviderConfig
}

const minSecretLen = 32

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	// HS256 rejects signing keys shorter than 32 bytes.
	if len(secret) < minSecretLen {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen)
	}
	if refresh := strings.TrimSpace(os.Getenv("JWT_REFRESH_SECRET")); refresh != "" && len(refresh) < minSecretLen {
		return Config{}, fmt.Errorf("JWT_REFRESH_SECRET must be at least %d bytes", minSecretLen)
	}

	cfg := Config{
		Environment:        getEnv("APP_ENV", "development"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getInt("REDIS_DB", 0),
		JWTSecret:          secret,
		JWTRefreshSecret:   os.Getenv("JWT_REFRESH_SECRET"),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		TokenHorizon:       getDuration("TOKEN_HORIZON", 7*24*time.Hour),
		ServiceName:        getEnv("SERVICE_NAME", "finance-api"),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 600),
		TelemetryEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:  getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		OAuthGoogle: OAuthProviderConfig{
			ClientID:     os.Getenv("OAUTH_GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("OAUTH_GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OAUTH_GOOGLE_CALLBACK_URL"),
		},
		OAuthGitHub: OAuthProviderConfig{
			ClientID:     os.Getenv("OAUTH_GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("OAUTH_GITHUB_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OAUTH_GITHUB_CALLBACK_URL"),
		},
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTRefreshSecret == "" {
		cfg.JWTRefreshSecret = cfg.JWTSecret
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
