package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"foodgram/internal/validation"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string // "development", "production", etc.
	LogLevel string

	// Server
	ServerAddr string
	BaseURL    string
	SiteTitle  string

	// Database
	DatabaseURL string

	// Redis backs the rate limiter and session store when set.
	RedisURL string

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// API tokens
	TokenSecret string
	TokenTTL    time.Duration

	// CORS
	CORSOrigins string // Comma-separated allowed origins, e.g. "https://example.com,https://app.example.com"

	// OIDC (optional)
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// Media storage
	StorageBackend string // "local" or "s3"
	MediaRoot      string
	MediaURL       string
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string

	// Recipes
	MinCookingTime int
	MaxImageSize   int
	PageSize       int

	// Short links
	ShortCodeLength    int
	ShortLinkCacheSize int

	// Shopping list PDF
	PDFFontPath string
	PDFLogoPath string

	RateLimitPerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		ServerAddr:    getEnv("SERVER_ADDR", ":8000"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8000"),
		SiteTitle:     getEnv("SITE_TITLE", "Foodgram"),
		DatabaseURL:   getEnv("DATABASE_URL", "postgres://localhost:5432/foodgram?sslmode=disable"),
		RedisURL:      getEnv("REDIS_URL", ""),
		SessionSecret: getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		TokenSecret:   getEnv("TOKEN_SECRET", "change-me-in-production-min-32-chars"),
		TokenTTL:      getEnvDuration("TOKEN_TTL", 30*24*time.Hour),
		CORSOrigins:   getEnv("CORS_ORIGINS", ""),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", "http://localhost:8000/auth/callback"),

		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		MediaRoot:      getEnv("MEDIA_ROOT", "./media"),
		MediaURL:       getEnv("MEDIA_URL", "/media/"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),

		MinCookingTime: getEnvInt("MIN_COOKING_TIME", 1),
		MaxImageSize:   getEnvInt("MAX_IMAGE_SIZE", 5*1024*1024),
		PageSize:       getEnvInt("PAGE_SIZE", 6),

		ShortCodeLength:    getEnvInt("SHORT_CODE_LENGTH", 6),
		ShortLinkCacheSize: getEnvInt("SHORT_LINK_CACHE_SIZE", 1024),

		PDFFontPath: getEnv("PDF_FONT_PATH", ""),
		PDFLogoPath: getEnv("PDF_LOGO_PATH", ""),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsOIDCEnabled returns true if an OIDC issuer is configured.
func (c *Config) IsOIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}

// IsS3Storage returns true if media is stored in an S3-compatible bucket.
func (c *Config) IsS3Storage() bool {
	return c.StorageBackend == "s3"
}

// Validate reports settings that would fail at runtime.
func (c *Config) Validate() error {
	if ok, msg := validation.ValidateURL(c.BaseURL); !ok {
		return fmt.Errorf("BASE_URL: %s", msg)
	}
	switch c.StorageBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if !c.IsDev() && len(c.TokenSecret) < 32 {
		return errors.New("TOKEN_SECRET must be at least 32 characters")
	}
	if c.PageSize < 1 {
		return errors.New("PAGE_SIZE must be positive")
	}
	return nil
}
