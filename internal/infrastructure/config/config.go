package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// OAuthCredentials holds the client registration of one provider.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
}

// Configured reports whether both halves of the credential are present.
func (c OAuthCredentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Config holds application configuration values.
type Config struct {
	Port                     string
	Env                      string
	AppBaseURL               string
	ClientURL                string
	MongoURI                 string
	MongoDBName              string
	JWTSecret                string
	JWTExpiry                time.Duration
	DefaultStorageMode       entity.StorageMode
	RedisURL                 string
	RabbitMQURL              string
	RabbitMQPrefetch         int
	CloudinaryURL            string
	SMTP                     SMTPConfig
	Google                   OAuthCredentials
	GitHub                   OAuthCredentials
	LinkedIn                 OAuthCredentials
	ActivationTokenExpiry    time.Duration
	PasswordResetTokenExpiry time.Duration
	BulkBatchSize            int
	RateLimitPerSecond       float64
}

var _ usecasecontract.IConfigProvider = (*Config)(nil)

// Load reads the configuration from environment variables. It fails when a setting the
// process cannot start without is missing or malformed.
func Load() (*Config, error) {
	jwtExpiry, err := ParseExpiry(getEnv("JWT_EXPIRE", "30d"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRE: %w", err)
	}
	storage := entity.StorageMode(getEnv("DEFAULT_STORAGE_MODE", string(entity.StorageCookie)))
	if !storage.Valid() {
		return nil, fmt.Errorf("DEFAULT_STORAGE_MODE: unsupported value %q", storage)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("APP_ENV", "development"),
		AppBaseURL:         strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		ClientURL:          strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:5173"), "/"),
		MongoURI:           getEnv("MONGODB_URI", getEnv("MONGO_URI", "")),
		MongoDBName:        getEnv("MONGODB_DB_NAME", "auth_system"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpiry:          jwtExpiry,
		DefaultStorageMode: storage,
		RedisURL:           getEnv("REDIS_URL", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:   getEnvAsInt("RABBITMQ_PREFETCH", 10),
		CloudinaryURL:      getEnv("CLOUDINARY_URL", ""),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_EMAIL", ""),
			Password: getEnv("SMTP_PASS", ""),
			From:     getEnv("SMTP_FROM", getEnv("SMTP_EMAIL", "")),
		},
		Google:                   oauthCredentials("GOOGLE"),
		GitHub:                   oauthCredentials("GITHUB"),
		LinkedIn:                 oauthCredentials("LINKEDIN"),
		ActivationTokenExpiry:    time.Hour * time.Duration(getEnvAsInt("ACTIVATION_TOKEN_EXPIRY_HOURS", 24)),
		PasswordResetTokenExpiry: time.Minute * time.Duration(getEnvAsInt("PASSWORD_RESET_TOKEN_EXPIRY_MINUTES", 60)),
		BulkBatchSize:            getEnvAsInt("BULK_REGISTRATION_BATCH_SIZE", 50),
		RateLimitPerSecond:       getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI environment variable not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if cfg.BulkBatchSize <= 0 {
		return nil, fmt.Errorf("BULK_REGISTRATION_BATCH_SIZE must be positive")
	}
	return cfg, nil
}

// ParseExpiry accepts "<n>d" day counts as well as Go durations ("12h", "90m").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("expiry must be positive, got %q", s)
	}
	return d, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GetAppBaseURL returns the public base URL of this API.
func (c *Config) GetAppBaseURL() string {
	return c.AppBaseURL
}

// GetClientURL returns the front-end origin used for redirects and email links.
func (c *Config) GetClientURL() string {
	return c.ClientURL
}

func (c *Config) GetJWTExpiry() time.Duration {
	return c.JWTExpiry
}

func (c *Config) GetDefaultStorageMode() entity.StorageMode {
	return c.DefaultStorageMode
}

// GetActivationTokenExpiry returns how long an emailed set-password link stays valid.
func (c *Config) GetActivationTokenExpiry() time.Duration {
	return c.ActivationTokenExpiry
}

// GetPasswordResetTokenExpiry returns the expiry duration for password reset tokens.
func (c *Config) GetPasswordResetTokenExpiry() time.Duration {
	return c.PasswordResetTokenExpiry
}

func (c *Config) GetBulkRegistrationBatchSize() int {
	return c.BulkBatchSize
}

func oauthCredentials(prefix string) OAuthCredentials {
	return OAuthCredentials{
		ClientID:     getEnv(prefix+"_CLIENT_ID", ""),
		ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
	}
}

// Helper function to get an environment variable or return a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// Helper function to get an environment variable as an integer or return a default value.
func getEnvAsInt(name string, fallback int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(name string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(name, ""), 64); err == nil {
		return value
	}
	return fallback
}
