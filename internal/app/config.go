package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yungbote/vici-backend/internal/data/db"
	"github.com/yungbote/vici-backend/internal/data/leaderboard"
	"github.com/yungbote/vici-backend/internal/observability"
	"github.com/yungbote/vici-backend/internal/platform/gemini"
	"github.com/yungbote/vici-backend/internal/platform/sendgrid"
	"github.com/yungbote/vici-backend/internal/platform/storage"
	"github.com/yungbote/vici-backend/internal/services"
)

type Config struct {
	Env            string
	LogMode        string
	LogHashSalt    string
	Port           string
	RequestTimeout time.Duration
	CORSOrigins    []string
	ClientURL      string
	ShutdownGrace  time.Duration

	JWTSecret string
	AccessTTL time.Duration
	ResetTTL  time.Duration

	Database    db.Config
	Storage     storage.Config
	Vault       services.VaultConfig
	Gemini      gemini.Config
	SendGrid    sendgrid.Config
	Leaderboard leaderboard.Config
	Otel        observability.OtelConfig
	MetricsNS   string
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	return configFrom(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("SHUTDOWN_GRACE", "15s")
	v.SetDefault("CLIENT_URL", "http://localhost:5173")
	v.SetDefault("ACCESS_TOKEN_TTL", services.DefaultAccessTTL.String())
	v.SetDefault("RESET_TOKEN_TTL", services.DefaultResetTTL.String())

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_NAME", "vici")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_OPEN_CONNS", 20)
	v.SetDefault("POSTGRES_MAX_IDLE_CONNS", 5)
	v.SetDefault("POSTGRES_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("STORAGE_TIMEOUT", storage.DefaultTimeout.String())
	v.SetDefault("VAULT_FOLDER", services.DefaultVaultFolder)
	v.SetDefault("VAULT_MAX_UPLOAD_BYTES", services.DefaultMaxUploadBytes)
	v.SetDefault("EXTRACT_TIMEOUT", "15s")

	v.SetDefault("GEMINI_MODEL", gemini.DefaultModel)
	v.SetDefault("GEMINI_BASE_URL", gemini.DefaultBaseURL)
	v.SetDefault("GEMINI_TIMEOUT", gemini.DefaultTimeout.String())
	v.SetDefault("GEMINI_MAX_RETRIES", 2)

	v.SetDefault("SENDGRID_FROM_EMAIL", "no-reply@vici.app")
	v.SetDefault("SENDGRID_FROM_NAME", "VICI")
	v.SetDefault("SENDGRID_MAX_RETRIES", 2)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_LEADERBOARD_KEY", leaderboard.DefaultKey)

	v.SetDefault("OTEL_SERVICE_NAME", "vici-backend")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
	v.SetDefault("METRICS_NAMESPACE", "vici")
	return v
}

func configFrom(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:            strings.ToLower(v.GetString("APP_ENV")),
		LogMode:        v.GetString("LOG_MODE"),
		LogHashSalt:    v.GetString("LOG_HASH_SALT"),
		Port:           v.GetString("PORT"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownGrace:  v.GetDuration("SHUTDOWN_GRACE"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		ClientURL:      v.GetString("CLIENT_URL"),

		JWTSecret: strings.TrimSpace(v.GetString("JWT_SECRET")),
		AccessTTL: v.GetDuration("ACCESS_TOKEN_TTL"),
		ResetTTL:  v.GetDuration("RESET_TOKEN_TTL"),

		Database: db.Config{
			URL:             v.GetString("DATABASE_URL"),
			Host:            v.GetString("POSTGRES_HOST"),
			Port:            v.GetString("POSTGRES_PORT"),
			User:            v.GetString("POSTGRES_USER"),
			Password:        v.GetString("POSTGRES_PASSWORD"),
			Name:            v.GetString("POSTGRES_NAME"),
			SSLMode:         v.GetString("POSTGRES_SSLMODE"),
			MaxOpenConns:    v.GetInt("POSTGRES_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("POSTGRES_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("POSTGRES_CONN_MAX_LIFETIME"),
		},
		Storage: storage.Config{
			Mode:            storage.Mode(strings.ToLower(strings.TrimSpace(v.GetString("OBJECT_STORAGE_MODE")))),
			Bucket:          v.GetString("STORAGE_BUCKET"),
			EmulatorHost:    v.GetString("STORAGE_EMULATOR_HOST"),
			PublicBaseURL:   v.GetString("STORAGE_PUBLIC_BASE_URL"),
			CDNDomain:       v.GetString("STORAGE_CDN_DOMAIN"),
			CredentialsJSON: v.GetString("GCS_CREDENTIALS_JSON"),
			CredentialsFile: v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
			Timeout:         v.GetDuration("STORAGE_TIMEOUT"),
			MinIO: storage.MinIOConfig{
				Endpoint:  v.GetString("MINIO_ENDPOINT"),
				AccessKey: v.GetString("MINIO_ACCESS_KEY"),
				SecretKey: v.GetString("MINIO_SECRET_KEY"),
				UseSSL:    v.GetBool("MINIO_USE_SSL"),
				Region:    v.GetString("MINIO_REGION"),
			},
		},
		Vault: services.VaultConfig{
			Folder:         v.GetString("VAULT_FOLDER"),
			MaxUploadBytes: v.GetInt64("VAULT_MAX_UPLOAD_BYTES"),
			StorageTimeout: v.GetDuration("STORAGE_TIMEOUT"),
			ExtractTimeout: v.GetDuration("EXTRACT_TIMEOUT"),
		},
		Gemini: gemini.Config{
			APIKey:     v.GetString("GEMINI_API_KEY"),
			BaseURL:    v.GetString("GEMINI_BASE_URL"),
			Model:      v.GetString("GEMINI_MODEL"),
			Timeout:    v.GetDuration("GEMINI_TIMEOUT"),
			MaxRetries: v.GetInt("GEMINI_MAX_RETRIES"),
		},
		SendGrid: sendgrid.Config{
			APIKey:           v.GetString("SENDGRID_API_KEY"),
			DefaultFromEmail: v.GetString("SENDGRID_FROM_EMAIL"),
			DefaultFromName:  v.GetString("SENDGRID_FROM_NAME"),
			MaxRetries:       v.GetInt("SENDGRID_MAX_RETRIES"),
			Sandbox:          v.GetBool("SENDGRID_SANDBOX"),
		},
		Leaderboard: leaderboard.Config{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Key:      v.GetString("REDIS_LEADERBOARD_KEY"),
		},
		Otel: observability.OtelConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
			Environment: strings.ToLower(v.GetString("APP_ENV")),
			Version:     v.GetString("APP_VERSION"),
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
			Headers:     v.GetString("OTEL_EXPORTER_OTLP_HEADERS"),
			SampleRatio: v.GetFloat64("OTEL_SAMPLE_RATIO"),
		},
		MetricsNS: v.GetString("METRICS_NAMESPACE"),
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server must not start with.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET is required"))
	} else if c.Env == "production" && len(c.JWTSecret) < 32 {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least 32 characters in production"))
	}
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, fmt.Errorf("PORT is required"))
	}
	if c.Vault.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("VAULT_MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
