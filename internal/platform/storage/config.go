package storage

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Mode string

const (
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
	ModeMinIO       Mode = "minio"
)

type Config struct {
	Mode         Mode
	Bucket       string
	EmulatorHost string
	// PublicBaseURL overrides the host used in returned object URLs.
	PublicBaseURL   string
	CDNDomain       string
	CredentialsJSON string
	CredentialsFile string
	Timeout         time.Duration

	MinIO MinIOConfig

	// CompatibilityFallback is set when the mode was inferred from the
	// presence of an emulator host rather than configured.
	CompatibilityFallback bool
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

func IsSupportedMode(mode Mode) bool {
	switch mode {
	case ModeGCS, ModeGCSEmulator, ModeMinIO:
		return true
	default:
		return false
	}
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
	ConfigErrorMissingMinIO        ConfigErrorCode = "missing_minio_endpoint"
	ConfigErrorInvalidPublicBase   ConfigErrorCode = "invalid_public_base_url"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q)", e.Value, ModeGCS, ModeGCSEmulator, ModeMinIO)
	case ConfigErrorMissingBucket:
		return "object storage bucket name is required"
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ModeGCSEmulator)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.Value)
	case ConfigErrorMissingMinIO:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires MINIO_ENDPOINT to be set", ModeMinIO)
	case ConfigErrorInvalidPublicBase:
		return fmt.Sprintf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL", e.Value)
	default:
		return "invalid object storage config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveConfig normalises cfg, infers the mode when unset and validates it.
func ResolveConfig(cfg Config) (Config, error) {
	cfg.EmulatorHost = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	raw := strings.TrimSpace(string(cfg.Mode))
	switch Mode(strings.ToLower(raw)) {
	case "":
		if cfg.EmulatorHost != "" {
			cfg.Mode = ModeGCSEmulator
			cfg.CompatibilityFallback = true
		} else {
			cfg.Mode = ModeGCS
		}
	case ModeGCS:
		cfg.Mode = ModeGCS
	case ModeGCSEmulator:
		cfg.Mode = ModeGCSEmulator
	case ModeMinIO:
		cfg.Mode = ModeMinIO
	default:
		return cfg, &ConfigError{Code: ConfigErrorInvalidMode, Value: raw}
	}
	return cfg, ValidateConfig(cfg)
}

func ValidateConfig(cfg Config) error {
	if !IsSupportedMode(cfg.Mode) {
		return &ConfigError{Code: ConfigErrorInvalidMode, Value: string(cfg.Mode)}
	}
	if cfg.Bucket == "" {
		return &ConfigError{Code: ConfigErrorMissingBucket}
	}
	if cfg.PublicBaseURL != "" && !isAbsoluteURL(cfg.PublicBaseURL) {
		return &ConfigError{Code: ConfigErrorInvalidPublicBase, Value: cfg.PublicBaseURL}
	}
	switch cfg.Mode {
	case ModeGCSEmulator:
		if cfg.EmulatorHost == "" {
			return &ConfigError{Code: ConfigErrorMissingEmulatorHost}
		}
		if !isAbsoluteURL(cfg.EmulatorHost) {
			_, err := url.Parse(cfg.EmulatorHost)
			return &ConfigError{Code: ConfigErrorInvalidEmulatorHost, Value: cfg.EmulatorHost, Cause: err}
		}
	case ModeMinIO:
		if strings.TrimSpace(cfg.MinIO.Endpoint) == "" {
			return &ConfigError{Code: ConfigErrorMissingMinIO}
		}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
