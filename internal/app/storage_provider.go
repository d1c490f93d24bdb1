package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/vici-backend/internal/platform/logger"
	"github.com/yungbote/vici-backend/internal/platform/storage"
)

var newStorage = storage.New

type StorageBootstrapErrorCode string

const (
	StorageBootstrapErrorConfig        StorageBootstrapErrorCode = "invalid_config"
	StorageBootstrapErrorConnectFailed StorageBootstrapErrorCode = "connect_failed"
)

type StorageBootstrapError struct {
	Code         StorageBootstrapErrorCode
	ConfigCode   storage.ConfigErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveStorage never fails the boot: a backend that cannot start is
// replaced by one whose calls return the classified bootstrap error, so the
// vault answers 502 while the rest of the API keeps serving.
func resolveStorage(ctx context.Context, log *logger.Logger, cfg storage.Config) (storage.Storage, error) {
	log.Info(
		"Selecting object storage provider",
		"mode", cfg.Mode,
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
		"minio_endpoint", cfg.MinIO.Endpoint,
	)
	st, err := newStorage(ctx, log, cfg)
	if err == nil {
		return st, nil
	}
	classified := classifyStorageBootstrapError(cfg, err)
	log.Error(
		"Object storage provider bootstrap failed, study vault uploads disabled",
		"mode", cfg.Mode,
		"emulator_host", cfg.EmulatorHost,
		"error_code", classified.Code,
		"config_code", classified.ConfigCode,
		"error", classified,
	)
	return storage.Unavailable(classified), classified
}

func classifyStorageBootstrapError(cfg storage.Config, err error) *StorageBootstrapError {
	out := &StorageBootstrapError{
		Code:         StorageBootstrapErrorConnectFailed,
		Mode:         string(cfg.Mode),
		EmulatorHost: cfg.EmulatorHost,
		Cause:        err,
	}
	var cfgErr *storage.ConfigError
	if errors.As(err, &cfgErr) {
		out.Code = StorageBootstrapErrorConfig
		out.ConfigCode = cfgErr.Code
	}
	return out
}
