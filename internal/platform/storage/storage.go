package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/vici-backend/internal/platform/logger"
)

const DefaultTimeout = 35 * time.Second

var ErrUnavailable = errors.New("object storage unavailable")

// Object identifies a stored blob. Key is the handle used for Open and Delete;
// URL is what clients are given to view the file.
type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

type Storage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by cfg.Mode.
func New(ctx context.Context, log *logger.Logger, cfg Config) (Storage, error) {
	cfg, err := ResolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeMinIO:
		return newMinIOStorage(ctx, log, cfg)
	default:
		return newGCSStorage(ctx, log, cfg)
	}
}

// ObjectKey builds "<folder>/<owner>/<uuid>-<clean filename>".
func ObjectKey(folder, owner, filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return path.Join(strings.Trim(folder, "/"), owner, uuid.New().String()+"-"+b.String())
}

// Unavailable returns a Storage whose every call fails with cause.
// Wiring falls back to it when the configured backend cannot start.
func Unavailable(cause error) Storage {
	return unavailable{cause: cause}
}

type unavailable struct{ cause error }

func (u unavailable) err() error {
	if u.cause == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, u.cause)
}

func (u unavailable) Put(context.Context, string, string, []byte) (Object, error) {
	return Object{}, u.err()
}
func (u unavailable) Open(context.Context, string) (io.ReadCloser, error) { return nil, u.err() }
func (u unavailable) Delete(context.Context, string) error                { return u.err() }

// readCloserWithCancel keeps the download context alive until the caller
// closes the reader.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}
