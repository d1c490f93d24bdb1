package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestResolveConfigDefaultsToGCS(t *testing.T) {
	cfg, err := ResolveConfig(Config{Bucket: "vault"})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if cfg.Mode != ModeGCS {
		t.Fatalf("mode: want=%q got=%q", ModeGCS, cfg.Mode)
	}
	if cfg.CompatibilityFallback {
		t.Fatalf("compatibility fallback: want=false got=true")
	}
	if cfg.Timeout != DefaultTimeout {
		t.Fatalf("timeout: want=%v got=%v", DefaultTimeout, cfg.Timeout)
	}
}

func TestResolveConfigInfersEmulator(t *testing.T) {
	cfg, err := ResolveConfig(Config{Bucket: "vault", EmulatorHost: "http://fake-gcs:4443/"})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if cfg.Mode != ModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", ModeGCSEmulator, cfg.Mode)
	}
	if !cfg.CompatibilityFallback {
		t.Fatalf("compatibility fallback: want=true got=false")
	}
	if cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: want trimmed got=%q", cfg.EmulatorHost)
	}
}

func TestResolveConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		code ConfigErrorCode
	}{
		{"invalid mode", Config{Mode: "s3", Bucket: "b"}, ConfigErrorInvalidMode},
		{"missing bucket", Config{Mode: ModeGCS}, ConfigErrorMissingBucket},
		{"emulator without host", Config{Mode: ModeGCSEmulator, Bucket: "b"}, ConfigErrorMissingEmulatorHost},
		{"emulator bad host", Config{Mode: ModeGCSEmulator, Bucket: "b", EmulatorHost: "fake-gcs:4443"}, ConfigErrorInvalidEmulatorHost},
		{"minio without endpoint", Config{Mode: ModeMinIO, Bucket: "b"}, ConfigErrorMissingMinIO},
		{"bad public base", Config{Mode: ModeGCS, Bucket: "b", PublicBaseURL: "cdn.local"}, ConfigErrorInvalidPublicBase},
	}
	for _, tc := range cases {
		_, err := ResolveConfig(tc.cfg)
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("%s: want *ConfigError got=%v", tc.name, err)
		}
		if ce.Code != tc.code {
			t.Fatalf("%s: code want=%q got=%q", tc.name, tc.code, ce.Code)
		}
	}
}

func TestResolveConfigModeIsCaseInsensitive(t *testing.T) {
	cfg, err := ResolveConfig(Config{Mode: " MinIO ", Bucket: "b", MinIO: MinIOConfig{Endpoint: "minio:9000"}})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if cfg.Mode != ModeMinIO {
		t.Fatalf("mode: want=%q got=%q", ModeMinIO, cfg.Mode)
	}
}

func TestGCSPublicURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"default", Config{Mode: ModeGCS, Bucket: "vault"}, "https://storage.googleapis.com/vault/a/b.pdf"},
		{"cdn", Config{Mode: ModeGCS, Bucket: "vault", CDNDomain: "cdn.vici.dev"}, "https://cdn.vici.dev/a/b.pdf"},
		{"public base", Config{Mode: ModeGCS, Bucket: "vault", PublicBaseURL: "http://localhost:4443"}, "http://localhost:4443/vault/a/b.pdf"},
		{"emulator", Config{Mode: ModeGCSEmulator, Bucket: "vault", EmulatorHost: "http://fake-gcs:4443"}, "http://fake-gcs:4443/storage/v1/b/vault/o/a%2Fb.pdf?alt=media"},
	}
	for _, tc := range cases {
		if got := gcsPublicURL(tc.cfg, "/a/b.pdf"); got != tc.want {
			t.Fatalf("%s: want=%q got=%q", tc.name, tc.want, got)
		}
	}
}

func TestMinIOPublicURL(t *testing.T) {
	got := minioPublicURL(Config{Bucket: "vault", MinIO: MinIOConfig{Endpoint: "minio:9000", UseSSL: true}}, "k.pdf")
	if got != "https://minio:9000/vault/k.pdf" {
		t.Fatalf("url: got=%q", got)
	}
}

func TestObjectKeySanitisesFilename(t *testing.T) {
	key := ObjectKey("vici_study_vault", "user-1", `..\evil dir/My Notes (v2).pdf`)
	if !strings.HasPrefix(key, "vici_study_vault/user-1/") {
		t.Fatalf("prefix: got=%q", key)
	}
	if !strings.HasSuffix(key, "-My_Notes__v2_.pdf") {
		t.Fatalf("suffix: got=%q", key)
	}
	if strings.Contains(key, "..") {
		t.Fatalf("key must not contain traversal: %q", key)
	}
}

func TestUnavailableFailsEveryCall(t *testing.T) {
	s := Unavailable(errors.New("no credentials"))
	ctx := context.Background()
	if _, err := s.Put(ctx, "k", "text/plain", []byte("x")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Put: want ErrUnavailable got=%v", err)
	}
	if _, err := s.Open(ctx, "k"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Open: want ErrUnavailable got=%v", err)
	}
	if err := s.Delete(ctx, "k"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Delete: want ErrUnavailable got=%v", err)
	}
}
