package logger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yungbote/vici-backend/internal/platform/ctxutil"
)

// Logger wraps a zap SugaredLogger with key/value redaction so credentials,
// emails and raw user ids never reach log storage.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
	redact        bool
	hashSalt      string
}

type Options struct {
	// Redact masks credential-like keys and hashes user identifiers.
	Redact   bool
	HashSalt string
}

func New(mode string) (*Logger, error) {
	return NewWithOptions(mode, Options{Redact: true})
}

func NewWithOptions(mode string, opts Options) (*Logger, error) {
	cfg, err := zapConfig(mode)
	if err != nil {
		return nil, err
	}
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{
		SugaredLogger: z.Sugar(),
		redact:        opts.Redact,
		hashSalt:      strings.TrimSpace(opts.HashSalt),
	}, nil
}

func zapConfig(mode string) (zap.Config, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg, nil
	case "test":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		return cfg, nil
	case "", "dev", "development":
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg, nil
	default:
		return zap.Config{}, fmt.Errorf("unknown LOG_MODE %q", mode)
	}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() { _ = l.SugaredLogger.Sync() }

func (l *Logger) Debug(msg string, kv ...any) { l.SugaredLogger.Debugw(msg, l.sanitize(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.SugaredLogger.Infow(msg, l.sanitize(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.SugaredLogger.Warnw(msg, l.sanitize(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.SugaredLogger.Errorw(msg, l.sanitize(kv)...) }
func (l *Logger) Fatal(msg string, kv ...any) { l.SugaredLogger.Fatalw(msg, l.sanitize(kv)...) }

func (l *Logger) With(kv ...any) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(l.sanitize(kv)...),
		redact:        l.redact,
		hashSalt:      l.hashSalt,
	}
}

// For tags lines with the request and trace ids carried by ctx, if any.
func (l *Logger) For(ctx context.Context) *Logger {
	td := ctxutil.GetTraceData(ctx)
	if td == nil {
		return l
	}
	return l.With("request_id", td.RequestID, "trace_id", td.TraceID)
}

// Keys whose values are dropped outright.
var redactMarkers = []string{"token", "authorization", "password", "secret", "api_key", "apikey", "email", "reset_url"}

// Keys naming a person; values are replaced with a salted hash so lines can
// still be correlated.
var personKeys = map[string]bool{
	"owner_id": true, "requester_id": true, "author_id": true,
	"sender_id": true, "receiver_id": true, "friend_id": true,
}

func (l *Logger) sanitize(kv []any) []any {
	if !l.redact || len(kv) == 0 {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key := strings.ToLower(strings.TrimSpace(stringify(out[i])))
		out[i+1] = l.scrub(key, out[i+1])
	}
	return out
}

func (l *Logger) scrub(key string, val any) any {
	if key == "" {
		return val
	}
	for _, m := range redactMarkers {
		if strings.Contains(key, m) {
			return "[REDACTED]"
		}
	}
	if personKeys[key] || strings.HasSuffix(key, "user_id") {
		return l.digest(val)
	}
	if s, ok := val.(string); ok && isJWT(s) {
		return "[REDACTED]"
	}
	return val
}

func (l *Logger) digest(val any) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(l.hashSalt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

func isJWT(s string) bool {
	head, rest, ok := strings.Cut(s, ".")
	if !ok {
		return false
	}
	body, sig, ok := strings.Cut(rest, ".")
	return ok && len(head) > 10 && len(body) > 10 && sig != "" && !strings.Contains(sig, ".")
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
