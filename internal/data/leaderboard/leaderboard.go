package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/vici-backend/internal/platform/logger"
)

const (
	DefaultKey     = "leaderboard:xp"
	DefaultTimeout = 2 * time.Second
)

// ErrDisabled is returned by the board used when no Redis address is configured.
var ErrDisabled = errors.New("leaderboard cache disabled")

type Entry struct {
	Username string `json:"username"`
	XP       int64  `json:"xp"`
	Rank     int64  `json:"rank"`
}

// Board mirrors user XP into a Redis sorted set keyed by username.
type Board interface {
	SetXP(ctx context.Context, username string, xp int) error
	Remove(ctx context.Context, username string) error
	Top(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Timeout  time.Duration
}

type redisBoard struct {
	log     *logger.Logger
	rdb     *goredis.Client
	key     string
	timeout time.Duration
}

// New connects to Redis, or returns a disabled board when cfg.Addr is empty.
func New(log *logger.Logger, cfg Config) (Board, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		log.Info("Leaderboard cache disabled (no REDIS_ADDR)")
		return Disabled(), nil
	}
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		key = DefaultKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisBoard{
		log:     log.With("service", "Leaderboard"),
		rdb:     rdb,
		key:     key,
		timeout: timeout,
	}, nil
}

func (b *redisBoard) SetXP(ctx context.Context, username string, xp int) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.rdb.ZAdd(ctx, b.key, goredis.Z{Score: float64(xp), Member: username}).Err()
}

func (b *redisBoard) Remove(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.rdb.ZRem(ctx, b.key, username).Err()
}

func (b *redisBoard) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	res, err := b.rdb.ZRevRangeWithScores(ctx, b.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	return toEntries(res), nil
}

func (b *redisBoard) Close() error { return b.rdb.Close() }

func toEntries(zs []goredis.Z) []Entry {
	out := make([]Entry, 0, len(zs))
	for i, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, Entry{Username: name, XP: int64(z.Score), Rank: int64(i) + 1})
	}
	return out
}

type disabledBoard struct{}

func Disabled() Board { return disabledBoard{} }

func (disabledBoard) SetXP(context.Context, string, int) error  { return nil }
func (disabledBoard) Remove(context.Context, string) error      { return nil }
func (disabledBoard) Top(context.Context, int) ([]Entry, error) { return nil, ErrDisabled }
func (disabledBoard) Close() error                              { return nil }
