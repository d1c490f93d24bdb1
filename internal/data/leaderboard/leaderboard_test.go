package leaderboard

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/vici-backend/internal/platform/logger"
)

func TestNewWithoutAddrIsDisabled(t *testing.T) {
	b, err := New(logger.Nop(), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := b.SetXP(context.Background(), "alice", 10); err != nil {
		t.Fatalf("SetXP on disabled board: want=nil got=%v", err)
	}
	if _, err := b.Top(context.Background(), 10); !errors.Is(err, ErrDisabled) {
		t.Fatalf("Top: want=ErrDisabled got=%v", err)
	}
}

func TestToEntriesRanksFromOne(t *testing.T) {
	got := toEntries([]goredis.Z{
		{Score: 2500, Member: "alice"},
		{Score: 900, Member: "bob"},
	})
	if len(got) != 2 {
		t.Fatalf("len: want=2 got=%d", len(got))
	}
	if got[0].Username != "alice" || got[0].Rank != 1 || got[0].XP != 2500 {
		t.Fatalf("entry[0]: unexpected %+v", got[0])
	}
	if got[1].Rank != 2 {
		t.Fatalf("entry[1] rank: want=2 got=%d", got[1].Rank)
	}
}

func TestRedisBoardRoundTrip(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	key := "leaderboard:test:" + t.Name()
	b, err := New(logger.Nop(), Config{Addr: addr, Key: key})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	ctx := context.Background()
	t.Cleanup(func() { _ = b.(*redisBoard).rdb.Del(ctx, key).Err() })

	for name, xp := range map[string]int{"low": 5, "high": 500, "mid": 50} {
		if err := b.SetXP(ctx, name, xp); err != nil {
			t.Fatalf("SetXP(%s): %v", name, err)
		}
	}
	if err := b.Remove(ctx, "mid"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	top, err := b.Top(ctx, 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 2 || top[0].Username != "high" || top[1].Username != "low" {
		t.Fatalf("Top: unexpected %+v", top)
	}
}
