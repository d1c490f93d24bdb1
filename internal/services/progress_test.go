package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/vici-backend/internal/data/repos"
	"github.com/yungbote/vici-backend/internal/data/repos/testutil"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
)

func TestLevelFor(t *testing.T) {
	cases := []struct{ xp, want int }{
		{-5, 1}, {0, 1}, {999, 1}, {1000, 2}, {2500, 3}, {10000, 11},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.xp); got != tc.want {
			t.Fatalf("LevelFor(%d): want=%d got=%d", tc.xp, tc.want, got)
		}
	}
}

func TestStreakMultiplier(t *testing.T) {
	cases := []struct {
		streak int
		want   float64
	}{
		{0, 1}, {2, 1}, {3, 1.5}, {4, 1.5}, {5, 2}, {30, 2},
	}
	for _, tc := range cases {
		if got := StreakMultiplier(tc.streak); got != tc.want {
			t.Fatalf("StreakMultiplier(%d): want=%v got=%v", tc.streak, tc.want, got)
		}
	}
}

func TestNextStreak(t *testing.T) {
	today := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		last    string
		current int
		want    int
	}{
		{"first activity", "", 0, 1},
		{"same day keeps", "2026-10-18", 4, 4},
		{"same day repairs zero", "2026-10-18", 0, 1},
		{"consecutive day", "2026-10-17", 4, 5},
		{"gap resets", "2026-10-15", 9, 1},
	}
	for _, tc := range cases {
		if got := NextStreak(tc.last, today, tc.current); got != tc.want {
			t.Fatalf("%s: want=%d got=%d", tc.name, tc.want, got)
		}
	}
}

func TestBadgesFor(t *testing.T) {
	got := BadgesFor(5000, true)
	want := []string{BadgeEarlyBird, BadgeQuizMaster, BadgeVaultKeeper, BadgeScholar}
	if len(got) != len(want) {
		t.Fatalf("BadgesFor: want=%v got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("BadgesFor[%d]: want=%q got=%q", i, want[i], got[i])
		}
	}
	if len(BadgesFor(999, false)) != 0 {
		t.Fatalf("BadgesFor(999): want none")
	}
}

func TestAddWeeklyXP(t *testing.T) {
	monday := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	week := AddWeeklyXP(types.EmptyWeek(), monday, 40)
	week = AddWeeklyXP(week, sunday, 15)
	week = AddWeeklyXP(week, monday, 10)
	if len(week) != 7 {
		t.Fatalf("len: want=7 got=%d", len(week))
	}
	if week[0].Day != "Mon" || week[0].XP != 50 {
		t.Fatalf("Mon: got=%+v", week[0])
	}
	if week[6].Day != "Sun" || week[6].XP != 15 {
		t.Fatalf("Sun: got=%+v", week[6])
	}
}

func TestApplyXpStreakBonus(t *testing.T) {
	h := newHarness(t)
	h.progress.now = fixedClock("2026-10-18")
	u := h.seedUser(t, "streaker", 0)
	if err := h.users.UpdateFields(dbctx.New(context.Background()), u.ID, map[string]interface{}{
		"current_streak":   2,
		"last_active_date": "2026-10-17",
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	res, err := h.progress.ApplyXp(context.Background(), u.Username, XpEvent{Amount: 100, Action: "finished a quiz", StreakBonus: true})
	if err != nil {
		t.Fatalf("ApplyXp: %v", err)
	}
	if res.Streak != 3 || res.Awarded != 150 || res.XP != 150 {
		t.Fatalf("result: want streak=3 awarded=150 xp=150 got=%+v", res)
	}
	got := h.reload(t, u.ID)
	if got.XP != 150 || got.CurrentStreak != 3 || got.LastActiveDate != "2026-10-18" {
		t.Fatalf("persisted: got xp=%d streak=%d last=%q", got.XP, got.CurrentStreak, got.LastActiveDate)
	}
	if got.WeeklyActivity[6].XP != 150 {
		t.Fatalf("weekly Sun: want=150 got=%d", got.WeeklyActivity[6].XP)
	}
	if score, ok := h.board.score(u.Username); !ok || score != 150 {
		t.Fatalf("board: want=150 got=%d ok=%v", score, ok)
	}

	feed, err := h.activity.ListRecent(context.Background(), 5)
	if err != nil || len(feed) != 1 {
		t.Fatalf("activity: len=%d err=%v", len(feed), err)
	}
	if feed[0].Action != "finished a quiz" {
		t.Fatalf("activity action: got=%q", feed[0].Action)
	}
}

// brokenFeed fails every write, like a feed table that is gone.
type brokenFeed struct {
	repos.ActivityRepo
}

func (brokenFeed) Create(dbctx.Context, *types.Activity) (*types.Activity, error) {
	return nil, errors.New("no such table: activity")
}

func TestApplyXpSurvivesFeedFailure(t *testing.T) {
	h := newHarness(t)
	log := testutil.Logger(t)
	feed := NewActivityService(h.db, log, brokenFeed{h.activities})
	p := NewProgressService(h.db, log, h.users, h.badges, h.enrollments, h.courses, feed, h.board, nil)
	u := h.seedUser(t, "unlogged", 0)

	res, err := p.ApplyXp(context.Background(), u.Username, XpEvent{Amount: 100, Action: "finished a quiz"})
	if err != nil {
		t.Fatalf("ApplyXp: %v", err)
	}
	if res.XP != 100 {
		t.Fatalf("result xp: want=100 got=%d", res.XP)
	}
	if got := h.reload(t, u.ID); got.XP != 100 {
		t.Fatalf("persisted xp: want=100 got=%d", got.XP)
	}
}

func TestApplyXpAwardsBadgesOnce(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "climber", 950)

	res, err := h.progress.ApplyXpToUser(context.Background(), u.ID, XpEvent{Amount: 100})
	if err != nil {
		t.Fatalf("ApplyXpToUser: %v", err)
	}
	if !res.LeveledUp || res.Level != 2 {
		t.Fatalf("level: want leveled up to 2 got=%+v", res)
	}
	if len(res.NewBadges) != 1 || res.NewBadges[0] != BadgeEarlyBird {
		t.Fatalf("badges: want [%s] got=%v", BadgeEarlyBird, res.NewBadges)
	}

	res, err = h.progress.ApplyXpToUser(context.Background(), u.ID, XpEvent{Amount: 10})
	if err != nil {
		t.Fatalf("ApplyXpToUser again: %v", err)
	}
	if len(res.NewBadges) != 0 || res.LeveledUp {
		t.Fatalf("second award: want no new badges got=%+v", res)
	}
	names, err := h.badges.ListNames(dbctx.New(context.Background()), u.ID)
	if err != nil || len(names) != 1 {
		t.Fatalf("ListNames: names=%v err=%v", names, err)
	}
}

func TestApplyXpNeverGoesNegative(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "penalised", 30)
	res, err := h.progress.ApplyXpToUser(context.Background(), u.ID, XpEvent{Amount: -100})
	if err != nil {
		t.Fatalf("ApplyXpToUser: %v", err)
	}
	if res.XP != 0 || res.Awarded != -30 {
		t.Fatalf("want xp=0 awarded=-30 got=%+v", res)
	}
}

func TestApplyXpUnknownUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.progress.ApplyXp(context.Background(), "nobody_here", XpEvent{Amount: 10})
	if !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("want not found got=%v", err)
	}
}

func TestCompleteCourseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.seedUser(t, "finisher", 0)
	c := testutil.SeedCourse(t, ctx, h.db, "Calculus I", 200)

	if err := h.progress.Enroll(ctx, u.Username, c.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if err := h.progress.Enroll(ctx, u.Username, c.ID); !errors.Is(err, apierr.ErrConflict) {
		t.Fatalf("Enroll twice: want conflict got=%v", err)
	}

	first, err := h.progress.CompleteCourse(ctx, u.Username, c.ID)
	if err != nil {
		t.Fatalf("CompleteCourse: %v", err)
	}
	if !first.CourseCompleted || first.Awarded != 200 {
		t.Fatalf("first completion: got=%+v", first)
	}
	if len(first.NewBadges) != 1 || first.NewBadges[0] != BadgeScholar {
		t.Fatalf("first completion badges: got=%v", first.NewBadges)
	}

	second, err := h.progress.CompleteCourse(ctx, u.Username, c.ID)
	if err != nil {
		t.Fatalf("CompleteCourse again: %v", err)
	}
	if second.CourseCompleted || second.Awarded != 0 || second.XP != 200 {
		t.Fatalf("second completion: want no credit got=%+v", second)
	}
	if got := h.reload(t, u.ID); got.XP != 200 {
		t.Fatalf("xp: want=200 got=%d", got.XP)
	}
}

func TestCompleteCourseUnknownCourse(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "lost", 0)
	_, err := h.progress.CompleteCourse(context.Background(), u.Username, uuid.New())
	if !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("want not found got=%v", err)
	}
}
