package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/leaderboard"
	"github.com/yungbote/vici-backend/internal/data/repos"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/observability"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

const (
	XPPerLevel = 1000
	dayLayout  = "2006-01-02"

	BadgeEarlyBird   = "Early Bird"
	BadgeQuizMaster  = "Quiz Master"
	BadgeVaultKeeper = "Vault Keeper"
	BadgeLegend      = "Legend"
	BadgeScholar     = "Scholar"
)

type xpBadge struct {
	name string
	min  int
}

var xpBadges = []xpBadge{
	{BadgeEarlyBird, 1000},
	{BadgeQuizMaster, 2500},
	{BadgeVaultKeeper, 5000},
	{BadgeLegend, 10000},
}

type XpEvent struct {
	Amount      int
	Action      string
	Detail      string
	Source      string
	StreakBonus bool
	CourseID    *uuid.UUID
}

type XpResult struct {
	XP              int      `json:"xp"`
	Level           int      `json:"level"`
	Streak          int      `json:"streak"`
	Awarded         int      `json:"awarded"`
	NewBadges       []string `json:"newBadges"`
	LeveledUp       bool     `json:"leveledUp"`
	CourseCompleted bool     `json:"courseCompleted"`
}

type ProgressService interface {
	ApplyXp(ctx context.Context, username string, ev XpEvent) (*XpResult, error)
	ApplyXpToUser(ctx context.Context, userID uuid.UUID, ev XpEvent) (*XpResult, error)
	Enroll(ctx context.Context, username string, courseID uuid.UUID) error
	// CompleteCourse credits the course XP once; repeats return the current state.
	CompleteCourse(ctx context.Context, username string, courseID uuid.UUID) (*XpResult, error)
}

type progressService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	badgeRepo      repos.BadgeRepo
	enrollmentRepo repos.EnrollmentRepo
	courseRepo     repos.CourseRepo
	activity       ActivityService
	board          leaderboard.Board
	metrics        *observability.Metrics
	now            Clock
}

func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	badgeRepo repos.BadgeRepo,
	enrollmentRepo repos.EnrollmentRepo,
	courseRepo repos.CourseRepo,
	activity ActivityService,
	board leaderboard.Board,
	metrics *observability.Metrics,
) ProgressService {
	if board == nil {
		board = leaderboard.Disabled()
	}
	return &progressService{
		db:             db,
		log:            log.With("service", "ProgressService"),
		userRepo:       userRepo,
		badgeRepo:      badgeRepo,
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		activity:       activity,
		board:          board,
		metrics:        metrics,
		now:            systemClock,
	}
}

func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

func StreakMultiplier(streak int) float64 {
	switch {
	case streak >= 5:
		return 2.0
	case streak >= 3:
		return 1.5
	default:
		return 1.0
	}
}

// NextStreak advances the streak for activity on today's date.
func NextStreak(lastActive string, today time.Time, current int) int {
	day := today.UTC().Format(dayLayout)
	yesterday := today.UTC().AddDate(0, 0, -1).Format(dayLayout)
	switch strings.TrimSpace(lastActive) {
	case day:
		if current < 1 {
			return 1
		}
		return current
	case yesterday:
		return current + 1
	default:
		return 1
	}
}

// BadgesFor lists every badge the state qualifies for, held or not.
func BadgesFor(xp int, completedCourse bool) []string {
	out := []string{}
	for _, b := range xpBadges {
		if xp >= b.min {
			out = append(out, b.name)
		}
	}
	if completedCourse {
		out = append(out, BadgeScholar)
	}
	return out
}

// AddWeeklyXP adds amount to the bar for day's weekday.
func AddWeeklyXP(week datatypes.JSONSlice[types.DayXP], day time.Time, amount int) datatypes.JSONSlice[types.DayXP] {
	out := make(datatypes.JSONSlice[types.DayXP], 0, len(types.EmptyWeek()))
	byDay := map[string]int{}
	for _, d := range week {
		byDay[d.Day] = d.XP
	}
	label := types.EmptyWeek()[(int(day.UTC().Weekday())+6)%7].Day
	for _, d := range types.EmptyWeek() {
		xp := byDay[d.Day]
		if d.Day == label {
			xp += amount
			if xp < 0 {
				xp = 0
			}
		}
		out = append(out, types.DayXP{Day: d.Day, XP: xp})
	}
	return out
}

func (s *progressService) ApplyXp(ctx context.Context, username string, ev XpEvent) (*XpResult, error) {
	return s.apply(ctx, func(dbc dbctx.Context) (*types.User, error) {
		return s.userRepo.GetByUsername(dbc, username)
	}, ev, false)
}

func (s *progressService) ApplyXpToUser(ctx context.Context, userID uuid.UUID, ev XpEvent) (*XpResult, error) {
	return s.apply(ctx, func(dbc dbctx.Context) (*types.User, error) {
		return s.userRepo.GetByID(dbc, userID)
	}, ev, false)
}

func (s *progressService) CompleteCourse(ctx context.Context, username string, courseID uuid.UUID) (*XpResult, error) {
	course, err := s.courseRepo.GetByID(dbctx.New(ctx), courseID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if course == nil {
		return nil, apierr.NotFound("Course not found")
	}
	return s.apply(ctx, func(dbc dbctx.Context) (*types.User, error) {
		return s.userRepo.GetByUsername(dbc, username)
	}, XpEvent{
		Amount:   course.XP,
		Action:   "completed a course",
		Detail:   course.Title,
		Source:   "course",
		CourseID: &course.ID,
	}, true)
}

func (s *progressService) apply(
	ctx context.Context,
	find func(dbc dbctx.Context) (*types.User, error),
	ev XpEvent,
	onlyOnCompletion bool,
) (*XpResult, error) {
	now := s.now().UTC()
	var (
		res      XpResult
		username string
		avatar   string
		changed  bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := find(inner)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if found == nil {
			return apierr.NotFound("User not found")
		}
		u, err := s.userRepo.LockByID(inner, found.ID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if u == nil {
			return apierr.NotFound("User not found")
		}
		username, avatar = u.Username, u.Avatar

		completedNow := false
		if ev.CourseID != nil {
			completedNow, err = s.enrollmentRepo.MarkCompleted(inner, u.ID, *ev.CourseID, now)
			if err != nil {
				return fmt.Errorf("mark course completed: %w", err)
			}
			if onlyOnCompletion && !completedNow {
				res = XpResult{XP: u.XP, Level: u.Level, Streak: u.CurrentStreak, NewBadges: []string{}}
				return nil
			}
		}

		streak := NextStreak(u.LastActiveDate, now, u.CurrentStreak)
		amount := ev.Amount
		if ev.StreakBonus {
			amount = int(math.Round(float64(amount) * StreakMultiplier(streak)))
		}
		xp := u.XP + amount
		if xp < 0 {
			xp = 0
		}
		awarded := xp - u.XP
		level := LevelFor(xp)

		newBadges, err := s.badgeRepo.Award(inner, u.ID, BadgesFor(xp, completedNow))
		if err != nil {
			return fmt.Errorf("award badges: %w", err)
		}
		if newBadges == nil {
			newBadges = []string{}
		}

		if err := s.userRepo.UpdateFields(inner, u.ID, map[string]interface{}{
			"xp":               xp,
			"level":            level,
			"current_streak":   streak,
			"last_active_date": now.Format(dayLayout),
			"weekly_activity":  AddWeeklyXP(u.WeeklyActivity, now, awarded),
		}); err != nil {
			return fmt.Errorf("update user progress: %w", err)
		}

		res = XpResult{
			XP:              xp,
			Level:           level,
			Streak:          streak,
			Awarded:         awarded,
			NewBadges:       newBadges,
			LeveledUp:       level > u.Level,
			CourseCompleted: completedNow,
		}
		changed = true
		return nil
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		s.log.Error("ApplyXp transaction failed", "username", username, "error", err)
		return nil, apierr.Internal(err)
	}
	if !changed {
		return &res, nil
	}

	// The feed is written after commit so a feed failure never undoes XP.
	action, detail := describeXp(ev, res)
	s.activity.Record(ctx, username, avatar, action, detail)

	if err := s.board.SetXP(ctx, username, res.XP); err != nil {
		s.log.Warn("Leaderboard update failed", "username", username, "error", err)
	}
	source := ev.Source
	if source == "" {
		source = "progress"
	}
	s.metrics.ObserveXP(source, res.Awarded)
	for _, b := range res.NewBadges {
		s.metrics.ObserveBadge(b)
	}
	return &res, nil
}

// describeXp picks the single most salient event: badge, then level-up, then XP.
func describeXp(ev XpEvent, res XpResult) (string, string) {
	action := strings.TrimSpace(ev.Action)
	if action == "" {
		action = "earned XP"
	}
	switch {
	case len(res.NewBadges) > 0:
		return action, "Unlocked badge: " + strings.Join(res.NewBadges, ", ")
	case res.LeveledUp:
		return action, fmt.Sprintf("Reached level %d", res.Level)
	case strings.TrimSpace(ev.Detail) != "":
		return action, fmt.Sprintf("%s (%+d XP)", strings.TrimSpace(ev.Detail), res.Awarded)
	default:
		return action, fmt.Sprintf("%+d XP", res.Awarded)
	}
}

func (s *progressService) Enroll(ctx context.Context, username string, courseID uuid.UUID) error {
	dbc := dbctx.New(ctx)
	u, err := s.userRepo.GetByUsername(dbc, username)
	if err != nil {
		return apierr.Internal(err)
	}
	if u == nil {
		return apierr.NotFound("User not found")
	}
	course, err := s.courseRepo.GetByID(dbc, courseID)
	if err != nil {
		return apierr.Internal(err)
	}
	if course == nil {
		return apierr.NotFound("Course not found")
	}
	created, err := s.enrollmentRepo.Enroll(dbc, u.ID, course.ID)
	if err != nil {
		return apierr.Internal(err)
	}
	if !created {
		return apierr.Conflict("Already enrolled in this course")
	}
	s.activity.Record(ctx, u.Username, u.Avatar, "enrolled in a course", course.Title)
	return nil
}
