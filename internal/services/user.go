package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/leaderboard"
	"github.com/yungbote/vici-backend/internal/data/repos"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/ctxutil"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

const LeaderboardSize = 10

// Profile is the public view of a user with its related sets resolved.
type Profile struct {
	*types.User
	Badges           []string `json:"badges"`
	Friends          []string `json:"friends"`
	EnrolledCourses  []string `json:"enrolledCourses"`
	CompletedCourses []string `json:"completedCourses"`
}

type LeaderboardRow struct {
	Rank     int      `json:"rank"`
	Username string   `json:"username"`
	Avatar   string   `json:"avatar"`
	XP       int      `json:"xp"`
	Level    int      `json:"level"`
	Badges   []string `json:"badges"`
}

type ProfileUpdate struct {
	Avatar        *string
	Major         *string
	AcademicLevel *string
}

type UserService interface {
	GetProfile(ctx context.Context, username string) (*Profile, error)
	UpdateProfile(ctx context.Context, username string, in ProfileUpdate) (*types.User, error)
	Leaderboard(ctx context.Context) ([]LeaderboardRow, error)
	FriendsLeaderboard(ctx context.Context, username string) ([]LeaderboardRow, error)
	SetBanned(ctx context.Context, username string, banned bool) (*types.User, error)
}

type userService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	badgeRepo      repos.BadgeRepo
	friendRepo     repos.FriendRepo
	enrollmentRepo repos.EnrollmentRepo
	board          leaderboard.Board
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	badgeRepo repos.BadgeRepo,
	friendRepo repos.FriendRepo,
	enrollmentRepo repos.EnrollmentRepo,
	board leaderboard.Board,
) UserService {
	if board == nil {
		board = leaderboard.Disabled()
	}
	return &userService{
		db:             db,
		log:            log.With("service", "UserService"),
		userRepo:       userRepo,
		badgeRepo:      badgeRepo,
		friendRepo:     friendRepo,
		enrollmentRepo: enrollmentRepo,
		board:          board,
	}
}

func (us *userService) GetProfile(ctx context.Context, username string) (*Profile, error) {
	dbc := dbctx.New(ctx)
	u, err := us.userRepo.GetByUsername(dbc, username)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if u == nil {
		return nil, apierr.NotFound("User not found")
	}

	badges, err := us.badgeRepo.ListNames(dbc, u.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	friendIDs, err := us.friendRepo.ListFriendIDs(dbc, u.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	friends, err := us.userRepo.GetByIDs(dbc, friendIDs)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	enrollments, err := us.enrollmentRepo.ListByUser(dbc, u.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	p := &Profile{
		User:             u,
		Badges:           badges,
		Friends:          make([]string, 0, len(friends)),
		EnrolledCourses:  make([]string, 0, len(enrollments)),
		CompletedCourses: []string{},
	}
	for _, f := range friends {
		p.Friends = append(p.Friends, f.Username)
	}
	sort.Strings(p.Friends)
	for _, e := range enrollments {
		p.EnrolledCourses = append(p.EnrolledCourses, e.CourseID.String())
		if e.CompletedAt != nil {
			p.CompletedCourses = append(p.CompletedCourses, e.CourseID.String())
		}
	}

	// Email is only shown to its owner and to admins.
	if rd := ctxutil.GetRequestData(ctx); !canActAs(rd, u.Username) {
		masked := *u
		masked.Email = ""
		p.User = &masked
	}
	return p, nil
}

func (us *userService) UpdateProfile(ctx context.Context, username string, in ProfileUpdate) (*types.User, error) {
	rd, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !canActAs(rd, username) {
		return nil, apierr.Forbidden("You can only edit your own profile")
	}
	dbc := dbctx.New(ctx)
	u, err := us.userRepo.GetByUsername(dbc, username)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if u == nil {
		return nil, apierr.NotFound("User not found")
	}

	updates := map[string]interface{}{}
	if in.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*in.Avatar)
	}
	if in.Major != nil {
		updates["major"] = strings.TrimSpace(*in.Major)
	}
	if in.AcademicLevel != nil {
		updates["academic_level"] = strings.TrimSpace(*in.AcademicLevel)
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := us.userRepo.UpdateFields(dbc, u.ID, updates); err != nil {
		return nil, apierr.Internal(err)
	}
	updated, err := us.userRepo.GetByID(dbc, u.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return updated, nil
}

// Leaderboard reads the Redis board and falls back to the database when the
// cache is disabled, failing or cold.
func (us *userService) Leaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	dbc := dbctx.New(ctx)
	entries, err := us.board.Top(ctx, LeaderboardSize)
	if err == nil && len(entries) > 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Username)
		}
		users, uErr := us.userRepo.GetByUsernames(dbc, names)
		if uErr == nil {
			byName := make(map[string]*types.User, len(users))
			for _, u := range users {
				byName[u.Username] = u
			}
			ordered := make([]*types.User, 0, len(entries))
			for _, e := range entries {
				if u := byName[e.Username]; u != nil && !u.Banned {
					ordered = append(ordered, u)
				}
			}
			return us.rows(dbc, ordered)
		}
		us.log.Warn("Leaderboard user lookup failed", "error", uErr)
	} else if err != nil && !errors.Is(err, leaderboard.ErrDisabled) {
		us.log.Warn("Leaderboard cache read failed, using database", "error", err)
	}

	users, err := us.userRepo.TopByXP(dbc, LeaderboardSize)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	for _, u := range users {
		if sErr := us.board.SetXP(ctx, u.Username, u.XP); sErr != nil {
			us.log.Debug("Leaderboard warm failed", "error", sErr)
			break
		}
	}
	return us.rows(dbc, users)
}

func (us *userService) FriendsLeaderboard(ctx context.Context, username string) ([]LeaderboardRow, error) {
	dbc := dbctx.New(ctx)
	u, err := us.userRepo.GetByUsername(dbc, username)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if u == nil {
		return nil, apierr.NotFound("User not found")
	}
	ids, err := us.friendRepo.ListFriendIDs(dbc, u.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	users, err := us.userRepo.ListByIDsByXP(dbc, append(ids, u.ID))
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return us.rows(dbc, users)
}

func (us *userService) rows(dbc dbctx.Context, users []*types.User) ([]LeaderboardRow, error) {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	badges, err := us.badgeRepo.ListNamesByUserIDs(dbc, ids)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	out := make([]LeaderboardRow, 0, len(users))
	for i, u := range users {
		b := badges[u.ID]
		if b == nil {
			b = []string{}
		}
		out = append(out, LeaderboardRow{
			Rank:     i + 1,
			Username: u.Username,
			Avatar:   u.Avatar,
			XP:       u.XP,
			Level:    u.Level,
			Badges:   b,
		})
	}
	return out, nil
}

func (us *userService) SetBanned(ctx context.Context, username string, banned bool) (*types.User, error) {
	rd, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !rd.IsAdmin() {
		return nil, apierr.Forbidden("Admin access required")
	}
	dbc := dbctx.New(ctx)
	u, err := us.userRepo.GetByUsername(dbc, username)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if u == nil {
		return nil, apierr.NotFound("User not found")
	}
	if u.ID == rd.UserID && banned {
		return nil, apierr.BadRequest("You cannot ban yourself")
	}
	if err := us.userRepo.UpdateFields(dbc, u.ID, map[string]interface{}{"banned": banned}); err != nil {
		return nil, apierr.Internal(err)
	}
	u.Banned = banned

	if banned {
		err = us.board.Remove(ctx, u.Username)
	} else {
		err = us.board.SetXP(ctx, u.Username, u.XP)
	}
	if err != nil {
		us.log.Warn("Leaderboard sync after ban change failed", "user_id", u.ID, "error", err)
	}
	us.log.Info("User ban state changed", "user_id", u.ID, "banned", banned)
	return u, nil
}
