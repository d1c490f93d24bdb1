package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type BadgeRepo interface {
	// Award inserts the badges the user does not hold yet and returns those names.
	Award(dbc dbctx.Context, userID uuid.UUID, names []string) ([]string, error)
	ListNames(dbc dbctx.Context, userID uuid.UUID) ([]string, error)
	ListNamesByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) (map[uuid.UUID][]string, error)
}

type badgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return &badgeRepo{db: db, log: baseLog.With("repo", "BadgeRepo")}
}

func (r *badgeRepo) Award(dbc dbctx.Context, userID uuid.UUID, names []string) ([]string, error) {
	if userID == uuid.Nil || len(names) == 0 {
		return nil, nil
	}
	held, err := r.ListNames(dbc, userID)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(held))
	for _, n := range held {
		have[n] = true
	}
	now := time.Now().UTC()
	rows := make([]*types.UserBadge, 0, len(names))
	awarded := make([]string, 0, len(names))
	for _, n := range names {
		if have[n] {
			continue
		}
		have[n] = true
		rows = append(rows, &types.UserBadge{UserID: userID, Name: n, EarnedAt: now})
		awarded = append(awarded, n)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := dbc.DB(r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return nil, err
	}
	return awarded, nil
}

func (r *badgeRepo) ListNames(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	out := []string{}
	if err := dbc.DB(r.db).Model(&types.UserBadge{}).
		Where("user_id = ?", userID).
		Order("earned_at ASC").Order("name ASC").
		Pluck("name", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *badgeRepo) ListNamesByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []*types.UserBadge
	if err := dbc.DB(r.db).
		Where("user_id IN ?", userIDs).
		Order("earned_at ASC").Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, b := range rows {
		out[b.UserID] = append(out[b.UserID], b.Name)
	}
	return out, nil
}
