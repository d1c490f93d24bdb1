package activity

import (
	"gorm.io/gorm"

	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

const MaxListLimit = 50

type ActivityRepo interface {
	Create(dbc dbctx.Context, a *types.Activity) (*types.Activity, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.Activity, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) Create(dbc dbctx.Context, a *types.Activity) (*types.Activity, error) {
	if err := dbc.DB(r.db).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *activityRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.Activity, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	out := []*types.Activity{}
	if err := dbc.DB(r.db).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
