package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type FriendRepo interface {
	AreFriends(dbc dbctx.Context, a, b uuid.UUID) (bool, error)
	// AddPair writes both directions of the friendship, skipping rows that exist.
	AddPair(dbc dbctx.Context, a, b uuid.UUID) error
	ListFriendIDs(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error)

	CreateRequest(dbc dbctx.Context, req *types.FriendRequest) (*types.FriendRequest, error)
	GetRequest(dbc dbctx.Context, id uuid.UUID) (*types.FriendRequest, error)
	GetPendingBetween(dbc dbctx.Context, from, to uuid.UUID) (*types.FriendRequest, error)
	SetRequestStatus(dbc dbctx.Context, id uuid.UUID, status string, at time.Time) error
	ListPendingFor(dbc dbctx.Context, toUserID uuid.UUID) ([]*types.FriendRequest, error)
}

type friendRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFriendRepo(db *gorm.DB, baseLog *logger.Logger) FriendRepo {
	return &friendRepo{db: db, log: baseLog.With("repo", "FriendRepo")}
}

func (r *friendRepo) AreFriends(dbc dbctx.Context, a, b uuid.UUID) (bool, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Friendship{}).
		Where("user_id = ? AND friend_id = ?", a, b).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *friendRepo) AddPair(dbc dbctx.Context, a, b uuid.UUID) error {
	if a == uuid.Nil || b == uuid.Nil || a == b {
		return nil
	}
	now := time.Now().UTC()
	rows := []*types.Friendship{
		{UserID: a, FriendID: b, CreatedAt: now},
		{UserID: b, FriendID: a, CreatedAt: now},
	}
	return dbc.DB(r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *friendRepo) ListFriendIDs(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if err := dbc.DB(r.db).Model(&types.Friendship{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("friend_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *friendRepo) CreateRequest(dbc dbctx.Context, req *types.FriendRequest) (*types.FriendRequest, error) {
	if err := dbc.DB(r.db).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (r *friendRepo) GetRequest(dbc dbctx.Context, id uuid.UUID) (*types.FriendRequest, error) {
	var req types.FriendRequest
	err := dbc.DB(r.db).Where("id = ?", id).Take(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *friendRepo) GetPendingBetween(dbc dbctx.Context, from, to uuid.UUID) (*types.FriendRequest, error) {
	var req types.FriendRequest
	err := dbc.DB(r.db).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?", from, to, types.FriendRequestPending).
		Order("created_at DESC").
		Take(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *friendRepo) SetRequestStatus(dbc dbctx.Context, id uuid.UUID, status string, at time.Time) error {
	return dbc.DB(r.db).Model(&types.FriendRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": at,
			"updated_at":   at,
		}).Error
}

func (r *friendRepo) ListPendingFor(dbc dbctx.Context, toUserID uuid.UUID) ([]*types.FriendRequest, error) {
	var out []*types.FriendRequest
	if err := dbc.DB(r.db).
		Where("to_user_id = ? AND status = ?", toUserID, types.FriendRequestPending).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
