package social

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, msg *types.Message) (*types.Message, error)
	// ListConversation returns every message between a and b in either direction, oldest first.
	ListConversation(dbc dbctx.Context, a, b string) ([]*types.Message, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, msg *types.Message) (*types.Message, error) {
	if err := dbc.DB(r.db).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *messageRepo) ListConversation(dbc dbctx.Context, a, b string) ([]*types.Message, error) {
	out := []*types.Message{}
	if err := dbc.DB(r.db).
		Where("(sender = ? AND recipient = ?) OR (sender = ? AND recipient = ?)", a, b, b, a).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Message{}).Error
}
