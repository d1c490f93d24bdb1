package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/repos"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type ActivityService interface {
	// Record appends to the feed. Failures are logged and never returned.
	Record(ctx context.Context, username, avatar, action, detail string)
	ListRecent(ctx context.Context, limit int) ([]*types.Activity, error)
}

type activityService struct {
	db           *gorm.DB
	log          *logger.Logger
	activityRepo repos.ActivityRepo
}

func NewActivityService(db *gorm.DB, log *logger.Logger, activityRepo repos.ActivityRepo) ActivityService {
	return &activityService{
		db:           db,
		log:          log.With("service", "ActivityService"),
		activityRepo: activityRepo,
	}
}

func (s *activityService) Record(ctx context.Context, username, avatar, action, detail string) {
	if username == "" || action == "" {
		return
	}
	if _, err := s.activityRepo.Create(dbctx.New(ctx), &types.Activity{
		Username: username,
		Avatar:   avatar,
		Action:   action,
		Detail:   detail,
	}); err != nil {
		s.log.Warn("Failed to record activity", "action", action, "error", err)
	}
}

func (s *activityService) ListRecent(ctx context.Context, limit int) ([]*types.Activity, error) {
	out, err := s.activityRepo.ListRecent(dbctx.New(ctx), limit)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}
