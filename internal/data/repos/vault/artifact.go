package vault

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type ArtifactRepo interface {
	Create(dbc dbctx.Context, a *types.StudyArtifact) (*types.StudyArtifact, error)
	ListByMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]*types.StudyArtifact, error)
}

type artifactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ArtifactRepo {
	return &artifactRepo{db: db, log: baseLog.With("repo", "ArtifactRepo")}
}

func (r *artifactRepo) Create(dbc dbctx.Context, a *types.StudyArtifact) (*types.StudyArtifact, error) {
	if err := dbc.DB(r.db).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *artifactRepo) ListByMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]*types.StudyArtifact, error) {
	out := []*types.StudyArtifact{}
	if err := dbc.DB(r.db).
		Where("material_id = ?", materialID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
