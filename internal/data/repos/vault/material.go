package vault

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type MaterialRepo interface {
	Create(dbc dbctx.Context, m *types.StudyMaterial) (*types.StudyMaterial, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.StudyMaterial, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.StudyMaterial, error)
	// SetExtraction records an extraction outcome. Only the status, text and error change.
	SetExtraction(dbc dbctx.Context, id uuid.UUID, status, text, extractionErr string) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type materialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	return &materialRepo{db: db, log: baseLog.With("repo", "MaterialRepo")}
}

func (r *materialRepo) Create(dbc dbctx.Context, m *types.StudyMaterial) (*types.StudyMaterial, error) {
	if err := dbc.DB(r.db).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *materialRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.StudyMaterial, error) {
	var m types.StudyMaterial
	err := dbc.DB(r.db).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *materialRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.StudyMaterial, error) {
	out := []*types.StudyMaterial{}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialRepo) SetExtraction(dbc dbctx.Context, id uuid.UUID, status, text, extractionErr string) error {
	return dbc.DB(r.db).Model(&types.StudyMaterial{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           status,
			"extracted_text":   text,
			"extraction_error": extractionErr,
		}).Error
}

// Delete removes the material and its generated artifacts.
func (r *materialRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	txx := dbc.DB(r.db)
	if err := txx.Where("material_id = ?", id).Delete(&types.StudyArtifact{}).Error; err != nil {
		return err
	}
	return txx.Where("id = ?", id).Delete(&types.StudyMaterial{}).Error
}
