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

type EnrollmentRepo interface {
	Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CourseEnrollment, error)
	// Enroll is idempotent and reports whether a new row was written.
	Enroll(dbc dbctx.Context, userID, courseID uuid.UUID) (bool, error)
	// MarkCompleted reports whether this call completed the course.
	MarkCompleted(dbc dbctx.Context, userID, courseID uuid.UUID, at time.Time) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CourseEnrollment, error)
	CountCompleted(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CourseEnrollment, error) {
	var row types.CourseEnrollment
	err := dbc.DB(r.db).Where("user_id = ? AND course_id = ?", userID, courseID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *enrollmentRepo) Enroll(dbc dbctx.Context, userID, courseID uuid.UUID) (bool, error) {
	row := &types.CourseEnrollment{UserID: userID, CourseID: courseID, CreatedAt: time.Now().UTC()}
	res := dbc.DB(r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) MarkCompleted(dbc dbctx.Context, userID, courseID uuid.UUID, at time.Time) (bool, error) {
	if _, err := r.Enroll(dbc, userID, courseID); err != nil {
		return false, err
	}
	res := dbc.DB(r.db).Model(&types.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ? AND completed_at IS NULL", userID, courseID).
		Update("completed_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CourseEnrollment, error) {
	var out []*types.CourseEnrollment
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) CountCompleted(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.CourseEnrollment{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Count(&n).Error
	return n, err
}
