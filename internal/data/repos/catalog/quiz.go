package catalog

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type QuizRepo interface {
	Create(dbc dbctx.Context, quiz *types.Quiz) (*types.Quiz, error)
	GetByLessonID(dbc dbctx.Context, lessonID string) (*types.Quiz, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: baseLog.With("repo", "QuizRepo")}
}

func (r *quizRepo) Create(dbc dbctx.Context, quiz *types.Quiz) (*types.Quiz, error) {
	quiz.LessonID = strings.TrimSpace(quiz.LessonID)
	if err := dbc.DB(r.db).Create(quiz).Error; err != nil {
		return nil, err
	}
	return quiz, nil
}

func (r *quizRepo) GetByLessonID(dbc dbctx.Context, lessonID string) (*types.Quiz, error) {
	var q types.Quiz
	err := dbc.DB(r.db).Where("lesson_id = ?", strings.TrimSpace(lessonID)).Order("id ASC").Take(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quizRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Quiz{})
	return res.RowsAffected > 0, res.Error
}
