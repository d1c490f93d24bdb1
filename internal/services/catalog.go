package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/repos"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/domain/catalog"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type CourseInput struct {
	Title   string
	Module  string
	XP      int
	VideoID string
}

type CatalogService interface {
	ListCourses(ctx context.Context) ([]*types.Course, error)
	CreateCourse(ctx context.Context, in CourseInput) (*types.Course, error)
	DeleteCourse(ctx context.Context, id uuid.UUID) error

	GetQuizByLesson(ctx context.Context, lessonID string) (*types.Quiz, error)
	CreateQuiz(ctx context.Context, lessonID string, questions []types.QuizQuestion) (*types.Quiz, error)
	DeleteQuiz(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
	quizRepo   repos.QuizRepo
}

func NewCatalogService(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, quizRepo repos.QuizRepo) CatalogService {
	return &catalogService{
		db:         db,
		log:        log.With("service", "CatalogService"),
		courseRepo: courseRepo,
		quizRepo:   quizRepo,
	}
}

func (s *catalogService) ListCourses(ctx context.Context) ([]*types.Course, error) {
	out, err := s.courseRepo.List(dbctx.New(ctx))
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}

func (s *catalogService) CreateCourse(ctx context.Context, in CourseInput) (*types.Course, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.BadRequest("Course title is required")
	}
	if in.XP < 0 {
		return nil, apierr.BadRequest("Course XP cannot be negative")
	}
	c, err := s.courseRepo.Create(dbctx.New(ctx), &types.Course{
		Title:   title,
		Module:  strings.TrimSpace(in.Module),
		XP:      in.XP,
		VideoID: strings.TrimSpace(in.VideoID),
	})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return c, nil
}

func (s *catalogService) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	removed, err := s.courseRepo.Delete(dbctx.New(ctx), id)
	if err != nil {
		return apierr.Internal(err)
	}
	if !removed {
		return apierr.NotFound("Course not found")
	}
	return nil
}

func (s *catalogService) GetQuizByLesson(ctx context.Context, lessonID string) (*types.Quiz, error) {
	q, err := s.quizRepo.GetByLessonID(dbctx.New(ctx), lessonID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if q == nil {
		return nil, apierr.NotFound("Quiz not found")
	}
	return q, nil
}

func (s *catalogService) CreateQuiz(ctx context.Context, lessonID string, questions []types.QuizQuestion) (*types.Quiz, error) {
	lessonID = strings.TrimSpace(lessonID)
	if lessonID == "" {
		return nil, apierr.BadRequest("lessonId is required")
	}
	if len(questions) == 0 {
		return nil, apierr.BadRequest("A quiz needs at least one question")
	}
	for i := range questions {
		if err := ValidateQuestion(&questions[i]); err != nil {
			return nil, apierr.BadRequest(fmt.Sprintf("question %d: %s", i+1, err.Error()))
		}
	}
	q, err := s.quizRepo.Create(dbctx.New(ctx), &types.Quiz{LessonID: lessonID, Questions: questions})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return q, nil
}

func (s *catalogService) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	removed, err := s.quizRepo.Delete(dbctx.New(ctx), id)
	if err != nil {
		return apierr.Internal(err)
	}
	if !removed {
		return apierr.NotFound("Quiz not found")
	}
	return nil
}

// ValidateQuestion normalises q in place and rejects malformed questions.
func ValidateQuestion(q *types.QuizQuestion) error {
	q.Text = strings.TrimSpace(q.Text)
	q.Type = strings.ToLower(strings.TrimSpace(q.Type))
	if q.Text == "" {
		return fmt.Errorf("question text is required")
	}
	if q.Difficulty == 0 {
		q.Difficulty = 1
	}
	if q.Difficulty < 1 || q.Difficulty > 3 {
		return fmt.Errorf("difficulty must be between 1 and 3")
	}

	correct := 0
	for _, o := range q.Options {
		if o.IsCorrect {
			correct++
		}
	}
	switch q.Type {
	case catalog.QuestionSingle:
		if len(q.Options) < 2 {
			return fmt.Errorf("single-choice needs at least two options")
		}
		if correct != 1 {
			return fmt.Errorf("single-choice needs exactly one correct option")
		}
	case catalog.QuestionMultiple:
		if len(q.Options) < 2 {
			return fmt.Errorf("multiple-choice needs at least two options")
		}
		if correct < 1 {
			return fmt.Errorf("multiple-choice needs at least one correct option")
		}
	case catalog.QuestionFill:
		q.CorrectAnswerText = strings.TrimSpace(q.CorrectAnswerText)
		if q.CorrectAnswerText == "" {
			return fmt.Errorf("fill-in needs correctAnswerText")
		}
	case catalog.QuestionMatch:
		if len(q.Options) == 0 {
			return fmt.Errorf("match needs at least one pair")
		}
		for _, o := range q.Options {
			if strings.TrimSpace(o.MatchLeft) == "" || strings.TrimSpace(o.MatchRight) == "" {
				return fmt.Errorf("match pairs need both sides")
			}
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}
