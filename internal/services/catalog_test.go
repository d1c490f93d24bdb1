package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/vici-backend/internal/data/repos/testutil"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/domain/catalog"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
)

func TestValidateQuestion(t *testing.T) {
	cases := []struct {
		name string
		q    types.QuizQuestion
		ok   bool
	}{
		{"single ok", types.QuizQuestion{Text: "2+2?", Type: "single", Options: []types.QuizOption{{Text: "4", IsCorrect: true}, {Text: "5"}}}, true},
		{"single two correct", types.QuizQuestion{Text: "q", Type: "single", Options: []types.QuizOption{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}}}, false},
		{"single one option", types.QuizQuestion{Text: "q", Type: "single", Options: []types.QuizOption{{Text: "a", IsCorrect: true}}}, false},
		{"multiple ok", types.QuizQuestion{Text: "q", Type: "MULTIPLE", Options: []types.QuizOption{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}}}, true},
		{"multiple none correct", types.QuizQuestion{Text: "q", Type: "multiple", Options: []types.QuizOption{{Text: "a"}, {Text: "b"}}}, false},
		{"fill ok", types.QuizQuestion{Text: "Capital of France?", Type: "fill", CorrectAnswerText: " Paris "}, true},
		{"fill no answer", types.QuizQuestion{Text: "q", Type: "fill"}, false},
		{"match ok", types.QuizQuestion{Text: "q", Type: "match", Options: []types.QuizOption{{MatchLeft: "H", MatchRight: "Hydrogen"}}}, true},
		{"match half pair", types.QuizQuestion{Text: "q", Type: "match", Options: []types.QuizOption{{MatchLeft: "H"}}}, false},
		{"bad difficulty", types.QuizQuestion{Text: "q", Type: "fill", CorrectAnswerText: "x", Difficulty: 4}, false},
		{"unknown type", types.QuizQuestion{Text: "q", Type: "essay"}, false},
		{"missing text", types.QuizQuestion{Type: "fill", CorrectAnswerText: "x"}, false},
	}
	for _, tc := range cases {
		q := tc.q
		err := ValidateQuestion(&q)
		if (err == nil) != tc.ok {
			t.Fatalf("%s: want ok=%v got err=%v", tc.name, tc.ok, err)
		}
	}

	q := types.QuizQuestion{Text: "q", Type: " Fill ", CorrectAnswerText: " x "}
	if err := ValidateQuestion(&q); err != nil {
		t.Fatalf("normalise: %v", err)
	}
	if q.Type != catalog.QuestionFill || q.Difficulty != 1 || q.CorrectAnswerText != "x" {
		t.Fatalf("normalise: got=%+v", q)
	}
}

func TestCatalogCoursesAndQuizzes(t *testing.T) {
	h := newHarness(t)
	svc := NewCatalogService(h.db, testutil.Logger(t), h.courses, h.quizzes)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, CourseInput{Title: " Linear Algebra ", Module: "Math", VideoID: "abc123"})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if c.Title != "Linear Algebra" || c.XP != 100 {
		t.Fatalf("CreateCourse defaults: got=%+v", c)
	}
	if _, err := svc.CreateCourse(ctx, CourseInput{Title: ""}); !errors.Is(err, apierr.ErrBadRequest) {
		t.Fatalf("CreateCourse blank: want bad request got=%v", err)
	}
	list, err := svc.ListCourses(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListCourses: len=%d err=%v", len(list), err)
	}

	lesson := "lesson-" + uuid.NewString()[:8]
	quiz, err := svc.CreateQuiz(ctx, lesson, []types.QuizQuestion{
		{Text: "Is a 2x2 identity invertible?", Type: "single", Options: []types.QuizOption{{Text: "Yes", IsCorrect: true}, {Text: "No"}}},
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if _, err := svc.CreateQuiz(ctx, lesson, []types.QuizQuestion{{Text: "q", Type: "essay"}}); !errors.Is(err, apierr.ErrBadRequest) {
		t.Fatalf("CreateQuiz invalid: want bad request got=%v", err)
	}
	got, err := svc.GetQuizByLesson(ctx, lesson)
	if err != nil || got.ID != quiz.ID || len(got.Questions) != 1 {
		t.Fatalf("GetQuizByLesson: quiz=%+v err=%v", got, err)
	}
	if err := svc.DeleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}
	if _, err := svc.GetQuizByLesson(ctx, lesson); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("GetQuizByLesson after delete: want not found got=%v", err)
	}

	if err := svc.DeleteCourse(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	if err := svc.DeleteCourse(ctx, c.ID); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("DeleteCourse twice: want not found got=%v", err)
	}
}
