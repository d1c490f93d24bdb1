package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/vici-backend/internal/data/repos/testutil"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
)

func TestCourseRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewCourseRepo(db, testutil.Logger(t))

	c, err := repo.Create(dbc, &types.Course{Title: testutil.Unique("Algebra"), Module: "Math"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.XP != 100 {
		t.Fatalf("Create xp default: want=100 got=%d", c.XP)
	}

	got, err := repo.GetByIDs(dbc, []uuid.UUID{c.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByIDs: got=%+v err=%v", got, err)
	}

	removed, err := repo.Delete(dbc, c.ID)
	if err != nil || !removed {
		t.Fatalf("Delete: want=true got=%v err=%v", removed, err)
	}
	removed, err = repo.Delete(dbc, c.ID)
	if err != nil || removed {
		t.Fatalf("Delete (missing): want=false got=%v err=%v", removed, err)
	}
}

func TestQuizRepoRoundTripsQuestions(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewQuizRepo(db, testutil.Logger(t))

	lesson := testutil.Unique("lesson")
	_, err := repo.Create(dbc, &types.Quiz{
		LessonID: lesson,
		Questions: []types.QuizQuestion{{
			Text:       "2+2?",
			Type:       "single",
			Difficulty: 1,
			Options:    []types.QuizOption{{Text: "4", IsCorrect: true}, {Text: "5"}},
		}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	q, err := repo.GetByLessonID(dbc, lesson)
	if err != nil || q == nil {
		t.Fatalf("GetByLessonID: got=%+v err=%v", q, err)
	}
	if len(q.Questions) != 1 || len(q.Questions[0].Options) != 2 || !q.Questions[0].Options[0].IsCorrect {
		t.Fatalf("GetByLessonID questions: unexpected %+v", q.Questions)
	}

	missing, err := repo.GetByLessonID(dbc, "nope-"+lesson)
	if err != nil || missing != nil {
		t.Fatalf("GetByLessonID (missing): got=%+v err=%v", missing, err)
	}
}
