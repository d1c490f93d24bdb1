package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/leaderboard"
	"github.com/yungbote/vici-backend/internal/data/repos"
	"github.com/yungbote/vici-backend/internal/data/repos/testutil"
	types "github.com/yungbote/vici-backend/internal/domain"
	"github.com/yungbote/vici-backend/internal/platform/ctxutil"
	"github.com/yungbote/vici-backend/internal/platform/dbctx"
	"github.com/yungbote/vici-backend/internal/platform/extract"
	"github.com/yungbote/vici-backend/internal/platform/storage"
)

type harness struct {
	db *gorm.DB

	users       repos.UserRepo
	badges      repos.BadgeRepo
	friends     repos.FriendRepo
	enrollments repos.EnrollmentRepo
	messages    repos.MessageRepo
	posts       repos.PostRepo
	courses     repos.CourseRepo
	quizzes     repos.QuizRepo
	materials   repos.MaterialRepo
	artifacts   repos.ArtifactRepo
	activities  repos.ActivityRepo

	board    *memBoard
	activity ActivityService
	progress *progressService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		db:          db,
		users:       repos.NewUserRepo(db, log),
		badges:      repos.NewBadgeRepo(db, log),
		friends:     repos.NewFriendRepo(db, log),
		enrollments: repos.NewEnrollmentRepo(db, log),
		messages:    repos.NewMessageRepo(db, log),
		posts:       repos.NewPostRepo(db, log),
		courses:     repos.NewCourseRepo(db, log),
		quizzes:     repos.NewQuizRepo(db, log),
		materials:   repos.NewMaterialRepo(db, log),
		artifacts:   repos.NewArtifactRepo(db, log),
		activities:  repos.NewActivityRepo(db, log),
		board:       newMemBoard(),
	}
	h.activity = NewActivityService(db, log, h.activities)
	h.progress = NewProgressService(db, log, h.users, h.badges, h.enrollments, h.courses, h.activity, h.board, nil).(*progressService)
	return h
}

func (h *harness) seedUser(t *testing.T, name string, xp int) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), h.db, name, xp)
}

func (h *harness) reload(t *testing.T, id uuid.UUID) *types.User {
	t.Helper()
	u, err := h.users.GetByID(dbctx.New(context.Background()), id)
	if err != nil || u == nil {
		t.Fatalf("reload user: u=%v err=%v", u, err)
	}
	return u
}

func asUser(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
}

func asAdmin(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:   u.ID,
		Username: u.Username,
		Role:     types.RoleAdmin,
	})
}

func fixedClock(day string) Clock {
	ts, err := time.Parse(dayLayout, day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts.Add(12 * time.Hour) }
}

type memBoard struct {
	mu     sync.Mutex
	scores map[string]int
	topErr error
}

func newMemBoard() *memBoard { return &memBoard{scores: map[string]int{}} }

func (b *memBoard) SetXP(_ context.Context, username string, xp int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scores[username] = xp
	return nil
}

func (b *memBoard) Remove(_ context.Context, username string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.scores, username)
	return nil
}

func (b *memBoard) Top(context.Context, int) ([]leaderboard.Entry, error) {
	if b.topErr != nil {
		return nil, b.topErr
	}
	return nil, leaderboard.ErrDisabled
}

func (b *memBoard) Close() error { return nil }

func (b *memBoard) score(username string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.scores[username]
	return v, ok
}

type fakeMailer struct {
	mu       sync.Mutex
	welcomes []string
	resets   []string
	err      error
}

func (m *fakeMailer) SendWelcome(_ context.Context, toEmail, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, toEmail)
	return m.err
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, _, _, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.resets = append(m.resets, resetURL)
	return nil
}

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	openErr   error
	deleteErr error
	deleted   []string
}

func newFakeStorage() *fakeStorage { return &fakeStorage{objects: map[string][]byte{}} }

func (s *fakeStorage) Put(_ context.Context, key, contentType string, data []byte) (storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return storage.Object{}, s.putErr
	}
	s.objects[key] = append([]byte(nil), data...)
	return storage.Object{Key: key, URL: "https://storage.example.com/" + key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (e *fakeExtractor) Extract(_ context.Context, doc extract.Document) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	if e.text != "" {
		return e.text, nil
	}
	return string(doc.Data), nil
}

type fakeAI struct {
	out     string
	err     error
	prompts []string
}

func (a *fakeAI) GenerateText(_ context.Context, _, user string) (string, error) {
	a.prompts = append(a.prompts, user)
	if a.err != nil {
		return "", a.err
	}
	return a.out, nil
}
