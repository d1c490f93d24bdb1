package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/repos"
	"github.com/yungbote/vici-backend/internal/data/repos/testutil"
	types "github.com/yungbote/vici-backend/internal/domain"
	httpH "github.com/yungbote/vici-backend/internal/http/handlers"
	httpMW "github.com/yungbote/vici-backend/internal/http/middleware"
	"github.com/yungbote/vici-backend/internal/observability"
	"github.com/yungbote/vici-backend/internal/platform/extract"
	"github.com/yungbote/vici-backend/internal/platform/storage"
	"github.com/yungbote/vici-backend/internal/services"
)

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memStorage) Put(_ context.Context, key, contentType string, data []byte) (storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return storage.Object{Key: key, URL: "https://storage.test/" + key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (m *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type cannedAI struct{ out string }

func (a cannedAI) GenerateText(context.Context, string, string) (string, error) { return a.out, nil }

type silentMailer struct{}

func (silentMailer) SendWelcome(context.Context, string, string) error { return nil }
func (silentMailer) SendPasswordReset(context.Context, string, string, string) error {
	return nil
}

type testApp struct {
	db      *gorm.DB
	router  *gin.Engine
	store   *memStorage
	metrics *observability.Metrics
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	metrics := observability.NewMetrics("vici_test")
	store := &memStorage{objects: map[string][]byte{}}

	userRepo := repos.NewUserRepo(db, log)
	badgeRepo := repos.NewBadgeRepo(db, log)
	friendRepo := repos.NewFriendRepo(db, log)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)
	messageRepo := repos.NewMessageRepo(db, log)
	postRepo := repos.NewPostRepo(db, log)
	courseRepo := repos.NewCourseRepo(db, log)
	quizRepo := repos.NewQuizRepo(db, log)
	materialRepo := repos.NewMaterialRepo(db, log)
	artifactRepo := repos.NewArtifactRepo(db, log)
	activityRepo := repos.NewActivityRepo(db, log)

	authService := services.NewAuthService(db, log, userRepo, silentMailer{}, services.AuthConfig{
		JWTSecret:  "router-test-secret",
		ClientURL:  "https://vici.example.com",
		BcryptCost: 4,
	})
	activity := services.NewActivityService(db, log, activityRepo)
	progress := services.NewProgressService(db, log, userRepo, badgeRepo, enrollmentRepo, courseRepo, activity, nil, metrics)
	userService := services.NewUserService(db, log, userRepo, badgeRepo, friendRepo, enrollmentRepo, nil)
	social := services.NewSocialService(db, log, userRepo, friendRepo, messageRepo, activity)
	forum := services.NewForumService(db, log, userRepo, postRepo, activity)
	catalog := services.NewCatalogService(db, log, courseRepo, quizRepo)
	vault := services.NewVaultService(db, log, materialRepo, artifactRepo, store, extract.New(time.Second),
		cannedAI{out: "```json\n[{\"question\":\"Q\",\"answer\":\"A\"}]\n```"}, progress, metrics, services.VaultConfig{})

	router := NewRouter(RouterConfig{
		Log:             log,
		Metrics:         metrics,
		RequestTimeout:  5 * time.Second,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, authService),
		AuthHandler:     httpH.NewAuthHandler(authService),
		UserHandler:     httpH.NewUserHandler(log, userService, progress, social),
		SocialHandler:   httpH.NewSocialHandler(social),
		PostHandler:     httpH.NewPostHandler(forum),
		CourseHandler:   httpH.NewCourseHandler(catalog),
		QuizHandler:     httpH.NewQuizHandler(catalog),
		ActivityHandler: httpH.NewActivityHandler(activity),
		VaultHandler:    httpH.NewVaultHandler(log, vault, 0),
		HealthHandler:   httpH.NewHealthHandler(),
	})
	return &testApp{db: db, router: router, store: store, metrics: metrics}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	ID       string `json:"_id"`
	Role     string `json:"role"`
}

func (a *testApp) register(t *testing.T, name string) session {
	t.Helper()
	username := testutil.Unique(name)
	w := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    strings.ToLower(username) + "@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var s session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	return s
}

func (a *testApp) promote(t *testing.T, s session, role string) session {
	t.Helper()
	require.NoError(t, a.db.Model(&types.User{}).Where("username = ?", s.Username).Update("role", role).Error)
	w := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": s.Username,
		"password":   "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, role, out.Role)
	return out
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestStatusAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decode(t, w)["status"])

	w = app.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "vici_test_http_requests_total")
}

func TestRegisterLoginAndProfile(t *testing.T) {
	app := newTestApp(t)
	s := app.register(t, "ada")
	require.NotEmpty(t, s.Token)
	require.Equal(t, types.RoleScholar, s.Role)

	w := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"identifier": s.Username, "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodGet, "/api/users/"+s.Username, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/users/nobody_here", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	envelope, _ := decode(t, w)["error"].(map[string]any)
	require.Equal(t, "not_found", envelope["code"])
}

func TestProgressRequiresSelf(t *testing.T) {
	app := newTestApp(t)
	ada := app.register(t, "ada")
	bob := app.register(t, "bob")

	body := map[string]any{"xpEarned": 100, "action": "finished a lesson"}
	w := app.do(t, http.MethodPut, "/api/users/"+ada.Username+"/progress", "", body)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPut, "/api/users/"+ada.Username+"/progress", bob.Token, body)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPut, "/api/users/"+ada.Username+"/progress", ada.Token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	require.EqualValues(t, 100, out["xp"])

	w = app.do(t, http.MethodPut, "/api/users/"+ada.Username+"/progress", ada.Token, map[string]any{"xpEarned": 6000})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/api/activities", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "finished a lesson")
}

func TestCourseWritesNeedStaff(t *testing.T) {
	app := newTestApp(t)
	student := app.register(t, "stu")
	instructor := app.promote(t, app.register(t, "prof"), types.RoleInstructor)

	course := map[string]any{"title": "Calculus I", "module": "Limits", "xp": 200}
	w := app.do(t, http.MethodPost, "/api/courses", student.Token, course)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPost, "/api/courses", instructor.Token, course)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/courses", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Calculus I")
}

func TestBanIsAdminOnly(t *testing.T) {
	app := newTestApp(t)
	target := app.register(t, "troll")
	other := app.register(t, "peer")
	admin := app.promote(t, app.register(t, "root"), types.RoleAdmin)

	w := app.do(t, http.MethodPut, "/api/users/"+target.Username+"/ban", other.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPut, "/api/users/"+target.Username+"/ban", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"identifier": target.Username, "password": "correct-horse"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestForumFlow(t *testing.T) {
	app := newTestApp(t)
	ada := app.register(t, "ada")
	bob := app.register(t, "bob")

	w := app.do(t, http.MethodPost, "/api/posts", ada.Token, map[string]string{"content": "How do limits work?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	postID, _ := decode(t, w)["id"].(string)
	require.NotEmpty(t, postID)

	w = app.do(t, http.MethodPut, "/api/posts/"+postID, bob.Token, map[string]string{"content": "hijacked"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPut, "/api/posts/"+postID+"/like", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodPut, "/api/posts/not-a-uuid/like", bob.Token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func uploadRequest(t *testing.T, token, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Week 1 notes"))
	require.NoError(t, mw.WriteField("category", "Biology"))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/study-vault/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestStudyVaultUploadAndGenerate(t *testing.T) {
	app := newTestApp(t)
	ada := app.register(t, "ada")

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, uploadRequest(t, ada.Token, "notes.txt", []byte("Mitochondria are the powerhouse of the cell.")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decode(t, w)
	require.Equal(t, "Material indexed! +50 XP", out["message"])
	material, _ := out["data"].(map[string]any)
	require.Equal(t, types.MaterialTextExtracted, material["status"])
	materialID, _ := material["id"].(string)
	require.Len(t, app.store.objects, 1)

	w = app.do(t, http.MethodPost, "/api/study-vault/generate-study-material", ada.Token, map[string]any{
		"materialId": materialID,
		"type":       types.ArtifactFlashcards,
		"count":      5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, `[{"question":"Q","answer":"A"}]`, decode(t, w)["data"])

	w = app.do(t, http.MethodGet, "/api/study-vault/user/"+ada.ID, ada.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), materialID)

	w = app.do(t, http.MethodGet, "/api/study-vault/"+materialID+"/artifacts", ada.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), types.ArtifactFlashcards)

	w = app.do(t, http.MethodDelete, "/api/study-vault/"+materialID, ada.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Empty(t, app.store.objects)
}

func TestStudyVaultRejectsStrangers(t *testing.T) {
	app := newTestApp(t)
	ada := app.register(t, "ada")
	eve := app.register(t, "eve")

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, uploadRequest(t, ada.Token, "notes.txt", []byte("Photosynthesis converts light into energy.")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	material, _ := decode(t, w)["data"].(map[string]any)
	materialID, _ := material["id"].(string)

	w = app.do(t, http.MethodPost, "/api/study-vault/generate-study-material", eve.Token, map[string]any{
		"materialId": materialID,
		"type":       types.ArtifactSummary,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// A body userId cannot borrow the owner's identity; the token decides.
	w = app.do(t, http.MethodPost, "/api/study-vault/generate-study-material", eve.Token, map[string]any{
		"materialId": materialID,
		"userId":     ada.ID,
		"type":       types.ArtifactSummary,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodGet, "/api/study-vault/user/"+ada.ID, "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
