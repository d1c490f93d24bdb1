package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/ctxutil"
	"github.com/yungbote/vici-backend/internal/platform/logger"
	"github.com/yungbote/vici-backend/internal/services"
)

// tokenAuth accepts tokens of the form "<role>:<username>".
type tokenAuth struct {
	services.AuthService
}

func (tokenAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	for i := 0; i < len(token); i++ {
		if token[i] == ':' {
			return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
				UserID:   uuid.New(),
				Role:     token[:i],
				Username: token[i+1:],
			}), nil
		}
	}
	return ctx, apierr.Unauthorized("Token is not valid")
}

func serve(t *testing.T, r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthAndRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), tokenAuth{})
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/me", am.RequireAuth(), ok)
	r.POST("/courses", am.RequireAuth(), RequireRole("instructor", "admin"), ok)
	r.GET("/courses", am.RequireAuth(), RequireRole("instructor", "admin"), ok)
	r.GET("/users/:username/requests", am.RequireAuth(), RequireSelf("username"), ok)
	r.GET("/open", am.OptionalAuth(), func(c *gin.Context) {
		if ctxutil.GetRequestData(c.Request.Context()) != nil {
			c.Status(http.StatusAccepted)
			return
		}
		c.Status(http.StatusOK)
	})

	require.Equal(t, http.StatusUnauthorized, serve(t, r, "/me", "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(t, r, "/me", "garbage").Code)
	require.Equal(t, http.StatusOK, serve(t, r, "/me", "scholar:ada").Code)

	require.Equal(t, http.StatusForbidden, serve(t, r, "/courses", "scholar:ada").Code)
	require.Equal(t, http.StatusOK, serve(t, r, "/courses", "instructor:turing").Code)

	require.Equal(t, http.StatusOK, serve(t, r, "/users/Ada/requests", "scholar:ada").Code)
	require.Equal(t, http.StatusForbidden, serve(t, r, "/users/bob/requests", "scholar:ada").Code)
	require.Equal(t, http.StatusOK, serve(t, r, "/users/bob/requests", "admin:root").Code)

	require.Equal(t, http.StatusOK, serve(t, r, "/open", "").Code)
	require.Equal(t, http.StatusOK, serve(t, r, "/open", "garbage").Code)
	require.Equal(t, http.StatusAccepted, serve(t, r, "/open", "scholar:ada").Code)
}

func TestRequestTimeoutSetsDeadline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTimeout(5 * time.Second))
	r.GET("/x", func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	require.Equal(t, http.StatusOK, serve(t, r, "/x", "").Code)
}
