package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/vici-backend/internal/platform/apierr"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorEnvelope, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondErr(c, err)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env, c
}

func TestRespondErrUsesTypedStatus(t *testing.T) {
	rec, env, c := render(t, apierr.RateLimited("AI is busy", errors.New("429 from provider")))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "AI is busy", env.Error.Message)
	require.Equal(t, apierr.CodeRateLimited, env.Error.Code)
	require.Len(t, c.Errors, 1)
}

func TestRespondErrHidesUntypedCauses(t *testing.T) {
	rec, env, _ := render(t, errors.New("pq: relation \"user\" does not exist"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, apierr.CodeInternal, env.Error.Code)
	require.NotContains(t, env.Error.Message, "pq:")
}

func TestRespondErrNoContentIs422(t *testing.T) {
	rec, env, _ := render(t, apierr.NoContent("Limited readable text extracted."))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, apierr.CodeNoContent, env.Error.Code)
}

func TestRespondInvalidHidesValidatorDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondInvalid(c, errors.New("Key: 'req.Email' Error:Field validation for 'Email' failed on the 'required' tag"))

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid request", env.Error.Message)
	require.Equal(t, apierr.CodeBadRequest, env.Error.Code)
	require.Len(t, c.Errors, 1)
	require.True(t, c.IsAborted())
}
