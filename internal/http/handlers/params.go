package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/vici-backend/internal/http/response"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/ctxutil"
)

// uuidParam parses a route param, writing a 400 when it is not a UUID.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondErr(c, apierr.BadRequest("Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// caller returns the authenticated user; routes using it sit behind RequireAuth.
func caller(c *gin.Context) (*ctxutil.RequestData, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondErr(c, apierr.Unauthorized("Authentication required"))
		return nil, false
	}
	return rd, true
}
