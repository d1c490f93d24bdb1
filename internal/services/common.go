package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/ctxutil"
)

// Clock is swapped in tests that depend on the calendar day.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func requireActor(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("Authentication required")
	}
	return rd, nil
}

func sameUsername(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// canActAs reports whether the caller is the named user or an admin.
func canActAs(rd *ctxutil.RequestData, username string) bool {
	return rd != nil && (rd.IsAdmin() || sameUsername(rd.Username, username))
}
