package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/vici-backend/internal/http/response"
	"github.com/yungbote/vici-backend/internal/services"
)

type ActivityHandler struct {
	activityService services.ActivityService
}

func NewActivityHandler(activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// GET /api/activities?limit=20
func (h *ActivityHandler) List(c *gin.Context) {
	items, err := h.activityService.ListRecent(c.Request.Context(), intQuery(c, "limit", 20))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, items)
}
