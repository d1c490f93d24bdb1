package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/vici-backend/internal/http/response"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/services"
)

type SocialHandler struct {
	socialService services.SocialService
}

func NewSocialHandler(socialService services.SocialService) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

// POST /api/social/request
func (h *SocialHandler) SendRequest(c *gin.Context) {
	var req struct {
		FromID string `json:"fromId" binding:"required,uuid"`
		ToID   string `json:"toId" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	rd, ok := caller(c)
	if !ok {
		return
	}
	fromID, _ := uuid.Parse(req.FromID)
	toID, _ := uuid.Parse(req.ToID)
	if fromID != rd.UserID && !rd.IsAdmin() {
		response.RespondErr(c, apierr.Forbidden("You can only send requests as yourself"))
		return
	}
	fr, err := h.socialService.SendFriendRequest(c.Request.Context(), fromID, toID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": "Request sent!", "request": fr})
}

// POST /api/social/respond
func (h *SocialHandler) Respond(c *gin.Context) {
	var req struct {
		UserID      string `json:"userId" binding:"required,uuid"`
		RequesterID string `json:"requesterId" binding:"required,uuid"`
		Action      string `json:"action" binding:"required,oneof=accept reject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	rd, ok := caller(c)
	if !ok {
		return
	}
	userID, _ := uuid.Parse(req.UserID)
	requesterID, _ := uuid.Parse(req.RequesterID)
	if userID != rd.UserID && !rd.IsAdmin() {
		response.RespondErr(c, apierr.Forbidden("You can only answer your own requests"))
		return
	}
	if err := h.socialService.RespondToFriendRequest(c.Request.Context(), userID, requesterID, req.Action); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Request " + req.Action + "ed"})
}

// POST /api/social/messages/send
func (h *SocialHandler) SendMessage(c *gin.Context) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to" binding:"required"`
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	rd, ok := caller(c)
	if !ok {
		return
	}
	from := strings.TrimSpace(req.From)
	if from == "" {
		from = rd.Username
	}
	if !strings.EqualFold(from, rd.Username) && !rd.IsAdmin() {
		response.RespondErr(c, apierr.Forbidden("You can only send messages as yourself"))
		return
	}
	msg, err := h.socialService.SendMessage(c.Request.Context(), from, req.To, req.Text)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, msg)
}

// GET /api/social/messages/:a/:b
func (h *SocialHandler) Conversation(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	a, b := c.Param("a"), c.Param("b")
	if !rd.IsAdmin() && !strings.EqualFold(a, rd.Username) && !strings.EqualFold(b, rd.Username) {
		response.RespondErr(c, apierr.Forbidden("You can only read your own conversations"))
		return
	}
	msgs, err := h.socialService.GetConversation(c.Request.Context(), a, b)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, msgs)
}
