package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/vici-backend/internal/http/response"
	"github.com/yungbote/vici-backend/internal/platform/apierr"
	"github.com/yungbote/vici-backend/internal/platform/logger"
	"github.com/yungbote/vici-backend/internal/services"
)

type UserHandler struct {
	log             *logger.Logger
	userService     services.UserService
	progressService services.ProgressService
	socialService   services.SocialService
}

func NewUserHandler(
	log *logger.Logger,
	userService services.UserService,
	progressService services.ProgressService,
	socialService services.SocialService,
) *UserHandler {
	return &UserHandler{
		log:             log.With("handler", "UserHandler"),
		userService:     userService,
		progressService: progressService,
		socialService:   socialService,
	}
}

// GET /api/users/leaderboard
func (h *UserHandler) Leaderboard(c *gin.Context) {
	rows, err := h.userService.Leaderboard(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /api/users/:username
func (h *UserHandler) GetProfile(c *gin.Context) {
	p, err := h.userService.GetProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, p)
}

// GET /api/users/:username/friends-leaderboard
func (h *UserHandler) FriendsLeaderboard(c *gin.Context) {
	rows, err := h.userService.FriendsLeaderboard(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// PUT /api/users/:username
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		Avatar        *string `json:"avatar" binding:"omitempty,max=512"`
		Major         *string `json:"major" binding:"omitempty,max=128"`
		AcademicLevel *string `json:"academicLevel" binding:"omitempty,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	u, err := h.userService.UpdateProfile(c.Request.Context(), c.Param("username"), services.ProfileUpdate{
		Avatar:        req.Avatar,
		Major:         req.Major,
		AcademicLevel: req.AcademicLevel,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, u)
}

// PUT /api/users/:username/progress
func (h *UserHandler) UpdateProgress(c *gin.Context) {
	var req struct {
		XPEarned int    `json:"xpEarned" binding:"min=0,max=5000"`
		CourseID string `json:"courseId"`
		Action   string `json:"action" binding:"max=120"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	ev := services.XpEvent{
		Amount:      req.XPEarned,
		Action:      strings.TrimSpace(req.Action),
		Source:      "progress",
		StreakBonus: true,
	}
	if ev.Action == "" {
		ev.Action = "made progress"
	}
	if raw := strings.TrimSpace(req.CourseID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondErr(c, apierr.BadRequest("Invalid courseId"))
			return
		}
		ev.CourseID = &id
	}
	res, err := h.progressService.ApplyXp(c.Request.Context(), c.Param("username"), ev)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// PUT /api/users/:username/enroll
func (h *UserHandler) Enroll(c *gin.Context) {
	var req struct {
		CourseID string `json:"courseId" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	courseID, _ := uuid.Parse(req.CourseID)
	if err := h.progressService.Enroll(c.Request.Context(), c.Param("username"), courseID); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Enrolled"})
}

// targetID resolves the :username param, short-circuiting when it is the caller.
func (h *UserHandler) targetID(c *gin.Context) (uuid.UUID, bool) {
	rd, ok := caller(c)
	if !ok {
		return uuid.Nil, false
	}
	username := c.Param("username")
	if strings.EqualFold(rd.Username, strings.TrimSpace(username)) {
		return rd.UserID, true
	}
	p, err := h.userService.GetProfile(c.Request.Context(), username)
	if err != nil {
		response.RespondErr(c, err)
		return uuid.Nil, false
	}
	return p.ID, true
}

// GET /api/users/:username/requests
func (h *UserHandler) PendingRequests(c *gin.Context) {
	userID, ok := h.targetID(c)
	if !ok {
		return
	}
	reqs, err := h.socialService.ListPendingRequests(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, reqs)
}

// POST /api/users/:username/request sends the caller's request to :username.
func (h *UserHandler) SendRequest(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	req, err := h.socialService.SendFriendRequestTo(c.Request.Context(), rd.UserID, c.Param("username"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": "Request sent!", "request": req})
}

// POST /api/users/:username/accept
func (h *UserHandler) RespondRequest(c *gin.Context) {
	var req struct {
		Requester string `json:"requester" binding:"required"`
		Action    string `json:"action" binding:"omitempty,oneof=accept reject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	userID, ok := h.targetID(c)
	if !ok {
		return
	}
	action := req.Action
	if action == "" {
		action = services.FriendActionAccept
	}
	if err := h.socialService.RespondToFriendRequestFrom(c.Request.Context(), userID, req.Requester, action); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Request " + action + "ed"})
}

// PUT /api/users/:username/ban
func (h *UserHandler) SetBanned(c *gin.Context) {
	var req struct {
		Banned *bool `json:"banned"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondInvalid(c, err)
			return
		}
	}
	banned := true
	if req.Banned != nil {
		banned = *req.Banned
	}
	u, err := h.userService.SetBanned(c.Request.Context(), c.Param("username"), banned)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	h.log.Info("Ban status changed", "target_user_id", u.ID, "banned", banned)
	response.RespondOK(c, u)
}
