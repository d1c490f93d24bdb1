package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/vici-backend/internal/http/response"
	"github.com/yungbote/vici-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type sessionResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
	ID       string `json:"_id"`
	XP       int    `json:"xp"`
	Level    int    `json:"level"`
}

func newSessionResponse(s *services.Session) sessionResponse {
	return sessionResponse{
		Token:    s.Token,
		Username: s.User.Username,
		Role:     s.User.Role,
		ID:       s.User.ID.String(),
		XP:       s.User.XP,
		Level:    s.User.Level,
	}
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=2,max=32"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	sess, err := ah.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, newSessionResponse(sess))
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
		Email      string `json:"email"`
		Password   string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}
	sess, err := ah.authService.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, newSessionResponse(sess))
}

// POST /api/auth/forgot-password
func (ah *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	if err := ah.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Reset link sent to your email."})
}

// POST /api/auth/reset-password/:token
func (ah *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, err)
		return
	}
	if err := ah.authService.CompleteReset(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Password updated. You can now log in."})
}
